package application

import (
	"context"
	"errors"
	"time"
)

// RunDueResult は run-due-schedules の実行結果です
type RunDueResult struct {
	Harvest    *HarvestResult
	NextWakeUp *time.Time
}

// Scheduler は収穫とタイマー再設定をまとめたユースケースです
type Scheduler struct {
	harvester *Harvester
	rearmer   *Rearmer
}

// NewScheduler は新しいSchedulerを作成します
func NewScheduler(harvester *Harvester, rearmer *Rearmer) *Scheduler {
	return &Scheduler{harvester: harvester, rearmer: rearmer}
}

// RunDueSchedules は期限到来スケジュールを収穫し、次回起動のタイマーを設定します
// 収穫自体が失敗した場合はタイマーを触りません。
// ワーカー起動合図だけが失敗した場合でもタイマーの再設定は行い、両方のエラーを返します。
func (s *Scheduler) RunDueSchedules(ctx context.Context, database string) (*RunDueResult, error) {
	harvest, harvestErr := s.harvester.Harvest(ctx, database)
	if harvest == nil {
		return nil, harvestErr
	}

	next, rearmErr := s.rearmer.Rearm(ctx, database)
	return &RunDueResult{Harvest: harvest, NextWakeUp: next}, errors.Join(harvestErr, rearmErr)
}
