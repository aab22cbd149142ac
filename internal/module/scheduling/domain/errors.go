package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrConfig は設定不備（未知のデータベース識別子・未登録ステップ名など）のエラー
	ErrConfig = errors.New("configuration error")

	// ErrNotFound はスケジュール・タスク・ユーザーが解決できない場合のエラー
	ErrNotFound = errors.New("not found")

	// ErrInvalidTask は指定タスクが未着手の実行エントリポイントでない場合のエラー
	ErrInvalidTask = errors.New("invalid task identifier")
)

// RunFailure は abort_on_failure 付きステップの失敗で実行全体を打ち切ったことを表します
type RunFailure struct {
	Step  int
	Total int
}

func (e *RunFailure) Error() string {
	return fmt.Sprintf("Failed at step %d of %d", e.Step, e.Total)
}

// TimerError は外部ワンショットタイマーの登録失敗を表します
// 収穫済みのタスクはコミット済みのため、手動での再起動が必要な状態です
type TimerError struct {
	Database string
	At       time.Time
	Err      error
}

func (e *TimerError) Error() string {
	return fmt.Sprintf("failed to arm timer for database %q at %s: %v", e.Database, e.At.Format(time.RFC3339), e.Err)
}

func (e *TimerError) Unwrap() error {
	return e.Err
}
