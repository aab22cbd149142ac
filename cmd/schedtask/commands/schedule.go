package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"

	"github.com/jinford/schedtask/internal/module/scheduling/domain"
)

// ScheduleListAction はスケジュール一覧を表示するコマンドのアクション
func ScheduleListAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")
	alias := cmd.String("database")

	appCtx, err := NewAppContext(ctx, envFile, alias)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	schedules, err := appCtx.Container.Schedules.List(ctx)
	if err != nil {
		return fmt.Errorf("スケジュールの取得に失敗: %w", err)
	}

	if len(schedules) == 0 {
		fmt.Println("スケジュールはありません")
		return nil
	}

	renderSchedulesTable(os.Stdout, schedules)
	return nil
}

// ScheduleShowAction はスケジュールのステップ構成を表示するコマンドのアクション
func ScheduleShowAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")
	alias := cmd.String("database")
	name := cmd.String("name")

	appCtx, err := NewAppContext(ctx, envFile, alias)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	schedule, err := appCtx.Container.Schedules.GetByName(ctx, name)
	if err != nil {
		return fmt.Errorf("スケジュールの取得に失敗: %w", err)
	}

	fmt.Printf("\n=== スケジュール詳細 ===\n\n")
	fmt.Printf("Name:        %s\n", schedule.Name)
	fmt.Printf("Recurrence:  %s\n", valueOrDash(schedule.Recurrence))
	fmt.Printf("Next Run:    %s\n", formatTime(schedule.NextRun))
	fmt.Println()

	if err := appCtx.Container.Catalog.Validate(schedule.StepNames()); err != nil {
		fmt.Printf("警告: %v\n\n", err)
	}

	renderStepsTable(os.Stdout, schedule.Steps)
	return nil
}

// renderSchedulesTable はスケジュール一覧をテーブル表示します
func renderSchedulesTable(w io.Writer, schedules []*domain.Schedule) {
	table := tablewriter.NewWriter(w)
	table.Header("Name", "Recurrence", "Next Run", "Steps")

	for _, s := range schedules {
		table.Append(
			s.Name,
			valueOrDash(s.Recurrence),
			formatTime(s.NextRun),
			strconv.Itoa(len(s.Steps)),
		)
	}

	table.Render()
}

// renderStepsTable はステップ構成をテーブル表示します
func renderStepsTable(w io.Writer, steps []domain.Step) {
	table := tablewriter.NewWriter(w)
	table.Header("#", "Step", "Arguments", "Abort On Failure")

	for i, step := range steps {
		table.Append(
			strconv.Itoa(i+1),
			step.Name,
			valueOrDash(step.Arguments),
			strconv.FormatBool(step.AbortOnFailure),
		)
	}

	table.Render()
}

func valueOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
