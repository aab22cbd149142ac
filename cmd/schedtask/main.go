package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/jinford/schedtask/cmd/schedtask/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func envFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "env",
		Usage: "環境変数ファイルパス",
		Value: ".env",
	}
}

func databaseFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "database",
		Usage: "対象データベース識別子",
		Value: "default",
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "schedtask",
		Usage: "データベースに定義したスケジュールを外部タイマーで起動するタスクスケジューラ",
		Commands: []*cli.Command{
			{
				Name:  "scheduletasks",
				Usage: "期限到来スケジュールの収穫、または指定スケジュールの実行",
				Flags: []cli.Flag{
					envFlag(),
					databaseFlag(),
					&cli.StringFlag{
						Name:  "schedule",
						Usage: "実行するスケジュール名（未指定時は期限到来スケジュールを収穫）",
					},
					&cli.StringFlag{
						Name:  "task",
						Usage: "親タスクとして使う既存タスクのID",
					},
					&cli.StringFlag{
						Name:  "user",
						Usage: "実行ユーザー名",
					},
				},
				Action: commands.ScheduleTasksAction,
			},
			{
				Name:  "worker",
				Usage: "Waiting タスクを古い順に処理",
				Flags: []cli.Flag{
					envFlag(),
					databaseFlag(),
				},
				Action: commands.WorkerAction,
			},
			{
				Name:  "migrate",
				Usage: "スキーマを適用",
				Flags: []cli.Flag{
					envFlag(),
					databaseFlag(),
				},
				Action: commands.MigrateAction,
			},
			{
				Name:  "schedule",
				Usage: "スケジュール管理コマンド",
				Commands: []*cli.Command{
					{
						Name:  "list",
						Usage: "スケジュール一覧を表示",
						Flags: []cli.Flag{
							envFlag(),
							databaseFlag(),
						},
						Action: commands.ScheduleListAction,
					},
					{
						Name:  "show",
						Usage: "スケジュールのステップ構成を表示",
						Flags: []cli.Flag{
							envFlag(),
							databaseFlag(),
							&cli.StringFlag{
								Name:     "name",
								Usage:    "スケジュール名",
								Required: true,
							},
						},
						Action: commands.ScheduleShowAction,
					},
				},
			},
			{
				Name:  "task",
				Usage: "タスク管理コマンド",
				Commands: []*cli.Command{
					{
						Name:  "show",
						Usage: "タスクの状態を表示",
						Flags: []cli.Flag{
							envFlag(),
							databaseFlag(),
							&cli.StringFlag{
								Name:     "id",
								Usage:    "タスクID",
								Required: true,
							},
						},
						Action: commands.TaskShowAction,
					},
				},
			},
		},
	}
}
