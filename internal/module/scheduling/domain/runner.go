package domain

import (
	"context"
	"time"
)

// StepRunner はタスクを実行エンジンに渡し、終了状態になるまでブロックします
// エラーはアダプター自体の失敗のみを表し、ステップの失敗はタスクの状態で表現します
type StepRunner interface {
	RunTask(ctx context.Context, database string, task *Task) error
}

// WorkerLauncher は Waiting タスクを処理するワーカーの起動を合図します
type WorkerLauncher interface {
	LaunchWorker(ctx context.Context, database string) error
}

// Timer は「指定時刻に run-due-schedules(database) を一度起動する」外部タイマーです
// 同じデータベースへの再登録は以前の登録を置き換えます
type Timer interface {
	Arm(ctx context.Context, database string, at time.Time) error
}

// StepCatalog は登録済みステップ名を検証します
type StepCatalog interface {
	Validate(names []string) error
}

// WorkerLock はデータベースごとに同時に動くワーカーを1つに制限します
type WorkerLock interface {
	// TryAcquire は待たずに取得を試みます。他で保持中なら acquired=false を返します
	TryAcquire(ctx context.Context, database string) (release func(), acquired bool, err error)
}
