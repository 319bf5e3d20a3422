// Package cleanup は期限切れセッションの自動削除ジョブを提供する。
// ワーカーの起動直後に1回、以降は一定間隔で実行する。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/blog/internal/metrics"
)

// SessionPurger は期限切れセッションの削除を行うインターフェース。
// repository.SessionRepository が満たす。
type SessionPurger interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// CleanupJob は期限切れセッションを削除するジョブ。
// 削除対象がない場合もエラーにならない。
type CleanupJob struct {
	sessions SessionPurger
	logger   *slog.Logger
	metrics  metrics.MetricsCollector
}

// NewCleanupJob は新しいCleanupJobを生成する。collectorがnilの場合はメトリクスを記録しない。
func NewCleanupJob(sessions SessionPurger, logger *slog.Logger, collector metrics.MetricsCollector) *CleanupJob {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	return &CleanupJob{
		sessions: sessions,
		logger:   logger,
		metrics:  collector,
	}
}

// Run は期限切れセッションを1回削除する。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	deleted, err := j.sessions.DeleteExpired(ctx)
	if err != nil {
		j.logger.Error("期限切れセッションの削除に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("セッションクリーンアップに失敗: %w", err)
	}

	j.metrics.RecordSessionsCleaned(deleted)
	j.logger.Info("期限切れセッションを削除しました",
		slog.Int64("deleted_count", deleted),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	return nil
}

// Start は起動直後に1回Runを実行し、以降はintervalごとに実行する。
// ctxがキャンセルされるまでブロックする。実行エラーはログに記録して継続する。
func (j *CleanupJob) Start(ctx context.Context, interval time.Duration) {
	j.runOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("セッションクリーンアップジョブを停止しました")
			return
		case <-ticker.C:
			j.runOnce(ctx)
		}
	}
}

func (j *CleanupJob) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	// エラーはRun内でログ出力済み
	_ = j.Run(ctx)
}
