package utils

import (
	"context"
	"time"

	"kingcatserver/kingcat/session"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ResultPruner deletes old match results.
type ResultPruner interface {
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// CronCleaner は定期ジョブを登録して開始する。pruner が nil か
// retentionDays が0以下なら結果の削除は登録しない
func CronCleaner(registry *session.Registry, pruner ResultPruner, retentionDays int, logger *zap.Logger) (*cron.Cron, error) {
	c := cron.New()

	if _, err := c.AddFunc("@every 10m", func() { LogRoomStats(registry, logger) }); err != nil {
		return nil, err
	}

	// 古い試合結果を削除するジョブ（"分 時 日 月 曜日"）
	if pruner != nil && retentionDays > 0 {
		_, err := c.AddFunc("0 3 * * *", func() {
			PruneResults(context.Background(), pruner, time.Now().AddDate(0, 0, -retentionDays), logger)
		})
		if err != nil {
			return nil, err
		}
	}

	c.Start()
	return c, nil
}

func LogRoomStats(registry *session.Registry, logger *zap.Logger) {
	stats := registry.Stats()
	logger.Info("Room stats", zap.Int("rooms", stats.Rooms), zap.Int("activeGames", stats.ActiveGames))
}

func PruneResults(ctx context.Context, pruner ResultPruner, cutoff time.Time, logger *zap.Logger) {
	logger.Info("古い試合結果を削除する処理を開始", zap.Time("cutoff", cutoff))
	n, err := pruner.PruneBefore(ctx, cutoff)
	if err != nil {
		logger.Error("試合結果の削除に失敗しました", zap.Error(err))
		return
	}
	logger.Info("試合結果の削除完了", zap.Int64("results_deleted", n))
}
