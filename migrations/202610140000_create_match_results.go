package migrations

import (
	"kingcatserver/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Migrate はスキーマを最新にする。何度実行しても安全
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	if err := db.AutoMigrate(&models.MatchResult{}); err != nil {
		logger.Error("match_results のマイグレーションに失敗しました", zap.Error(err))
		return err
	}
	logger.Info("Migration completed", zap.String("table", "match_results"))
	return nil
}
