package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"kingcatserver/migrations"
	"kingcatserver/models"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// LoadConfig reads the JSON config file, then applies .env and environment
// overrides. A missing file leaves the defaults in place.
func LoadConfig(filename string) (models.Config, error) {
	config := models.DefaultConfig()
	configFile, err := os.Open(filename)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return config, err
	default:
		defer configFile.Close()
		if err := json.NewDecoder(configFile).Decode(&config); err != nil {
			return config, fmt.Errorf("decode %s: %w", filename, err)
		}
	}

	// .env は無くてもよい
	_ = godotenv.Load()
	return config, applyEnv(&config)
}

func applyEnv(config *models.Config) error {
	strs := map[string]*string{
		"PORT":           &config.Port,
		"DB_HOST":        &config.DBHost,
		"DB_USER":        &config.DBUser,
		"DB_NAME":        &config.DBName,
		"DB_PASSWORD":    &config.DBPassword,
		"DB_SSLMODE":     &config.DBSSLMode,
		"REDIS_ADDR":     &config.RedisAddr,
		"REDIS_PASSWORD": &config.RedisPass,
		"NATS_URL":       &config.NatsURL,
		"JWT_SECRET":     &config.JwtSecret,
		"CATALOG_FILE":   &config.CatalogFile,
		"LOG_LEVEL":      &config.LogLevel,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	ints := map[string]*int{
		"REDIS_DB":    &config.RedisDB,
		"MAX_PLAYERS": &config.MaxPlayers,
	}
	for key, dst := range ints {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
	}
	if v, ok := os.LookupEnv("REQUIRE_AUTH"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("REQUIRE_AUTH: %w", err)
		}
		config.RequireAuth = b
	}
	return nil
}

// InitPostgreSQL connects with retries and migrates the schema. An empty
// DBHost disables the database and returns nil.
func InitPostgreSQL(config models.Config, logger *zap.Logger) (*gorm.DB, error) {
	if config.DBHost == "" {
		logger.Info("DB_HOST not set, match results will not be stored")
		return nil, nil
	}
	dsn := fmt.Sprintf("host=%s user=%s dbname=%s password=%s sslmode=%s",
		config.DBHost, config.DBUser, config.DBName, config.DBPassword, config.DBSSLMode)

	const maxRetries = 3
	const retryInterval = 5 * time.Second
	var err error
	for i := 0; i <= maxRetries; i++ {
		var gormDB *gorm.DB
		gormDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err == nil {
			if err := migrations.Migrate(gormDB, logger); err != nil {
				return nil, err
			}
			return gormDB, nil
		}
		logger.Error("データベース接続のリトライ", zap.Int("retry", i), zap.Error(err))
		time.Sleep(retryInterval)
	}
	return nil, fmt.Errorf("データベース接続に失敗しました: %w", err)
}

// InitRedis returns nil when no address is configured.
func InitRedis(config models.Config, logger *zap.Logger) (*redis.Client, error) {
	if config.RedisAddr == "" {
		logger.Info("REDIS_ADDR not set, using the in-memory user directory")
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr,
		Password: config.RedisPass,
		DB:       config.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		logger.Error("Failed to connect to Redis", zap.Error(err))
		return nil, err
	}

	logger.Info("Connected to Redis")
	return rdb, nil
}

// InitNATS returns nil when no URL is configured.
func InitNATS(config models.Config, logger *zap.Logger) (*nats.Conn, error) {
	if config.NatsURL == "" {
		logger.Info("NATS_URL not set, match events will not be published")
		return nil, nil
	}
	opts := []nats.Option{
		nats.Name("kingcat-server"),
		nats.Timeout(10 * time.Second),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(5),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("NATS disconnected", zap.Error(err))
		}),
	}
	nc, err := nats.Connect(config.NatsURL, opts...)
	if err != nil {
		logger.Error("Failed to connect to NATS", zap.Error(err))
		return nil, err
	}
	logger.Info("Connected to NATS", zap.String("url", nc.ConnectedUrl()))
	return nc, nil
}
