package models

// Config 構造体はサーバー全体の設定情報を保持します。
type Config struct {
	Port        string `json:"port"`
	DBHost      string `json:"db_host"`
	DBUser      string `json:"db_user"`
	DBPassword  string `json:"db_password"`
	DBName      string `json:"db_name"`
	DBSSLMode   string `json:"db_sslmode"`
	RedisAddr   string `json:"redis_addr"`
	RedisPass   string `json:"redis_password"`
	RedisDB     int    `json:"redis_db"`
	NatsURL     string `json:"nats_url"`
	JwtSecret   string `json:"jwt_secret"`
	RequireAuth bool   `json:"require_auth"`
	MaxPlayers  int    `json:"max_players"`
	CatalogFile string `json:"catalog_file"`
	// 試合結果を保持する日数。0以下なら削除しない
	ResultRetentionDays int      `json:"result_retention_days"`
	AllowOrigins        []string `json:"allow_origins"`
	LogLevel            string   `json:"log_level"`
}

// DefaultConfig はconfig.jsonが無い場合の設定
func DefaultConfig() Config {
	return Config{
		Port:                "8080",
		DBSSLMode:           "disable",
		MaxPlayers:          6,
		ResultRetentionDays: 30,
		AllowOrigins:        []string{"http://localhost:5173"},
	}
}
