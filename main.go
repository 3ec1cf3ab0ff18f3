package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"kingcatserver/database" //設定読み込み、PostgreSQL・Redis・NATSの初期化
	"kingcatserver/kingcat"  //WebSocket接続の処理
	"kingcatserver/kingcat/actions"
	"kingcatserver/kingcat/broadcast"
	kcdb "kingcatserver/kingcat/database"
	"kingcatserver/kingcat/engine"
	"kingcatserver/kingcat/session"
	"kingcatserver/middlewares"
	"kingcatserver/screens" //HTTPハンドラー
	"kingcatserver/utils"   //ロガーとCronジョブ

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	config, err := database.LoadConfig("config.json")
	if err != nil {
		panic(err)
	}
	logger, err := utils.InitLogger(config.LogLevel) // ロガーの初期化
	if err != nil {
		panic(err) // 失敗した場合はプログラム停止
	}
	defer logger.Sync()

	catalog := engine.DefaultCatalog()
	if config.CatalogFile != "" {
		catalog, err = engine.LoadCatalog(config.CatalogFile)
		if err != nil {
			logger.Fatal("カードカタログの読み込みに失敗しました", zap.Error(err))
		}
	}

	// 非同期でPostgreSQL・Redis・NATSを初期化
	initDone := make(chan error, 3)
	var (
		store     *database.ResultStore
		users     kcdb.UserDirectory = kcdb.NewMemoryDirectory()
		publisher *broadcast.Publisher
	)
	go func() {
		db, err := database.InitPostgreSQL(config, logger)
		if err == nil && db != nil {
			store = database.NewResultStore(db)
		}
		initDone <- err
	}()
	go func() {
		rdb, err := database.InitRedis(config, logger)
		if err == nil && rdb != nil {
			users = kcdb.NewRedisDirectory(rdb, logger)
		}
		initDone <- err
	}()
	go func() {
		nc, err := database.InitNATS(config, logger)
		if err == nil && nc != nil {
			publisher = broadcast.NewPublisher(nc, logger)
		}
		initDone <- err
	}()
	for i := 0; i < 3; i++ {
		if err := <-initDone; err != nil {
			logger.Fatal("初期化に失敗しました", zap.Error(err))
		}
	}

	registry := session.NewRegistry(catalog, config.MaxPlayers)
	hub := broadcast.NewHub(logger)
	opts := []actions.Option{actions.WithUserDirectory(users)}
	if store != nil {
		opts = append(opts, actions.WithResultRecorder(store))
	}
	if publisher != nil {
		opts = append(opts, actions.WithPublisher(publisher))
	}
	dispatcher := actions.NewDispatcher(registry, hub, logger, opts...)

	if config.JwtSecret == "" {
		logger.Warn("JWT_SECRET not set, using an insecure development secret")
		config.JwtSecret = "kingcat-dev-secret"
	}
	issuer := middlewares.NewTokenIssuer(config.JwtSecret)
	wsHandler := kingcat.NewHandler(kingcat.HandlerConfig{
		Hub:         hub,
		Dispatcher:  dispatcher,
		Users:       users,
		Issuer:      issuer,
		RequireAuth: config.RequireAuth,
		CheckOrigin: allowedOrigin(config.AllowOrigins),
	}, logger)

	// クーロンスケジューラのセットアップと呼び出し
	var pruner utils.ResultPruner
	if store != nil {
		pruner = store
	}
	scheduler, err := utils.CronCleaner(registry, pruner, config.ResultRetentionDays, logger)
	if err != nil {
		logger.Fatal("Cronジョブの登録に失敗しました", zap.Error(err))
	}
	defer scheduler.Stop()

	router := gin.New()
	router.Use(gin.Recovery(), utils.RequestLogger(logger))
	//CORS（Cross-Origin Resource Sharing）ポリシーを設定
	corsConfig := cors.Config{
		AllowOrigins:     config.AllowOrigins,
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}
	router.Use(cors.New(corsConfig))

	router.GET("/ws", func(c *gin.Context) {
		wsHandler.HandleConnections(c.Writer, c.Request)
	})
	router.POST("/auth/guest", func(c *gin.Context) {
		screens.GuestAuth(c, issuer, logger)
	})
	router.GET("/rooms/:code", func(c *gin.Context) {
		screens.RoomInfo(c, registry)
	})
	usersRoute := []gin.HandlerFunc{}
	if config.RequireAuth {
		usersRoute = append(usersRoute, middlewares.AuthMiddleware(issuer, logger))
	}
	router.GET("/users", append(usersRoute, func(c *gin.Context) {
		screens.ConnectedUsers(c, users, logger)
	})...)
	if store != nil {
		router.GET("/results", func(c *gin.Context) {
			screens.RecentResults(c, store, logger)
		})
	}
	router.GET("/healthz", func(c *gin.Context) {
		screens.Health(c, registry, hub)
	})

	// Shutdown は乗っ取り済みのWebSocketを待たないので、ベースのcontextを切って閉じさせる
	baseCtx, cancelBase := context.WithCancel(context.Background())
	srv := &http.Server{
		Addr:        ":" + config.Port,
		Handler:     router,
		BaseContext: func(net.Listener) context.Context { return baseCtx },
	}
	srv.RegisterOnShutdown(cancelBase)
	go func() {
		logger.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to run HTTP server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}
}

// allowedOrigin は設定されたオリジンだけWebSocket接続を許可する。"*" なら全て許可
func allowedOrigin(origins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(origins) == 0 {
			return true
		}
		for _, o := range origins {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}
