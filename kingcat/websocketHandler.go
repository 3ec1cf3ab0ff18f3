package kingcat

import (
	"context"
	"net/http"

	"kingcatserver/kingcat/actions"
	"kingcatserver/kingcat/broadcast"
	"kingcatserver/kingcat/connection"
	"kingcatserver/kingcat/database"
	"kingcatserver/middlewares"

	"go.uber.org/zap"

	"github.com/gorilla/websocket"
)

// Handler upgrades requests to WebSocket connections and feeds every message
// to the dispatcher.
type Handler struct {
	hub         *broadcast.Hub
	dispatcher  *actions.Dispatcher
	users       database.UserDirectory
	issuer      *middlewares.TokenIssuer
	requireAuth bool
	upgrader    websocket.Upgrader
	logger      *zap.Logger
}

type HandlerConfig struct {
	Hub         *broadcast.Hub
	Dispatcher  *actions.Dispatcher
	Users       database.UserDirectory
	Issuer      *middlewares.TokenIssuer
	RequireAuth bool
	CheckOrigin func(r *http.Request) bool
}

func NewHandler(cfg HandlerConfig, logger *zap.Logger) *Handler {
	checkOrigin := cfg.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &Handler{
		hub:         cfg.Hub,
		dispatcher:  cfg.Dispatcher,
		users:       cfg.Users,
		issuer:      cfg.Issuer,
		requireAuth: cfg.RequireAuth,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		logger: logger,
	}
}

// HandleConnections は接続ごとに呼ばれ、切断まで戻らない
func (h *Handler) HandleConnections(w http.ResponseWriter, r *http.Request) {
	client, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade は失敗時に自分でレスポンスを返す
		h.logger.Error("Error upgrading WebSocket", zap.Error(err))
		return
	}

	conn := connection.NewConn(ws, h.logger)
	client.ID = h.hub.Register(conn)
	logger := h.logger.With(zap.String("clientID", client.ID))
	logger.Info("New client added", zap.String("userID", client.UserID))

	go conn.WritePump()
	defer func() {
		h.hub.Unregister(client.ID)
		conn.Close()
		if h.users != nil {
			if err := h.users.Disconnect(context.Background(), client.ID); err != nil {
				logger.Warn("Failed to remove connected user", zap.Error(err))
			}
		}
		logger.Info("Client removed")
	}()

	ctx := r.Context()
	conn.ReadPump(ctx, func(message []byte) {
		h.dispatcher.Dispatch(ctx, client, message)
	})
}

func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request) (actions.Client, bool) {
	tokenString := middlewares.TokenFromRequest(r)
	if tokenString == "" || h.issuer == nil {
		if h.requireAuth {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return actions.Client{}, false
		}
		return actions.Client{}, true
	}
	claims, err := h.issuer.ParseToken(tokenString)
	if err != nil {
		h.logger.Warn("Failed to validate token", zap.Error(err))
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return actions.Client{}, false
	}
	return actions.Client{UserID: claims.UserID, Name: claims.Name}, true
}
