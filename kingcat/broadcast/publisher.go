package broadcast

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	SubjectMatchStarted  = "kingcat.match.started"
	SubjectMatchFinished = "kingcat.match.finished"
)

// MatchEvent is published on the match lifecycle subjects.
type MatchEvent struct {
	RoomCode  string   `json:"roomCode"`
	PlayerIDs []string `json:"playerIds"`
	WinnerID  string   `json:"winnerId,omitempty"`
	Turns     int      `json:"turns"`
	At        int64    `json:"at"`
}

// Publisher pushes match lifecycle events to NATS. A nil *Publisher is a
// valid no-op.
type Publisher struct {
	nc     *nats.Conn
	logger *zap.Logger
}

func NewPublisher(nc *nats.Conn, logger *zap.Logger) *Publisher {
	if nc == nil {
		return nil
	}
	return &Publisher{nc: nc, logger: logger}
}

func (p *Publisher) Publish(subject string, event MatchEvent) {
	if p == nil {
		return
	}
	if event.At == 0 {
		event.At = time.Now().UnixMilli()
	}
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal match event", zap.Error(err))
		return
	}
	if err := p.nc.Publish(subject, data); err != nil {
		p.logger.Error("Failed to publish match event", zap.String("subject", subject), zap.Error(err))
	}
}
