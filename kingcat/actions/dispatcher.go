package actions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"kingcatserver/kingcat/broadcast"
	"kingcatserver/kingcat/session"
	"kingcatserver/models"

	"go.uber.org/zap"
)

// Sender delivers one event to a set of connections.
type Sender interface {
	Send(event interface{}, clientIDs ...string) error
}

// UserDirectory keeps the list of connected users.
type UserDirectory interface {
	Connect(ctx context.Context, user models.User) error
}

// ResultRecorder stores finished matches.
type ResultRecorder interface {
	Record(ctx context.Context, result *models.MatchResult) error
}

// MatchPublisher announces match lifecycle events.
type MatchPublisher interface {
	Publish(subject string, event broadcast.MatchEvent)
}

// Client identifies the connection an event came from. UserID is set when
// the connection carried a verified token.
type Client struct {
	ID     string
	UserID string
	Name   string
}

type Dispatcher struct {
	registry  *session.Registry
	sender    Sender
	users     UserDirectory
	results   ResultRecorder
	publisher MatchPublisher
	logger    *zap.Logger
}

type Option func(*Dispatcher)

func WithUserDirectory(u UserDirectory) Option {
	return func(d *Dispatcher) { d.users = u }
}

func WithResultRecorder(r ResultRecorder) Option {
	return func(d *Dispatcher) { d.results = r }
}

func WithPublisher(p MatchPublisher) Option {
	return func(d *Dispatcher) { d.publisher = p }
}

func NewDispatcher(registry *session.Registry, sender Sender, logger *zap.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{registry: registry, sender: sender, logger: logger}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch decodes one inbound message and runs its handler. Failures are
// reported to the sending connection only.
func (d *Dispatcher) Dispatch(ctx context.Context, client Client, raw []byte) {
	var env models.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		d.fail(client, fmt.Errorf("%w: %v", ErrMalformedEvent, err))
		return
	}
	logger := d.logger.With(zap.String("type", env.Type), zap.String("clientID", client.ID))
	logger.Debug("Received message")

	var err error
	switch env.Type {
	case models.CreateRoom:
		err = d.handleCreateRoom(ctx, client, env.Data)
	case models.JoinRoom:
		err = d.handleJoinRoom(ctx, client, env.Data)
	case models.StartGame:
		err = d.handleStartGame(ctx, client, env.Data)
	case models.CardPlayed:
		err = d.handleCardPlayed(ctx, client, env.Data)
	case models.PlayerSelected:
		err = d.handlePlayerSelected(ctx, client, env.Data)
	case models.InsertCard:
		err = d.handleInsertCard(ctx, client, env.Data)
	case models.SwitchCard:
		err = d.handleSwitchCard(ctx, client, env.Data)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownEvent, env.Type)
	}
	if err != nil {
		logger.Info("Rejected message", zap.Error(err))
		// 見つからない場合は専用のイベントで返す
		if errors.Is(err, session.ErrRoomNotFound) {
			payload := roomNotFoundPayload{RoomCode: roomCodeOf(env.Data)}
			d.send(models.OutboundEvent{Type: models.RoomNotFound, Data: payload}, client.ID)
			return
		}
		d.fail(client, err)
	}
}

// roomCodeOf reads the room code from either field name clients use.
func roomCodeOf(data json.RawMessage) string {
	var ref struct {
		RoomID   string `json:"roomId"`
		RoomCode string `json:"roomCode"`
	}
	_ = json.Unmarshal(data, &ref)
	if ref.RoomCode != "" {
		return ref.RoomCode
	}
	return ref.RoomID
}

func (d *Dispatcher) fail(client Client, err error) {
	payload := ErrorPayload{Code: ErrorCode(err), Message: err.Error()}
	d.send(models.OutboundEvent{Type: models.Error, Data: payload}, client.ID)
}

func (d *Dispatcher) send(event models.OutboundEvent, clientIDs ...string) {
	if err := d.sender.Send(event, clientIDs...); err != nil {
		d.logger.Error("Failed to send event", zap.String("type", event.Type), zap.Error(err))
	}
}

func decode(data json.RawMessage, v interface{}) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: missing data", ErrMalformedEvent)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return nil
}
