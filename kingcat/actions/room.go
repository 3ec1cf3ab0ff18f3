package actions

import (
	"context"
	"encoding/json"
	"fmt"

	"kingcatserver/kingcat/broadcast"
	"kingcatserver/kingcat/engine"
	"kingcatserver/kingcat/session"
	"kingcatserver/models"

	"go.uber.org/zap"
)

type userPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type createRoomRequest struct {
	User userPayload `json:"user"`
}

type joinRoomRequest struct {
	User     userPayload `json:"user"`
	RoomCode string      `json:"roomCode"`
}

type roomRequest struct {
	RoomID string `json:"roomId"`
}

type roomPayload struct {
	Room session.RoomView `json:"room"`
}

type roomNotFoundPayload struct {
	RoomCode string `json:"roomCode"`
}

// resolveUser はトークンがあればそのユーザーIDを優先する
func (d *Dispatcher) resolveUser(ctx context.Context, client Client, u userPayload) (models.User, error) {
	user := models.User{ID: u.ID, Name: u.Name, ClientID: client.ID}
	if client.UserID != "" {
		user.ID = client.UserID
		if user.Name == "" {
			user.Name = client.Name
		}
	}
	if user.ID == "" {
		return models.User{}, fmt.Errorf("%w: user id is required", ErrMalformedEvent)
	}
	if d.users != nil {
		if err := d.users.Connect(ctx, user); err != nil {
			d.logger.Warn("Failed to record connected user", zap.String("userID", user.ID), zap.Error(err))
		}
	}
	return user, nil
}

func (d *Dispatcher) handleCreateRoom(ctx context.Context, client Client, data json.RawMessage) error {
	var req createRoomRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	user, err := d.resolveUser(ctx, client, req.User)
	if err != nil {
		return err
	}
	view := d.registry.CreateRoom(user)
	d.logger.Info("Room created", zap.String("roomCode", view.ID), zap.String("adminUserID", user.ID))
	d.send(models.OutboundEvent{Type: models.RoomCreated, Data: roomPayload{Room: view}}, client.ID)
	return nil
}

func (d *Dispatcher) handleJoinRoom(ctx context.Context, client Client, data json.RawMessage) error {
	var req joinRoomRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	user, err := d.resolveUser(ctx, client, req.User)
	if err != nil {
		return err
	}
	verified := client.UserID != ""
	err = d.registry.JoinRoom(req.RoomCode, user, verified, func(room *session.Room) {
		d.send(models.OutboundEvent{Type: models.RoomFound, Data: roomPayload{Room: room.View()}}, room.ClientIDs()...)
	})
	if err != nil {
		return err
	}
	d.logger.Info("User joined room", zap.String("roomCode", req.RoomCode), zap.String("userID", user.ID))
	return nil
}

func (d *Dispatcher) handleStartGame(ctx context.Context, client Client, data json.RawMessage) error {
	var req roomRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	requesterID := client.UserID
	if requesterID == "" {
		err := d.registry.WithRoom(req.RoomID, func(room *session.Room) error {
			u, ok := room.UserByClient(client.ID)
			if !ok {
				return session.ErrNotRoomAdmin
			}
			requesterID = u.ID
			return nil
		})
		if err != nil {
			return err
		}
	}
	return d.registry.StartGame(req.RoomID, requesterID, func(room *session.Room, events []engine.Event) {
		d.logger.Info("Game started", zap.String("roomCode", room.Code()), zap.Int("players", len(room.Members())))
		if d.publisher != nil {
			d.publisher.Publish(broadcast.SubjectMatchStarted, matchEvent(room))
		}
		d.deliver(ctx, room, events)
	})
}
