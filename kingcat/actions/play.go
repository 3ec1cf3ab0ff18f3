package actions

import (
	"context"
	"encoding/json"
	"fmt"

	"kingcatserver/kingcat/engine"
	"kingcatserver/kingcat/session"
)

type cardPlayedRequest struct {
	RoomID   string      `json:"roomId"`
	CardRank engine.Rank `json:"cardRank"`
}

type playerSelectedRequest struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
}

type insertCardRequest struct {
	RoomID    string `json:"roomId"`
	CardIndex int    `json:"cardIndex"`
}

type switchCardRequest struct {
	RoomID string `json:"roomId"`
	Switch bool   `json:"switch"`
}

// withTurn runs op on the room's match when client is the active player,
// then delivers the resulting events. The room stays locked throughout.
func (d *Dispatcher) withTurn(ctx context.Context, client Client, roomID string, op func(*engine.Game) ([]engine.Event, error)) error {
	return d.registry.WithRoom(roomID, func(room *session.Room) error {
		game := room.Game()
		if game == nil {
			return fmt.Errorf("%w: no match running in %s", engine.ErrIllegalAction, roomID)
		}
		user, ok := room.UserByClient(client.ID)
		if !ok {
			return fmt.Errorf("%w: connection is not in room %s", engine.ErrPlayerNotFound, roomID)
		}
		if game.GameOver() {
			return engine.ErrGameOver
		}
		if user.ID != game.ActivePlayerID() {
			return ErrNotYourTurn
		}
		events, err := op(game)
		if err != nil {
			return err
		}
		d.deliver(ctx, room, events)
		return nil
	})
}

func (d *Dispatcher) handleCardPlayed(ctx context.Context, client Client, data json.RawMessage) error {
	var req cardPlayedRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	return d.withTurn(ctx, client, req.RoomID, func(g *engine.Game) ([]engine.Event, error) {
		return g.PlayCard(req.CardRank)
	})
}

func (d *Dispatcher) handlePlayerSelected(ctx context.Context, client Client, data json.RawMessage) error {
	var req playerSelectedRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	return d.withTurn(ctx, client, req.RoomID, func(g *engine.Game) ([]engine.Event, error) {
		return g.SelectPlayer(req.PlayerID)
	})
}

func (d *Dispatcher) handleInsertCard(ctx context.Context, client Client, data json.RawMessage) error {
	var req insertCardRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	return d.withTurn(ctx, client, req.RoomID, func(g *engine.Game) ([]engine.Event, error) {
		return g.InsertCard(req.CardIndex)
	})
}

func (d *Dispatcher) handleSwitchCard(ctx context.Context, client Client, data json.RawMessage) error {
	var req switchCardRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	return d.withTurn(ctx, client, req.RoomID, func(g *engine.Game) ([]engine.Event, error) {
		return g.SwitchCard(req.Switch)
	})
}
