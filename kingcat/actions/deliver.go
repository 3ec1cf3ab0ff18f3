package actions

import (
	"context"
	"strings"

	"kingcatserver/kingcat/broadcast"
	"kingcatserver/kingcat/engine"
	"kingcatserver/kingcat/session"
	"kingcatserver/models"

	"go.uber.org/zap"
)

type gameStatePayload struct {
	GameState engine.GameView `json:"gameState"`
}

type gameOverPayload struct {
	Winner    engine.PlayerView `json:"winner"`
	GameState engine.GameView   `json:"gameState"`
}

// deliver routes engine events. Private prompts go to the active player's
// connection, state changes to every member with a view built for them.
func (d *Dispatcher) deliver(ctx context.Context, room *session.Room, events []engine.Event) {
	game := room.Game()
	for _, ev := range events {
		switch ev.Type {
		case engine.EventGameStarted, engine.EventNextTurn:
			for _, u := range room.Members() {
				payload := gameStatePayload{GameState: game.ViewFor(u.ID)}
				d.send(models.OutboundEvent{Type: string(ev.Type), Data: payload}, u.ClientID)
			}
		case engine.EventOpenPlayerSelection, engine.EventOpenCardSelection:
			if id, ok := room.ClientIDOf(ev.PlayerID); ok {
				d.send(models.OutboundEvent{Type: string(ev.Type)}, id)
			}
		case engine.EventOpenCardView:
			if id, ok := room.ClientIDOf(ev.PlayerID); ok && ev.CardView != nil {
				d.send(models.OutboundEvent{Type: string(ev.Type), Data: ev.CardView}, id)
			}
		case engine.EventGameOver:
			winner, _ := game.PlayerView(ev.WinnerID)
			for _, u := range room.Members() {
				payload := gameOverPayload{Winner: winner, GameState: game.ViewFor(u.ID)}
				d.send(models.OutboundEvent{Type: string(ev.Type), Data: payload}, u.ClientID)
			}
			d.finishMatch(ctx, room, winner)
		default:
			d.logger.Warn("Unhandled game event", zap.String("type", string(ev.Type)))
		}
	}
}

func (d *Dispatcher) finishMatch(ctx context.Context, room *session.Room, winner engine.PlayerView) {
	game := room.Game()
	survivors := 0
	for _, p := range game.ViewFor("").Players {
		if !p.Eliminated {
			survivors++
		}
	}
	d.logger.Info("Game over",
		zap.String("roomCode", room.Code()),
		zap.String("winnerID", winner.ID),
		zap.Int("turns", game.Turn()))

	if d.results != nil {
		result := &models.MatchResult{
			RoomCode:   room.Code(),
			WinnerID:   winner.ID,
			WinnerName: winner.Name,
			PlayerIDs:  strings.Join(game.PlayerIDs(), ","),
			Turns:      game.Turn(),
			Showdown:   survivors > 1,
		}
		if err := d.results.Record(ctx, result); err != nil {
			d.logger.Error("Failed to record match result", zap.String("roomCode", room.Code()), zap.Error(err))
		}
	}
	if d.publisher != nil {
		ev := matchEvent(room)
		ev.WinnerID = winner.ID
		ev.Turns = game.Turn()
		d.publisher.Publish(broadcast.SubjectMatchFinished, ev)
	}
}

func matchEvent(room *session.Room) broadcast.MatchEvent {
	ev := broadcast.MatchEvent{RoomCode: room.Code()}
	if g := room.Game(); g != nil {
		ev.PlayerIDs = g.PlayerIDs()
	}
	return ev
}
