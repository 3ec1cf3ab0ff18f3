package session

import (
	"fmt"
	"math/rand"

	"kingcatserver/kingcat/engine"
	"kingcatserver/models"
)

// Room はルームコードで参加できる1つの卓。フィールドへのアクセスは
// Registry がルームのロックを取った状態でのみ行う
type Room struct {
	code        string
	adminUserID string
	users       []models.User
	game        *engine.Game
}

// RoomView is the wire form of a room.
type RoomView struct {
	ID          string        `json:"id"`
	AdminUserID string        `json:"adminUserId"`
	Users       []models.User `json:"users"`
	GameStarted bool          `json:"gameStarted"`
}

func (r *Room) Code() string        { return r.code }
func (r *Room) AdminUserID() string { return r.adminUserID }

// Game returns the current match, nil before the first start.
func (r *Room) Game() *engine.Game { return r.game }

func (r *Room) View() RoomView {
	return RoomView{
		ID:          r.code,
		AdminUserID: r.adminUserID,
		Users:       append([]models.User{}, r.users...),
		GameStarted: r.game != nil && !r.game.GameOver(),
	}
}

// Members returns the users in join order.
func (r *Room) Members() []models.User {
	return append([]models.User{}, r.users...)
}

// ClientIDs returns the connection id of every member.
func (r *Room) ClientIDs() []string {
	ids := make([]string, 0, len(r.users))
	for _, u := range r.users {
		if u.ClientID != "" {
			ids = append(ids, u.ClientID)
		}
	}
	return ids
}

func (r *Room) ClientIDOf(userID string) (string, bool) {
	for _, u := range r.users {
		if u.ID == userID {
			return u.ClientID, u.ClientID != ""
		}
	}
	return "", false
}

// UserByClient finds the member behind a connection.
func (r *Room) UserByClient(clientID string) (models.User, bool) {
	for _, u := range r.users {
		if u.ClientID == clientID {
			return u, true
		}
	}
	return models.User{}, false
}

// join は同じユーザーIDなら何もしない。別の接続から同じIDで入れるのは
// トークンで本人確認できた場合だけ
func (r *Room) join(user models.User, verified bool) error {
	for i, u := range r.users {
		if u.ID != user.ID {
			continue
		}
		if u.ClientID == user.ClientID {
			return nil
		}
		if !verified {
			return fmt.Errorf("%w: %s", ErrSeatTaken, user.ID)
		}
		r.users[i].ClientID = user.ClientID
		return nil
	}
	r.users = append(r.users, user)
	return nil
}

func (r *Room) startGame(catalog engine.Catalog, maxPlayers int, rng *rand.Rand) ([]engine.Event, error) {
	if r.game != nil && !r.game.GameOver() {
		return nil, fmt.Errorf("%w: a match is already running", engine.ErrInvalidGameStart)
	}
	if len(r.users) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 players, have %d", engine.ErrInvalidGameStart, len(r.users))
	}
	if maxPlayers > 0 && len(r.users) > maxPlayers {
		return nil, fmt.Errorf("%w: at most %d players, have %d", engine.ErrInvalidGameStart, maxPlayers, len(r.users))
	}
	seats := make([]engine.Seat, len(r.users))
	for i, u := range r.users {
		seats[i] = engine.Seat{ID: u.ID, Name: u.Name}
	}
	game, events, err := engine.NewGame(seats, catalog, rng)
	if err != nil {
		return nil, err
	}
	r.game = game
	return events, nil
}
