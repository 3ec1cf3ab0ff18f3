package actions

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"kingcatserver/kingcat/broadcast"
	"kingcatserver/kingcat/engine"
	"kingcatserver/kingcat/session"
	"kingcatserver/models"

	"go.uber.org/zap"
)

type received struct {
	Type string
	Data json.RawMessage
}

// recordingSender は送信内容をクライアントごとに記録する
type recordingSender struct {
	mu  sync.Mutex
	got map[string][]received
}

func newRecordingSender() *recordingSender {
	return &recordingSender{got: make(map[string][]received)}
}

func (s *recordingSender) Send(event interface{}, clientIDs ...string) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return err
	}
	var msg received
	if err := json.Unmarshal(raw, &msg); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range clientIDs {
		s.got[id] = append(s.got[id], msg)
	}
	return nil
}

// take returns and clears everything sent to clientID.
func (s *recordingSender) take(clientID string) []received {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.got[clientID]
	delete(s.got, clientID)
	return out
}

type memoryRecorder struct{ results []*models.MatchResult }

func (m *memoryRecorder) Record(_ context.Context, r *models.MatchResult) error {
	m.results = append(m.results, r)
	return nil
}

type memoryPublisher struct{ subjects []string }

func (m *memoryPublisher) Publish(subject string, _ broadcast.MatchEvent) {
	m.subjects = append(m.subjects, subject)
}

type memoryUsers struct{ users map[string]models.User }

func (m *memoryUsers) Connect(_ context.Context, u models.User) error {
	m.users[u.ID] = u
	return nil
}

type fixture struct {
	reg       *session.Registry
	sender    *recordingSender
	results   *memoryRecorder
	publisher *memoryPublisher
	users     *memoryUsers
	d         *Dispatcher
}

func newFixture(seed int64) *fixture {
	f := &fixture{
		reg: session.NewRegistry(engine.DefaultCatalog(), 6,
			session.WithRand(func() *rand.Rand { return rand.New(rand.NewSource(seed)) })),
		sender:    newRecordingSender(),
		results:   &memoryRecorder{},
		publisher: &memoryPublisher{},
		users:     &memoryUsers{users: map[string]models.User{}},
	}
	f.d = NewDispatcher(f.reg, f.sender, zap.NewNop(),
		WithResultRecorder(f.results),
		WithPublisher(f.publisher),
		WithUserDirectory(f.users))
	return f
}

func (f *fixture) dispatch(clientID, eventType string, data interface{}) {
	raw, _ := json.Marshal(map[string]interface{}{"type": eventType, "data": data})
	f.d.Dispatch(context.Background(), Client{ID: clientID}, raw)
}

func (f *fixture) game(t *testing.T, code string) *engine.Game {
	t.Helper()
	var g *engine.Game
	if err := f.reg.WithRoom(code, func(r *session.Room) error { g = r.Game(); return nil }); err != nil {
		t.Fatal(err)
	}
	return g
}

// setup creates a room for A and B and returns its code.
func (f *fixture) setup(t *testing.T) string {
	t.Helper()
	f.dispatch("cA", models.CreateRoom, map[string]interface{}{"user": map[string]string{"id": "A", "name": "Alice"}})
	msgs := f.sender.take("cA")
	if len(msgs) != 1 || msgs[0].Type != models.RoomCreated {
		t.Fatalf("create room: %+v", msgs)
	}
	var created roomPayload
	if err := json.Unmarshal(msgs[0].Data, &created); err != nil {
		t.Fatal(err)
	}
	code := created.Room.ID

	f.dispatch("cB", models.JoinRoom, map[string]interface{}{
		"user":     map[string]string{"id": "B", "name": "Bob"},
		"roomCode": code,
	})
	for _, c := range []string{"cA", "cB"} {
		msgs := f.sender.take(c)
		if len(msgs) != 1 || msgs[0].Type != models.RoomFound {
			t.Fatalf("join room, %s got %+v", c, msgs)
		}
	}
	return code
}

func lastError(t *testing.T, msgs []received) ErrorPayload {
	t.Helper()
	if len(msgs) == 0 || msgs[len(msgs)-1].Type != models.Error {
		t.Fatalf("expected an ERROR event, got %+v", msgs)
	}
	var p ErrorPayload
	if err := json.Unmarshal(msgs[len(msgs)-1].Data, &p); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestRoomLifecycle(t *testing.T) {
	f := newFixture(1)
	code := f.setup(t)

	if len(f.users.users) != 2 {
		t.Fatalf("connected users = %d", len(f.users.users))
	}

	f.dispatch("cB", models.JoinRoom, map[string]interface{}{
		"user":     map[string]string{"id": "C"},
		"roomCode": "nope",
	})
	msgs := f.sender.take("cB")
	if len(msgs) != 1 || msgs[0].Type != models.RoomNotFound {
		t.Fatalf("join unknown room: %+v", msgs)
	}

	f.dispatch("cB", models.StartGame, map[string]string{"roomId": code})
	if got := lastError(t, f.sender.take("cB")); got.Code != "NOT_ROOM_ADMIN" {
		t.Fatalf("non-admin start: %+v", got)
	}

	f.dispatch("cA", models.StartGame, map[string]string{"roomId": code})
	for _, c := range []struct {
		client, user string
	}{{"cA", "A"}, {"cB", "B"}} {
		msgs := f.sender.take(c.client)
		if len(msgs) != 1 || msgs[0].Type != models.GameStarted {
			t.Fatalf("%s after start: %+v", c.client, msgs)
		}
		var p gameStatePayload
		if err := json.Unmarshal(msgs[0].Data, &p); err != nil {
			t.Fatal(err)
		}
		s := p.GameState
		if s.ActivePlayerID != "A" || s.ViewerID != c.user {
			t.Fatalf("state for %s: %+v", c.user, s)
		}
		if s.Players[0].HandCount != 2 || s.Players[1].HandCount != 1 {
			t.Fatalf("hand counts %d/%d", s.Players[0].HandCount, s.Players[1].HandCount)
		}
		for _, pv := range s.Players {
			if pv.ID != c.user && len(pv.Hand) != 0 {
				t.Fatalf("%s can see %s's hand", c.user, pv.ID)
			}
		}
	}
	if len(f.publisher.subjects) != 1 || f.publisher.subjects[0] != broadcast.SubjectMatchStarted {
		t.Fatalf("published %v", f.publisher.subjects)
	}
}

func TestRejectedMessages(t *testing.T) {
	f := newFixture(1)
	code := f.setup(t)

	tests := []struct {
		name     string
		client   string
		raw      string
		wantCode string
	}{
		{"not json", "cA", "{", "MALFORMED_EVENT"},
		{"unknown type", "cA", `{"type":"DANCE"}`, "UNKNOWN_EVENT"},
		{"missing data", "cA", `{"type":"CREATE_ROOM"}`, "MALFORMED_EVENT"},
		{"no user id", "cA", `{"type":"CREATE_ROOM","data":{"user":{}}}`, "MALFORMED_EVENT"},
		{"play before start", "cA", fmt.Sprintf(`{"type":"CARD_PLAYED","data":{"roomId":%q,"cardRank":1}}`, code), "ILLEGAL_ACTION"},
		{"stranger", "cX", fmt.Sprintf(`{"type":"START_GAME","data":{"roomId":%q}}`, code), "NOT_ROOM_ADMIN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.d.Dispatch(context.Background(), Client{ID: tt.client}, []byte(tt.raw))
			if got := lastError(t, f.sender.take(tt.client)); got.Code != tt.wantCode {
				t.Fatalf("code = %s (%s), want %s", got.Code, got.Message, tt.wantCode)
			}
		})
	}

	f.dispatch("cA", models.StartGame, map[string]string{"roomId": code})
	f.sender.take("cA")
	f.sender.take("cB")

	f.dispatch("cB", models.CardPlayed, map[string]interface{}{"roomId": code, "cardRank": 1})
	if got := lastError(t, f.sender.take("cB")); got.Code != "NOT_YOUR_TURN" {
		t.Fatalf("out of turn: %+v", got)
	}
	f.dispatch("cA", models.InsertCard, map[string]interface{}{"roomId": code, "cardIndex": 0})
	if got := lastError(t, f.sender.take("cA")); got.Code != "ILLEGAL_ACTION" {
		t.Fatalf("insert without a view: %+v", got)
	}
	f.dispatch("cA", models.CreateRoom, map[string]interface{}{"user": map[string]string{"id": "A"}})
	if msgs := f.sender.take("cA"); len(msgs) != 1 || msgs[0].Type != models.RoomCreated {
		t.Fatalf("errors must not break the connection: %+v", msgs)
	}
}

func TestUnknownRoomGetsRoomNotFound(t *testing.T) {
	f := newFixture(1)
	f.setup(t)

	tests := []struct {
		eventType string
		data      map[string]interface{}
	}{
		{models.JoinRoom, map[string]interface{}{"user": map[string]string{"id": "C"}, "roomCode": "zzz"}},
		{models.StartGame, map[string]interface{}{"roomId": "zzz"}},
		{models.CardPlayed, map[string]interface{}{"roomId": "zzz", "cardRank": 1}},
		{models.PlayerSelected, map[string]interface{}{"roomId": "zzz", "playerId": "B"}},
		{models.InsertCard, map[string]interface{}{"roomId": "zzz", "cardIndex": 0}},
		{models.SwitchCard, map[string]interface{}{"roomId": "zzz", "switch": true}},
	}
	for _, tt := range tests {
		t.Run(tt.eventType, func(t *testing.T) {
			f.dispatch("cA", tt.eventType, tt.data)
			msgs := f.sender.take("cA")
			if len(msgs) != 1 || msgs[0].Type != models.RoomNotFound {
				t.Fatalf("got %+v", msgs)
			}
			var p roomNotFoundPayload
			if err := json.Unmarshal(msgs[0].Data, &p); err != nil {
				t.Fatal(err)
			}
			if p.RoomCode != "zzz" {
				t.Fatalf("roomCode = %q", p.RoomCode)
			}
		})
	}
}

func TestSeatCannotBeTakenByAnotherConnection(t *testing.T) {
	f := newFixture(1)
	code := f.setup(t)
	f.dispatch("cA", models.StartGame, map[string]string{"roomId": code})
	f.sender.take("cA")
	f.sender.take("cB")

	f.dispatch("cEve", models.JoinRoom, map[string]interface{}{
		"user":     map[string]string{"id": "A"},
		"roomCode": code,
	})
	if got := lastError(t, f.sender.take("cEve")); got.Code != "SEAT_TAKEN" {
		t.Fatalf("join as A: %+v", got)
	}
	f.dispatch("cEve", models.CardPlayed, map[string]interface{}{"roomId": code, "cardRank": 1})
	if got := lastError(t, f.sender.take("cEve")); got.Code != "PLAYER_NOT_FOUND" {
		t.Fatalf("play as A: %+v", got)
	}

	g := f.game(t, code)
	if g.ActivePlayerID() != "A" {
		t.Fatalf("active = %s", g.ActivePlayerID())
	}
	var rank engine.Rank
	for _, pv := range g.ViewFor("A").Players {
		for _, c := range pv.Hand {
			if pv.ID == "A" && c.Rank != engine.RankKingCat {
				rank = c.Rank
			}
		}
	}
	f.dispatch("cA", models.CardPlayed, map[string]interface{}{"roomId": code, "cardRank": rank})
	for _, m := range f.sender.take("cA") {
		if m.Type == models.Error {
			t.Fatalf("seat owner rejected: %s", m.Data)
		}
	}

	// a verified token for A may move the seat to a new connection
	raw, _ := json.Marshal(map[string]interface{}{"type": models.JoinRoom, "data": map[string]interface{}{
		"user":     map[string]string{"id": "A"},
		"roomCode": code,
	}})
	f.d.Dispatch(context.Background(), Client{ID: "cA2", UserID: "A"}, raw)
	if msgs := f.sender.take("cA2"); len(msgs) != 1 || msgs[0].Type != models.RoomFound {
		t.Fatalf("verified rejoin: %+v", msgs)
	}
}

func TestAuthenticatedIdentityWins(t *testing.T) {
	f := newFixture(1)
	raw := []byte(`{"type":"CREATE_ROOM","data":{"user":{"id":"spoofed","name":"x"}}}`)
	f.d.Dispatch(context.Background(), Client{ID: "c1", UserID: "real"}, raw)
	msgs := f.sender.take("c1")
	var p roomPayload
	if err := json.Unmarshal(msgs[0].Data, &p); err != nil {
		t.Fatal(err)
	}
	if p.Room.AdminUserID != "real" {
		t.Fatalf("admin = %q", p.Room.AdminUserID)
	}
}

var clientOf = map[string]string{"A": "cA", "B": "cB"}

func TestFullMatchOverTheWire(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		t.Run(fmt.Sprintf("seed %d", seed), func(t *testing.T) {
			f := newFixture(seed)
			code := f.setup(t)
			f.dispatch("cA", models.StartGame, map[string]string{"roomId": code})

			var final map[string][]received
			for step := 0; ; step++ {
				if step > 300 {
					t.Fatal("match did not end")
				}
				g := f.game(t, code)
				activeID := g.ActivePlayerID()
				cid := clientOf[activeID]
				msgs := f.sender.take(cid)
				other := f.sender.take(clientOf[otherPlayer(activeID)])
				if over(msgs) || over(other) {
					final = map[string][]received{cid: msgs, clientOf[otherPlayer(activeID)]: other}
					break
				}
				for _, m := range other {
					if m.Type == models.OpenCardView || m.Type == models.OpenPlayerSelection || m.Type == models.OpenCardSelection {
						t.Fatalf("private prompt %s leaked to the waiting player", m.Type)
					}
				}
				prompt := ""
				for _, m := range msgs {
					switch m.Type {
					case models.OpenPlayerSelection, models.OpenCardSelection, models.OpenCardView:
						prompt = m.Type
					case models.NextTurn, models.GameStarted:
						prompt = ""
					case models.Error:
						t.Fatalf("step %d: unexpected error %s", step, m.Data)
					}
				}
				switch prompt {
				case models.OpenPlayerSelection:
					f.dispatch(cid, models.PlayerSelected, map[string]interface{}{"roomId": code, "playerId": otherPlayer(activeID)})
				case models.OpenCardSelection:
					f.dispatch(cid, models.CardPlayed, map[string]interface{}{"roomId": code, "cardRank": engine.RankBattleBunny})
				case models.OpenCardView:
					if step%2 == 0 {
						f.dispatch(cid, models.SwitchCard, map[string]interface{}{"roomId": code, "switch": step%3 == 0})
					} else {
						f.dispatch(cid, models.InsertCard, map[string]interface{}{"roomId": code, "cardIndex": step})
					}
				default:
					var hand []engine.Card
					for _, pv := range g.ViewFor(activeID).Players {
						if pv.ID == activeID {
							hand = pv.Hand
						}
					}
					played := false
					for _, c := range hand {
						if c.Rank != engine.RankKingCat {
							f.dispatch(cid, models.CardPlayed, map[string]interface{}{"roomId": code, "cardRank": c.Rank})
							played = true
							break
						}
					}
					if !played {
						t.Fatalf("%s holds nothing playable", activeID)
					}
				}
			}

			g := f.game(t, code)
			for cid, msgs := range final {
				last := msgs[len(msgs)-1]
				if last.Type != models.GameOver {
					t.Fatalf("%s last event %s", cid, last.Type)
				}
				var p gameOverPayload
				if err := json.Unmarshal(last.Data, &p); err != nil {
					t.Fatal(err)
				}
				if p.Winner.ID != g.WinnerID() || !p.GameState.GameOver {
					t.Fatalf("%s game over payload %+v", cid, p)
				}
			}
			if w := g.WinnerID(); w != "A" && w != "B" {
				t.Fatalf("winner %q", w)
			}
			if len(f.results.results) != 1 || f.results.results[0].WinnerID != g.WinnerID() {
				t.Fatalf("results %+v", f.results.results)
			}
			if f.results.results[0].PlayerIDs != "A,B" {
				t.Fatalf("player ids %q", f.results.results[0].PlayerIDs)
			}
			if n := len(f.publisher.subjects); n != 2 || f.publisher.subjects[1] != broadcast.SubjectMatchFinished {
				t.Fatalf("published %v", f.publisher.subjects)
			}

			f.dispatch(clientOf[g.ActivePlayerID()], models.CardPlayed, map[string]interface{}{"roomId": code, "cardRank": 1})
			if got := lastError(t, f.sender.take(clientOf[g.ActivePlayerID()])); got.Code != "GAME_OVER" {
				t.Fatalf("play after end: %+v", got)
			}
		})
	}
}

func otherPlayer(id string) string {
	if id == "A" {
		return "B"
	}
	return "A"
}

func over(msgs []received) bool {
	for _, m := range msgs {
		if m.Type == models.GameOver {
			return true
		}
	}
	return false
}
