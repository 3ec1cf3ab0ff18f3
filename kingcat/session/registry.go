package session

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"kingcatserver/kingcat/engine"
	"kingcatserver/models"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrNotRoomAdmin = errors.New("only the room admin can do that")
	ErrSeatTaken    = errors.New("user is already seated on another connection")
)

const codeLength = 7

type lockedRoom struct {
	mu   sync.Mutex
	room *Room
}

// Registry maps room codes to rooms. The map is guarded by one RWMutex and
// each room by its own mutex, so rooms never wait on each other.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*lockedRoom

	catalog    engine.Catalog
	maxPlayers int
	newRand    func() *rand.Rand
	newCode    func() string
}

type Option func(*Registry)

// WithRand replaces the per-match random source.
func WithRand(f func() *rand.Rand) Option {
	return func(r *Registry) { r.newRand = f }
}

// WithCodes replaces the room code generator.
func WithCodes(f func() string) Option {
	return func(r *Registry) { r.newCode = f }
}

func NewRegistry(catalog engine.Catalog, maxPlayers int, opts ...Option) *Registry {
	r := &Registry{
		rooms:      make(map[string]*lockedRoom),
		catalog:    catalog,
		maxPlayers: maxPlayers,
		newRand:    createLocalRandGenerator,
		newCode:    func() string { return uuid.New().String()[:codeLength] },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// 乱数は各試合のシャッフルに使用
func createLocalRandGenerator() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// CreateRoom registers a room with admin as its first member.
func (reg *Registry) CreateRoom(admin models.User) RoomView {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	code := reg.newCode()
	for _, taken := reg.rooms[code]; taken; _, taken = reg.rooms[code] {
		code = reg.newCode()
	}
	room := &Room{code: code, adminUserID: admin.ID, users: []models.User{admin}}
	reg.rooms[code] = &lockedRoom{room: room}
	return room.View()
}

// JoinRoom adds user to the room and runs then, if given, while the room is
// still locked. A repeat join is a no-op. Moving an existing member to a new
// connection needs verified, i.e. a token proving the user id.
func (reg *Registry) JoinRoom(code string, user models.User, verified bool, then func(*Room)) error {
	return reg.WithRoom(code, func(room *Room) error {
		if err := room.join(user, verified); err != nil {
			return err
		}
		if then != nil {
			then(room)
		}
		return nil
	})
}

// StartGame binds a new match to the room's current members. Only the admin
// may start.
func (reg *Registry) StartGame(code, requesterID string, then func(*Room, []engine.Event)) error {
	return reg.WithRoom(code, func(room *Room) error {
		if requesterID != room.adminUserID {
			return ErrNotRoomAdmin
		}
		events, err := room.startGame(reg.catalog, reg.maxPlayers, reg.newRand())
		if err != nil {
			return err
		}
		if then != nil {
			then(room, events)
		}
		return nil
	})
}

// WithRoom runs fn holding the room's lock. Every mutation of a room or its
// game goes through here.
func (reg *Registry) WithRoom(code string, fn func(*Room) error) error {
	reg.mu.RLock()
	lr, ok := reg.rooms[code]
	reg.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrRoomNotFound, code)
	}
	lr.mu.Lock()
	defer lr.mu.Unlock()
	return fn(lr.room)
}

// Lookup returns a snapshot of the room.
func (reg *Registry) Lookup(code string) (RoomView, bool) {
	var view RoomView
	err := reg.WithRoom(code, func(room *Room) error {
		view = room.View()
		return nil
	})
	return view, err == nil
}

// Stats counts rooms and running matches.
type Stats struct {
	Rooms       int
	ActiveGames int
}

func (reg *Registry) Stats() Stats {
	reg.mu.RLock()
	rooms := make([]*lockedRoom, 0, len(reg.rooms))
	for _, lr := range reg.rooms {
		rooms = append(rooms, lr)
	}
	reg.mu.RUnlock()

	s := Stats{Rooms: len(rooms)}
	for _, lr := range rooms {
		lr.mu.Lock()
		if g := lr.room.game; g != nil && !g.GameOver() {
			s.ActiveGames++
		}
		lr.mu.Unlock()
	}
	return s
}
