package engine

import (
	"fmt"
	"math/rand"
)

// InteractionMode is the sub-state of the current turn.
type InteractionMode string

const (
	ModeActivation InteractionMode = "activation"
	ModeSelection  InteractionMode = "selection"
)

// stage は Selection 中に何を待っているか
type stage int

const (
	stageNone stage = iota
	stageChooseTarget
	stageGuess
	stageCardView
)

// EventType names an outbound game event.
type EventType string

const (
	EventGameStarted         EventType = "GAME_STARTED"
	EventNextTurn            EventType = "NEXT_TURN"
	EventOpenPlayerSelection EventType = "OPEN_PLAYER_SELECTION"
	EventOpenCardSelection   EventType = "OPEN_CARD_SELECTION"
	EventOpenCardView        EventType = "OPEN_CARD_VIEW"
	EventGameOver            EventType = "GAME_OVER"
)

// Event is produced by a game operation. PlayerID is set when the event is
// private to that player.
type Event struct {
	Type     EventType
	PlayerID string
	CardView *CardView
	WinnerID string
}

// CardView は特定のプレイヤーにだけ見せるカード
type CardView struct {
	SourceRank Rank `json:"sourceCardRank"`
	CardShown  Card `json:"cardShown"`
}

// Seat identifies a participant when a game is created.
type Seat struct {
	ID   string
	Name string
}

// Game is the per-room state machine. It is not safe for concurrent use; the
// owner serializes calls.
type Game struct {
	deck    *Deck
	players []*Player
	maxRank Rank

	activePlayerID       string
	stage                stage
	lastPlayedRank       Rank
	lastSelectedPlayerID string
	lastWinnerID         string
	lastTurn             bool
	gameOver             bool
	pendingCardView      *CardView
	previewFromDeck      bool
	turn                 int

	events []Event
}

// NewGame deals one card to every seat and starts the first seat's turn.
func NewGame(seats []Seat, catalog Catalog, rng *rand.Rand) (*Game, []Event, error) {
	if len(seats) < 2 {
		return nil, nil, fmt.Errorf("%w: %d players", ErrInvalidGameStart, len(seats))
	}
	// 配札 + 最初のドロー + 脇札
	if len(seats)+2 > catalog.Total() {
		return nil, nil, fmt.Errorf("%w: %d players for %d cards", ErrInvalidGameStart, len(seats), catalog.Total())
	}

	g := &Game{
		deck:           NewDeck(catalog, rng),
		maxRank:        catalog.MaxRank(),
		activePlayerID: seats[0].ID,
	}
	for _, s := range seats {
		g.players = append(g.players, newPlayer(s.ID, s.Name))
	}
	for _, p := range g.players {
		g.drawInto(p)
	}
	g.turnStart()
	g.emit(Event{Type: EventGameStarted})
	return g, g.flush(), nil
}

// PlayCard plays a card from the active player's hand, or names the guessed
// rank while a guess is pending.
func (g *Game) PlayCard(rank Rank) ([]Event, error) {
	if g.gameOver {
		return nil, ErrGameOver
	}
	active, err := g.activePlayer()
	if err != nil {
		return nil, err
	}
	// 最強カードは出せないし、当てることもできない
	if rank == g.maxRank {
		return nil, nil
	}

	switch g.stage {
	case stageNone:
		if !active.Discard(rank) {
			return nil, nil
		}
		g.lastPlayedRank = rank
		eff, ok := effects[rank]
		if !ok {
			g.nextTurn()
			break
		}
		eff.activate(g, active)
	case stageGuess:
		target, err := g.player(g.lastSelectedPlayerID)
		if err != nil {
			return nil, err
		}
		eff := effects[g.lastPlayedRank]
		if eff.resolveGuess == nil {
			return nil, fmt.Errorf("%w: no guess expected", ErrIllegalAction)
		}
		eff.resolveGuess(g, active, target, rank)
	default:
		return nil, fmt.Errorf("%w: card played while waiting for a choice", ErrIllegalAction)
	}
	return g.flush(), nil
}

// SelectPlayer resolves the target of the last played card.
func (g *Game) SelectPlayer(playerID string) ([]Event, error) {
	if g.gameOver {
		return nil, ErrGameOver
	}
	active, err := g.activePlayer()
	if err != nil {
		return nil, err
	}
	target, err := g.player(playerID)
	if err != nil {
		return nil, err
	}
	eff, ok := effects[g.lastPlayedRank]
	if g.stage != stageChooseTarget || !ok || eff.resolveTarget == nil {
		return nil, fmt.Errorf("%w: no target expected", ErrIllegalAction)
	}
	if target.Eliminated {
		return nil, fmt.Errorf("%w: player %s is out", ErrIllegalAction, playerID)
	}
	if target == active && !eff.allowSelf {
		return nil, fmt.Errorf("%w: cannot target yourself", ErrIllegalAction)
	}

	g.lastSelectedPlayerID = target.ID
	if target.Protected {
		// 保護中なので効果は無効、ターンだけ進む
		g.nextTurn()
		return g.flush(), nil
	}
	eff.resolveTarget(g, active, target)
	return g.flush(), nil
}

// InsertCard ends a card view. A card previewed from the deck goes back at
// index.
func (g *Game) InsertCard(index int) ([]Event, error) {
	if g.gameOver {
		return nil, ErrGameOver
	}
	if g.stage != stageCardView {
		return nil, fmt.Errorf("%w: no card to insert", ErrIllegalAction)
	}
	view := g.closeCardView()
	if g.previewFromDeck {
		g.deck.InsertAt(view.CardShown, index)
	}
	g.nextTurn()
	return g.flush(), nil
}

// SwitchCard ends a card view, optionally trading the held card for the side
// card. A card previewed from the deck goes back on top first.
func (g *Game) SwitchCard(swap bool) ([]Event, error) {
	if g.gameOver {
		return nil, ErrGameOver
	}
	if g.stage != stageCardView {
		return nil, fmt.Errorf("%w: no card to switch", ErrIllegalAction)
	}
	active, err := g.activePlayer()
	if err != nil {
		return nil, err
	}
	view := g.closeCardView()
	if g.previewFromDeck {
		g.deck.InsertAt(view.CardShown, 0)
	}
	if swap && len(active.Hand) > 0 {
		if old, ok := g.deck.SwapSideCard(active.Hand[0]); ok {
			active.Hand[0] = old
		}
	}
	g.nextTurn()
	return g.flush(), nil
}

func (g *Game) nextTurn() {
	if g.gameOver {
		return
	}
	if g.lastTurn {
		g.showdown()
		return
	}
	g.activePlayerID = g.nextPlayerID()
	g.stage = stageNone
	g.pendingCardView = nil
	g.turnStart()
	g.emit(Event{Type: EventNextTurn})
}

func (g *Game) turnStart() {
	g.turn++
	active, err := g.activePlayer()
	if err != nil {
		return
	}
	if active.Protected {
		active.Protected = false
	}
	if g.deck.Len() == 0 {
		g.lastTurn = true
		return
	}
	g.drawInto(active)
}

// drawInto は山札から1枚引く。山札が空なら脇札を渡す
func (g *Game) drawInto(p *Player) {
	if card, err := g.deck.Draw(); err == nil {
		p.Hand = append(p.Hand, card)
		if g.deck.Len() == 0 {
			g.lastTurn = true
		}
		return
	}
	if card, ok := g.deck.takeSideCard(); ok {
		p.Hand = append(p.Hand, card)
	}
}

func (g *Game) nextPlayerID() string {
	idx := g.indexOf(g.activePlayerID)
	n := len(g.players)
	for i := 1; i <= n; i++ {
		p := g.players[(idx+i)%n]
		if !p.Eliminated {
			return p.ID
		}
	}
	return g.activePlayerID
}

func (g *Game) eliminate(p *Player) {
	p.Eliminate()
	var survivors []*Player
	for _, q := range g.players {
		if !q.Eliminated {
			survivors = append(survivors, q)
		}
	}
	if len(survivors) == 1 {
		g.finish(survivors[0])
	}
}

// showdown は山札切れ後の決着。同ランクなら手番順の早い方が勝つ
func (g *Game) showdown() {
	var winner *Player
	for _, p := range g.players {
		if p.Eliminated {
			continue
		}
		if winner == nil || p.heldRank() > winner.heldRank() {
			winner = p
		}
	}
	if winner != nil {
		g.finish(winner)
	}
}

func (g *Game) finish(winner *Player) {
	g.gameOver = true
	g.lastWinnerID = winner.ID
	g.stage = stageNone
	g.pendingCardView = nil
	g.emit(Event{Type: EventGameOver, WinnerID: winner.ID})
}

func (g *Game) openPlayerSelection() {
	g.stage = stageChooseTarget
	g.emit(Event{Type: EventOpenPlayerSelection, PlayerID: g.activePlayerID})
}

func (g *Game) openCardSelection() {
	g.stage = stageGuess
	g.emit(Event{Type: EventOpenCardSelection, PlayerID: g.activePlayerID})
}

func (g *Game) openCardView(source Rank, card Card, fromDeck bool) {
	g.stage = stageCardView
	g.previewFromDeck = fromDeck
	g.pendingCardView = &CardView{SourceRank: source, CardShown: card}
	g.emit(Event{Type: EventOpenCardView, PlayerID: g.activePlayerID, CardView: g.pendingCardView})
}

func (g *Game) closeCardView() CardView {
	view := *g.pendingCardView
	g.pendingCardView = nil
	g.stage = stageNone
	return view
}

func (g *Game) emit(e Event) {
	g.events = append(g.events, e)
}

func (g *Game) flush() []Event {
	out := g.events
	g.events = nil
	return out
}

func (g *Game) indexOf(id string) int {
	for i, p := range g.players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (g *Game) player(id string) (*Player, error) {
	if i := g.indexOf(id); i >= 0 {
		return g.players[i], nil
	}
	return nil, fmt.Errorf("%w: %s", ErrPlayerNotFound, id)
}

func (g *Game) activePlayer() (*Player, error) {
	return g.player(g.activePlayerID)
}

func (g *Game) ActivePlayerID() string { return g.activePlayerID }
func (g *Game) GameOver() bool         { return g.gameOver }
func (g *Game) WinnerID() string       { return g.lastWinnerID }
func (g *Game) LastTurn() bool         { return g.lastTurn }
func (g *Game) Turn() int              { return g.turn }

// Mode is Selection whenever the turn waits for a follow-up choice.
func (g *Game) Mode() InteractionMode {
	if g.stage == stageNone {
		return ModeActivation
	}
	return ModeSelection
}

// PendingCardView returns the card currently shown to the active player.
func (g *Game) PendingCardView() (CardView, bool) {
	if g.pendingCardView == nil {
		return CardView{}, false
	}
	return *g.pendingCardView, true
}

// PlayerIDs returns ids in turn order.
func (g *Game) PlayerIDs() []string {
	ids := make([]string, len(g.players))
	for i, p := range g.players {
		ids[i] = p.ID
	}
	return ids
}
