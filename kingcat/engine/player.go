package engine

// Player はマッチ中の参加者の状態
type Player struct {
	ID         string
	Name       string
	Hand       []Card
	Discards   []Card
	Eliminated bool
	Protected  bool
}

func newPlayer(id, name string) *Player {
	return &Player{ID: id, Name: name, Hand: make([]Card, 0, 2)}
}

// Discard moves the first hand card with the given rank to the discard pile.
// A rank that is not in hand is ignored.
func (p *Player) Discard(rank Rank) bool {
	for i, c := range p.Hand {
		if c.Rank == rank {
			p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
			p.Discards = append(p.Discards, c)
			return true
		}
	}
	return false
}

// Eliminate only flips the flag. The game checks for a winner afterwards.
func (p *Player) Eliminate() {
	p.Eliminated = true
}

// Held returns the card kept between turns.
func (p *Player) Held() (Card, bool) {
	if len(p.Hand) == 0 {
		return Card{}, false
	}
	return p.Hand[0], true
}

func (p *Player) holds(rank Rank) bool {
	for _, c := range p.Hand {
		if c.Rank == rank {
			return true
		}
	}
	return false
}

// takeHand は手札を全て取り出す
func (p *Player) takeHand() []Card {
	hand := p.Hand
	p.Hand = make([]Card, 0, 2)
	return hand
}

func (p *Player) heldRank() Rank {
	c, ok := p.Held()
	if !ok {
		return 0
	}
	return c.Rank
}
