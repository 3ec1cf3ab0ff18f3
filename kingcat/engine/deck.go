package engine

import (
	"errors"
	"math/rand"
)

var ErrDeckExhausted = errors.New("deck exhausted")

// Deck は山札（先頭が次に引かれるカード）と脇に避けた1枚
type Deck struct {
	cards    []Card
	sideCard *Card
	rng      *rand.Rand
}

// NewDeck builds, shuffles and sets one random card aside.
func NewDeck(catalog Catalog, rng *rand.Rand) *Deck {
	d := &Deck{rng: rng}
	d.build(catalog)
	d.Shuffle()
	d.extractSideCard()
	return d
}

func (d *Deck) build(catalog Catalog) {
	d.cards = make([]Card, 0, catalog.Total())
	for _, e := range catalog.sorted() {
		for i := 0; i < e.Amount; i++ {
			d.cards = append(d.cards, Card{
				ID:          cardID(e.Rank, i),
				Title:       e.Title,
				Description: e.Description,
				Rank:        e.Rank,
				Amount:      e.Amount,
				Color:       e.Color,
				DescColor:   e.DescColor,
			})
		}
	}
}

// Shuffle は残りのカードを一様にシャッフルする（Fisher–Yates）
func (d *Deck) Shuffle() {
	d.rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

func (d *Deck) extractSideCard() {
	if len(d.cards) == 0 {
		return
	}
	i := d.rng.Intn(len(d.cards))
	card := d.cards[i]
	d.cards = append(d.cards[:i], d.cards[i+1:]...)
	d.sideCard = &card
}

// Draw removes and returns the front card.
func (d *Deck) Draw() (Card, error) {
	if len(d.cards) == 0 {
		return Card{}, ErrDeckExhausted
	}
	card := d.cards[0]
	d.cards = d.cards[1:]
	return card, nil
}

// InsertAt puts a card back, index clamped to [0, Len()].
func (d *Deck) InsertAt(card Card, index int) {
	if index < 0 {
		index = 0
	}
	if index > len(d.cards) {
		index = len(d.cards)
	}
	d.cards = append(d.cards, Card{})
	copy(d.cards[index+1:], d.cards[index:])
	d.cards[index] = card
}

func (d *Deck) Len() int { return len(d.cards) }

// SideCard returns the set aside card, if it is still there.
func (d *Deck) SideCard() (Card, bool) {
	if d.sideCard == nil {
		return Card{}, false
	}
	return *d.sideCard, true
}

// SwapSideCard は脇札と card を入れ替えて元の脇札を返す
func (d *Deck) SwapSideCard(card Card) (Card, bool) {
	if d.sideCard == nil {
		return Card{}, false
	}
	old := *d.sideCard
	d.sideCard = &card
	return old, true
}

// takeSideCard は山札切れのときの補充用に脇札を取り出す
func (d *Deck) takeSideCard() (Card, bool) {
	if d.sideCard == nil {
		return Card{}, false
	}
	card := *d.sideCard
	d.sideCard = nil
	return card, true
}

// Cards returns a copy in draw order.
func (d *Deck) Cards() []Card {
	out := make([]Card, len(d.cards))
	copy(out, d.cards)
	return out
}
