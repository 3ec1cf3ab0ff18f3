package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
)

var ErrInvalidCatalog = errors.New("invalid card catalog")

// CatalogEntry はランクごとの静的カード定義
type CatalogEntry struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Rank        Rank   `json:"value"`
	Amount      int    `json:"amount"`
	Color       string `json:"color"`
	DescColor   string `json:"descColor"`
}

// Catalog is the static card list a deck is built from.
type Catalog []CatalogEntry

// DefaultCatalog returns the built-in 19 card set.
func DefaultCatalog() Catalog {
	return Catalog{
		{Title: "Crystal Bowl", Description: "Choose a player and name a card. If they hold it, they are out.", Rank: RankCrystalBowl, Amount: 5, Color: "#7fb8e6", DescColor: "#10324d"},
		{Title: "Mouse Trapper", Description: "Look at the next card of the deck, then put it back where you like.", Rank: RankMouseTrapper, Amount: 2, Color: "#c9a66b", DescColor: "#3b2a10"},
		{Title: "Battle Bunny", Description: "Compare hands with a player. The lower card is out.", Rank: RankBattleBunny, Amount: 2, Color: "#e67f7f", DescColor: "#4d1010"},
		{Title: "Shell Shield", Description: "You are protected until your next turn.", Rank: RankShellShield, Amount: 2, Color: "#7fe6a1", DescColor: "#104d24"},
		{Title: "Snake Sorcerer", Description: "A player discards their card and draws a new one.", Rank: RankSnakeSorcerer, Amount: 2, Color: "#a17fe6", DescColor: "#24104d"},
		{Title: "Doggy Grave Digger", Description: "Look at the set aside card. You may swap it with yours.", Rank: RankDoggyGraveDigger, Amount: 1, Color: "#b0a089", DescColor: "#33291a"},
		{Title: "Jittery Juggler", Description: "Every unprotected player returns their card and draws again.", Rank: RankJitteryJuggler, Amount: 1, Color: "#e6d27f", DescColor: "#4d4010"},
		{Title: "Hermit Home Swap", Description: "Trade hands with another player.", Rank: RankHermitHomeSwap, Amount: 1, Color: "#7fe6e0", DescColor: "#104d49"},
		{Title: "Royal Robovac", Description: "Nothing happens.", Rank: RankRoyalRobovac, Amount: 1, Color: "#cccccc", DescColor: "#333333"},
		{Title: "Not A Pet", Description: "If someone holds the King Cat, trade hands with them.", Rank: RankNotAPet, Amount: 1, Color: "#e6a17f", DescColor: "#4d2410"},
		{Title: "King Cat", Description: "Cannot be played. Hold it to the end to win.", Rank: RankKingCat, Amount: 1, Color: "#f2c94c", DescColor: "#4d3b10"},
	}
}

// LoadCatalog reads a JSON catalog file and validates it.
func LoadCatalog(filename string) (Catalog, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks that every rank is known and appears once, and that the
// highest rank is the unplayable one.
func (c Catalog) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidCatalog)
	}
	seen := make(map[Rank]bool, len(c))
	for _, e := range c {
		if e.Amount <= 0 {
			return fmt.Errorf("%w: rank %d has amount %d", ErrInvalidCatalog, e.Rank, e.Amount)
		}
		if seen[e.Rank] {
			return fmt.Errorf("%w: rank %d listed twice", ErrInvalidCatalog, e.Rank)
		}
		seen[e.Rank] = true
		if _, ok := effects[e.Rank]; !ok && e.Rank != RankKingCat {
			return fmt.Errorf("%w: rank %d has no effect", ErrInvalidCatalog, e.Rank)
		}
	}
	if c.MaxRank() != RankKingCat {
		return fmt.Errorf("%w: highest rank must be %d", ErrInvalidCatalog, RankKingCat)
	}
	return nil
}

// Total is the number of physical cards.
func (c Catalog) Total() int {
	n := 0
	for _, e := range c {
		n += e.Amount
	}
	return n
}

func (c Catalog) MaxRank() Rank {
	var max Rank
	for _, e := range c {
		if e.Rank > max {
			max = e.Rank
		}
	}
	return max
}

func (c Catalog) sorted() Catalog {
	out := make(Catalog, len(c))
	copy(out, c)
	sort.Slice(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out
}
