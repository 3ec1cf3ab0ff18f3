package engine

// PlayerView is what one viewer may see of a player.
type PlayerView struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	HandCount  int    `json:"handCount"`
	Hand       []Card `json:"hand,omitempty"`
	Discards   []Card `json:"discards"`
	Eliminated bool   `json:"eliminated"`
	Protected  bool   `json:"protected"`
}

// GameView is the read-only state sent over the wire. Other players' hands
// and the side card never appear in it.
type GameView struct {
	ViewerID             string          `json:"viewerId,omitempty"`
	ActivePlayerID       string          `json:"activePlayerId"`
	InteractionMode      InteractionMode `json:"interactionMode"`
	LastPlayedRank       Rank            `json:"lastPlayedCardId,omitempty"`
	LastSelectedPlayerID string          `json:"lastSelectedPlayerId,omitempty"`
	LastWinnerID         string          `json:"lastWinnerId,omitempty"`
	LastTurn             bool            `json:"lastTurn"`
	GameOver             bool            `json:"gameOver"`
	DeckCount            int             `json:"deckCount"`
	Turn                 int             `json:"turn"`
	Players              []PlayerView    `json:"players"`
}

// ViewFor builds the state as seen by viewerID. An empty id gives the public
// view.
func (g *Game) ViewFor(viewerID string) GameView {
	v := GameView{
		ViewerID:             viewerID,
		ActivePlayerID:       g.activePlayerID,
		InteractionMode:      g.Mode(),
		LastPlayedRank:       g.lastPlayedRank,
		LastSelectedPlayerID: g.lastSelectedPlayerID,
		LastWinnerID:         g.lastWinnerID,
		LastTurn:             g.lastTurn,
		GameOver:             g.gameOver,
		DeckCount:            g.deck.Len(),
		Turn:                 g.turn,
		Players:              make([]PlayerView, 0, len(g.players)),
	}
	for _, p := range g.players {
		v.Players = append(v.Players, g.playerView(p, viewerID))
	}
	return v
}

// PlayerView returns the public view of one player.
func (g *Game) PlayerView(playerID string) (PlayerView, bool) {
	p, err := g.player(playerID)
	if err != nil {
		return PlayerView{}, false
	}
	return g.playerView(p, ""), true
}

func (g *Game) playerView(p *Player, viewerID string) PlayerView {
	pv := PlayerView{
		ID:         p.ID,
		Name:       p.Name,
		HandCount:  len(p.Hand),
		Discards:   append([]Card{}, p.Discards...),
		Eliminated: p.Eliminated,
		Protected:  p.Protected,
	}
	// 手札は本人、脱落者、終局後だけ公開
	if p.ID == viewerID || p.Eliminated || g.gameOver {
		pv.Hand = append([]Card{}, p.Hand...)
	}
	return pv
}
