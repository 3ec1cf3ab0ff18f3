package engine

// effect はランクごとのカード効果。対象選択や当てが必要な効果だけが
// resolveTarget / resolveGuess を持つ
type effect struct {
	name          string
	activate      func(g *Game, active *Player)
	resolveTarget func(g *Game, active, target *Player)
	resolveGuess  func(g *Game, active, target *Player, guess Rank)
	allowSelf     bool
}

var effects = map[Rank]effect{
	RankCrystalBowl: {
		name:     "guess-rank",
		activate: func(g *Game, _ *Player) { g.openPlayerSelection() },
		resolveTarget: func(g *Game, _, _ *Player) {
			g.openCardSelection()
		},
		resolveGuess: func(g *Game, _, target *Player, guess Rank) {
			if target.holds(guess) {
				g.eliminate(target)
			}
			g.nextTurn()
		},
	},
	RankMouseTrapper: {
		name: "peek-next-draw",
		activate: func(g *Game, _ *Player) {
			card, err := g.deck.Draw()
			if err != nil {
				g.nextTurn()
				return
			}
			g.openCardView(RankMouseTrapper, card, true)
		},
	},
	RankBattleBunny: {
		name:     "duel",
		activate: func(g *Game, _ *Player) { g.openPlayerSelection() },
		resolveTarget: func(g *Game, active, target *Player) {
			mine, theirs := active.heldRank(), target.heldRank()
			switch {
			case mine > theirs:
				g.eliminate(target)
			case mine < theirs:
				g.eliminate(active)
			}
			g.nextTurn()
		},
	},
	RankShellShield: {
		name: "grant-protection",
		activate: func(g *Game, active *Player) {
			active.Protected = true
			g.nextTurn()
		},
	},
	RankSnakeSorcerer: {
		name:      "forced-discard",
		allowSelf: true,
		activate:  func(g *Game, _ *Player) { g.openPlayerSelection() },
		resolveTarget: func(g *Game, _, target *Player) {
			card, ok := target.Held()
			if ok {
				target.Discard(card.Rank)
				if card.Rank == g.maxRank {
					g.eliminate(target)
				} else {
					g.drawInto(target)
				}
			}
			g.nextTurn()
		},
	},
	RankDoggyGraveDigger: {
		name: "peek-side-card",
		activate: func(g *Game, _ *Player) {
			card, ok := g.deck.SideCard()
			if !ok {
				g.nextTurn()
				return
			}
			g.openCardView(RankDoggyGraveDigger, card, false)
		},
	},
	RankJitteryJuggler: {
		name: "mass-redraw",
		activate: func(g *Game, _ *Player) {
			var affected []*Player
			for _, p := range g.players {
				if p.Eliminated || p.Protected {
					continue
				}
				for _, c := range p.takeHand() {
					g.deck.InsertAt(c, 0)
				}
				affected = append(affected, p)
			}
			g.deck.Shuffle()
			for _, p := range affected {
				g.drawInto(p)
			}
			g.nextTurn()
		},
	},
	RankHermitHomeSwap: {
		name:     "forced-swap",
		activate: func(g *Game, _ *Player) { g.openPlayerSelection() },
		resolveTarget: func(g *Game, active, target *Player) {
			active.Hand, target.Hand = target.Hand, active.Hand
			g.nextTurn()
		},
	},
	RankRoyalRobovac: {
		name:     "pass",
		activate: func(g *Game, _ *Player) { g.nextTurn() },
	},
	RankNotAPet: {
		name: "swap-guard",
		activate: func(g *Game, active *Player) {
			for _, p := range g.players {
				if p == active || p.Eliminated || p.Protected {
					continue
				}
				if p.holds(g.maxRank) {
					active.Hand, p.Hand = p.Hand, active.Hand
					break
				}
			}
			g.nextTurn()
		},
	},
}

// EffectName returns a short label of the effect bound to rank.
func EffectName(rank Rank) string {
	if eff, ok := effects[rank]; ok {
		return eff.name
	}
	return "none"
}
