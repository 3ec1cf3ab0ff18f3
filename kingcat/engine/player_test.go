package engine

import "testing"

func TestDiscard(t *testing.T) {
	p := newPlayer("a", "A")
	p.Hand = []Card{{ID: "3-0", Rank: 3}, {ID: "3-1", Rank: 3}}

	if !p.Discard(3) {
		t.Fatal("expected discard to succeed")
	}
	if len(p.Hand) != 1 || p.Hand[0].ID != "3-1" {
		t.Fatalf("hand = %+v, want only 3-1", p.Hand)
	}
	if len(p.Discards) != 1 || p.Discards[0].ID != "3-0" {
		t.Fatalf("discards = %+v, want 3-0", p.Discards)
	}

	if p.Discard(9) {
		t.Fatal("discarding an absent rank must be a no-op")
	}
	if len(p.Hand) != 1 || len(p.Discards) != 1 {
		t.Fatal("absent rank changed the player")
	}
}

func TestEliminateOnlySetsFlag(t *testing.T) {
	p := newPlayer("a", "A")
	p.Hand = []Card{{ID: "1-0", Rank: 1}}
	p.Eliminate()
	if !p.Eliminated {
		t.Fatal("expected eliminated")
	}
	if len(p.Hand) != 1 {
		t.Fatal("hand must be kept")
	}
}
