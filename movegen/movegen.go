// Package movegen generates the legal cards for the seat on turn. With
// equivalence reduction on, runs of touching cards in one hand are
// collapsed to a single representative, since playing any of them leads to
// the same result.
package movegen

import (
	"github.com/domino14/ddsolver/cards"
	"github.com/domino14/ddsolver/game"
)

type MoveGenerator interface {
	Generate(st *game.State, dst []cards.Card) []cards.Card
	SetEquivalenceReduction(bool)
}

// Generator is stateless apart from its settings and may be shared between
// goroutines once configured.
type Generator struct {
	equivalence bool
}

func NewGenerator() *Generator {
	return &Generator{equivalence: true}
}

func (g *Generator) SetEquivalenceReduction(on bool) {
	g.equivalence = on
}

func (g *Generator) EquivalenceReduction() bool {
	return g.equivalence
}

// Generate appends the legal cards of the seat on turn to dst[:0] and
// returns it. Cards are listed suit by suit, high to low.
func (g *Generator) Generate(st *game.State, dst []cards.Card) []cards.Card {
	dst = dst[:0]
	for s := cards.Spades; ; s-- {
		h := st.Playable(s)
		if h != 0 {
			if g.equivalence {
				h = Representatives(h, live(st, s))
			}
			for ; h != 0; h = h.Without(h.Highest()) {
				dst = append(dst, cards.NewCard(s, h.Highest()))
			}
		}
		if s == cards.Clubs {
			break
		}
	}
	return dst
}

// live is every card of suit that can still affect a trick: the cards in
// all four hands plus the ones lying in the current trick.
func live(st *game.State, s cards.Suit) cards.Holding {
	return st.Unplayed(s) | st.OnTable(s)
}

// Representatives keeps the top card of each run in h, where a run is a set
// of cards of h with no card of live (other than h's own) ranked between
// them. h must be a subset of live.
func Representatives(h, live cards.Holding) cards.Holding {
	var reps cards.Holding
	inRun := false
	for r := int(cards.Ace); r >= int(cards.Two); r-- {
		rank := cards.Rank(r)
		if !live.Contains(rank) {
			continue
		}
		if h.Contains(rank) {
			if !inRun {
				reps = reps.With(rank)
			}
			inRun = true
		} else {
			inRun = false
		}
	}
	return reps
}

// Class is a set of interchangeable cards and the member Generate lists for
// it.
type Class struct {
	Rep     cards.Card
	Members []cards.Card
}

// Classes partitions the legal cards of the seat on turn into equivalence
// classes. The representative of each class is the card Generate returns
// with reduction on.
func Classes(st *game.State) []Class {
	var out []Class
	for s := cards.Spades; ; s-- {
		h := st.Playable(s)
		lv := live(st, s)
		inRun := false
		for r := int(cards.Ace); r >= int(cards.Two); r-- {
			rank := cards.Rank(r)
			if !lv.Contains(rank) {
				continue
			}
			if !h.Contains(rank) {
				inRun = false
				continue
			}
			c := cards.NewCard(s, rank)
			if !inRun {
				out = append(out, Class{Rep: c})
			}
			last := &out[len(out)-1]
			last.Members = append(last.Members, c)
			inRun = true
		}
		if s == cards.Clubs {
			break
		}
	}
	return out
}
