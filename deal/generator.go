package deal

import (
	"encoding/binary"

	"lukechampine.com/frand"

	"github.com/domino14/ddsolver/cards"
)

// Generator deals random hands. It is not safe for concurrent use; give
// each goroutine its own.
type Generator struct {
	rng  *frand.RNG
	deck [cards.NumCards]cards.Card
}

// NewGenerator returns a generator. A zero seed draws entropy from the
// system; any other seed yields a reproducible sequence of deals.
func NewGenerator(seed uint64) *Generator {
	g := &Generator{}
	if seed == 0 {
		g.rng = frand.New()
	} else {
		var key [32]byte
		binary.LittleEndian.PutUint64(key[:], seed)
		g.rng = frand.NewCustom(key[:], 1024, 12)
	}
	for i := range g.deck {
		g.deck[i] = cards.Card(i)
	}
	return g
}

// Deal shuffles the deck and hands thirteen cards to each seat.
func (g *Generator) Deal() Deal {
	g.rng.Shuffle(len(g.deck), func(i, j int) {
		g.deck[i], g.deck[j] = g.deck[j], g.deck[i]
	})
	var d Deal
	for i, c := range g.deck {
		d[i/cards.HandSize].Add(c)
	}
	return d
}

// Deals returns n fresh deals.
func (g *Generator) Deals(n int) []Deal {
	out := make([]Deal, n)
	for i := range out {
		out[i] = g.Deal()
	}
	return out
}
