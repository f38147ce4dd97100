package zobrist

import (
	"lukechampine.com/frand"

	"github.com/domino14/ddsolver/cards"
)

const bignum = 1<<63 - 2

// generate a zobrist hash for a card-play position.
// https://en.wikipedia.org/wiki/Zobrist_hashing
//
// A position is keyed by the cards still held by each seat, the cards lying
// in the current trick together with the seat that played them, the seat on
// turn, and the strain. None of these depend on the order in which earlier
// tricks were played.
type Zobrist struct {
	handTable   [cards.NumSeats][cards.NumCards]uint64
	trickTable  [cards.NumSeats][cards.NumCards]uint64
	turnTable   [cards.NumSeats]uint64
	strainTable [cards.NumStrains]uint64
}

func (z *Zobrist) Initialize() {
	for s := 0; s < cards.NumSeats; s++ {
		for c := 0; c < cards.NumCards; c++ {
			z.handTable[s][c] = frand.Uint64n(bignum) + 1
			z.trickTable[s][c] = frand.Uint64n(bignum) + 1
		}
		z.turnTable[s] = frand.Uint64n(bignum) + 1
	}
	for i := 0; i < cards.NumStrains; i++ {
		z.strainTable[i] = frand.Uint64n(bignum) + 1
	}
}

// New returns an initialized Zobrist.
func New() *Zobrist {
	z := &Zobrist{}
	z.Initialize()
	return z
}

// Hash computes the strain-free key of a position from scratch. trick lists
// the cards of the current trick in play order starting with leader.
func (z *Zobrist) Hash(hands *[cards.NumSeats]cards.Hand, leader cards.Seat,
	trick []cards.Card, turn cards.Seat) uint64 {

	key := uint64(0)
	for seat := range hands {
		for s, hd := range hands[seat] {
			for ; hd != 0; hd &= hd - 1 {
				c := cards.NewCard(cards.Suit(s), hd.Lowest())
				key ^= z.handTable[seat][c]
			}
		}
	}
	seat := leader
	for _, c := range trick {
		key ^= z.trickTable[seat][c]
		seat = seat.Next()
	}
	key ^= z.turnTable[turn]
	return key
}

// AddPlay moves card c from seat's hand to the table and passes the turn to
// next.
func (z *Zobrist) AddPlay(key uint64, seat cards.Seat, c cards.Card, next cards.Seat) uint64 {
	key ^= z.handTable[seat][c]
	key ^= z.trickTable[seat][c]
	key ^= z.turnTable[seat]
	key ^= z.turnTable[next]
	return key
}

// ClearTrick removes a finished trick from the table. The turn has already
// been passed to the winner by AddPlay.
func (z *Zobrist) ClearTrick(key uint64, leader cards.Seat, trick []cards.Card) uint64 {
	seat := leader
	for _, c := range trick {
		key ^= z.trickTable[seat][c]
		seat = seat.Next()
	}
	return key
}

// WithStrain mixes the strain into a strain-free key.
func (z *Zobrist) WithStrain(key uint64, strain cards.Strain) uint64 {
	return key ^ z.strainTable[strain]
}
