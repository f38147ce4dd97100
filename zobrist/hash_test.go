package zobrist

import (
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/ddsolver/cards"
)

func card(s cards.Suit, r cards.Rank) cards.Card {
	return cards.NewCard(s, r)
}

func testHands() [cards.NumSeats]cards.Hand {
	var h [cards.NumSeats]cards.Hand
	h[cards.North].Add(card(cards.Spades, cards.Ace))
	h[cards.North].Add(card(cards.Hearts, cards.Two))
	h[cards.East].Add(card(cards.Spades, cards.King))
	h[cards.East].Add(card(cards.Hearts, cards.Three))
	h[cards.South].Add(card(cards.Spades, cards.Queen))
	h[cards.South].Add(card(cards.Clubs, cards.Four))
	h[cards.West].Add(card(cards.Diamonds, cards.Jack))
	h[cards.West].Add(card(cards.Hearts, cards.Five))
	return h
}

func TestPlayAndUnplay(t *testing.T) {
	is := is.New(t)
	z := New()
	hands := testHands()
	h := z.Hash(&hands, cards.North, nil, cards.North)

	sa := card(cards.Spades, cards.Ace)
	h1 := z.AddPlay(h, cards.North, sa, cards.East)
	is.True(h1 != h)
	// xor is its own inverse: applying the same play again restores the key.
	is.Equal(z.AddPlay(h1, cards.North, sa, cards.East), h)
}

func TestIncrementalMatchesRehash(t *testing.T) {
	is := is.New(t)
	z := New()
	hands := testHands()
	key := z.Hash(&hands, cards.North, nil, cards.North)

	trick := []cards.Card{
		card(cards.Spades, cards.Ace),
		card(cards.Spades, cards.King),
		card(cards.Spades, cards.Queen),
	}
	seat := cards.North
	for i, c := range trick {
		hands[seat].Remove(c)
		key = z.AddPlay(key, seat, c, seat.Next())
		seat = seat.Next()
		is.Equal(key, z.Hash(&hands, cards.North, trick[:i+1], seat))
	}

	// West discards; North wins and the trick leaves the table.
	dj := card(cards.Diamonds, cards.Jack)
	hands[cards.West].Remove(dj)
	key = z.AddPlay(key, cards.West, dj, cards.North)
	key = z.ClearTrick(key, cards.North, append(trick, dj))
	is.Equal(key, z.Hash(&hands, cards.North, nil, cards.North))
}

func TestStrainSeparatesKeys(t *testing.T) {
	is := is.New(t)
	z := New()
	hands := testHands()
	key := z.Hash(&hands, cards.North, nil, cards.North)
	seen := map[uint64]bool{}
	for _, s := range cards.Strains {
		seen[z.WithStrain(key, s)] = true
	}
	is.Equal(len(seen), cards.NumStrains)
}

func TestTurnMatters(t *testing.T) {
	is := is.New(t)
	z := New()
	hands := testHands()
	is.True(z.Hash(&hands, cards.North, nil, cards.North) != z.Hash(&hands, cards.East, nil, cards.East))
}
