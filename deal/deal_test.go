package deal

import (
	"errors"
	"os"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/domino14/ddsolver/cards"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

const sample = "N:AKQJ.T98.765.432 T98.765.432.AKQJ 765.432.AKQJ.T98 432.AKQJ.T98.765"

func TestParseRoundTrip(t *testing.T) {
	is := is.New(t)
	d, err := Parse(sample)
	is.NoErr(err)
	is.NoErr(d.Validate())
	is.Equal(d.String(), sample)
	is.Equal(d[cards.North][cards.Spades].String(), "AKQJ")
	is.Equal(d[cards.West][cards.Hearts].String(), "AKQJ")

	// Starting at another seat rotates the hands.
	rotated, err := Parse("E:T98.765.432.AKQJ 765.432.AKQJ.T98 432.AKQJ.T98.765 AKQJ.T98.765.432")
	is.NoErr(err)
	is.Equal(rotated, d)
}

func TestValidate(t *testing.T) {
	is := is.New(t)
	d, err := Parse(sample)
	is.NoErr(err)

	short := d
	short[cards.South].Remove(cards.NewCard(cards.Clubs, cards.Ten))
	is.True(errors.Is(short.Validate(), ErrInvalidDeal))

	// same card in two hands
	dup := d
	dup[cards.East].Remove(cards.NewCard(cards.Clubs, cards.Ace))
	dup[cards.East].Add(cards.NewCard(cards.Spades, cards.Ace))
	is.True(errors.Is(dup.Validate(), ErrInvalidDeal))

	_, err = Parse("N:AKQJ.T98.765.432 T98.765.432.AKQJ 765.432.AKQJ.T98")
	is.True(errors.Is(err, ErrInvalidDeal))
	_, err = Parse("N:AKQJ.T98.765.432 AKQJ.765.432.T98 765.432.AKQJ.T98 432.AKQJ.T98.765")
	is.True(errors.Is(err, ErrInvalidDeal))
	_, err = Parse("N:AKQZ.T98.765.432 T98.765.432.AKQJ 765.432.AKQJ.T98 432.AKQJ.T98.765")
	is.True(errors.Is(err, cards.ErrBadCard))
}

func TestFromCards(t *testing.T) {
	is := is.New(t)
	d, err := Parse(sample)
	is.NoErr(err)
	var lists [cards.NumSeats][]cards.Card
	for _, seat := range cards.Seats {
		lists[seat] = d[seat].Cards()
	}
	back, err := FromCards(lists)
	is.NoErr(err)
	is.Equal(back, d)

	// A bitmask would swallow the repeated card; FromCards must not.
	lists[cards.North] = append(lists[cards.North][:12], lists[cards.North][0])
	_, err = FromCards(lists)
	is.True(errors.Is(err, ErrInvalidDeal))

	lists[cards.North][12] = cards.NoCard
	_, err = FromCards(lists)
	is.True(errors.Is(err, ErrInvalidDeal))
}

func TestPartialHands(t *testing.T) {
	is := is.New(t)
	hands, err := ParseHands("S:A2... K3... Q4... J5...")
	is.NoErr(err)
	is.Equal(hands[cards.South].Len(), 2)
	is.Equal(hands[cards.North][cards.Spades].String(), "Q4")
	is.Equal(FormatHands(hands), "N:Q4... J5... A2... K3...")
}

func TestGenerator(t *testing.T) {
	is := is.New(t)
	a := NewGenerator(42).Deals(5)
	b := NewGenerator(42).Deals(5)
	is.Equal(a, b)
	for _, d := range a {
		is.NoErr(d.Validate())
	}
	is.True(a[0] != a[1])
	c := NewGenerator(43).Deal()
	is.True(c != a[0])
	is.NoErr(NewGenerator(0).Deal().Validate())
}

func TestPair(t *testing.T) {
	is := is.New(t)
	d, err := Parse(sample)
	is.NoErr(err)
	ew := d.Pair(cards.EastWest)
	is.Equal(ew[0], d[cards.East])
	is.Equal(ew[1], d[cards.West])
}
