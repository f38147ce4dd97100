package game

import (
	"errors"
	"os"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/domino14/ddsolver/cards"
	"github.com/domino14/ddsolver/deal"
	"github.com/domino14/ddsolver/zobrist"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func mustCard(t *testing.T, s string) cards.Card {
	t.Helper()
	c, err := cards.ParseCard(s)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func mustState(t *testing.T, pbn string, strain cards.Strain, leader cards.Seat) *State {
	t.Helper()
	hands, err := deal.ParseHands(pbn)
	if err != nil {
		t.Fatal(err)
	}
	st, err := NewState(hands, strain, leader, nil)
	if err != nil {
		t.Fatal(err)
	}
	return st
}

func TestTrickResolution(t *testing.T) {
	is := is.New(t)
	st := mustState(t, "N:AQ3... .432.. K54... ..432.", cards.NoTrump, cards.North)

	for _, c := range []string{"SA", "H4", "S4", "D2"} {
		is.NoErr(st.Play(mustCard(t, c)))
	}
	is.True(st.TrickEnded())
	is.Equal(st.TricksWon(cards.NorthSouth), 1)
	is.Equal(st.TricksWon(cards.EastWest), 0)
	is.Equal(st.Leader(), cards.North)
	is.Equal(st.Turn(), cards.North)
	is.Equal(st.TricksLeft(), 2)
	is.Equal(st.NumPlayed(), 0)
}

func TestTrumpWinsTrick(t *testing.T) {
	is := is.New(t)
	// East ruffs the spade lead with a heart.
	st := mustState(t, "N:A2... .43.. K5... ..32.", cards.StrainHearts, cards.North)
	for _, c := range []string{"SA", "H3", "S5", "D2"} {
		is.NoErr(st.Play(mustCard(t, c)))
	}
	is.Equal(st.TricksWon(cards.EastWest), 1)
	is.Equal(st.Leader(), cards.East)

	// Same play in no-trump: the ace holds.
	nt := mustState(t, "N:A2... .43.. K5... ..32.", cards.NoTrump, cards.North)
	for _, c := range []string{"SA", "H3", "S5", "D2"} {
		is.NoErr(nt.Play(mustCard(t, c)))
	}
	is.Equal(nt.TricksWon(cards.NorthSouth), 1)
	is.Equal(nt.Leader(), cards.North)
}

func TestIllegalMoves(t *testing.T) {
	is := is.New(t)
	st := mustState(t, "N:A2... 3.4.. K5... ..32.", cards.NoTrump, cards.North)

	err := st.Play(mustCard(t, "SK"))
	is.True(errors.Is(err, ErrIllegalMove))
	var ime *IllegalMoveError
	is.True(errors.As(err, &ime))
	is.Equal(ime.Seat, cards.North)
	is.Equal(ime.Card, mustCard(t, "SK"))
	is.Equal(ime.Fingerprint, st.Fingerprint())

	is.NoErr(st.Play(mustCard(t, "SA")))
	// East holds a spade and must follow.
	err = st.Play(mustCard(t, "H4"))
	is.True(errors.Is(err, ErrIllegalMove))
	is.Equal(st.Turn(), cards.East)
	is.Equal(st.CardsPlayed(), 1)

	is.Equal(st.LegalPlays(), []cards.Card{mustCard(t, "S3")})
}

func TestInvalidPositions(t *testing.T) {
	is := is.New(t)
	hands, err := deal.ParseHands("N:A2... 3.4.. K5... ..3.")
	is.NoErr(err)
	_, err = NewState(hands, cards.NoTrump, cards.North, nil)
	is.True(errors.Is(err, ErrInvalidPosition))

	var overlap [cards.NumSeats]cards.Hand
	overlap[cards.North].Add(mustCard(t, "SA"))
	overlap[cards.East].Add(mustCard(t, "SA"))
	overlap[cards.South].Add(mustCard(t, "S2"))
	overlap[cards.West].Add(mustCard(t, "S3"))
	_, err = NewState(overlap, cards.NoTrump, cards.North, nil)
	is.True(errors.Is(err, ErrInvalidPosition))

	_, err = FromDeal(deal.Deal{}, cards.NoTrump, cards.North, nil)
	is.True(errors.Is(err, deal.ErrInvalidDeal))
}

func TestPlayUnplayRestores(t *testing.T) {
	is := is.New(t)
	d := deal.NewGenerator(42).Deal()
	st, err := FromDeal(d, cards.StrainSpades, cards.West, zobrist.New())
	is.NoErr(err)
	origKey := st.Fingerprint()
	origHands := st.Hands()

	var played int
	for !st.IsTerminal() && played < 23 {
		is.NoErr(st.Play(st.LegalPlays()[0]))
		played++
	}
	is.True(st.Fingerprint() != origKey)
	for i := 0; i < played; i++ {
		is.NoErr(st.Unplay())
	}
	is.Equal(st.Fingerprint(), origKey)
	is.Equal(st.Hands(), origHands)
	is.Equal(st.TricksWon(cards.NorthSouth)+st.TricksWon(cards.EastWest), 0)
	is.Equal(st.Turn(), cards.West)
	is.True(errors.Is(st.Unplay(), ErrNothingToUnplay))
}

func TestFullPlayout(t *testing.T) {
	is := is.New(t)
	d := deal.NewGenerator(7).Deal()
	st, err := FromDeal(d, cards.NoTrump, cards.East, nil)
	is.NoErr(err)
	for !st.IsTerminal() {
		plays := st.LegalPlays()
		is.NoErr(st.Play(plays[len(plays)-1]))
	}
	is.Equal(st.TricksWon(cards.NorthSouth)+st.TricksWon(cards.EastWest), 13)
	is.Equal(st.TricksLeft(), 0)
}

func TestFingerprintPathIndependent(t *testing.T) {
	is := is.New(t)
	z := zobrist.New()
	hands, err := deal.ParseHands("N:AK.2.. QJ.3.. T9.4.. 87.5..")
	is.NoErr(err)
	a, err := NewState(hands, cards.NoTrump, cards.North, z)
	is.NoErr(err)
	b := a.Clone()

	// Two different orders of winning the same two tricks.
	for _, c := range []string{"SA", "SJ", "S9", "S7", "SK", "SQ", "ST", "S8"} {
		is.NoErr(a.Play(mustCard(t, c)))
	}
	for _, c := range []string{"SK", "SQ", "ST", "S8", "SA", "SJ", "S9", "S7"} {
		is.NoErr(b.Play(mustCard(t, c)))
	}
	is.Equal(a.Fingerprint(), b.Fingerprint())

	h := a.Hands()
	is.Equal(a.Fingerprint(), z.WithStrain(z.Hash(&h, a.Leader(), nil, a.Turn()), cards.NoTrump))
}

func TestExhaustedTrumpsHashAsNoTrump(t *testing.T) {
	is := is.New(t)
	z := zobrist.New()
	hands, err := deal.ParseHands("N:A.2.. K.3.. Q.4.. J.5..")
	is.NoErr(err)
	clubs, err := NewState(hands, cards.StrainClubs, cards.North, z)
	is.NoErr(err)
	nt, err := NewState(hands, cards.NoTrump, cards.North, z)
	is.NoErr(err)
	is.Equal(clubs.Fingerprint(), nt.Fingerprint())

	spades, err := NewState(hands, cards.StrainSpades, cards.North, z)
	is.NoErr(err)
	is.True(spades.Fingerprint() != nt.Fingerprint())
}

func TestCloneIsIndependent(t *testing.T) {
	is := is.New(t)
	st := mustState(t, "N:AQ3... .432.. K54... ..432.", cards.NoTrump, cards.North)
	is.NoErr(st.Play(mustCard(t, "S3")))
	c := st.Clone()
	is.NoErr(c.Play(mustCard(t, "H2")))
	is.Equal(st.Turn(), cards.East)
	is.Equal(c.Turn(), cards.South)
	is.NoErr(c.Unplay())
	is.NoErr(c.Unplay())
	is.Equal(st.CardsPlayed(), 1)
	is.Equal(c.CardsPlayed(), 0)
}

func TestPatternKeyIgnoresPlayedCards(t *testing.T) {
	is := is.New(t)
	played := mustState(t, "N:AK.2.. QJ.3.. T9.4.. 87.5..", cards.NoTrump, cards.North)
	for _, c := range []string{"SA", "SJ", "S9", "S7"} {
		is.NoErr(played.Play(mustCard(t, c)))
	}
	is.Equal(played.Turn(), cards.North)

	fresh := mustState(t, "N:A.2.. K.3.. Q.4.. J.5..", cards.NoTrump, cards.North)
	is.Equal(played.PatternKey(), fresh.PatternKey())

	// The same position turned one seat clockwise.
	turned := mustState(t, "N:J.5.. A.2.. K.3.. Q.4..", cards.NoTrump, cards.East)
	is.Equal(turned.PatternKey(), fresh.PatternKey())

	spades := mustState(t, "N:A.2.. K.3.. Q.4.. J.5..", cards.StrainSpades, cards.North)
	is.True(spades.PatternKey() != fresh.PatternKey())
	swapped := mustState(t, "N:A.3.. K.2.. Q.4.. J.5..", cards.NoTrump, cards.North)
	is.True(swapped.PatternKey() != fresh.PatternKey())
}

func TestRelativeRanks(t *testing.T) {
	is := is.New(t)
	st := mustState(t, "N:AK.2.. QJ.3.. T9.4.. 87.5..", cards.NoTrump, cards.North)
	for _, c := range []string{"SA", "SJ", "S9", "S7"} {
		is.NoErr(st.Play(mustCard(t, c)))
	}
	is.Equal(st.RelativeRank(mustCard(t, "SK")), 0)
	is.Equal(st.RelativeRank(mustCard(t, "ST")), 2)
	is.Equal(st.AtRelativeRank(cards.Spades, 1), mustCard(t, "SQ"))
	is.Equal(st.AtRelativeRank(cards.Spades, 3), mustCard(t, "S8"))
	is.Equal(st.AtRelativeRank(cards.Spades, 4), cards.NoCard)
	is.Equal(st.AtRelativeRank(cards.Hearts, 0), mustCard(t, "H5"))
}
