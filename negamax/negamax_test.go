package negamax

import (
	"context"
	"errors"
	"math/rand/v2"
	"os"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/domino14/ddsolver/cards"
	"github.com/domino14/ddsolver/deal"
	"github.com/domino14/ddsolver/game"
	"github.com/domino14/ddsolver/zobrist"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func newTable() *TranspositionTable {
	tt := &TranspositionTable{}
	tt.SetSingleThreadedMode()
	tt.ResetPower(18)
	return tt
}

func mustState(t *testing.T, pbn string, strain cards.Strain, leader cards.Seat) *game.State {
	t.Helper()
	hands, err := deal.ParseHands(pbn)
	if err != nil {
		t.Fatal(err)
	}
	st, err := game.NewState(hands, strain, leader, nil)
	if err != nil {
		t.Fatal(err)
	}
	return st
}

// randomHands deals n random cards to each seat.
func randomHands(rng *rand.Rand, n int) [cards.NumSeats]cards.Hand {
	var hands [cards.NumSeats]cards.Hand
	perm := rng.Perm(cards.NumCards)
	for i := 0; i < n*cards.NumSeats; i++ {
		hands[i%cards.NumSeats].Add(cards.Card(perm[i]))
	}
	return hands
}

// bruteForceNS plays every legal card at every node and returns the tricks
// North-South end with.
func bruteForceNS(st *game.State) int {
	if st.IsTerminal() {
		return st.TricksWon(cards.NorthSouth)
	}
	ns := st.Turn().Side() == cards.NorthSouth
	best := -1
	for _, c := range st.LegalPlays() {
		if err := st.Play(c); err != nil {
			panic(err)
		}
		v := bruteForceNS(st)
		st.Unplay()
		if best == -1 || (ns && v > best) || (!ns && v < best) {
			best = v
		}
	}
	return best
}

// nsTricks converts a searcher result into North-South's final total.
func nsTricks(st *game.State, v int) int {
	if st.Turn().Side() == cards.NorthSouth {
		return st.TricksWon(cards.NorthSouth) + v
	}
	return st.TricksWon(cards.NorthSouth) + st.TricksLeft() - v
}

func TestAKQSequence(t *testing.T) {
	is := is.New(t)
	s := NewSearcher(newTable())

	st := mustState(t, "N:AQ3... .432.. K54... ..432.", cards.NoTrump, cards.North)
	v, err := s.Solve(context.Background(), st)
	is.NoErr(err)
	is.Equal(v, 3)

	st = mustState(t, "N:AQ3... .432.. K54... ..432.", cards.NoTrump, cards.East)
	v, err = s.Solve(context.Background(), st)
	is.NoErr(err)
	is.Equal(v, 3)
	is.Equal(nsTricks(st, v), 0)
}

func TestSolveLeavesStateUntouched(t *testing.T) {
	is := is.New(t)
	rng := rand.New(rand.NewPCG(1, 2))
	st, err := game.NewState(randomHands(rng, 5), cards.StrainHearts, cards.West, nil)
	is.NoErr(err)
	is.NoErr(st.Play(st.LegalPlays()[0]))
	key := st.Fingerprint()
	s := NewSearcher(newTable())
	v1, err := s.Solve(context.Background(), st)
	is.NoErr(err)
	is.Equal(st.Fingerprint(), key)
	is.Equal(st.CardsPlayed(), 1)
	v2, err := s.Solve(context.Background(), st)
	is.NoErr(err)
	is.Equal(v1, v2)
}

func TestMatchesBruteForce(t *testing.T) {
	is := is.New(t)
	rng := rand.New(rand.NewPCG(42, 7))
	z := zobrist.New()
	tt := newTable()
	s := NewSearcher(tt)
	for i := 0; i < 40; i++ {
		hands := randomHands(rng, 3)
		strain := cards.Strains[rng.IntN(cards.NumStrains)]
		leader := cards.Seats[rng.IntN(cards.NumSeats)]
		st, err := game.NewState(hands, strain, leader, z)
		is.NoErr(err)
		// sometimes start in the middle of a trick
		for p := rng.IntN(3); p > 0; p-- {
			plays := st.LegalPlays()
			is.NoErr(st.Play(plays[rng.IntN(len(plays))]))
		}

		expected := bruteForceNS(st.Clone())
		v, err := s.Solve(context.Background(), st)
		is.NoErr(err)
		if nsTricks(st, v) != expected {
			t.Fatalf("position %v strain %v leader %v: solver %d, brute force %d",
				deal.FormatHands(hands), strain, leader, nsTricks(st, v), expected)
		}
	}
}

func TestOptimizationsAreTransparent(t *testing.T) {
	is := is.New(t)
	rng := rand.New(rand.NewPCG(2024, 11))
	type toggle func(*Searcher)
	variants := map[string]toggle{
		"no-ttable":      func(s *Searcher) { s.SetTranspositionTableOptim(false) },
		"no-equivalence": func(s *Searcher) { s.SetEquivalenceReduction(false) },
		"no-quicktricks": func(s *Searcher) { s.SetQuickTricksOptim(false) },
		"full-window":    func(s *Searcher) { s.SetNullWindowOptim(false) },
	}
	base := NewSearcher(newTable())
	for i := 0; i < 15; i++ {
		hands := randomHands(rng, 5)
		strain := cards.Strains[i%cards.NumStrains]
		st, err := game.NewState(hands, strain, cards.Seats[i%cards.NumSeats], nil)
		is.NoErr(err)
		want, err := base.Solve(context.Background(), st)
		is.NoErr(err)
		for name, fn := range variants {
			s := NewSearcher(newTable())
			fn(s)
			got, err := s.Solve(context.Background(), st)
			is.NoErr(err)
			if got != want {
				t.Fatalf("%s: %v in %v gives %d, want %d", name, deal.FormatHands(hands), strain, got, want)
			}
		}
	}
}

func TestAnalyzePlays(t *testing.T) {
	is := is.New(t)
	rng := rand.New(rand.NewPCG(99, 1))
	s := NewSearcher(newTable())
	for i := 0; i < 10; i++ {
		st, err := game.NewState(randomHands(rng, 3), cards.Strains[i%cards.NumStrains], cards.South, nil)
		is.NoErr(err)
		best, err := s.Solve(context.Background(), st)
		is.NoErr(err)
		results, err := s.AnalyzePlays(context.Background(), st)
		is.NoErr(err)
		is.Equal(len(results), len(st.LegalPlays()))

		top := -1
		for _, r := range results {
			is.True(r.Tricks <= best)
			top = max(top, r.Tricks)

			// each card checked independently
			is.NoErr(st.Play(r.Card))
			v := bruteForceNS(st.Clone())
			st.Unplay()
			is.Equal(nsTricks(st, r.Tricks), v)
		}
		is.Equal(top, best)
	}
}

func TestSwapNeverHurts(t *testing.T) {
	is := is.New(t)
	rng := rand.New(rand.NewPCG(5, 5))
	s := NewSearcher(newTable())
	checked := 0
	for checked < 10 {
		hands := randomHands(rng, 4)
		// find a North-South card with a higher East-West card of the
		// same suit.
		var lowSeat, highSeat cards.Seat
		var low, high cards.Card
		found := false
		for _, ns := range []cards.Seat{cards.North, cards.South} {
			for _, c := range hands[ns].Cards() {
				for _, ew := range []cards.Seat{cards.East, cards.West} {
					above := hands[ew][c.Suit()].Above(c.Rank())
					if !found && above != 0 {
						lowSeat, highSeat, low = ns, ew, c
						high = cards.NewCard(c.Suit(), above.Lowest())
						found = true
					}
				}
			}
		}
		if !found {
			continue
		}
		strain := cards.Strains[rng.IntN(cards.NumStrains)]
		before, err := game.NewState(hands, strain, cards.East, nil)
		is.NoErr(err)
		vb, err := s.Solve(context.Background(), before)
		is.NoErr(err)

		hands[lowSeat].Remove(low)
		hands[highSeat].Remove(high)
		hands[lowSeat].Add(high)
		hands[highSeat].Add(low)
		after, err := game.NewState(hands, strain, cards.East, nil)
		is.NoErr(err)
		va, err := s.Solve(context.Background(), after)
		is.NoErr(err)
		is.True(nsTricks(after, va) >= nsTricks(before, vb))
		checked++
	}
}

func TestSolidSuit(t *testing.T) {
	if testing.Short() {
		t.Skip()
	}
	is := is.New(t)
	gen := deal.NewGenerator(17)
	for i, declarer := range []cards.Seat{cards.North, cards.South, cards.North, cards.South} {
		d := gen.Deal()
		// declarer gets every spade; the other 39 cards go to the rest.
		var rest []cards.Card
		for _, seat := range cards.Seats {
			h := d[seat]
			h[cards.Spades] = 0
			rest = append(rest, h.Cards()...)
		}
		var hands [cards.NumSeats][]cards.Card
		var spades cards.Hand
		spades[cards.Spades] = 1<<cards.NumRanks - 1
		hands[declarer] = spades.Cards()
		for j, seat := 0, declarer.Next(); seat != declarer; j, seat = j+1, seat.Next() {
			hands[seat] = rest[j*cards.HandSize : (j+1)*cards.HandSize]
		}
		full, err := deal.FromCards(hands)
		is.NoErr(err)

		st, err := game.FromDeal(full, cards.StrainSpades, declarer.Next(), nil)
		is.NoErr(err)
		v, err := NewSearcher(newTable()).Solve(context.Background(), st)
		is.NoErr(err)
		if nsTricks(st, v) != 13 {
			t.Fatalf("deal %d (%v): declarer takes %d tricks", i, full, nsTricks(st, v))
		}
	}
}

func TestBudgetExhausted(t *testing.T) {
	is := is.New(t)
	d := deal.NewGenerator(3).Deal()
	st, err := game.FromDeal(d, cards.NoTrump, cards.West, nil)
	is.NoErr(err)

	s := NewSearcher(nil)
	s.SetQuickTricksOptim(false)
	s.SetNullWindowOptim(false)
	s.SetEquivalenceReduction(false)
	s.SetMaxNodes(1)
	_, err = s.Solve(context.Background(), st)
	is.True(errors.Is(err, ErrUnsolved))
	is.Equal(st.CardsPlayed(), 0)

	// The bound is checked at every node.
	s = NewSearcher(newTable())
	s.SetMaxNodes(10)
	_, err = s.Solve(context.Background(), st)
	is.True(errors.Is(err, ErrUnsolved))
	is.Equal(s.Nodes(), uint64(11))
	is.Equal(st.CardsPlayed(), 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewSearcher(newTable()).Solve(ctx, st)
	is.True(errors.Is(err, ErrUnsolved))
	is.True(errors.Is(err, context.Canceled))
}

func TestQuickTricksBound(t *testing.T) {
	is := is.New(t)
	// North leads: two spade tops and the heart ace cash in no-trump.
	st := mustState(t, "N:AK.A2.. Q2.KQ.. 43.43.. 65.65..", cards.NoTrump, cards.North)
	is.Equal(quickTricks(st), 3)

	// Nobody holds a diamond, so the diamond contract counts like no-trump.
	st = mustState(t, "N:AK.A2.. Q2.KQ.. 43.43.. 65.65..", cards.StrainDiamonds, cards.North)
	is.Equal(quickTricks(st), 3)

	// In hearts the opponents keep trumps after the ace, so spades count
	// only while both of them follow.
	st = mustState(t, "N:AK.A2.. Q2.KQ.. 43.43.. 65.65..", cards.StrainHearts, cards.North)
	is.Equal(quickTricks(st), 3)

	is.Equal(topRun(0, 0), 0)

	// North has no master of its own but reaches South's spades.
	st = mustState(t, "N:2.32.. 43.4.. AKQ... 5.65..", cards.NoTrump, cards.North)
	is.Equal(quickTricks(st), 3)
}

func TestLostTricksBound(t *testing.T) {
	is := is.New(t)
	// East's side holds no trump above the heart ace.
	st := mustState(t, "N:AK.A2.. Q2.KQ.. 43.43.. 65.65..", cards.StrainHearts, cards.East)
	is.Equal(lostTricks(st), 1)
	st = mustState(t, "N:AK.A2.. Q2.KQ.. 43.43.. 65.65..", cards.StrainHearts, cards.North)
	is.Equal(lostTricks(st), 0)

	// North can only lead into East's ace.
	st = mustState(t, "N:Q3... A2... K4... 65...", cards.NoTrump, cards.North)
	is.Equal(lostTricks(st), 1)
	st = mustState(t, "N:Q3... A2... K4... 65...", cards.NoTrump, cards.West)
	is.Equal(lostTricks(st), 0)
}

func TestTrickBoundsAreSound(t *testing.T) {
	rng := rand.New(rand.NewPCG(8, 13))
	for i := 0; i < 120; i++ {
		hands := randomHands(rng, 3+i%2)
		strain := cards.Strains[i%cards.NumStrains]
		leader := cards.Seats[rng.IntN(cards.NumSeats)]
		st, err := game.NewState(hands, strain, leader, nil)
		if err != nil {
			t.Fatal(err)
		}
		left := st.TricksLeft()
		v := bruteForceNS(st.Clone())
		if leader.Side() != cards.NorthSouth {
			v = left - v
		}
		lower, upper := quickTricks(st), left-lostTricks(st)
		if v < lower || v > upper {
			t.Fatalf("position %v strain %v leader %v: %d tricks outside [%d, %d]",
				deal.FormatHands(hands), strain, leader, v, lower, upper)
		}
	}
}
