// Package negamax is the double-dummy search engine: a fail-soft
// alpha-beta negamax over the two partnerships, driven by null-window
// searches and backed by a shared transposition table.
package negamax

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/domino14/ddsolver/cards"
	"github.com/domino14/ddsolver/game"
	"github.com/domino14/ddsolver/movegen"
)

/*
Values are the number of tricks the side on turn still takes from the
current point, in [0, tricks left]. Consecutive plays may belong to the same
side (partner follows, or the trick winner leads again), so instead of
negating the child's value we translate it:

	same side:      v = gained + child
	other side:     v = gained + r - child

where gained is 1 when the play completed a trick that the mover's side
won, and r is the number of tricks left after the play. The child's window
is translated the same way.
*/

const (
	// The context and node budget are checked every nodeCheckInterval nodes.
	nodeCheckInterval = 1 << 12
	nodeCheckMask     = nodeCheckInterval - 1
	maxPly            = cards.NumCards + 1
)

var ErrUnsolved = errors.New("position not solved within budget")

// PlayResult is the value of one card at the root: the tricks the side on
// turn takes from here if it plays Card and play is optimal afterwards.
type PlayResult struct {
	Card   cards.Card
	Tricks int
}

// Searcher solves positions. A Searcher is not safe for concurrent use;
// concurrent searches each get their own, and may share one
// TranspositionTable in multi-threaded mode.
type Searcher struct {
	ttable  *TranspositionTable
	movegen *movegen.Generator

	transpositionTableOptim bool
	quickTricksOptim        bool
	nullWindowOptim         bool

	maxNodes uint64
	nodes    uint64
	// nodeCounter, if set, is bumped periodically so that a caller can
	// report progress across several searchers.
	nodeCounter *atomic.Uint64

	ctx   context.Context
	st    *game.State
	abort error

	moveBufs  [maxPly][]cards.Card
	estimates [maxPly][]int
}

// NewSearcher returns a searcher with every optimization on. A nil table
// disables the transposition table.
func NewSearcher(tt *TranspositionTable) *Searcher {
	s := &Searcher{
		ttable:                  tt,
		movegen:                 movegen.NewGenerator(),
		transpositionTableOptim: tt != nil,
		quickTricksOptim:        true,
		nullWindowOptim:         true,
	}
	for i := range s.moveBufs {
		s.moveBufs[i] = make([]cards.Card, 0, cards.HandSize)
		s.estimates[i] = make([]int, cards.HandSize)
	}
	return s
}

func (s *Searcher) SetTranspositionTableOptim(tt bool) {
	s.transpositionTableOptim = tt && s.ttable != nil
}

func (s *Searcher) SetQuickTricksOptim(q bool) {
	s.quickTricksOptim = q
}

func (s *Searcher) SetNullWindowOptim(n bool) {
	s.nullWindowOptim = n
}

func (s *Searcher) SetEquivalenceReduction(e bool) {
	s.movegen.SetEquivalenceReduction(e)
}

// SetMaxNodes bounds the nodes a single Solve or AnalyzePlays call may
// visit: the call fails with ErrUnsolved on node n+1. 0 means no bound. The
// context is only polled every few thousand nodes.
func (s *Searcher) SetMaxNodes(n uint64) {
	s.maxNodes = n
}

func (s *Searcher) SetNodeCounter(c *atomic.Uint64) {
	s.nodeCounter = c
}

// Nodes returns the nodes visited by the last call.
func (s *Searcher) Nodes() uint64 {
	return s.nodes
}

func (s *Searcher) prepare(ctx context.Context, st *game.State) {
	s.ctx = ctx
	s.st = st
	s.abort = nil
	s.nodes = 0
}

func (s *Searcher) finish() {
	if s.nodeCounter != nil {
		s.nodeCounter.Add(s.nodes & nodeCheckMask)
	}
	s.st = nil
	s.ctx = nil
}

func (s *Searcher) checkBudget() {
	if s.nodeCounter != nil {
		s.nodeCounter.Add(nodeCheckInterval)
	}
	if err := s.ctx.Err(); err != nil {
		s.abort = fmt.Errorf("%w: %w", ErrUnsolved, err)
	}
}

// Solve returns the tricks the side on turn takes from the current point
// under optimal play by all four seats. st is used as scratch space and is
// returned to its original position.
func (s *Searcher) Solve(ctx context.Context, st *game.State) (int, error) {
	s.prepare(ctx, st)
	defer s.finish()
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrUnsolved, err)
	}
	v := s.solveCurrent()
	if s.abort != nil {
		return 0, s.abort
	}
	return v, nil
}

// solveCurrent runs the root driver on s.st.
func (s *Searcher) solveCurrent() int {
	left := s.st.TricksLeft()
	if !s.nullWindowOptim {
		return s.negamax(0, -1, left+1)
	}
	lower, upper := 0, left
	if s.quickTricksOptim && s.st.NumPlayed() == 0 {
		lower = quickTricks(s.st)
		upper = left - lostTricks(s.st)
	}
	for lower < upper {
		target := (lower + upper + 1) / 2
		v := s.negamax(0, target-1, target)
		if s.abort != nil {
			return 0
		}
		if v >= target {
			lower = v
		} else {
			upper = v
		}
	}
	return lower
}

// AnalyzePlays returns the value of every legal card of the seat on turn,
// in the order the cards are generated. Cards of one equivalence class
// share the value of the class.
func (s *Searcher) AnalyzePlays(ctx context.Context, st *game.State) ([]PlayResult, error) {
	s.prepare(ctx, st)
	defer s.finish()

	var classes []movegen.Class
	if s.movegen.EquivalenceReduction() {
		classes = movegen.Classes(st)
	} else {
		for _, c := range st.LegalPlays() {
			classes = append(classes, movegen.Class{Rep: c, Members: []cards.Card{c}})
		}
	}
	mover := st.Turn().Side()
	var results []PlayResult
	for _, cl := range classes {
		if err := st.Play(cl.Rep); err != nil {
			return nil, err
		}
		gained := 0
		if st.TrickEnded() && st.Leader().Side() == mover {
			gained = 1
		}
		child := s.solveCurrent()
		v := gained + child
		if st.Turn().Side() != mover {
			v = gained + st.TricksLeft() - child
		}
		if err := st.Unplay(); err != nil {
			return nil, err
		}
		if s.abort != nil {
			return nil, s.abort
		}
		for _, m := range cl.Members {
			results = append(results, PlayResult{Card: m, Tricks: v})
		}
	}
	return results, nil
}

// lastTrick resolves the forced final trick without playing it and
// reports whether the side on turn wins it.
func (s *Searcher) lastTrick() int {
	st := s.st
	mover := st.Turn().Side()
	winSeat, winCard := st.Winning()
	seat := st.Turn()
	for i := st.NumPlayed(); i < cards.NumSeats; i++ {
		c := onlyCard(st.Hand(seat))
		if winCard == cards.NoCard || c.Beats(winCard, st.Strain()) {
			winSeat, winCard = seat, c
		}
		seat = seat.Next()
	}
	if winSeat.Side() == mover {
		return 1
	}
	return 0
}

// onlyCard returns the card of a one-card hand.
func onlyCard(h cards.Hand) cards.Card {
	for suit := cards.Clubs; suit < cards.NumSuits; suit++ {
		if h[suit] != 0 {
			return cards.NewCard(suit, h[suit].Highest())
		}
	}
	return cards.NoCard
}

// relativeCard packs a lead as its suit and the number of unplayed cards of
// the suit above it, so that a table entry's move carries over to every
// position sharing its pattern. It must be called between tricks.
func relativeCard(st *game.State, c cards.Card) cards.Card {
	if c == cards.NoCard {
		return c
	}
	return cards.NewCard(c.Suit(), cards.Rank(st.RelativeRank(c)))
}

func absoluteCard(st *game.State, rc cards.Card) cards.Card {
	if rc == cards.NoCard {
		return rc
	}
	return st.AtRelativeRank(rc.Suit(), int(rc.Rank()))
}

func (s *Searcher) negamax(ply int, α, β int) int {
	st := s.st
	s.nodes++
	if s.maxNodes > 0 && s.nodes > s.maxNodes {
		s.abort = fmt.Errorf("%w: node limit %d reached", ErrUnsolved, s.maxNodes)
	} else if s.nodes&nodeCheckMask == 0 {
		s.checkBudget()
	}
	if s.abort != nil {
		return 0
	}
	left := st.TricksLeft()
	if left == 0 {
		return 0
	}
	if α >= left {
		return left
	}
	if β <= 0 {
		return 0
	}
	if left == 1 {
		return s.lastTrick()
	}

	// The table and the trick bounds only apply between tricks.
	trickStart := st.NumPlayed() == 0
	var key uint64
	hashMove := cards.NoCard
	if trickStart && s.transpositionTableOptim {
		key = st.PatternKey()
		e := s.ttable.lookup(key)
		if e.valid {
			lower, upper := e.Bounds()
			if lower == upper || lower >= β {
				return lower
			}
			if upper <= α {
				return upper
			}
			α = max(α, lower)
			β = min(β, upper)
			hashMove = absoluteCard(st, e.play)
		}
	}
	if trickStart && s.quickTricksOptim {
		qt := quickTricks(st)
		if qt >= β {
			return qt
		}
		ub := left - lostTricks(st)
		if ub <= α || ub == qt {
			return ub
		}
		α = max(α, qt)
		β = min(β, ub)
	}

	alphaOrig := α
	mover := st.Turn().Side()
	moves := s.movegen.Generate(st, s.moveBufs[ply])
	s.moveBufs[ply] = moves
	s.assignEstimates(moves, ply, hashMove)

	bestValue := -1
	bestMove := cards.NoCard
	for _, c := range moves {
		if err := st.Play(c); err != nil {
			s.abort = err
			return 0
		}
		gained := 0
		if st.TrickEnded() && st.Leader().Side() == mover {
			gained = 1
		}
		var value int
		if st.Turn().Side() == mover {
			value = gained + s.negamax(ply+1, α-gained, β-gained)
		} else {
			r := st.TricksLeft()
			value = gained + r - s.negamax(ply+1, r+gained-β, r+gained-α)
		}
		if err := st.Unplay(); err != nil {
			s.abort = err
			return 0
		}
		if s.abort != nil {
			return 0
		}
		if value > bestValue {
			bestValue = value
			bestMove = c
		}
		α = max(α, bestValue)
		if bestValue >= β {
			break // beta cut-off
		}
	}

	if trickStart && s.transpositionTableOptim {
		lower, upper := 0, left
		if bestValue <= alphaOrig {
			upper = bestValue
		} else if bestValue >= β {
			lower = bestValue
		} else {
			lower, upper = bestValue, bestValue
		}
		s.ttable.store(key, left, lower, upper, relativeCard(st, bestMove))
	}
	return bestValue
}
