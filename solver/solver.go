// Package solver computes double-dummy tables: for each strain and each
// declarer, the tricks declarer's side takes against best defence. It runs
// the (strain, declarer) searches in parallel over one shared
// transposition table.
package solver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/domino14/ddsolver/cache"
	"github.com/domino14/ddsolver/cards"
	"github.com/domino14/ddsolver/config"
	"github.com/domino14/ddsolver/deal"
	"github.com/domino14/ddsolver/game"
	"github.com/domino14/ddsolver/negamax"
	"github.com/domino14/ddsolver/zobrist"
)

const resultCacheSize = 1 << 12

// ErrUnsolved is returned when a search runs out of time or nodes.
var ErrUnsolved = negamax.ErrUnsolved

// Store persists solved tables between runs.
type Store interface {
	Lookup(ctx context.Context, pbn string) (*Result, error)
	Save(ctx context.Context, pbn string, r *Result) error
}

type Solver struct {
	ttable  *negamax.TranspositionTable
	zobrist *zobrist.Zobrist

	threads                 int
	maxNodes                uint64
	timeout                 time.Duration
	transpositionTableOptim bool
	equivalenceOptim        bool
	quickTricksOptim        bool
	nullWindowOptim         bool

	searchers sync.Pool
	results   *cache.Cache[*Result]
	store     Store

	nodes atomic.Uint64
}

// New builds a solver from configuration. The transposition table is
// allocated here and kept for the life of the solver.
func New(cfg *config.Config) *Solver {
	s := &Solver{
		zobrist:                 zobrist.New(),
		threads:                 max(1, cfg.GetInt(config.ConfigThreads)),
		maxNodes:                uint64(max(0, cfg.GetInt64(config.ConfigMaxNodes))),
		timeout:                 cfg.GetDuration(config.ConfigSolveTimeout),
		transpositionTableOptim: cfg.GetBool(config.ConfigTranspositionTable),
		equivalenceOptim:        cfg.GetBool(config.ConfigEquivalenceReduction),
		quickTricksOptim:        cfg.GetBool(config.ConfigQuickTricks),
		nullWindowOptim:         cfg.GetBool(config.ConfigNullWindow),
		results:                 cache.New[*Result](resultCacheSize),
	}
	if s.transpositionTableOptim {
		s.ttable = &negamax.TranspositionTable{}
		if p := cfg.GetInt(config.ConfigTTSizePower); p > 0 {
			s.ttable.ResetPower(p)
		} else {
			s.ttable.Reset(cfg.GetFloat64(config.ConfigTTMemoryFraction))
		}
	}
	s.SetThreads(s.threads)
	s.searchers.New = func() any {
		sr := negamax.NewSearcher(s.ttable)
		sr.SetTranspositionTableOptim(s.transpositionTableOptim)
		sr.SetEquivalenceReduction(s.equivalenceOptim)
		sr.SetQuickTricksOptim(s.quickTricksOptim)
		sr.SetNullWindowOptim(s.nullWindowOptim)
		sr.SetMaxNodes(s.maxNodes)
		sr.SetNodeCounter(&s.nodes)
		return sr
	}
	return s
}

func (s *Solver) SetThreads(threads int) {
	s.threads = max(1, threads)
	if s.ttable == nil {
		return
	}
	if s.threads > 1 {
		s.ttable.SetMultiThreadedMode()
	} else {
		s.ttable.SetSingleThreadedMode()
	}
}

func (s *Solver) SetStore(st Store) {
	s.store = st
}

// Nodes returns the total nodes searched since the solver was created.
func (s *Solver) Nodes() uint64 {
	return s.nodes.Load()
}

func (s *Solver) TableStats() negamax.Stats {
	if s.ttable == nil {
		return negamax.Stats{}
	}
	return s.ttable.Stats()
}

func (s *Solver) getSearcher() *negamax.Searcher {
	return s.searchers.Get().(*negamax.Searcher)
}

func (s *Solver) putSearcher(sr *negamax.Searcher) {
	s.searchers.Put(sr)
}

func (s *Solver) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return context.WithCancel(ctx)
}

// SolveDeal solves all five strains.
func (s *Solver) SolveDeal(ctx context.Context, d deal.Deal) (*Result, error) {
	return s.SolveStrains(ctx, d, AllStrains)
}

// SolveStrains solves the selected strains for all four declarers. An
// invalid deal is rejected before any search; a search that runs out of
// budget fails the whole call with an error matching ErrUnsolved.
func (s *Solver) SolveStrains(ctx context.Context, d deal.Deal, flags StrainFlags) (*Result, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	flags &= AllStrains
	key := d.String()

	res := &Result{}
	if cached, ok := s.results.Get(key); ok {
		res.merge(cached)
	}
	if s.store != nil && !res.solved.Covers(flags) {
		stored, err := s.store.Lookup(ctx, key)
		if err != nil {
			log.Err(err).Str("deal", key).Msg("store-lookup-failed")
		} else if stored != nil {
			res.merge(stored)
		}
	}
	todo := flags &^ res.solved
	if todo == 0 {
		return res.only(flags), nil
	}

	tstart := time.Now()
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	done := make(chan struct{})
	defer close(done)
	go s.logProgress(done)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.threads)
	for _, strain := range todo.Strains() {
		for _, declarer := range cards.Seats {
			g.Go(func() error {
				st, err := game.FromDeal(d, strain, declarer.Next(), s.zobrist)
				if err != nil {
					return err
				}
				sr := s.getSearcher()
				defer s.putSearcher(sr)
				v, err := sr.Solve(gctx, st)
				if err != nil {
					return fmt.Errorf("%v by %v: %w", strain, declarer, err)
				}
				// v counts the opening leader's tricks.
				res.set(strain, declarer, cards.HandSize-v)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	res.solved |= todo

	stats := s.TableStats()
	log.Info().
		Str("strains", todo.String()).
		Uint64("ttable-created", stats.Created).
		Uint64("ttable-lookups", stats.Lookups).
		Uint64("ttable-hits", stats.Hits).
		Uint64("ttable-t2collisions", stats.T2Collisions).
		Float64("time-elapsed-sec", time.Since(tstart).Seconds()).
		Msg("solve-returning")

	s.results.Put(key, res)
	if s.store != nil {
		if err := s.store.Save(ctx, key, res); err != nil {
			log.Err(err).Str("deal", key).Msg("store-save-failed")
		}
	}
	return res.only(flags), nil
}

func (s *Solver) logProgress(done <-chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	lastNodes := s.nodes.Load()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			nodes := s.nodes.Load()
			log.Debug().Uint64("nps", nodes-lastNodes).Msg("nodes-per-second")
			lastNodes = nodes
		}
	}
}

// SolveDeals solves a batch of deals in order, reusing the transposition
// table between them. A deal that fails leaves a nil entry; the returned
// error joins every failure.
func (s *Solver) SolveDeals(ctx context.Context, deals []deal.Deal, flags StrainFlags) ([]*Result, error) {
	results := make([]*Result, len(deals))
	var errs []error
	for i, d := range deals {
		r, err := s.SolveStrains(ctx, d, flags)
		if err != nil {
			errs = append(errs, fmt.Errorf("deal %d: %w", i, err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		results[i] = r
	}
	return results, errors.Join(errs...)
}

// Position is the solution of a position part way through play.
type Position struct {
	Turn cards.Seat
	// Won counts tricks each side has already taken.
	Won [2]int
	// Tricks is how many of the remaining tricks the side on turn takes.
	Tricks     int
	TricksLeft int
	// Plays holds the value of each legal card; only AnalyzePosition
	// fills it in.
	Plays []negamax.PlayResult
}

// Final returns the tricks side ends the deal with.
func (p *Position) Final(side cards.Side) int {
	if p.Turn.Side() == side {
		return p.Won[side] + p.Tricks
	}
	return p.Won[side] + p.TricksLeft - p.Tricks
}

func (s *Solver) position(hands [cards.NumSeats]cards.Hand, strain cards.Strain,
	leader cards.Seat, played []cards.Card) (*game.State, error) {

	st, err := game.NewState(hands, strain, leader, s.zobrist)
	if err != nil {
		return nil, err
	}
	for _, c := range played {
		if err := st.Play(c); err != nil {
			return nil, err
		}
	}
	return st, nil
}

// SolvePosition solves an endgame: hands of equal length, leader on lead
// to the first trick, then the cards in played.
func (s *Solver) SolvePosition(ctx context.Context, hands [cards.NumSeats]cards.Hand,
	strain cards.Strain, leader cards.Seat, played []cards.Card) (*Position, error) {

	return s.solvePosition(ctx, hands, strain, leader, played, false)
}

// AnalyzePosition is SolvePosition plus the value of every legal card.
func (s *Solver) AnalyzePosition(ctx context.Context, hands [cards.NumSeats]cards.Hand,
	strain cards.Strain, leader cards.Seat, played []cards.Card) (*Position, error) {

	return s.solvePosition(ctx, hands, strain, leader, played, true)
}

func (s *Solver) solvePosition(ctx context.Context, hands [cards.NumSeats]cards.Hand,
	strain cards.Strain, leader cards.Seat, played []cards.Card, analyze bool) (*Position, error) {

	st, err := s.position(hands, strain, leader, played)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	sr := s.getSearcher()
	defer s.putSearcher(sr)

	p := &Position{
		Turn:       st.Turn(),
		Won:        [2]int{st.TricksWon(cards.NorthSouth), st.TricksWon(cards.EastWest)},
		TricksLeft: st.TricksLeft(),
	}
	p.Tricks, err = sr.Solve(ctx, st)
	if err != nil {
		return nil, err
	}
	if analyze {
		p.Plays, err = sr.AnalyzePlays(ctx, st)
		if err != nil {
			return nil, err
		}
	}
	log.Debug().Str("turn", p.Turn.String()).Int("tricks", p.Tricks).
		Uint64("nodes", sr.Nodes()).Msg("position-solved")
	return p, nil
}
