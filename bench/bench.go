// Package bench measures how well hand evaluators predict double-dummy
// tricks. It solves random deals, scores each partnership with every
// evaluator, and fits tricks against score.
package bench

import (
	"cmp"
	"context"
	"errors"
	"math"
	"slices"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/domino14/ddsolver/cards"
	"github.com/domino14/ddsolver/config"
	"github.com/domino14/ddsolver/deal"
	"github.com/domino14/ddsolver/eval"
	"github.com/domino14/ddsolver/solver"
	"github.com/domino14/ddsolver/stats"
)

const DefaultDeals = 100

// TableSolver produces double-dummy tables. *solver.Solver implements it.
type TableSolver interface {
	SolveStrains(ctx context.Context, d deal.Deal, flags solver.StrainFlags) (*solver.Result, error)
}

// Sample is one partnership of one deal.
type Sample struct {
	Deal string
	Side cards.Side
	// NoTrump is the partnership's no-trump tricks with the better hand
	// declaring; BestSuit the most it takes in any trump suit.
	NoTrump  int
	BestSuit int
	Scores   []float64
}

// Target returns the tricks an evaluator of contract kind c predicts.
func (s Sample) Target(c eval.Contract) int {
	if c == eval.NoTrumpContract {
		return s.NoTrump
	}
	return s.BestSuit
}

type Runner struct {
	solver     TableSolver
	evaluators []eval.HandEvaluator
	numDeals   int
	seed       uint64
}

func NewRunner(s TableSolver, cfg *config.Config, evaluators []eval.HandEvaluator) *Runner {
	n := cfg.GetInt(config.ConfigBenchDeals)
	if n <= 0 {
		n = DefaultDeals
	}
	return &Runner{
		solver:     s,
		evaluators: evaluators,
		numDeals:   n,
		seed:       cfg.GetUint64(config.ConfigBenchSeed),
	}
}

// Run generates and solves random deals.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	deals := deal.NewGenerator(r.seed).Deals(r.numDeals)
	return r.RunDeals(ctx, deals)
}

// RunDeals solves the given deals and builds the report. A deal whose
// search runs out of budget is skipped; any other error, or cancellation,
// stops the run.
func (r *Runner) RunDeals(ctx context.Context, deals []deal.Deal) (*Report, error) {
	tstart := time.Now()
	var samples []Sample
	skipped := 0
	for i, d := range deals {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		res, err := r.solver.SolveStrains(ctx, d, solver.AllStrains)
		if err != nil {
			if errors.Is(err, solver.ErrUnsolved) && ctx.Err() == nil {
				log.Warn().Err(err).Str("deal", d.String()).Msg("bench-deal-skipped")
				skipped++
				continue
			}
			return nil, err
		}
		samples = append(samples, r.samples(d, res)...)
		if (i+1)%10 == 0 {
			log.Info().Int("solved", i+1).Int("of", len(deals)).
				Float64("elapsed-sec", time.Since(tstart).Seconds()).Msg("bench-progress")
		}
	}
	rep := r.report(samples)
	rep.Deals = len(deals)
	rep.Skipped = skipped
	rep.Elapsed = time.Since(tstart)
	return rep, nil
}

func (r *Runner) samples(d deal.Deal, res *solver.Result) []Sample {
	out := make([]Sample, 0, 2)
	for _, side := range []cards.Side{cards.NorthSouth, cards.EastWest} {
		s := Sample{
			Deal:    d.String(),
			Side:    side,
			NoTrump: res.Best(cards.NoTrump, side),
			Scores:  make([]float64, len(r.evaluators)),
		}
		for _, strain := range cards.Strains[:cards.NumSuits] {
			s.BestSuit = max(s.BestSuit, res.Best(strain, side))
		}
		pair := d.Pair(side)
		for i, e := range r.evaluators {
			s.Scores[i] = eval.EvalPair(e, pair)
		}
		out = append(out, s)
	}
	return out
}

func (r *Runner) report(samples []Sample) *Report {
	rep := &Report{Samples: len(samples)}
	for _, s := range samples {
		if s.Side == cards.NorthSouth {
			rep.NoTrump.push(float64(s.NoTrump))
		}
	}
	for i, e := range r.evaluators {
		xs := make([]float64, len(samples))
		ys := make([]float64, len(samples))
		for j, s := range samples {
			xs[j] = s.Scores[i]
			ys[j] = float64(s.Target(e.Contract()))
		}
		rep.Evaluators = append(rep.Evaluators, evaluatorReport(e, xs, ys))
	}
	return rep
}

func evaluatorReport(e eval.HandEvaluator, xs, ys []float64) EvaluatorReport {
	er := EvaluatorReport{Name: e.Name(), Contract: e.Contract().String()}
	line, err := stats.Fit(xs, ys)
	if err != nil {
		log.Debug().Err(err).Str("evaluator", e.Name()).Msg("no-fit")
	} else {
		er.Fit = line
		er.MeanAbsoluteError = line.MeanAbsoluteError(xs, ys)
		er.residuals = make([]float64, len(xs))
		for i := range xs {
			er.residuals[i] = ys[i] - line.Predict(xs[i])
		}
	}

	byScore := map[float64]*stats.Statistic{}
	for i, x := range xs {
		key := math.Round(x)
		st, ok := byScore[key]
		if !ok {
			st = &stats.Statistic{}
			byScore[key] = st
		}
		st.Push(ys[i])
	}
	for score, st := range byScore {
		er.Buckets = append(er.Buckets, Bucket{
			Score: score,
			Count: st.Iterations(),
			Mean:  st.Mean(),
			Stdev: st.PopulationStdev(),
		})
	}
	slices.SortFunc(er.Buckets, func(a, b Bucket) int {
		return cmp.Compare(a.Score, b.Score)
	})
	return er
}
