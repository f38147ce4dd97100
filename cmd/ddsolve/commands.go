package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/domino14/ddsolver/bench"
	"github.com/domino14/ddsolver/cards"
	"github.com/domino14/ddsolver/config"
	"github.com/domino14/ddsolver/deal"
	"github.com/domino14/ddsolver/eval"
	"github.com/domino14/ddsolver/service"
	"github.com/domino14/ddsolver/solver"
	"github.com/domino14/ddsolver/store"
)

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// newSolver builds a solver, attaching the table store when db-path is set.
func newSolver(ctx context.Context, cfg *config.Config) (*solver.Solver, func(), error) {
	s := solver.New(cfg)
	path := cfg.GetString(config.ConfigDBPath)
	if path == "" {
		return s, func() {}, nil
	}
	st, err := store.Open(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	s.SetStore(st)
	return s, func() { st.Close() }, nil
}

// readDeals reads one PBN deal per line, skipping blank lines and lines
// starting with #.
func readDeals(r io.Reader) ([]deal.Deal, error) {
	var deals []deal.Deal
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		d, err := deal.Parse(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		deals = append(deals, d)
	}
	return deals, sc.Err()
}

type SolveCmd struct {
	Deals   []string `arg:"" optional:"" help:"deals in PBN notation; read from stdin when omitted"`
	Strains string   `help:"strains to solve, e.g. SH or NT" default:"all"`
	JSON    bool     `help:"print tables as JSON"`
}

func (c *SolveCmd) Run(g *Globals) error {
	cfg, err := g.config()
	if err != nil {
		return err
	}
	flags, err := solver.ParseStrainFlags(c.Strains)
	if err != nil {
		return err
	}
	var deals []deal.Deal
	if len(c.Deals) == 0 {
		deals, err = readDeals(os.Stdin)
	} else {
		deals, err = readDeals(strings.NewReader(strings.Join(c.Deals, "\n")))
	}
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()
	s, closeStore, err := newSolver(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	tstart := time.Now()
	results, err := s.SolveDeals(ctx, deals, flags)
	for i, res := range results {
		if res == nil {
			continue
		}
		if c.JSON {
			data, jerr := json.Marshal(map[string]any{"deal": deals[i].String(), "table": res})
			if jerr != nil {
				return jerr
			}
			fmt.Println(string(data))
			continue
		}
		fmt.Println(deals[i])
		fmt.Println(res)
	}
	log.Info().Int("deals", len(deals)).Uint64("nodes", s.Nodes()).
		Float64("elapsed-sec", time.Since(tstart).Seconds()).Msg("solved")
	return err
}

type AnalyzeCmd struct {
	Hands  string   `arg:"" help:"hands in PBN notation, all of the same length"`
	Strain string   `help:"trumps (C, D, H, S or NT)" default:"NT"`
	Leader string   `help:"seat on lead to the current trick" default:"W"`
	Played []string `help:"cards played to the current trick, e.g. SA,S2"`
}

func (c *AnalyzeCmd) Run(g *Globals) error {
	cfg, err := g.config()
	if err != nil {
		return err
	}
	hands, err := deal.ParseHands(c.Hands)
	if err != nil {
		return err
	}
	strain, err := cards.ParseStrain(c.Strain)
	if err != nil {
		return err
	}
	if c.Leader == "" {
		return errors.New("leader is required")
	}
	leader, err := cards.ParseSeat(rune(strings.ToUpper(c.Leader)[0]))
	if err != nil {
		return err
	}
	played := make([]cards.Card, 0, len(c.Played))
	for _, s := range c.Played {
		card, err := cards.ParseCard(s)
		if err != nil {
			return err
		}
		played = append(played, card)
	}

	ctx, cancel := signalContext()
	defer cancel()
	s := solver.New(cfg)
	p, err := s.AnalyzePosition(ctx, hands, strain, leader, played)
	if err != nil {
		return err
	}
	fmt.Printf("%v to play; NS %d, EW %d\n", p.Turn, p.Final(cards.NorthSouth), p.Final(cards.EastWest))
	for _, pl := range p.Plays {
		fmt.Printf("  %v  %d\n", pl.Card, pl.Tricks)
	}
	return nil
}

type DealCmd struct {
	Count int    `short:"n" help:"number of deals" default:"1"`
	Seed  uint64 `help:"random seed; 0 draws from the system" default:"0"`
	Solve bool   `help:"also solve each deal"`
}

func (c *DealCmd) Run(g *Globals) error {
	cfg, err := g.config()
	if err != nil {
		return err
	}
	deals := deal.NewGenerator(c.Seed).Deals(c.Count)
	if !c.Solve {
		for _, d := range deals {
			fmt.Println(d)
		}
		return nil
	}
	ctx, cancel := signalContext()
	defer cancel()
	s, closeStore, err := newSolver(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	for _, d := range deals {
		res, err := s.SolveDeal(ctx, d)
		if err != nil {
			return err
		}
		fmt.Println(d)
		fmt.Println(res)
	}
	return nil
}

type BenchCmd struct {
	Deals      int    `short:"n" help:"number of deals (default from config)"`
	Seed       uint64 `help:"random seed; 0 draws from the system"`
	Evaluators string `short:"e" help:"comma-separated evaluators, or all" default:"all"`
	Format     string `help:"report format" enum:"text,yaml,json" default:"text"`
}

func (c *BenchCmd) Run(g *Globals) error {
	cfg, err := g.config()
	if err != nil {
		return err
	}
	if c.Deals > 0 {
		cfg.Set(config.ConfigBenchDeals, c.Deals)
	}
	if c.Seed != 0 {
		cfg.Set(config.ConfigBenchSeed, c.Seed)
	}
	evs, err := eval.Parse(c.Evaluators)
	if err != nil {
		return err
	}
	log.Info().Strs("evaluators", lo.Map(evs, func(e eval.HandEvaluator, _ int) string {
		return e.Name()
	})).Int("deals", cfg.GetInt(config.ConfigBenchDeals)).Msg("bench-starting")

	ctx, cancel := signalContext()
	defer cancel()
	s, closeStore, err := newSolver(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	rep, err := bench.NewRunner(s, cfg, evs).Run(ctx)
	if err != nil {
		return err
	}
	return rep.Write(os.Stdout, c.Format)
}

type ServeCmd struct{}

func (c *ServeCmd) Run(g *Globals) error {
	cfg, err := g.config()
	if err != nil {
		return err
	}
	nc, err := nats.Connect(cfg.GetString(config.ConfigNatsURL))
	if err != nil {
		return err
	}
	defer nc.Close()

	ctx, cancel := signalContext()
	defer cancel()
	s, closeStore, err := newSolver(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	return service.Listen(ctx, nc, cfg.GetString(config.ConfigNatsSubject), service.NewHandler(s))
}

type RemoteCmd struct {
	Deal      string `arg:"" help:"deal in PBN notation"`
	Strains   string `help:"strains to solve" default:"all"`
	TimeoutMs int    `help:"server-side time limit in milliseconds"`
}

func (c *RemoteCmd) Run(g *Globals) error {
	cfg, err := g.config()
	if err != nil {
		return err
	}
	nc, err := nats.Connect(cfg.GetString(config.ConfigNatsURL))
	if err != nil {
		return err
	}
	defer nc.Close()

	ctx, cancel := signalContext()
	defer cancel()
	client := service.NewClient(nc, cfg.GetString(config.ConfigNatsSubject))
	resp, err := client.Solve(ctx, &service.SolveRequest{
		Deal:      c.Deal,
		Strains:   c.Strains,
		TimeoutMs: c.TimeoutMs,
	})
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(resp.Table, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
