// Package eval holds hand evaluators: point counts and losing trick counts
// that estimate how many tricks a hand or partnership will take.
package eval

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/domino14/ddsolver/cards"
)

var ErrUnknownEvaluator = errors.New("unknown evaluator")

// Contract says which double-dummy result an evaluator tries to predict.
type Contract uint8

const (
	// NoTrumpContract evaluators predict no-trump tricks.
	NoTrumpContract Contract = iota
	// SuitContract evaluators predict tricks in the partnership's best
	// trump suit.
	SuitContract
)

func (c Contract) String() string {
	if c == NoTrumpContract {
		return "notrump"
	}
	return "suit"
}

// HandEvaluator scores a single hand.
type HandEvaluator interface {
	Eval(h cards.Hand) float64
	Name() string
	Contract() Contract
}

// EvalPair scores a partnership as the sum of its two hands.
func EvalPair(e HandEvaluator, pair [2]cards.Hand) float64 {
	return e.Eval(pair[0]) + e.Eval(pair[1])
}

// Kernel values a single suit holding.
type Kernel func(cards.Holding) float64

// SuitEvaluator sums a kernel over the four suits.
type SuitEvaluator struct {
	name     string
	kernel   Kernel
	contract Contract
}

func NewSuitEvaluator(name string, k Kernel, c Contract) *SuitEvaluator {
	return &SuitEvaluator{name: name, kernel: k, contract: c}
}

func (e *SuitEvaluator) Eval(h cards.Hand) float64 {
	total := 0.0
	for _, holding := range h {
		total += e.kernel(holding)
	}
	return total
}

func (e *SuitEvaluator) Name() string {
	return e.name
}

func (e *SuitEvaluator) Contract() Contract {
	return e.contract
}

// FuncEvaluator adapts a whole-hand function.
type FuncEvaluator struct {
	name     string
	fn       func(cards.Hand) float64
	contract Contract
}

func (e *FuncEvaluator) Eval(h cards.Hand) float64 {
	return e.fn(h)
}

func (e *FuncEvaluator) Name() string {
	return e.name
}

func (e *FuncEvaluator) Contract() Contract {
	return e.contract
}

var registry = map[string]HandEvaluator{}

func register(e HandEvaluator) HandEvaluator {
	registry[e.Name()] = e
	return e
}

var (
	HCPEvaluator        = register(NewSuitEvaluator("hcp", HCP, NoTrumpContract))
	HCPPlusEvaluator    = register(NewSuitEvaluator("hcp+", HCPPlus, SuitContract))
	FifthsEvaluator     = register(NewSuitEvaluator("fifths", Fifths, NoTrumpContract))
	BumRapEvaluator     = register(NewSuitEvaluator("bumrap", BumRap, NoTrumpContract))
	BumRapPlusEvaluator = register(NewSuitEvaluator("bumrap+", BumRapPlus, SuitContract))
	LTCEvaluator        = register(NewSuitEvaluator("ltc", LTC, SuitContract))
	NLTCEvaluator       = register(NewSuitEvaluator("nltc", NLTC, SuitContract))
	ZarEvaluator        = register(&FuncEvaluator{name: "zar", fn: Zar, contract: SuitContract})
)

// Names lists the registered evaluators in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

func Lookup(name string) (HandEvaluator, error) {
	e, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (have %s)", ErrUnknownEvaluator, name,
			strings.Join(Names(), ", "))
	}
	return e, nil
}

// Parse reads a comma-separated list of evaluator names; "all" or an empty
// string selects every evaluator.
func Parse(list string) ([]HandEvaluator, error) {
	list = strings.TrimSpace(list)
	if list == "" || strings.EqualFold(list, "all") {
		out := make([]HandEvaluator, 0, len(registry))
		for _, n := range Names() {
			out = append(out, registry[n])
		}
		return out, nil
	}
	var out []HandEvaluator
	for _, n := range strings.Split(list, ",") {
		e, err := Lookup(n)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
