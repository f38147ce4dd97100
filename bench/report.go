package bench

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aybabtme/uniplot/histogram"
	"gopkg.in/yaml.v3"

	"github.com/domino14/ddsolver/stats"
)

const (
	histogramBins  = 12
	histogramWidth = 50
)

// Summary is a mean and population standard deviation.
type Summary struct {
	Count int     `json:"count" yaml:"count"`
	Mean  float64 `json:"mean" yaml:"mean"`
	Stdev float64 `json:"stdev" yaml:"stdev"`
	// CI95 is the half-width of the 95% confidence interval of the mean.
	CI95 float64 `json:"ci95" yaml:"ci95"`

	st stats.Statistic
}

func (s *Summary) push(v float64) {
	s.st.Push(v)
	s.Count = s.st.Iterations()
	s.Mean = s.st.Mean()
	s.Stdev = s.st.PopulationStdev()
	s.CI95 = s.st.ConfidenceInterval(95)
}

// Bucket holds the tricks taken by partnerships whose score rounds to
// Score.
type Bucket struct {
	Score float64 `json:"score" yaml:"score"`
	Count int     `json:"count" yaml:"count"`
	Mean  float64 `json:"mean" yaml:"mean"`
	Stdev float64 `json:"stdev" yaml:"stdev"`
}

type EvaluatorReport struct {
	Name              string     `json:"name" yaml:"name"`
	Contract          string     `json:"contract" yaml:"contract"`
	Fit               stats.Line `json:"fit" yaml:"fit"`
	MeanAbsoluteError float64    `json:"mean_absolute_error" yaml:"mean_absolute_error"`
	Buckets           []Bucket   `json:"buckets" yaml:"buckets"`

	// solved minus predicted tricks, per sample
	residuals []float64
}

type Report struct {
	Deals   int           `json:"deals" yaml:"deals"`
	Skipped int           `json:"skipped" yaml:"skipped"`
	Samples int           `json:"samples" yaml:"samples"`
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
	// NoTrump summarizes North-South's no-trump tricks.
	NoTrump    Summary           `json:"notrump" yaml:"notrump"`
	Evaluators []EvaluatorReport `json:"evaluators" yaml:"evaluators"`
}

func (r *Report) Evaluator(name string) (EvaluatorReport, bool) {
	for _, e := range r.Evaluators {
		if e.Name == name {
			return e, true
		}
	}
	return EvaluatorReport{}, false
}

// Write renders the report as "text", "yaml" or "json".
func (r *Report) Write(w io.Writer, format string) error {
	switch strings.ToLower(format) {
	case "", "text":
		return r.WriteText(w)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	return fmt.Errorf("unknown report format %q", format)
}

func (r *Report) WriteText(w io.Writer) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "deals: %d (skipped %d), samples: %d, elapsed: %v\n",
		r.Deals, r.Skipped, r.Samples, r.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(&sb, "NS notrump tricks: %.2f ± %.2f (mean within %.2f at 95%%)\n",
		r.NoTrump.Mean, r.NoTrump.Stdev, r.NoTrump.CI95)

	for _, e := range r.Evaluators {
		fmt.Fprintf(&sb, "\n%s (%s)\n", e.Name, e.Contract)
		fmt.Fprintf(&sb, "  tricks = %.3f + %.3f * score   r = %.3f   r2 = %.3f   mae = %.3f\n",
			e.Fit.Intercept, e.Fit.Slope, e.Fit.Correlation, e.Fit.RSquared, e.MeanAbsoluteError)
		for _, b := range e.Buckets {
			fmt.Fprintf(&sb, "  %5.1f  %5d  %5.2f ± %.2f\n", b.Score, b.Count, b.Mean, b.Stdev)
		}
		if len(e.residuals) > 0 {
			sb.WriteString("  residuals:\n")
			h := histogram.Hist(histogramBins, e.residuals)
			if err := histogram.Fprint(&sb, h, histogram.Linear(histogramWidth)); err != nil {
				return err
			}
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
