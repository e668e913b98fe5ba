// Package harness times strategies in a warmed-up steady state and ranks them
// against the baseline.
package harness

import (
	"cmp"
	"context"
	"errors"
	"flag"
	"fmt"
	"regexp"
	"slices"
	"testing"
	"time"

	"github.com/ZenLiuCN/instantiator"
	"github.com/charmbracelet/log"
)

type (
	// Suite is an ordered set of uniquely named strategies.
	Suite struct {
		Cases   map[string]instantiator.Strategy
		Order   []string
		measure func(c instantiator.Strategy) testing.BenchmarkResult
	}
	// Options of a run.
	Options struct {
		Benchtime time.Duration  // per case target duration, DefaultBenchtime when zero
		Count     int            // runs per case, averaged
		Filter    *regexp.Regexp // run only matching names, nil runs all
	}
	// Result of one strategy.
	Result struct {
		Name        string  `json:"name"`
		Family      string  `json:"family"`
		Cached      bool    `json:"cached"`
		Baseline    bool    `json:"baseline"`
		N           int     `json:"n"`
		NsPerOp     float64 `json:"ns_per_op"`
		AllocsPerOp int64   `json:"allocs_per_op"`
		BytesPerOp  int64   `json:"bytes_per_op"`
		Ratio       float64 `json:"ratio"`
	}
)

var (
	ErrDuplicate  = errors.New("duplicate strategy")
	ErrNoBaseline = errors.New("no baseline strategy")
	ErrEmpty      = errors.New("no strategy selected")
)

// DefaultBenchtime is the testing default of -test.benchtime.
const DefaultBenchtime = time.Second

var sink *instantiator.Target

// NewSuite create a suite keeping the order of s.
func NewSuite(s []instantiator.Strategy) (*Suite, error) {
	p := &Suite{Cases: make(map[string]instantiator.Strategy, len(s)), measure: measure}
	for _, x := range s {
		if _, ok := p.Cases[x.Name]; ok {
			return nil, fmt.Errorf("%s: %w", x.Name, ErrDuplicate)
		}
		p.Cases[x.Name] = x
		p.Order = append(p.Order, x.Name)
	}
	return p, nil
}

func measure(c instantiator.Strategy) testing.BenchmarkResult {
	return testing.Benchmark(func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			sink = c.Func()
		}
	})
}

// SetBenchtime adjust the duration [testing.Benchmark] targets for each case.
func SetBenchtime(d time.Duration) error {
	testing.Init()
	return flag.Set("test.benchtime", d.String())
}

// Run every selected case one after another. The baseline always runs, so the
// results can be ranked. Cancelling ctx stops before the next case.
func (p *Suite) Run(ctx context.Context, o Options) (r []Result, err error) {
	if err = SetBenchtime(cmp.Or(o.Benchtime, DefaultBenchtime)); err != nil {
		return
	}
	count := max(o.Count, 1)
	for _, name := range p.Order {
		c := p.Cases[name]
		if o.Filter != nil && !c.Baseline && !o.Filter.MatchString(name) {
			continue
		}
		res := Result{Name: name, Family: string(c.Family), Cached: c.Cached, Baseline: c.Baseline}
		for n := 0; n < count; n++ {
			if err = ctx.Err(); err != nil {
				return
			}
			b := p.measure(c)
			res.N += b.N
			if b.N > 0 {
				res.NsPerOp += float64(b.T.Nanoseconds()) / float64(b.N)
			}
			res.AllocsPerOp += b.AllocsPerOp()
			res.BytesPerOp += b.AllocedBytesPerOp()
		}
		res.NsPerOp /= float64(count)
		res.AllocsPerOp /= int64(count)
		res.BytesPerOp /= int64(count)
		log.Debug("measured", "name", name, "n", res.N, "ns/op", res.NsPerOp)
		r = append(r, res)
	}
	if len(r) == 0 {
		return nil, ErrEmpty
	}
	return
}

// Rank results fastest to slowest and fill the ratio to the baseline.
func Rank(r []Result) ([]Result, error) {
	i := slices.IndexFunc(r, func(x Result) bool { return x.Baseline })
	if i < 0 {
		return nil, ErrNoBaseline
	}
	base := r[i].NsPerOp
	out := slices.Clone(r)
	for n := range out {
		if base > 0 {
			out[n].Ratio = out[n].NsPerOp / base
		}
	}
	slices.SortStableFunc(out, func(a, b Result) int {
		return cmp.Compare(a.NsPerOp, b.NsPerOp)
	})
	return out, nil
}
