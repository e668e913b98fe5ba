package main

import (
	"fmt"
	"os"
	"regexp"
	"slices"
	"time"

	"github.com/ZenLiuCN/instantiator"
	"github.com/ZenLiuCN/instantiator/harness"
	"github.com/charmbracelet/log"
	"github.com/davecgh/go-spew/spew"
	"github.com/google/gops/agent"
	"github.com/urfave/cli/v2"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "instantiate"})

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logger.Fatal("failure", "err", err)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "instantiate"
	app.Usage = "rank ways to instantiate a struct at runtime"
	app.Description = "benchmark every instantiation strategy and print them fastest to slowest, relative to the plain composite literal"
	app.Flags = []cli.Flag{
		&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}},
		&cli.DurationFlag{Name: "benchtime", Aliases: []string{"t"}, Value: time.Second, Usage: "target run time of each strategy"},
		&cli.IntFlag{Name: "count", Aliases: []string{"c"}, Value: 1, Usage: "runs per strategy, averaged"},
		&cli.StringFlag{Name: "filter", Aliases: []string{"f"}, Usage: "regexp of strategies to run, the baseline always runs"},
		&cli.StringFlag{Name: "format", Value: string(harness.FormatTable), Usage: "report format: table, markdown or json"},
		&cli.BoolFlag{Name: "no-codegen", Usage: "deny runtime code generation, as a restricted environment would"},
		&cli.BoolFlag{Name: "gops", Usage: "start a gops agent during the run"},
	}
	app.Before = before
	app.Action = run
	app.Commands = []*cli.Command{
		{Name: "list", Action: list, Usage: "list strategies"},
	}
	return app
}

func before(ctx *cli.Context) error {
	if ctx.Bool("debug") {
		logger.SetLevel(log.DebugLevel)
		log.SetLevel(log.DebugLevel)
	}
	if f := harness.Format(ctx.String("format")); !slices.Contains(harness.Formats, f) {
		return fmt.Errorf("unknown format %q", f)
	}
	return nil
}

func setup(ctx *cli.Context) (*instantiator.Instantiator, error) {
	var opts []instantiator.Option
	if ctx.Bool("no-codegen") {
		opts = append(opts, instantiator.WithGenerator(instantiator.Denied{}))
	}
	i, err := instantiator.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("setup: %w", err)
	}
	if ctx.Bool("debug") {
		sp := spew.NewDefaultConfig()
		sp.MaxDepth = 2
		logger.Debug("handles\n" + sp.Sdump(i.Handles()))
	}
	return i, nil
}

func list(ctx *cli.Context) error {
	i, err := setup(ctx)
	if err != nil {
		return err
	}
	defer i.Close()
	for _, s := range i.Strategies() {
		mark := ""
		if s.Baseline {
			mark = " (baseline)"
		}
		fmt.Fprintf(ctx.App.Writer, "%s\t%s%s\n", s.Name, s.Family, mark)
	}
	return nil
}

func run(ctx *cli.Context) (err error) {
	if ctx.Bool("gops") {
		if err = agent.Listen(agent.Options{}); err != nil {
			return fmt.Errorf("gops agent: %w", err)
		}
		defer agent.Close()
	}
	o := harness.Options{Benchtime: ctx.Duration("benchtime"), Count: ctx.Int("count")}
	if f := ctx.String("filter"); f != "" {
		if o.Filter, err = regexp.Compile(f); err != nil {
			return fmt.Errorf("filter: %w", err)
		}
	}
	i, err := setup(ctx)
	if err != nil {
		return err
	}
	defer i.Close()
	s, err := harness.NewSuite(i.Strategies())
	if err != nil {
		return err
	}
	logger.Info("running", "strategies", len(s.Order), "benchtime", o.Benchtime, "count", o.Count)
	r, err := s.Run(ctx.Context, o)
	if err != nil {
		return err
	}
	if r, err = harness.Rank(r); err != nil {
		return err
	}
	return harness.Report(ctx.App.Writer, harness.Format(ctx.String("format")), r)
}
