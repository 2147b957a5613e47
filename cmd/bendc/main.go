package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"golang.org/x/sync/errgroup"
	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/developerfred/Bend-PVM-sub000/compiler"
	"github.com/developerfred/Bend-PVM-sub000/compiler/config"
	"github.com/developerfred/Bend-PVM-sub000/compiler/format"
)

type result struct {
	name string
	out  *compiler.Output
	err  error
}

var (
	okPrinter = pterm.PrefixPrinter{
		MessageStyle: pterm.NewStyle(pterm.FgDefault),
		Prefix: pterm.Prefix{
			Style: pterm.NewStyle(pterm.BgLightGreen, pterm.FgBlack),
			Text:  " OK ",
		},
	}

	failPrinter = pterm.PrefixPrinter{
		MessageStyle: pterm.NewStyle(pterm.FgRed),
		Prefix: pterm.Prefix{
			Style: pterm.NewStyle(pterm.BgRed, pterm.FgWhite),
			Text:  "FAIL",
		},
	}
)

func main() {
	flags := []*cli.Flag{
		cli.NewFlag("config", "", "config file (default "+config.FileName+" if present)"),
		cli.NewFlag("O", "", "optimization level: none, standard, aggressive or 0-2"),
		cli.NewFlag("j", 0, "files compiled in parallel"),
		cli.NewFlag("v", "", "verbosity topics"),
		cli.HelpFlag,
	}

	checkCmd := &cli.Command{
		Name:        "check",
		Description: "type check files",
		Action:      stageAct(compiler.Check),
		Args:        cli.Args{},
		Flags:       flags,
	}

	optCmd := &cli.Command{
		Name:        "opt",
		Description: "print optimized programs",
		Action:      stageAct(compiler.Optimize),
		Args:        cli.Args{},
		Flags:       flags,
	}

	asmCmd := &cli.Command{
		Name:        "asm",
		Description: "print RISC-V assembly",
		Action:      stageAct(compiler.Assemble),
		Args:        cli.Args{},
		Flags:       flags,
	}

	app := &cli.Command{
		Name:        "bendc",
		Description: "bendc compiles typed functional programs to RISC-V assembly",
		Commands: []*cli.Command{
			checkCmd,
			optCmd,
			asmCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func stageAct(stage compiler.Stage) func(c *cli.Command) error {
	return func(c *cli.Command) (err error) {
		if v := c.String("v"); v != "" {
			tlog.SetVerbosity(v)
		}

		ctx := context.Background()
		ctx = tlog.ContextWithSpan(ctx, tlog.Root())

		cfg, err := loadConfig(c)
		if err != nil {
			return errors.Wrap(err, "config")
		}

		if len(c.Args) == 0 {
			return errors.New("no files")
		}

		res := make([]result, len(c.Args))

		var g errgroup.Group
		g.SetLimit(cfg.Build.Jobs)

		for i, name := range c.Args {
			i, name := i, name

			g.Go(func() error {
				out, err := compiler.CompileFile(ctx, name, cfg, stage)

				res[i] = result{name: name, out: out, err: err}

				return nil
			})
		}

		_ = g.Wait()

		failed := 0

		for _, r := range res {
			if r.err != nil {
				failed++
				failPrinter.Printfln("%v: %v", r.name, r.err)

				continue
			}

			switch stage {
			case compiler.Check:
				okPrinter.Printfln("%v", r.name)
			case compiler.Optimize:
				okPrinter.Printfln("%v", r.name)
				fmt.Print(format.String(r.out.Program))
			case compiler.Assemble:
				okPrinter.Printfln("%v: %d instructions", r.name, len(r.out.Code))
				os.Stdout.Write(r.out.Asm)
			}
		}

		if failed != 0 {
			return errors.New("%d of %d files failed", failed, len(res))
		}

		return nil
	}
}

func loadConfig(c *cli.Command) (cfg *config.Config, err error) {
	switch name := c.String("config"); {
	case name != "":
		cfg, err = config.Load(name)
	default:
		cfg = config.Default()

		if _, serr := os.Stat(config.FileName); serr == nil {
			cfg, err = config.Load(config.FileName)
		}
	}

	if err != nil {
		return nil, err
	}

	err = cfg.FromEnv()
	if err != nil {
		return nil, errors.Wrap(err, "environment")
	}

	if l := c.String("O"); l != "" {
		cfg.Optimize.Level = l
	}

	if j := c.Int("j"); j > 0 {
		cfg.Build.Jobs = j
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}
