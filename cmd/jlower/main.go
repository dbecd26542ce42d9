// Command jlower lowers the control flow of methods described in scenario
// files and checks that lowering preserves their behavior.
package main

import (
	"fmt"
	"os"

	cli "github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/jlower/lower"
)

var (
	verboseFlag = &cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "Log pass statistics and per-try detail",
	}
	noColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable styled output",
	}
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "YAML file with pipeline settings",
	}
	stageFlag = &cli.StringFlag{
		Name:  "stage",
		Usage: "Stop after this stage (monitor, loops, finally, flatten)",
	}
	verifyFlag = &cli.BoolFlag{
		Name:  "verify",
		Usage: "Check structural invariants after every stage",
	}
	parallelFlag = &cli.IntFlag{
		Name:  "parallel",
		Usage: "Methods lowered at once (0 = GOMAXPROCS)",
	}
	handlersFlag = &cli.BoolFlag{
		Name:  "handlers",
		Usage: "Show the handler annotation of every statement",
	}
	idsFlag = &cli.BoolFlag{
		Name:  "ids",
		Usage: "Show statement IDs",
	}
)

var pipelineFlags = []cli.Flag{configFlag, stageFlag, verifyFlag, parallelFlag}

func newApp() *cli.App {
	return &cli.App{
		Name:  "jlower",
		Usage: "Java control-flow legalization",
		Flags: []cli.Flag{verboseFlag, noColorFlag},
		Before: func(ctx *cli.Context) error {
			setupStyles(ctx.Bool(noColorFlag.Name))
			return setupLogger(ctx.Bool(verboseFlag.Name))
		},
		After: func(*cli.Context) error {
			_ = lower.Logger().Sync()
			return nil
		},
		Commands: []*cli.Command{lowerCommand, checkCommand},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, styles.fail.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

func setupLogger(verbose bool) error {
	var (
		l   *zap.Logger
		err error
	)
	if verbose {
		l, err = zap.NewDevelopment()
	} else {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		l, err = cfg.Build()
	}
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	lower.SetLogger(l)
	return nil
}

// pipelineConfig reads --config, then applies the flags set on the command
// line over it.
func pipelineConfig(ctx *cli.Context) (lower.Config, error) {
	var cfg lower.Config
	if path := ctx.String(configFlag.Name); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if ctx.IsSet(stageFlag.Name) {
		cfg.StopAfter = lower.Stage(ctx.String(stageFlag.Name))
	}
	if ctx.IsSet(verifyFlag.Name) {
		cfg.Verify = ctx.Bool(verifyFlag.Name)
	}
	if ctx.IsSet(parallelFlag.Name) {
		cfg.Parallelism = ctx.Int(parallelFlag.Name)
	}

	stage, err := lower.ParseStage(string(cfg.StopAfter))
	if err != nil {
		return cfg, err
	}
	cfg.StopAfter = stage
	return cfg, nil
}
