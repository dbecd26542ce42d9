package main

import (
	"fmt"
	"io"
	"slices"

	cli "github.com/urfave/cli/v2"

	"github.com/wippyai/jlower/ast"
	"github.com/wippyai/jlower/fixture"
	"github.com/wippyai/jlower/interp"
	"github.com/wippyai/jlower/lower"
)

var checkCommand = &cli.Command{
	Name:      "check",
	Usage:     "Run scenario cases before and after lowering",
	ArgsUsage: "<file.yaml|dir>...",
	Flags:     pipelineFlags,
	Action:    checkFiles,
	Description: `
jlower check runs every case of every method in the interpreter, first on
the method as written and then on the lowered method. A case fails when an
outcome differs from its expectation or the two runs disagree on the
outcome or the trace. The output of --stage finally still needs flatten
to run correctly and is rejected.`,
}

func checkFiles(ctx *cli.Context) error {
	if ctx.NArg() == 0 {
		return cli.Exit("no input files", 2)
	}
	cfg, err := pipelineConfig(ctx)
	if err != nil {
		return err
	}
	if !cfg.StopAfter.Runnable() {
		return fmt.Errorf("stage %s cannot be checked: its output runs correctly only after %s",
			cfg.StopAfter, lower.StageFlatten)
	}

	var files []*fixture.File
	for _, path := range ctx.Args().Slice() {
		fs, err := fixture.LoadDir(path)
		if err != nil {
			return err
		}
		files = append(files, fs...)
	}

	w := ctx.App.Writer
	var cases, failed int
	for _, f := range files {
		for _, fm := range f.Methods {
			n, bad, err := checkMethod(w, f, fm, cfg)
			if err != nil {
				return fmt.Errorf("%s: %s: %w", f.Path, fm.Name, err)
			}
			cases += n
			failed += bad
		}
	}

	summary := fmt.Sprintf("%d cases, %d failed", cases, failed)
	if failed > 0 {
		fmt.Fprintln(w, styles.fail.Render(summary))
		return cli.Exit("", 1)
	}
	fmt.Fprintln(w, styles.pass.Render(summary))
	return nil
}

// checkMethod runs the cases of fm and reports each one on w. It returns
// the number of cases and of failures.
func checkMethod(w io.Writer, f *fixture.File, fm *fixture.Method, cfg lower.Config) (int, int, error) {
	src, err := fm.Build()
	if err != nil {
		return 0, 0, err
	}
	lowered, err := fm.Build()
	if err != nil {
		return 0, 0, err
	}
	if _, err := lower.Lower(lowered, cfg); err != nil {
		return 0, 0, err
	}

	failed := 0
	for i, c := range fm.Cases {
		name := c.Name
		if name == "" {
			name = fmt.Sprintf("#%d", i)
		}
		label := fmt.Sprintf("%s %s %s", f.Name, src, name)

		msg, err := checkCase(f, c, src, lowered)
		if err != nil {
			return 0, 0, err
		}
		if msg != "" {
			failed++
			fmt.Fprintln(w, styles.fail.Render("FAIL"), label+": "+msg)
			continue
		}
		fmt.Fprintln(w, styles.pass.Render("ok  "), styles.dim.Render(label))
	}
	return len(fm.Cases), failed, nil
}

// checkCase returns a description of the first mismatch of c, or "".
func checkCase(f *fixture.File, c fixture.Case, src, lowered *ast.Method) (string, error) {
	want, err := interp.Run(src, f.Env(c))
	if err != nil {
		return "", err
	}
	if exp := c.Expect.Outcome(); want.Outcome() != exp {
		return fmt.Sprintf("source: %s, expected %s", want.Outcome(), exp), nil
	}
	if len(c.Expect.Trace) > 0 && !slices.Equal(want.Trace, c.Expect.Trace) {
		return fmt.Sprintf("source trace %v, expected %v", want.Trace, c.Expect.Trace), nil
	}

	got, err := interp.Run(lowered, f.Env(c))
	if err != nil {
		return "", err
	}
	if got.Outcome() != want.Outcome() {
		return fmt.Sprintf("lowered: %s, source: %s", got.Outcome(), want.Outcome()), nil
	}
	if !slices.Equal(got.Trace, want.Trace) {
		return fmt.Sprintf("lowered trace %v, source trace %v", got.Trace, want.Trace), nil
	}
	return "", nil
}
