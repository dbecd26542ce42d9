package main

import (
	"fmt"
	"io"
	"strings"

	cli "github.com/urfave/cli/v2"

	"github.com/wippyai/jlower/ast"
	"github.com/wippyai/jlower/fixture"
	"github.com/wippyai/jlower/lower"
)

var lowerCommand = &cli.Command{
	Name:      "lower",
	Usage:     "Print methods before and after lowering",
	ArgsUsage: "<file.yaml>...",
	Flags:     append([]cli.Flag{handlersFlag, idsFlag}, pipelineFlags...),
	Action:    lowerFiles,
	Description: `
jlower lower reads scenario files and prints every method as written and
after the pipeline ran up to --stage. --handlers shows the exception
handlers that protect each statement of the flattened output.`,
}

func lowerFiles(ctx *cli.Context) error {
	if ctx.NArg() == 0 {
		return cli.Exit("no input files", 2)
	}
	cfg, err := pipelineConfig(ctx)
	if err != nil {
		return err
	}
	pc := &ast.PrintConfig{
		Handlers: ctx.Bool(handlersFlag.Name),
		IDs:      ctx.Bool(idsFlag.Name),
	}

	w := ctx.App.Writer
	for _, path := range ctx.Args().Slice() {
		f, err := fixture.Load(path)
		if err != nil {
			return err
		}
		if err := lowerFile(ctx, w, f, cfg, pc); err != nil {
			return err
		}
	}
	return nil
}

func lowerFile(ctx *cli.Context, w io.Writer, f *fixture.File, cfg lower.Config, pc *ast.PrintConfig) error {
	u := &lower.Unit{Name: f.Path}
	before := make([]string, 0, len(f.Methods))
	for _, fm := range f.Methods {
		m, err := fm.Build()
		if err != nil {
			return fmt.Errorf("%s: %w", f.Path, err)
		}
		var b strings.Builder
		if err := ast.FprintMethod(&b, m, &ast.PrintConfig{IDs: pc.IDs}); err != nil {
			return err
		}
		before = append(before, b.String())
		u.Methods = append(u.Methods, m)
	}

	st, err := lower.LowerUnit(ctx.Context, u, cfg)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, styles.title.Render(f.Name))
	for i, m := range u.Methods {
		fmt.Fprintln(w)
		fmt.Fprintln(w, styles.method.Render(m.String()))
		fmt.Fprintln(w, styles.stage.Render("source"))
		fmt.Fprint(w, before[i])
		fmt.Fprintln(w, styles.stage.Render(string(cfg.StopAfter)))
		if err := ast.FprintMethod(w, m, pc); err != nil {
			return err
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, styles.dim.Render(fmt.Sprintf(
		"%d methods, %d loops, %d finally blocks (%d copies), %d tries flattened",
		st.Methods, st.Loops, st.Finally, st.Copies, st.Tries)))
	return nil
}
