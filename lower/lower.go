package lower

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wippyai/jlower/ast"
	"github.com/wippyai/jlower/errors"
	"github.com/wippyai/jlower/lower/internal/finally"
	"github.com/wippyai/jlower/lower/internal/flatten"
	"github.com/wippyai/jlower/lower/internal/loops"
	"github.com/wippyai/jlower/lower/internal/marker"
	"github.com/wippyai/jlower/lower/internal/monitor"
	"github.com/wippyai/jlower/lower/internal/verify"
)

// Stage names a pipeline stage.
type Stage string

const (
	StageMonitor Stage = "monitor"
	StageLoops   Stage = "loops"
	StageFinally Stage = "finally"
	StageFlatten Stage = "flatten"
)

// Stages lists the stages in pipeline order.
var Stages = []Stage{StageMonitor, StageLoops, StageFinally, StageFlatten}

// ParseStage validates a stage name. The empty string selects the last
// stage.
func ParseStage(s string) (Stage, error) {
	if s == "" {
		return StageFlatten, nil
	}
	for _, st := range Stages {
		if string(st) == s {
			return st, nil
		}
	}
	return "", errors.New(errors.PhaseDecode, errors.KindInvalidInput).
		Value(s).
		Detail("unknown stage %q", s).
		Build()
}

// Runnable reports whether the output of stage s executes like the source.
// After finally, copies of a finally block still sit inside the tries whose
// handlers they must skip. Only flatten resolves that.
func (s Stage) Runnable() bool {
	return s != StageFinally
}

func (s Stage) verifyStage() verify.Stage {
	switch s {
	case StageMonitor:
		return verify.Monitor
	case StageLoops:
		return verify.Loops
	case StageFinally:
		return verify.Finally
	default:
		return verify.Flatten
	}
}

// Config configures the pipeline.
type Config struct {
	// StopAfter ends the pipeline after the named stage. Empty runs every
	// stage.
	StopAfter Stage `yaml:"stop_after"`
	// Parallelism bounds how many methods LowerUnit lowers at once. Zero
	// means GOMAXPROCS.
	Parallelism int `yaml:"parallelism"`
	// Verify checks the structural invariants of the input and of the
	// output of every stage.
	Verify bool `yaml:"verify"`
}

// Stats summarizes the work done on one or more methods.
type Stats struct {
	Methods      int
	Synchronized int
	Loops        int
	Breaks       int
	Continues    int
	Finally      int
	Copies       int
	Temps        int
	Tries        int
	Annotated    int
}

func (s *Stats) add(o Stats) {
	s.Methods += o.Methods
	s.Synchronized += o.Synchronized
	s.Loops += o.Loops
	s.Breaks += o.Breaks
	s.Continues += o.Continues
	s.Finally += o.Finally
	s.Copies += o.Copies
	s.Temps += o.Temps
	s.Tries += o.Tries
	s.Annotated += o.Annotated
}

// Lower runs the pipeline on m in place.
func Lower(m *ast.Method, cfg Config) (Stats, error) {
	last, err := ParseStage(string(cfg.StopAfter))
	if err != nil {
		return Stats{}, err
	}
	log := Logger().With(zap.String("method", m.String()))
	st := Stats{Methods: 1}

	if cfg.Verify {
		if err := verify.Check(m, verify.Input); err != nil {
			return st, err
		}
	}

	table := marker.NewTable()
	for _, stage := range Stages {
		switch stage {
		case StageMonitor:
			var s monitor.Stats
			s, err = monitor.Run(m, log)
			st.Synchronized = s.Lowered
		case StageLoops:
			var s loops.Stats
			s, err = loops.Run(m, log)
			st.Loops, st.Breaks, st.Continues = s.Loops, s.Breaks, s.Continues
		case StageFinally:
			var s finally.Stats
			s, err = finally.Run(m, table, log)
			st.Finally, st.Copies, st.Temps = s.Tries, s.Copies, s.Temps
		case StageFlatten:
			var s flatten.Stats
			s, err = flatten.Run(m, table, log)
			st.Tries, st.Annotated = s.Tries, s.Annotated
		}
		if err != nil {
			return st, err
		}
		if cfg.Verify {
			if err := verify.Check(m, stage.verifyStage()); err != nil {
				return st, err
			}
		}
		if stage == last {
			break
		}
	}
	return st, nil
}

// Unit is a compilation unit: the methods of one class or file.
type Unit struct {
	Name    string
	Methods []*ast.Method
}

// LowerUnit lowers every method of u, in parallel. The first failure
// cancels the methods not yet started and is returned.
func LowerUnit(ctx context.Context, u *Unit, cfg Config) (Stats, error) {
	limit := cfg.Parallelism
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	var (
		mu    sync.Mutex
		total Stats
	)
	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, m := range u.Methods {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			st, err := Lower(m, cfg)
			if err != nil {
				return fmt.Errorf("%s: %w", u.Name, err)
			}
			mu.Lock()
			total.add(st)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		Logger().Error("lowering failed", zap.String("unit", u.Name), zap.Error(err))
		return total, err
	}

	Logger().Info("lowered unit",
		zap.String("unit", u.Name),
		zap.Int("methods", total.Methods),
		zap.Int("finally", total.Finally),
		zap.Int("tries", total.Tries),
		zap.Duration("elapsed", time.Since(start)))
	return total, nil
}
