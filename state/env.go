// Package state defines shared program state.
package state

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"cssinjs/config"
	"cssinjs/engine"
)

type envKey struct{}

// LocalEnv keeps everything program needs in a single place.
type LocalEnv struct {
	Cfg *config.Config
	Rpt *config.Report
	Log *zap.Logger

	// set by commands rendering style documents
	Styles *engine.Context

	start         time.Time
	restoreStdLog func()
}

func newLocalEnv() *LocalEnv {
	return &LocalEnv{start: time.Now()}
}

func EnvFromContext(ctx context.Context) *LocalEnv {
	if env, ok := ctx.Value(envKey{}).(*LocalEnv); ok {
		return env
	}
	// this should never happen
	panic("localenv not found in context")
}

func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, newLocalEnv())
}

// NewStyleContext creates style context from engine configuration, extra
// options are applied last. Configuration problems are logged and the
// context is created with whatever remained usable.
func (e *LocalEnv) NewStyleContext(extra ...engine.Option) (*engine.Context, error) {
	if e.Cfg == nil {
		return nil, fmt.Errorf("configuration is not loaded")
	}
	log := e.Log
	if log == nil {
		log = zap.NewNop()
	}
	opts, err := e.Cfg.Engine.Options(log)
	if err != nil {
		log.Warn("Engine configuration problems, ignoring bad values", zap.Error(err))
	}
	e.Styles = engine.New(append(opts, extra...)...)
	return e.Styles, nil
}

func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

func (e *LocalEnv) RedirectStdLog() {
	if e.Log == nil {
		return
	}
	e.restoreStdLog = zap.RedirectStdLog(e.Log)
}

func (e *LocalEnv) RestoreStdLog() {
	if e.Log != nil {
		_ = e.Log.Sync()
	}
	if e.restoreStdLog != nil {
		e.restoreStdLog()
	}
}
