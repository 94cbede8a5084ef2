// Package state defines shared program state.
package state

import (
	"context"
	"time"

	"go.uber.org/zap"

	"inlinebar/config"
)

type envKey struct{}

// LocalEnv is the per-invocation state shared by the CLI hooks and the run
// command.
type LocalEnv struct {
	Cfg *config.Config
	Rpt *config.Report
	Log *zap.Logger

	// run command flags
	Overwrite  bool
	TraceDest  string
	Stylesheet []byte

	start         time.Time
	restoreStdLog func()
}

// EnvFromContext panics when ctx was not derived from ContextWithEnv.
func EnvFromContext(ctx context.Context) *LocalEnv {
	env, ok := ctx.Value(envKey{}).(*LocalEnv)
	if !ok {
		panic("state: context carries no LocalEnv")
	}
	return env
}

func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, &LocalEnv{start: time.Now()})
}

func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

// RedirectStdLog routes the standard library logger into Log until
// RestoreStdLog is called.
func (e *LocalEnv) RedirectStdLog() {
	if e.Log == nil {
		return
	}
	e.restoreStdLog = zap.RedirectStdLog(e.Log)
}

// RestoreStdLog also flushes Log.
func (e *LocalEnv) RestoreStdLog() {
	if e.Log != nil {
		_ = e.Log.Sync()
	}
	if e.restoreStdLog != nil {
		e.restoreStdLog()
	}
}
