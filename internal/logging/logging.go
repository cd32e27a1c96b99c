// Package logging provides the logging sink interface every core
// component is constructed with, plus a zap-backed implementation.
//
// Design Notes §9 of the spec calls out global loggers/config/auth
// singletons as a source-pattern that must not survive into the target:
// "Pass a logging sink (a trait/interface with emit(level, message))...
// into the trade engine at construction." Sink is that interface. Nothing
// in the core reaches for a package-level logger: internal/engine holds a
// Sink set at construction time, while internal/risk,
// internal/ordermanager, and internal/pool take no Sink and do not log.
//
// Sink methods are never called from the hot path itself — only at
// construction, shutdown, and the handful of drop/discard sites spec.md
// §7 calls out (PoolExhausted, UnknownOrder, InvalidStateTransition).
package logging

import (
	"go.uber.org/zap"
)

// Sink is the logging contract the core depends on.
type Sink interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// zapSink adapts a *zap.SugaredLogger to Sink.
type zapSink struct {
	l *zap.SugaredLogger
}

// NewZap builds a Sink backed by the given zap.Logger.
func NewZap(l *zap.Logger) Sink {
	return &zapSink{l: l.Sugar()}
}

// NewDevelopment builds a Sink backed by zap's development config
// (console-encoded, debug level), for the demo binary and local runs.
func NewDevelopment() (Sink, error) {
	l, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}
	return NewZap(l), nil
}

func (z *zapSink) Debugf(format string, args ...interface{}) { z.l.Debugf(format, args...) }
func (z *zapSink) Infof(format string, args ...interface{})  { z.l.Infof(format, args...) }
func (z *zapSink) Warnf(format string, args ...interface{})  { z.l.Warnf(format, args...) }
func (z *zapSink) Errorf(format string, args ...interface{}) { z.l.Errorf(format, args...) }

// Nop discards everything. Used by benchmarks and unit tests that don't
// want zap's allocation and formatting overhead in the measured path.
var Nop Sink = nopSink{}

type nopSink struct{}

func (nopSink) Debugf(string, ...interface{}) {}
func (nopSink) Infof(string, ...interface{})  {}
func (nopSink) Warnf(string, ...interface{})  {}
func (nopSink) Errorf(string, ...interface{}) {}
