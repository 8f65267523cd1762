// Package emitter coalesces bursts of caption edits into one export.
//
// Every Submit arms a settle timer and bumps a generation counter. When the
// timer fires it only proceeds if its generation is still current, so a new
// edit always supersedes the pending one and at most one export is delivered
// per settle window.
package emitter

import (
	"log/slog"
	"sync"
	"time"

	"github.com/ByLCY/bubbletext/export"
)

// DefaultWindow is the settle window used when none is configured.
const DefaultWindow = 300 * time.Millisecond

// State is the emitter's position in its idle -> pending -> emitted cycle.
type State int

const (
	Idle State = iota
	Pending
	Emitted
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Emitted:
		return "emitted"
	default:
		return "idle"
	}
}

// Builder produces an export for one input snapshot. A nil export means
// there is nothing to draw.
type Builder interface {
	Build(in export.Input) (*export.Export, error)
}

// Consumer receives each emitted export.
type Consumer func(*export.Export)

// Option configures an Emitter.
type Option func(*Emitter)

// WithWindow sets the settle window.
func WithWindow(d time.Duration) Option {
	return func(e *Emitter) {
		if d > 0 {
			e.window = d
		}
	}
}

// WithLogger sets the logger used for build failures and state changes.
func WithLogger(l *slog.Logger) Option {
	return func(e *Emitter) {
		if l != nil {
			e.logger = l
		}
	}
}

// Emitter debounces inputs and pushes exports to a consumer.
type Emitter struct {
	builder  Builder
	consumer Consumer
	window   time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	gen     uint64
	timer   *time.Timer
	state   State
	last    export.Input
	hasLast bool
	stopped bool

	// buildMu 保证同一时刻只有一次重算。
	buildMu sync.Mutex
}

// New returns an idle Emitter.
func New(b Builder, consumer Consumer, opts ...Option) *Emitter {
	e := &Emitter{
		builder:  b,
		consumer: consumer,
		window:   DefaultWindow,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Submit records a qualifying input change. It cancels any pending timer and
// arms a new one.
//
// An input identical to the last one submitted is dropped while the emitter
// is Pending or Emitted, since it would rebuild the same export. In Idle
// (nothing emitted yet, or the last build was empty or failed) it is accepted
// and re-armed like any other change.
func (e *Emitter) Submit(in export.Input) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return
	}
	if e.hasLast && e.last == in && e.state != Idle {
		return
	}
	e.last = in
	e.hasLast = true
	e.gen++
	gen := e.gen
	if e.timer != nil {
		e.timer.Stop()
	}
	e.state = Pending
	e.timer = time.AfterFunc(e.window, func() { e.fire(gen) })
	e.logger.Debug("emitter: armed", "generation", gen, "window", e.window)
}

// State returns the current state.
func (e *Emitter) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Stop cancels any pending emission. Later submissions are ignored.
func (e *Emitter) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopped = true
	e.gen++
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.state = Idle
}

func (e *Emitter) current(gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return gen == e.gen && !e.stopped
}

func (e *Emitter) fire(gen uint64) {
	e.buildMu.Lock()
	defer e.buildMu.Unlock()

	e.mu.Lock()
	if gen != e.gen || e.stopped {
		e.mu.Unlock()
		return
	}
	in := e.last
	e.mu.Unlock()

	exp, err := e.builder.Build(in)
	if err != nil {
		e.logger.Error("emitter: 导出失败", "generation", gen, "error", err)
		e.settle(gen, Idle)
		return
	}
	if exp == nil {
		e.logger.Debug("emitter: 文本为空，跳过导出", "generation", gen)
		e.settle(gen, Idle)
		return
	}
	// 重算期间若有新的输入，结果作废
	if !e.current(gen) {
		e.logger.Debug("emitter: 结果已过期", "generation", gen)
		return
	}
	if e.consumer != nil {
		e.consumer(exp)
	}
	e.settle(gen, Emitted)
	e.logger.Info("emitter: emitted", "generation", gen, "width", exp.Metadata.Width, "height", exp.Metadata.Height)
}

func (e *Emitter) settle(gen uint64, s State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen == e.gen {
		e.state = s
		e.timer = nil
	}
}
