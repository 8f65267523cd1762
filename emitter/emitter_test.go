package emitter

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/bubbletext/export"
	"github.com/ByLCY/bubbletext/layout"
)

const testWindow = 40 * time.Millisecond

// fakeBuilder returns an export whose width records the input's font size.
type fakeBuilder struct {
	mu     sync.Mutex
	inputs []export.Input
	err    error
}

func (b *fakeBuilder) Build(in export.Input) (*export.Export, error) {
	b.mu.Lock()
	b.inputs = append(b.inputs, in)
	err := b.err
	b.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if in.Text == "" {
		return nil, nil
	}
	return &export.Export{Image: []byte(in.Text), Metadata: export.Metadata{Width: int(in.TargetFontSize)}}, nil
}

func (b *fakeBuilder) builds() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.inputs)
}

func input(text string, size float64) export.Input {
	return export.Input{Text: text, Style: layout.DefaultStyle(), TargetFontSize: size}
}

func collect() (Consumer, <-chan *export.Export) {
	ch := make(chan *export.Export, 16)
	return func(exp *export.Export) { ch <- exp }, ch
}

func expectOne(t *testing.T, ch <-chan *export.Export) *export.Export {
	t.Helper()
	select {
	case exp := <-ch:
		return exp
	case <-time.After(2 * time.Second):
		t.Fatal("no emission")
		return nil
	}
}

func expectNone(t *testing.T, ch <-chan *export.Export, wait time.Duration) {
	t.Helper()
	select {
	case exp := <-ch:
		t.Fatalf("unexpected emission %q", exp.Image)
	case <-time.After(wait):
	}
}

func TestCoalescesRapidChanges(t *testing.T) {
	b := &fakeBuilder{}
	consumer, ch := collect()
	e := New(b, consumer, WithWindow(testWindow))
	defer e.Stop()

	for i, text := range []string{"H", "He", "Hel", "Hell", "Hello"} {
		e.Submit(input(text, float64(20+i)))
	}
	assert.Equal(t, Pending, e.State())

	exp := expectOne(t, ch)
	assert.Equal(t, "Hello", string(exp.Image))
	assert.Equal(t, 24, exp.Metadata.Width)
	expectNone(t, ch, 3*testWindow)
	assert.Equal(t, 1, b.builds())
	assert.Equal(t, Emitted, e.State())
}

func TestEachSettledChangeEmits(t *testing.T) {
	b := &fakeBuilder{}
	consumer, ch := collect()
	e := New(b, consumer, WithWindow(testWindow))
	defer e.Stop()

	e.Submit(input("one", 20))
	assert.Equal(t, "one", string(expectOne(t, ch).Image))
	e.Submit(input("two", 20))
	assert.Equal(t, "two", string(expectOne(t, ch).Image))
}

func TestTimerResetsWhilePending(t *testing.T) {
	b := &fakeBuilder{}
	consumer, ch := collect()
	e := New(b, consumer, WithWindow(80*time.Millisecond))
	defer e.Stop()

	start := time.Now()
	e.Submit(input("a", 20))
	time.Sleep(50 * time.Millisecond)
	e.Submit(input("ab", 20))
	exp := expectOne(t, ch)
	assert.Equal(t, "ab", string(exp.Image))
	assert.GreaterOrEqual(t, time.Since(start), 120*time.Millisecond)
}

func TestIdenticalInputIsIgnored(t *testing.T) {
	b := &fakeBuilder{}
	consumer, ch := collect()
	e := New(b, consumer, WithWindow(testWindow))
	defer e.Stop()

	e.Submit(input("same", 20))
	expectOne(t, ch)
	e.Submit(input("same", 20))
	expectNone(t, ch, 3*testWindow)
	assert.Equal(t, 1, b.builds())
}

func TestIdenticalInputIsAcceptedWhenIdle(t *testing.T) {
	b := &fakeBuilder{err: errors.New("boom")}
	consumer, ch := collect()
	e := New(b, consumer, WithWindow(testWindow))
	defer e.Stop()

	e.Submit(input("same", 20))
	expectNone(t, ch, 3*testWindow)
	require.Equal(t, Idle, e.State())

	b.mu.Lock()
	b.err = nil
	b.mu.Unlock()
	e.Submit(input("same", 20))
	assert.Equal(t, "same", string(expectOne(t, ch).Image))
	assert.Equal(t, 2, b.builds())
}

func TestEmptyTextEmitsNothing(t *testing.T) {
	b := &fakeBuilder{}
	consumer, ch := collect()
	e := New(b, consumer, WithWindow(testWindow))
	defer e.Stop()

	e.Submit(input("", 20))
	expectNone(t, ch, 4*testWindow)
	assert.Equal(t, 1, b.builds())
	assert.Equal(t, Idle, e.State())
}

func TestBuildErrorIsNotRetried(t *testing.T) {
	b := &fakeBuilder{err: errors.New("boom")}
	consumer, ch := collect()
	e := New(b, consumer, WithWindow(testWindow))
	defer e.Stop()

	e.Submit(input("x", 20))
	expectNone(t, ch, 5*testWindow)
	assert.Equal(t, 1, b.builds())
	assert.Equal(t, Idle, e.State())
}

func TestStopCancelsPending(t *testing.T) {
	b := &fakeBuilder{}
	consumer, ch := collect()
	e := New(b, consumer, WithWindow(testWindow))

	e.Submit(input("x", 20))
	e.Stop()
	e.Submit(input("y", 20))
	expectNone(t, ch, 4*testWindow)
	assert.Zero(t, b.builds())
	assert.Equal(t, Idle, e.State())
}

func TestDefaults(t *testing.T) {
	e := New(&fakeBuilder{}, nil, WithWindow(0), WithLogger(nil))
	require.NotNil(t, e.logger)
	assert.Equal(t, DefaultWindow, e.window)
	assert.Equal(t, Idle, e.State())
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "pending", Pending.String())
	assert.Equal(t, "emitted", Emitted.String())
}
