package services

import (
	"sync"
	"time"
)

// Ticker is the tick source driving a Timer
type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}

type TickerFactory func(d time.Duration) Ticker

type stdTicker struct {
	*time.Ticker
}

func (t stdTicker) Chan() <-chan time.Time {
	return t.C
}

// NewStdTicker is the default TickerFactory, backed by time.Ticker
func NewStdTicker(d time.Duration) Ticker {
	return stdTicker{time.NewTicker(d)}
}

// Timer counts elapsed whole seconds of a session. The counter only moves
// forward while running and is reset only by Start.
type Timer struct {
	mu        sync.Mutex
	elapsed   int
	running   bool
	gen       uint64
	stop      chan struct{}
	newTicker TickerFactory
}

func NewTimer(newTicker TickerFactory) *Timer {
	if newTicker == nil {
		newTicker = NewStdTicker
	}
	return &Timer{newTicker: newTicker}
}

// Start resets the counter to zero and begins ticking once per second
func (t *Timer) Start() {
	t.StartFrom(0)
}

// StartFrom begins a new run counting up from elapsed seconds
func (t *Timer) StartFrom(elapsed int) {
	if elapsed < 0 {
		elapsed = 0
	}

	t.mu.Lock()
	t.stopLocked()
	t.gen++
	t.elapsed = elapsed
	t.running = true
	stop := make(chan struct{})
	t.stop = stop
	gen := t.gen
	ticker := t.newTicker(time.Second)
	t.mu.Unlock()

	go t.run(ticker, gen, stop)
}

// Stop cancels the ticking. Calling it on a stopped timer does nothing.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *Timer) Elapsed() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.elapsed
}

func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

func (t *Timer) stopLocked() {
	if !t.running {
		return
	}
	t.running = false
	close(t.stop)
	t.stop = nil
}

func (t *Timer) run(ticker Ticker, gen uint64, stop <-chan struct{}) {
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.Chan():
			t.tick(gen)
		}
	}
}

// tick advances the counter for run gen. Ticks from a stopped or superseded
// run are dropped.
func (t *Timer) tick(gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running || gen != t.gen {
		return false
	}
	t.elapsed++
	return true
}
