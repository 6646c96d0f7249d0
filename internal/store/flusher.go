// Package store owns the two durable JSON documents: the veto blacklist
// and the performance ledger. The in-memory maps are authoritative; disk
// writes are coalesced behind a debounce window.
package store

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dexpulse/dexpulse/internal/metrics"
)

// DefaultFlushDelay coalesces a burst of mutations into one disk write.
const DefaultFlushDelay = 1500 * time.Millisecond

// flusher debounces dirty signals into JSON file writes. A write failure
// is logged and dropped; the next mutation re-arms the timer and the next
// successful write carries all pending state.
type flusher struct {
	name     string
	path     string
	delay    time.Duration
	snapshot func() ([]byte, error)
	metrics  *metrics.Registry

	dirty    chan struct{}
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	// memory-only mode: the store directory could not be created.
	disabled bool
}

func newFlusher(name, path string, delay time.Duration, snapshot func() ([]byte, error), m *metrics.Registry) *flusher {
	f := &flusher{
		name:     name,
		path:     path,
		delay:    delay,
		snapshot: snapshot,
		metrics:  m,
		dirty:    make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
	}
	if path == "" {
		f.disabled = true
	} else if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Error().Err(err).Str("store", name).Str("path", path).
			Msg("store directory unavailable, running memory-only")
		f.disabled = true
	}
	f.wg.Add(1)
	go f.run()
	return f
}

// MarkDirty schedules a flush after the debounce window. Signals arriving
// while one is pending are absorbed.
func (f *flusher) MarkDirty() {
	select {
	case f.dirty <- struct{}{}:
	default:
	}
}

// Flush writes the current snapshot synchronously. Used for orderly
// shutdown and by tests that need deterministic persistence.
func (f *flusher) Flush() error {
	return f.write()
}

// Stop halts the background loop after a final flush.
func (f *flusher) Stop() {
	f.stopOnce.Do(func() { close(f.stopCh) })
	f.wg.Wait()
}

func (f *flusher) run() {
	defer f.wg.Done()
	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-f.dirty:
			if fire == nil {
				timer = time.NewTimer(f.delay)
				fire = timer.C
			}
		case <-fire:
			fire = nil
			if err := f.write(); err != nil {
				log.Error().Err(err).Str("store", f.name).Msg("store flush failed")
			}
		case <-f.stopCh:
			if timer != nil {
				timer.Stop()
			}
			if err := f.write(); err != nil {
				log.Error().Err(err).Str("store", f.name).Msg("final store flush failed")
			}
			return
		}
	}
}

func (f *flusher) write() error {
	if f.disabled {
		return nil
	}
	data, err := f.snapshot()
	if err == nil {
		err = os.WriteFile(f.path, data, 0o644)
	}
	if f.metrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		f.metrics.Flushes.WithLabelValues(f.name, outcome).Inc()
	}
	return err
}

// loadJSONFile reads an existing store document into dst. A missing file
// or unreadable content leaves dst untouched: both stores start empty
// rather than fail.
func loadJSONFile(path string, decode func([]byte) error) {
	if path == "" {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", path).Msg("store file unreadable, starting empty")
		}
		return
	}
	if err := decode(data); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("store file corrupt, starting empty")
	}
}
