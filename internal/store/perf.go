package store

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dexpulse/dexpulse/internal/domain"
	"github.com/dexpulse/dexpulse/internal/metrics"
)

// Canonical buy-signal sources. Incoming labels are normalized to these
// before keying; the alias table covers the labels older store files used.
const (
	SourceSmartMoney = "smart_money"
	SourceWhale      = "whale"
	SourceHotBuys    = "hot_buys"
	SourceSignalPlus = "signal_plus"
)

var sourceAliases = map[string][]string{
	SourceSmartMoney: {"Smart Money"},
	SourceWhale:      {"Whale Alert"},
	SourceHotBuys:    {"Hot Buys"},
	SourceSignalPlus: {"Signal+"},
}

// NormalizeSource maps any historical source label to its canonical form.
// Unknown labels pass through untouched.
func NormalizeSource(source string) string {
	raw := strings.TrimSpace(source)
	switch strings.ToLower(raw) {
	case "smart money", "smart_money":
		return SourceSmartMoney
	case "whale alert", "whale":
		return SourceWhale
	case "hot buys", "hot_buys":
		return SourceHotBuys
	case "signal+", "signal_plus":
		return SourceSignalPlus
	}
	return raw
}

// PerformanceEntry tracks one buy signal per (address, source): the market
// cap at entry, the peak since, and the derived ROI. EntryMc is set once
// and never overwritten; PeakMc only ever rises.
type PerformanceEntry struct {
	ID        string  `json:"id"`
	Address   string  `json:"address"`
	Source    string  `json:"source"`
	Name      string  `json:"name"`
	Symbol    string  `json:"symbol"`
	Logo      string  `json:"logo"`
	Signal    string  `json:"signal"`
	EntryMc   float64 `json:"entryMc"`
	PeakMc    float64 `json:"peakMc"`
	LastMc    float64 `json:"lastMc"`
	RoiPct    float64 `json:"roiPct"`
	RoiX      float64 `json:"roiX"`
	Status    string  `json:"status"`
	Notes     string  `json:"notes"`
	FirstSeen int64   `json:"firstSeen"`
	LastSeen  int64   `json:"lastSeen"`
}

const removedPeakNote = "Peak updated after removal."

func (e *PerformanceEntry) computeRoi() {
	if e.EntryMc > 0 && e.PeakMc > 0 {
		roiX := e.PeakMc / e.EntryMc
		e.RoiX = roundTo2(roiX)
		e.RoiPct = roundTo2((roiX - 1) * 100)
	} else {
		e.RoiX = 0
		e.RoiPct = 0
	}
}

func roundTo2(f float64) float64 {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0
	}
	return math.Round(f*100) / 100
}

// LedgerConfig wires the ledger's collaborators.
type LedgerConfig struct {
	Path       string
	FlushDelay time.Duration
	Clock      domain.Clock
	Metrics    *metrics.Registry
}

// PerformanceLedger is the durable buy-signal history, keyed by the
// normalized "address:source" pair.
type PerformanceLedger struct {
	mu      sync.Mutex
	entries map[string]*PerformanceEntry
	clock   domain.Clock
	metrics *metrics.Registry
	flusher *flusher
}

type ledgerDocument struct {
	Entries map[string]*PerformanceEntry `json:"entries"`
}

// NewPerformanceLedger loads any existing ledger document and starts the
// debounced flusher.
func NewPerformanceLedger(cfg LedgerConfig) *PerformanceLedger {
	if cfg.Clock == nil {
		cfg.Clock = domain.SystemClock
	}
	if cfg.FlushDelay == 0 {
		cfg.FlushDelay = DefaultFlushDelay
	}

	l := &PerformanceLedger{
		entries: make(map[string]*PerformanceEntry),
		clock:   cfg.Clock,
		metrics: cfg.Metrics,
	}
	loadJSONFile(cfg.Path, func(data []byte) error {
		var doc ledgerDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return err
		}
		if doc.Entries != nil {
			l.entries = doc.Entries
		}
		return nil
	})
	l.flusher = newFlusher("performance", cfg.Path, cfg.FlushDelay, l.snapshot, cfg.Metrics)
	return l
}

// findEntry resolves an entry under its canonical key, falling back to the
// legacy alias keys older store files were written with. The caller holds
// the lock.
func (l *PerformanceLedger) findEntry(address, normalized string) (*PerformanceEntry, string) {
	canonical := fmt.Sprintf("%s:%s", address, normalized)
	if entry, ok := l.entries[canonical]; ok {
		return entry, canonical
	}
	for _, alias := range sourceAliases[normalized] {
		legacy := fmt.Sprintf("%s:%s", address, alias)
		if entry, ok := l.entries[legacy]; ok {
			return entry, legacy
		}
	}
	return nil, canonical
}

// RecordBuySignal registers a qualifying buy signal. The first observation
// for a key fixes the entry market cap; later observations refresh identity,
// last/peak caps and ROI. Legacy-alias keys are migrated in place.
func (l *PerformanceLedger) RecordBuySignal(address, source string, ident domain.TokenIdentity, marketCap float64) {
	normalized := NormalizeSource(source)
	if address == "" || normalized == "" || marketCap <= 0 {
		return
	}

	now := l.clock().UnixMilli()
	canonical := fmt.Sprintf("%s:%s", address, normalized)

	l.mu.Lock()
	existing, key := l.findEntry(address, normalized)

	if existing != nil && key != canonical {
		delete(l.entries, key)
		existing.ID = canonical
		existing.Source = normalized
		l.entries[canonical] = existing
	}

	if existing == nil {
		entry := &PerformanceEntry{
			ID:        canonical,
			Address:   address,
			Source:    normalized,
			Name:      ident.Name,
			Symbol:    ident.Symbol,
			Logo:      ident.Logo,
			Signal:    "BUY",
			EntryMc:   marketCap,
			PeakMc:    marketCap,
			LastMc:    marketCap,
			RoiX:      1,
			Status:    "active",
			FirstSeen: now,
			LastSeen:  now,
		}
		if entry.Name == "" {
			entry.Name = "Token"
		}
		entry.computeRoi()
		l.entries[canonical] = entry
		l.mu.Unlock()
		if l.metrics != nil {
			l.metrics.BuySignals.WithLabelValues(normalized).Inc()
		}
		l.flusher.MarkDirty()
		return
	}

	existing.LastSeen = now
	if ident.Name != "" {
		existing.Name = ident.Name
	}
	if ident.Symbol != "" {
		existing.Symbol = ident.Symbol
	}
	if ident.Logo != "" {
		existing.Logo = ident.Logo
	}
	existing.Signal = "BUY"
	existing.Source = normalized
	if existing.EntryMc <= 0 {
		existing.EntryMc = marketCap
	}
	existing.LastMc = marketCap
	if marketCap > existing.PeakMc {
		existing.PeakMc = marketCap
	}
	existing.computeRoi()
	l.mu.Unlock()
	l.flusher.MarkDirty()
}

// UpdatePeak refreshes every entry for an address, across all sources,
// with a new market cap observation. LastSeen and LastMc always move; the
// peak only rises.
func (l *PerformanceLedger) UpdatePeak(address string, marketCap float64) {
	if address == "" || marketCap <= 0 {
		return
	}

	now := l.clock().UnixMilli()
	changed := false

	l.mu.Lock()
	for _, entry := range l.entries {
		if entry.Address != address {
			continue
		}
		entry.LastSeen = now
		entry.LastMc = marketCap
		if entry.Signal == "" && entry.EntryMc > 0 {
			entry.Signal = "BUY"
		}
		if marketCap > entry.PeakMc {
			entry.PeakMc = marketCap
			if entry.Status == "removed" && entry.Notes != "" && !strings.Contains(entry.Notes, removedPeakNote) {
				entry.Notes = strings.TrimSpace(entry.Notes + " " + removedPeakNote)
			}
			entry.computeRoi()
		}
		changed = true
	}
	l.mu.Unlock()

	if changed {
		l.flusher.MarkDirty()
	}
}

// MarkRemoved flags every entry for an address as removed and appends a
// reason note. Entries already removed are left alone, so repeated vetoes
// do not duplicate the note.
func (l *PerformanceLedger) MarkRemoved(address, reason string) {
	if address == "" {
		return
	}
	note := "Removed."
	if reason != "" {
		note = fmt.Sprintf("Removed due to %s.", strings.ReplaceAll(reason, "_", " "))
	}

	now := l.clock().UnixMilli()
	changed := false

	l.mu.Lock()
	for _, entry := range l.entries {
		if entry.Address != address || entry.Status == "removed" {
			continue
		}
		entry.Status = "removed"
		if entry.Notes != "" {
			entry.Notes = entry.Notes + " " + note
		} else {
			entry.Notes = note
		}
		entry.LastSeen = now
		changed = true
	}
	l.mu.Unlock()

	if changed {
		l.flusher.MarkDirty()
	}
}

// Entry returns a copy of the entry for (address, source), if present.
func (l *PerformanceLedger) Entry(address, source string) (PerformanceEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, _ := l.findEntry(address, NormalizeSource(source))
	if entry == nil {
		return PerformanceEntry{}, false
	}
	return *entry, true
}

// ListEntries returns all entries sorted by last-seen, newest first.
func (l *PerformanceLedger) ListEntries() []PerformanceEntry {
	l.mu.Lock()
	out := make([]PerformanceEntry, 0, len(l.entries))
	for _, entry := range l.entries {
		if entry.Signal == "" && entry.EntryMc > 0 {
			entry.Signal = "BUY"
		}
		out = append(out, *entry)
	}
	l.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastSeen > out[j].LastSeen
	})
	return out
}

// Flush writes the ledger synchronously.
func (l *PerformanceLedger) Flush() error { return l.flusher.Flush() }

// Close stops the background flusher after a final write.
func (l *PerformanceLedger) Close() { l.flusher.Stop() }

func (l *PerformanceLedger) snapshot() ([]byte, error) {
	l.mu.Lock()
	doc := ledgerDocument{Entries: make(map[string]*PerformanceEntry, len(l.entries))}
	for key, entry := range l.entries {
		clone := *entry
		doc.Entries[key] = &clone
	}
	l.mu.Unlock()
	return json.MarshalIndent(doc, "", "  ")
}
