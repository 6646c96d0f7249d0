package store

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dexpulse/dexpulse/internal/domain"
	"github.com/dexpulse/dexpulse/internal/metrics"
)

// Veto reasons, checked in priority order.
const (
	ReasonMcCrash  = "mc_crash"
	ReasonFastDump = "fast_dump"
	ReasonRugLike  = "rug_like"
)

// VetoRecord is a permanent blacklist entry. Once created for an address
// it is never modified or deleted; presence alone is the veto signal.
type VetoRecord struct {
	CreatedAt int64   `json:"ts"`
	Reason    string  `json:"reason"`
	PrevMc    float64 `json:"prevMc"`
	Mc        float64 `json:"mc"`
	PrevLiq   float64 `json:"prevLiq"`
	Liq       float64 `json:"liq"`
}

// mcObservation is the last seen {marketCap, liquidity} for an address,
// kept only to detect a collapse between two consecutive observations.
type mcObservation struct {
	mc  float64
	liq float64
	at  time.Time
}

// RemovalMarker is notified when a veto fires so the performance ledger
// can annotate matching entries.
type RemovalMarker interface {
	MarkRemoved(address, reason string)
}

// VetoConfig wires the blacklist's collaborators.
type VetoConfig struct {
	Path       string
	FlushDelay time.Duration
	Clock      domain.Clock
	Ledger     RemovalMarker
	Metrics    *metrics.Registry
}

// VetoBlacklist is the permanent, append-only store of crashed tokens.
type VetoBlacklist struct {
	mu      sync.Mutex
	records map[string]VetoRecord
	seen    map[string]mcObservation
	clock   domain.Clock
	ledger  RemovalMarker
	metrics *metrics.Registry
	flusher *flusher
}

type vetoDocument struct {
	Items map[string]VetoRecord `json:"items"`
}

// NewVetoBlacklist loads any existing blacklist document and starts the
// debounced flusher.
func NewVetoBlacklist(cfg VetoConfig) *VetoBlacklist {
	if cfg.Clock == nil {
		cfg.Clock = domain.SystemClock
	}
	if cfg.FlushDelay == 0 {
		cfg.FlushDelay = DefaultFlushDelay
	}

	v := &VetoBlacklist{
		records: make(map[string]VetoRecord),
		seen:    make(map[string]mcObservation),
		clock:   cfg.Clock,
		ledger:  cfg.Ledger,
		metrics: cfg.Metrics,
	}
	loadJSONFile(cfg.Path, func(data []byte) error {
		var doc vetoDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return err
		}
		if doc.Items != nil {
			v.records = doc.Items
		}
		return nil
	})
	v.flusher = newFlusher("veto", cfg.Path, cfg.FlushDelay, v.snapshot, cfg.Metrics)
	return v
}

// Blacklisted reports whether an address already carries a veto.
func (v *VetoBlacklist) Blacklisted(address string) bool {
	if address == "" {
		return false
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.records[address]
	return ok
}

// Check evaluates the current snapshot against the last observation for
// this address. A detected collapse creates a permanent record and returns
// true; an already-vetoed address returns true without re-evaluation.
func (v *VetoBlacklist) Check(address string, pair *domain.PairSnapshot) bool {
	if address == "" || pair == nil {
		return false
	}

	v.mu.Lock()
	if _, ok := v.records[address]; ok {
		v.mu.Unlock()
		return true
	}

	now := v.clock()
	curMc := pair.MarketCap.Float()
	curLiq := pair.LiquidityUSD()

	var reason string
	prev, hasPrev := v.seen[address]
	if hasPrev && prev.mc > 0 && curMc > 0 {
		switch {
		case prev.mc >= 20000 && curMc <= prev.mc/10:
			reason = ReasonMcCrash
		case now.Sub(prev.at) <= time.Hour && prev.mc >= 20000 && curMc <= prev.mc*0.3:
			reason = ReasonFastDump
		case prev.liq >= 5000 && curLiq > 0 && curLiq <= prev.liq*0.2 && curMc <= prev.mc*0.3:
			reason = ReasonRugLike
		}
	}

	if curMc > 0 || curLiq > 0 {
		v.seen[address] = mcObservation{mc: curMc, liq: curLiq, at: now}
	}

	if reason == "" {
		v.mu.Unlock()
		return false
	}

	v.records[address] = VetoRecord{
		CreatedAt: now.UnixMilli(),
		Reason:    reason,
		PrevMc:    prev.mc,
		Mc:        curMc,
		PrevLiq:   prev.liq,
		Liq:       curLiq,
	}
	v.mu.Unlock()

	if v.metrics != nil {
		v.metrics.VetoTotal.Inc()
	}
	if v.ledger != nil {
		v.ledger.MarkRemoved(address, reason)
	}
	v.flusher.MarkDirty()
	log.Info().Str("address", address).Str("reason", reason).
		Float64("prevMc", prev.mc).Float64("mc", curMc).
		Msg("address vetoed")
	return true
}

// Record returns the stored veto record for an address, if any.
func (v *VetoBlacklist) Record(address string) (VetoRecord, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	rec, ok := v.records[address]
	return rec, ok
}

// Len returns the number of vetoed addresses.
func (v *VetoBlacklist) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.records)
}

// Flush writes the blacklist synchronously.
func (v *VetoBlacklist) Flush() error { return v.flusher.Flush() }

// Close stops the background flusher after a final write.
func (v *VetoBlacklist) Close() { v.flusher.Stop() }

func (v *VetoBlacklist) snapshot() ([]byte, error) {
	v.mu.Lock()
	doc := vetoDocument{Items: make(map[string]VetoRecord, len(v.records))}
	for addr, rec := range v.records {
		doc.Items[addr] = rec
	}
	v.mu.Unlock()
	return json.MarshalIndent(doc, "", "  ")
}
