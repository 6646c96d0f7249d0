package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/dexpulse/dexpulse/internal/domain"
	"github.com/dexpulse/dexpulse/internal/scan"
	"github.com/dexpulse/dexpulse/internal/store"
)

// Handlers binds the pipeline and the performance ledger to the API
// routes. Every endpoint is read-only.
type Handlers struct {
	pipeline *scan.Pipeline
	ledger   *store.PerformanceLedger
	perfPath string
}

// NewHandlers returns the route handlers. ledger may be nil when the
// process runs without durable state.
func NewHandlers(pipeline *scan.Pipeline, ledger *store.PerformanceLedger, perfPath string) *Handlers {
	return &Handlers{pipeline: pipeline, ledger: ledger, perfPath: perfPath}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type listResponse struct {
	Count int          `json:"count"`
	Items []*scan.Item `json:"items"`
}

func writeList(w http.ResponseWriter, items []*scan.Item, err error) {
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if items == nil {
		items = []*scan.Item{}
	}
	writeJSON(w, http.StatusOK, listResponse{Count: len(items), Items: items})
}

func timeframeParam(r *http.Request) domain.Timeframe {
	return domain.ParseTimeframe(r.URL.Query().Get("tf"))
}

func tierParam(r *http.Request) domain.Label {
	return domain.ParseTier(r.URL.Query().Get("potential"))
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Search looks up tokens by free-text query, grouped by base token.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "Missing q")
		return
	}
	items, err := h.pipeline.Search(r.Context(), q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if items == nil {
		items = []*scan.SearchResult{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"q":     q,
		"count": len(items),
		"items": items,
	})
}

// TokenDetail returns the full assessment bundle for one address.
func (h *Handlers) TokenDetail(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	detail, err := h.pipeline.TokenDetail(r.Context(), address, timeframeParam(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// PerformanceHistory dumps the signal ledger, most recently seen first.
func (h *Handlers) PerformanceHistory(w http.ResponseWriter, r *http.Request) {
	var items []store.PerformanceEntry
	if h.ledger != nil {
		items = h.ledger.ListEntries()
	}
	if items == nil {
		items = []store.PerformanceEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count": len(items),
		"items": items,
		"path":  h.perfPath,
	})
}

// Majors serves the curated large-cap list.
func (h *Handlers) Majors(w http.ResponseWriter, r *http.Request) {
	items, err := h.pipeline.Majors(r.Context(), timeframeParam(r))
	writeList(w, items, err)
}

// TrendingLowRisk serves upward movers that pass the risk gate.
func (h *Handlers) TrendingLowRisk(w http.ResponseWriter, r *http.Request) {
	items, err := h.pipeline.TrendingLowRisk(r.Context(), timeframeParam(r))
	writeList(w, items, err)
}

// TopVolume serves the highest 24h volume tokens.
func (h *Handlers) TopVolume(w http.ResponseWriter, r *http.Request) {
	items, err := h.pipeline.TopVolume(r.Context())
	writeList(w, items, err)
}

// HighLiquidity serves the deepest pools.
func (h *Handlers) HighLiquidity(w http.ResponseWriter, r *http.Request) {
	items, err := h.pipeline.HighLiquidity(r.Context())
	writeList(w, items, err)
}

// Boosted serves the promoted-token seed without signal filtering.
func (h *Handlers) Boosted(w http.ResponseWriter, r *http.Request) {
	items, err := h.pipeline.Boosted(r.Context())
	writeList(w, items, err)
}

// WhaleAlert serves the large-flow view.
func (h *Handlers) WhaleAlert(w http.ResponseWriter, r *http.Request) {
	items, err := h.pipeline.WhaleAlert(r.Context(), timeframeParam(r))
	writeList(w, items, err)
}

// SmartMoney serves the composite-score view with streak bonuses.
func (h *Handlers) SmartMoney(w http.ResponseWriter, r *http.Request) {
	items, err := h.pipeline.SmartMoney(r.Context(), timeframeParam(r))
	writeList(w, items, err)
}

// HotBuys serves the buy-pressure view.
func (h *Handlers) HotBuys(w http.ResponseWriter, r *http.Request) {
	items, err := h.pipeline.HotBuys(r.Context(), timeframeParam(r))
	writeList(w, items, err)
}

// Risky serves the high-risk watch list.
func (h *Handlers) Risky(w http.ResponseWriter, r *http.Request) {
	items, err := h.pipeline.Risky(r.Context())
	writeList(w, items, err)
}

// SignalPlus serves the buy-gated view for the requested tier.
func (h *Handlers) SignalPlus(w http.ResponseWriter, r *http.Request) {
	items, err := h.pipeline.SignalPlus(r.Context(), timeframeParam(r), tierParam(r))
	writeList(w, items, err)
}

// AllSignals serves the merged four-view feed.
func (h *Handlers) AllSignals(w http.ResponseWriter, r *http.Request) {
	items, err := h.pipeline.AllSignals(r.Context(), timeframeParam(r), tierParam(r))
	writeList(w, items, err)
}
