// Package relay forwards fresh merged-feed signals to a Telegram chat.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dexpulse/dexpulse/internal/domain"
	"github.com/dexpulse/dexpulse/internal/scan"
)

const telegramAPIBase = "https://api.telegram.org"

// Config drives the Telegram relay loop.
type Config struct {
	BotToken     string
	ChatID       string
	Timeframe    domain.Timeframe
	Tier         domain.Label
	PollInterval time.Duration
	SendDelay    time.Duration
	DedupeWindow time.Duration
	StatePath    string
	Clock        domain.Clock
}

// Relay polls the merged signal feed and sends each address to the
// configured chat once per dedupe window.
type Relay struct {
	cfg      Config
	pipeline *scan.Pipeline
	http     *http.Client
	apiBase  string
	clock    domain.Clock

	mu   sync.Mutex
	sent map[string]int64 // address -> ms epoch of last send
}

// New validates the credentials and loads the dedupe state.
func New(cfg Config, pipeline *scan.Pipeline) (*Relay, error) {
	if cfg.BotToken == "" {
		return nil, errors.New("relay: missing bot token")
	}
	if cfg.ChatID == "" {
		return nil, errors.New("relay: missing chat id")
	}
	if cfg.Timeframe == "" {
		cfg.Timeframe = domain.TF15m
	}
	if cfg.Tier == "" {
		cfg.Tier = domain.LabelMed
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 20 * time.Second
	}
	if cfg.SendDelay < 0 {
		cfg.SendDelay = 0
	}
	if cfg.DedupeWindow <= 0 {
		cfg.DedupeWindow = 24 * time.Hour
	}
	if cfg.Clock == nil {
		cfg.Clock = domain.SystemClock
	}

	r := &Relay{
		cfg:      cfg,
		pipeline: pipeline,
		http:     &http.Client{Timeout: 15 * time.Second},
		apiBase:  telegramAPIBase,
		clock:    cfg.Clock,
		sent:     make(map[string]int64),
	}
	r.loadState()
	return r, nil
}

// Run polls until ctx is cancelled. Poll errors are logged, not fatal.
func (r *Relay) Run(ctx context.Context) error {
	log.Info().
		Dur("interval", r.cfg.PollInterval).
		Str("tf", string(r.cfg.Timeframe)).
		Str("tier", string(r.cfg.Tier)).
		Msg("telegram relay started")

	if err := r.runOnce(ctx); err != nil {
		log.Warn().Err(err).Msg("relay poll failed")
	}

	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.runOnce(ctx); err != nil {
				log.Warn().Err(err).Msg("relay poll failed")
			}
		}
	}
}

func (r *Relay) runOnce(ctx context.Context) error {
	items, err := r.pipeline.AllSignals(ctx, r.cfg.Timeframe, r.cfg.Tier)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	r.prune()
	sent, skipped := 0, 0
	for _, item := range items {
		address := resolveAddress(item)
		if address == "" {
			continue
		}
		if r.alreadySent(address) {
			skipped++
			continue
		}
		if err := r.SendMessage(ctx, formatMessage(item)); err != nil {
			return err
		}
		r.markSent(address)
		sent++
		if r.cfg.SendDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.cfg.SendDelay):
			}
		}
	}

	if sent > 0 {
		r.saveState()
		log.Info().Int("sent", sent).Int("skipped", skipped).Msg("relay batch delivered")
	} else if skipped > 0 {
		log.Debug().Int("skipped", skipped).Msg("relay batch already delivered")
	}
	return nil
}

// SendMessage posts one message to the configured chat.
func (r *Relay) SendMessage(ctx context.Context, text string) error {
	body, err := json.Marshal(map[string]any{
		"chat_id":                  r.cfg.ChatID,
		"text":                     text,
		"disable_web_page_preview": false,
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", r.apiBase, r.cfg.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram send failed %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}
	var payload struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && !payload.OK {
		desc := payload.Description
		if desc == "" {
			desc = "unknown Telegram API error"
		}
		return fmt.Errorf("telegram send failed: %s", desc)
	}
	return nil
}

func (r *Relay) alreadySent(address string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sent[address]
	return ok
}

func (r *Relay) markSent(address string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent[address] = r.clock().UnixMilli()
}

func (r *Relay) prune() {
	cutoff := r.clock().Add(-r.cfg.DedupeWindow).UnixMilli()
	r.mu.Lock()
	defer r.mu.Unlock()
	for addr, ts := range r.sent {
		if ts == 0 || ts < cutoff {
			delete(r.sent, addr)
		}
	}
}

type relayState struct {
	Sent map[string]int64 `json:"sent"`
}

func (r *Relay) loadState() {
	if r.cfg.StatePath == "" {
		return
	}
	data, err := os.ReadFile(r.cfg.StatePath)
	if err != nil {
		return
	}
	var state relayState
	if err := json.Unmarshal(data, &state); err != nil || state.Sent == nil {
		return
	}
	r.mu.Lock()
	r.sent = state.Sent
	r.mu.Unlock()
}

func (r *Relay) saveState() {
	if r.cfg.StatePath == "" {
		return
	}
	r.mu.Lock()
	data, err := json.MarshalIndent(relayState{Sent: r.sent}, "", "  ")
	r.mu.Unlock()
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(r.cfg.StatePath), 0o755); err != nil {
		log.Warn().Err(err).Msg("relay state dir")
		return
	}
	if err := os.WriteFile(r.cfg.StatePath, data, 0o644); err != nil {
		log.Warn().Err(err).Str("path", r.cfg.StatePath).Msg("relay state write failed")
	}
}

func resolveAddress(item *scan.Item) string {
	if item.Address != "" {
		return strings.TrimSpace(item.Address)
	}
	if item.Ident.Address != "" {
		return strings.TrimSpace(item.Ident.Address)
	}
	if item.BestPair != nil {
		return strings.TrimSpace(item.BestPair.BaseToken.Address)
	}
	return ""
}

func dexscreenerURL(item *scan.Item) string {
	if item.BestPair != nil {
		if item.BestPair.URL != "" {
			return item.BestPair.URL
		}
		if item.BestPair.PairAddress != "" {
			return "https://dexscreener.com/solana/" + item.BestPair.PairAddress
		}
	}
	if item.Address != "" {
		return "https://dexscreener.com/solana/" + item.Address
	}
	return ""
}

func formatMessage(item *scan.Item) string {
	name := item.Ident.Name
	if name == "" {
		name = "Token"
	}
	token := name
	if item.Ident.Symbol != "" {
		token += " (" + item.Ident.Symbol + ")"
	}

	var price, marketCap float64
	if item.BestPair != nil {
		price, _ = strconv.ParseFloat(item.BestPair.PriceUSD, 64)
		marketCap = item.MarketCap()
		if marketCap <= 0 {
			marketCap = item.BestPair.FDV.Float()
		}
	}

	sources := "All Signals"
	if len(item.Sources) > 0 {
		sources = strings.Join(item.Sources, ", ")
	}

	lines := []string{
		"\U0001F514 New AllSignals",
		"Token: " + token,
		"CA: " + resolveAddress(item),
		"Price: " + formatUSD(price),
		"Market Cap: " + formatWholeUSD(marketCap),
		"Source: " + sources,
	}
	if url := dexscreenerURL(item); url != "" {
		lines = append(lines, "Dexscreener: "+url)
	}
	return strings.Join(lines, "\n")
}

// formatUSD prints sub-dollar prices with six decimals, larger ones
// with at most four.
func formatUSD(v float64) string {
	if v <= 0 {
		return "N/A"
	}
	if v >= 1 {
		return "$" + groupThousands(strconv.FormatFloat(v, 'f', -1, 64), 4)
	}
	return "$" + strconv.FormatFloat(v, 'f', 6, 64)
}

func formatWholeUSD(v float64) string {
	if v <= 0 {
		return "N/A"
	}
	return "$" + groupThousands(strconv.FormatFloat(v, 'f', 0, 64), 0)
}

// groupThousands inserts commas into the integer part and trims the
// fraction to maxFrac digits.
func groupThousands(s string, maxFrac int) string {
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i+1:]
		if len(frac) > maxFrac {
			frac = frac[:maxFrac]
		}
	}
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if frac != "" {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
