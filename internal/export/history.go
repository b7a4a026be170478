// =================================
// File: internal/export/history.go
// =================================
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const maxHistoryEntries = 10

// HistoryEntry is one remembered wallet lookup.
type HistoryEntry struct {
	Address  string    `json:"address"`
	LastUsed time.Time `json:"last_used"`
}

// SearchHistory remembers the most recently queried wallet addresses
// in a small JSON file, most recent first.
type SearchHistory struct {
	mu      sync.Mutex
	path    string
	entries []HistoryEntry
	logger  *zap.Logger
}

func NewSearchHistory(path string, logger *zap.Logger) *SearchHistory {
	h := &SearchHistory{
		path:   path,
		logger: logger.Named("history"),
	}
	h.load()
	return h
}

func (h *SearchHistory) load() {
	data, err := os.ReadFile(h.path)
	if err != nil {
		return
	}
	if err := json.Unmarshal(data, &h.entries); err != nil {
		h.logger.Warn("search history unreadable, starting fresh", zap.Error(err))
		h.entries = nil
	}
}

// Remember moves the address to the front of the history, dropping the
// oldest entry past the cap.
func (h *SearchHistory) Remember(address string) error {
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		return fmt.Errorf("empty address")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	kept := make([]HistoryEntry, 0, len(h.entries)+1)
	kept = append(kept, HistoryEntry{Address: trimmed, LastUsed: time.Now().UTC()})
	for _, entry := range h.entries {
		if strings.EqualFold(entry.Address, trimmed) {
			continue
		}
		kept = append(kept, entry)
	}
	if len(kept) > maxHistoryEntries {
		kept = kept[:maxHistoryEntries]
	}
	h.entries = kept
	return h.persist()
}

// Recent returns the remembered addresses, most recent first.
func (h *SearchHistory) Recent() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	addresses := make([]string, len(h.entries))
	for i, entry := range h.entries {
		addresses[i] = entry.Address
	}
	return addresses
}

func (h *SearchHistory) persist() error {
	data, err := json.MarshalIndent(h.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	if err := os.WriteFile(h.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	return nil
}
