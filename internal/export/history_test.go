// =================================
// File: internal/export/history_test.go
// =================================
package export

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestSearchHistoryRememberAndRecent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	history := NewSearchHistory(path, zaptest.NewLogger(t))

	require.NoError(t, history.Remember("wallet1"))
	require.NoError(t, history.Remember("wallet2"))
	assert.Equal(t, []string{"wallet2", "wallet1"}, history.Recent())
}

func TestSearchHistoryMovesDuplicateToFront(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	history := NewSearchHistory(path, zaptest.NewLogger(t))

	require.NoError(t, history.Remember("wallet1"))
	require.NoError(t, history.Remember("wallet2"))
	require.NoError(t, history.Remember("WALLET1"))

	recent := history.Recent()
	require.Len(t, recent, 2)
	assert.Equal(t, "WALLET1", recent[0])
	assert.Equal(t, "wallet2", recent[1])
}

func TestSearchHistoryCap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	history := NewSearchHistory(path, zaptest.NewLogger(t))

	for i := 0; i < 15; i++ {
		require.NoError(t, history.Remember(fmt.Sprintf("wallet%d", i)))
	}
	recent := history.Recent()
	require.Len(t, recent, maxHistoryEntries)
	assert.Equal(t, "wallet14", recent[0])
	assert.Equal(t, "wallet5", recent[len(recent)-1])
}

func TestSearchHistoryPersistsAcrossLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	first := NewSearchHistory(path, zaptest.NewLogger(t))
	require.NoError(t, first.Remember("wallet1"))

	second := NewSearchHistory(path, zaptest.NewLogger(t))
	assert.Equal(t, []string{"wallet1"}, second.Recent())
}

func TestSearchHistoryRejectsEmptyAddress(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	history := NewSearchHistory(path, zaptest.NewLogger(t))
	assert.Error(t, history.Remember("   "))
}
