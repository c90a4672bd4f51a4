package tradejournal

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orderbookv1 "github.com/murphylee10/trading-engine/internal/domain/orderbook/v1"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	require.NoError(t, scanner.Err())
	return lines
}

func TestJournal_AppendAndClose(t *testing.T) {
	dir := t.TempDir()

	journal, err := New(dir, time.Second)
	require.NoError(t, err)

	order := &orderbookv1.Order{
		ID:        1,
		AccountID: 42,
		Symbol:    "AAPL",
		Side:      orderbookv1.SideBuy,
		Type:      orderbookv1.OrderTypeLimit,
		Price:     205.0,
		Quantity:  2,
		Timestamp: 1700000000000000000,
	}
	require.NoError(t, journal.AppendOrder(order))

	trades := []orderbookv1.Trade{
		{TradeID: 1, BuyOrderID: 2, SellOrderID: 1, Symbol: "AAPL", Price: 200.0, Quantity: 2, Timestamp: 1},
		{TradeID: 2, BuyOrderID: 4, SellOrderID: 3, Symbol: "AAPL", Price: 201.0, Quantity: 1, Timestamp: 2},
	}
	require.NoError(t, journal.AppendTrades(trades))

	require.NoError(t, journal.Close())

	orderLines := readLines(t, filepath.Join(dir, "orders.jsonl"))
	require.Len(t, orderLines, 1)

	var gotOrder orderbookv1.Order
	require.NoError(t, json.Unmarshal([]byte(orderLines[0]), &gotOrder))
	assert.Equal(t, *order, gotOrder)

	tradeLines := readLines(t, filepath.Join(dir, "trades.jsonl"))
	require.Len(t, tradeLines, 2)

	var gotTrade orderbookv1.Trade
	require.NoError(t, json.Unmarshal([]byte(tradeLines[1]), &gotTrade))
	assert.Equal(t, trades[1], gotTrade)
}

func TestJournal_FlushMakesRecordsVisible(t *testing.T) {
	dir := t.TempDir()

	journal, err := New(dir, time.Hour)
	require.NoError(t, err)
	defer journal.Close()

	require.NoError(t, journal.AppendOrder(&orderbookv1.Order{ID: 1, Symbol: "AAPL", Quantity: 1}))
	require.NoError(t, journal.Flush())

	lines := readLines(t, filepath.Join(dir, "orders.jsonl"))
	assert.Len(t, lines, 1)
}

func TestJournal_AppendsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	journal, err := New(dir, time.Second)
	require.NoError(t, err)
	require.NoError(t, journal.AppendOrder(&orderbookv1.Order{ID: 1, Symbol: "AAPL", Quantity: 1}))
	require.NoError(t, journal.Close())

	journal, err = New(dir, time.Second)
	require.NoError(t, err)
	require.NoError(t, journal.AppendOrder(&orderbookv1.Order{ID: 2, Symbol: "AAPL", Quantity: 1}))
	require.NoError(t, journal.Close())

	lines := readLines(t, filepath.Join(dir, "orders.jsonl"))
	assert.Len(t, lines, 2)
}

func TestJournal_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "journal")

	journal, err := New(dir, time.Second)
	require.NoError(t, err)
	require.NoError(t, journal.Close())

	_, err = os.Stat(filepath.Join(dir, "orders.jsonl"))
	assert.NoError(t, err)
}
