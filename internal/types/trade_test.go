package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTradeUnmarshalCanonicalFields(t *testing.T) {
	t.Parallel()

	var tr Trade
	err := json.Unmarshal([]byte(`{
		"id": "T1",
		"symbol": "FOO",
		"side": "BUY",
		"quantity": 10,
		"price": 100.5,
		"executedAt": "2024-01-01T00:00:00Z"
	}`), &tr)
	require.NoError(t, err)

	assert.Equal(t, "T1", tr.ID)
	assert.Equal(t, "FOO", tr.Symbol)
	assert.Equal(t, "BUY", tr.Side)
	assert.Equal(t, "10", tr.Quantity.String())
	assert.Equal(t, "100.5", tr.Price.String())
	assert.Equal(t, "2024-01-01T00:00:00Z", tr.Timestamp)
}

func TestTradeUnmarshalAliasPrecedence(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want func(t *testing.T, tr Trade)
	}{
		{
			name: "symbol wins over instrument and scrip",
			in:   `{"symbol":"A","instrument":"B","scrip":"C"}`,
			want: func(t *testing.T, tr Trade) { assert.Equal(t, "A", tr.Symbol) },
		},
		{
			name: "instrument wins over scrip",
			in:   `{"instrument":"B","scrip":"C"}`,
			want: func(t *testing.T, tr Trade) { assert.Equal(t, "B", tr.Symbol) },
		},
		{
			name: "scrip used last",
			in:   `{"scrip":"C"}`,
			want: func(t *testing.T, tr Trade) { assert.Equal(t, "C", tr.Symbol) },
		},
		{
			name: "buySell fallback for side",
			in:   `{"buySell":"Sell"}`,
			want: func(t *testing.T, tr Trade) { assert.Equal(t, "Sell", tr.Side) },
		},
		{
			name: "qty fallback for quantity and tradedQty",
			in:   `{"qty":7}`,
			want: func(t *testing.T, tr Trade) {
				assert.Equal(t, "7", tr.Quantity.String())
				assert.Equal(t, "7", tr.TradedQty.String())
			},
		},
		{
			name: "filledQty wins over qty for tradedQty",
			in:   `{"qty":7,"filledQty":3}`,
			want: func(t *testing.T, tr Trade) {
				assert.Equal(t, "7", tr.Quantity.String())
				assert.Equal(t, "3", tr.TradedQty.String())
			},
		},
		{
			name: "fillPrice fallback for price",
			in:   `{"fillPrice":"99.25"}`,
			want: func(t *testing.T, tr Trade) { assert.Equal(t, "99.25", tr.Price.String()) },
		},
		{
			name: "product fallback for type",
			in:   `{"product":"MIS"}`,
			want: func(t *testing.T, tr Trade) { assert.Equal(t, "MIS", tr.Type) },
		},
		{
			name: "timestamp wins over executedAt",
			in:   `{"timestamp":"2024-02-02T00:00:00Z","executedAt":"2023-01-01T00:00:00Z"}`,
			want: func(t *testing.T, tr Trade) { assert.Equal(t, "2024-02-02T00:00:00Z", tr.Timestamp) },
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var tr Trade
			require.NoError(t, json.Unmarshal([]byte(tc.in), &tr))
			tc.want(t, tr)
		})
	}
}

func TestTradeUnmarshalDefaults(t *testing.T) {
	t.Parallel()

	var tr Trade
	require.NoError(t, json.Unmarshal([]byte(`{}`), &tr))

	assert.NotEmpty(t, tr.ID, "missing id must be synthesized")
	assert.NotEmpty(t, tr.Timestamp)
	assert.Equal(t, "Market", tr.Type)
	assert.Equal(t, "Buy", tr.Side)
	assert.Equal(t, "Filled", tr.Status)
	assert.True(t, tr.Quantity.IsZero())
	assert.True(t, tr.Price.IsZero())
}

func TestTradeUnmarshalGarbageNumbersAbsorbed(t *testing.T) {
	t.Parallel()

	var tr Trade
	require.NoError(t, json.Unmarshal([]byte(`{"quantity":"not a number","price":null}`), &tr))
	assert.True(t, tr.Quantity.IsZero())
	assert.True(t, tr.Price.IsZero())
}

func TestTradeMarshalEmitsBareNumbers(t *testing.T) {
	t.Parallel()

	var tr Trade
	require.NoError(t, json.Unmarshal([]byte(`{"id":"T1","symbol":"FOO","quantity":10,"price":100.5}`), &tr))

	out, err := json.Marshal(tr.WithAccount("U1"))
	require.NoError(t, err)
	assert.Contains(t, string(out), `"quantity":10`)
	assert.Contains(t, string(out), `"price":100.5`)
	assert.Contains(t, string(out), `"account":"U1"`)
}

func TestTradeRoundTrip(t *testing.T) {
	t.Parallel()

	var tr Trade
	require.NoError(t, json.Unmarshal([]byte(`{"id":"T1","symbol":"FOO","side":"Sell","quantity":2,"price":3.5,"timestamp":"2024-01-01T00:00:00Z"}`), &tr))

	out, err := json.Marshal(tr)
	require.NoError(t, err)

	var back Trade
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, tr.ID, back.ID)
	assert.Equal(t, tr.Symbol, back.Symbol)
	assert.Equal(t, tr.Side, back.Side)
	assert.Equal(t, tr.Timestamp, back.Timestamp)
	assert.True(t, tr.Quantity.Equal(back.Quantity))
	assert.True(t, tr.Price.Equal(back.Price))
}
