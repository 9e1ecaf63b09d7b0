package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Trade is one execution event pushed by the broker extension. Producers send
// loosely-shaped JSON; UnmarshalJSON coerces known aliases into the canonical
// fields with a fixed precedence per field:
//
//	id        <- id (synthesized when absent)
//	timestamp <- timestamp, executedAt (now when absent)
//	symbol    <- symbol, instrument, scrip
//	type      <- type, product ("Market" when absent)
//	side      <- side, buySell ("Buy" when absent)
//	quantity  <- quantity, qty
//	tradedQty <- tradedQty, filledQty, qty
//	price     <- price, fillPrice
//	status    <- status ("Filled" when absent)
//
// A stored trade is immutable; there is no partial update, only removal.
type Trade struct {
	ID        string          `json:"id"`
	Account   string          `json:"account,omitempty"`
	Timestamp string          `json:"timestamp"`
	Symbol    string          `json:"symbol"`
	Type      string          `json:"type"`
	Side      string          `json:"side"`
	Quantity  decimal.Decimal `json:"quantity"`
	TradedQty decimal.Decimal `json:"tradedQty"`
	Price     decimal.Decimal `json:"price"`
	Status    string          `json:"status"`
}

type rawTrade struct {
	ID          string          `json:"id"`
	Account     string          `json:"account"`
	AccountName string          `json:"accountName"`
	Timestamp   string          `json:"timestamp"`
	ExecutedAt  string          `json:"executedAt"`
	Symbol      string          `json:"symbol"`
	Instrument  string          `json:"instrument"`
	Scrip       string          `json:"scrip"`
	Type        string          `json:"type"`
	Product     string          `json:"product"`
	Side        string          `json:"side"`
	BuySell     string          `json:"buySell"`
	Quantity    json.RawMessage `json:"quantity"`
	Qty         json.RawMessage `json:"qty"`
	TradedQty   json.RawMessage `json:"tradedQty"`
	FilledQty   json.RawMessage `json:"filledQty"`
	Price       json.RawMessage `json:"price"`
	FillPrice   json.RawMessage `json:"fillPrice"`
	Status      string          `json:"status"`
}

func (t *Trade) UnmarshalJSON(data []byte) error {
	var raw rawTrade
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t.ID = firstString(raw.ID, uuid.NewString())
	t.Account = firstString(raw.Account, raw.AccountName)
	t.Timestamp = firstString(raw.Timestamp, raw.ExecutedAt, time.Now().UTC().Format(time.RFC3339))
	t.Symbol = firstString(raw.Symbol, raw.Instrument, raw.Scrip)
	t.Type = firstString(raw.Type, raw.Product, "Market")
	t.Side = firstString(raw.Side, raw.BuySell, "Buy")
	t.Quantity = firstDecimal(raw.Quantity, raw.Qty)
	t.TradedQty = firstDecimal(raw.TradedQty, raw.FilledQty, raw.Qty)
	t.Price = firstDecimal(raw.Price, raw.FillPrice)
	t.Status = firstString(raw.Status, "Filled")
	return nil
}

// MarshalJSON emits quantity/tradedQty/price as bare JSON numbers rather than
// the quoted strings decimal produces by default; the dashboard and the
// persisted snapshot both expect numbers.
func (t Trade) MarshalJSON() ([]byte, error) {
	out := struct {
		ID        string      `json:"id"`
		Account   string      `json:"account,omitempty"`
		Timestamp string      `json:"timestamp"`
		Symbol    string      `json:"symbol"`
		Type      string      `json:"type"`
		Side      string      `json:"side"`
		Quantity  json.Number `json:"quantity"`
		TradedQty json.Number `json:"tradedQty"`
		Price     json.Number `json:"price"`
		Status    string      `json:"status"`
	}{
		ID:        t.ID,
		Account:   t.Account,
		Timestamp: t.Timestamp,
		Symbol:    t.Symbol,
		Type:      t.Type,
		Side:      t.Side,
		Quantity:  json.Number(t.Quantity.String()),
		TradedQty: json.Number(t.TradedQty.String()),
		Price:     json.Number(t.Price.String()),
		Status:    t.Status,
	}
	return json.Marshal(out)
}

// WithAccount returns a copy annotated with its owning account id, used when
// flattening the store and when broadcasting.
func (t Trade) WithAccount(accountID string) Trade {
	t.Account = accountID
	return t
}

func firstString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// firstDecimal takes the first alias that parses; numbers and quoted numeric
// strings are both accepted, anything else counts as absent.
func firstDecimal(values ...json.RawMessage) decimal.Decimal {
	for _, v := range values {
		if len(v) == 0 || string(v) == "null" {
			continue
		}
		var d decimal.Decimal
		if err := json.Unmarshal(v, &d); err == nil {
			return d
		}
	}
	return decimal.Zero
}
