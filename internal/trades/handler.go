package trades

import (
	"encoding/json"
	"net/http"
	"sort"

	"qa-tradefeed/internal/httputil"
	"qa-tradefeed/internal/types"

	"go.uber.org/zap"
)

// Publisher is the fanout side of the broadcast hub.
type Publisher interface {
	Publish(t types.Trade)
}

// Handler owns the ingestion (/push) and query/retention (/incoming) routes.
type Handler struct {
	store  *Store
	hub    Publisher
	secret string
	log    *zap.Logger
}

func NewHandler(store *Store, hub Publisher, secret string, log *zap.Logger) *Handler {
	return &Handler{store: store, hub: hub, secret: secret, log: log}
}

type listResponse struct {
	Incoming Snapshot      `json:"incoming"`
	Trades   []types.Trade `json:"trades"`
}

type pushRequest struct {
	AccountID string          `json:"accountId"`
	Trades    json.RawMessage `json:"trades"`
}

type deleteRequest struct {
	AccountID string          `json:"accountId"`
	TradeIDs  json.RawMessage `json:"tradeIds"`
}

type okResponse struct {
	OK       bool   `json:"ok"`
	Received *int   `json:"received,omitempty"`
	Removed  *int   `json:"removed,omitempty"`
	Message  string `json:"message,omitempty"`
}

func okReceived(n int) okResponse { return okResponse{OK: true, Received: &n} }
func okRemoved(n int) okResponse  { return okResponse{OK: true, Removed: &n} }
func failure(msg string) okResponse {
	return okResponse{OK: false, Message: msg}
}

// authorized checks the shared secret. An unset server-side secret means the
// write path is closed, not open.
func (h *Handler) authorized(r *http.Request) bool {
	return h.secret != "" && r.Header.Get("x-qa-secret") == h.secret
}

// List answers GET /incoming with the raw per-account mapping plus a
// flattened view where each trade carries its account id. Flattening is
// account-major (accounts sorted for a stable order), append order within.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Read()
	accounts := make([]string, 0, len(snap))
	for accountID := range snap {
		accounts = append(accounts, accountID)
	}
	sort.Strings(accounts)
	flattened := make([]types.Trade, 0)
	for _, accountID := range accounts {
		for _, t := range snap[accountID] {
			flattened = append(flattened, t.WithAccount(accountID))
		}
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Incoming: snap, Trades: flattened})
}

// Push appends a batch of trades for one account and fans each out to live
// subscribers. Not idempotent: the same batch twice appends duplicates.
func (h *Handler) Push(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		httputil.WriteJSON(w, http.StatusUnauthorized, failure("Unauthorized"))
		return
	}
	var req pushRequest
	// A malformed body counts as an empty one, matching the extension's
	// fire-and-forget behavior.
	_ = httputil.ReadJSON(r, &req)
	accountID := req.AccountID
	if accountID == "" {
		accountID = "unknown"
	}
	var batch []types.Trade
	if len(req.Trades) > 0 {
		if err := json.Unmarshal(req.Trades, &batch); err != nil {
			batch = nil
		}
	}
	if err := h.store.Append(accountID, batch); err != nil {
		h.log.Error("failed persisting pushed trades",
			zap.String("account", accountID), zap.Error(err))
		httputil.WriteJSON(w, http.StatusInternalServerError, failure(err.Error()))
		return
	}
	for _, t := range batch {
		h.hub.Publish(t.WithAccount(accountID))
	}
	httputil.WriteJSON(w, http.StatusOK, okReceived(len(batch)))
}

// decodeTradeIDs parses the tradeIds payload leniently. Anything that is not a
// JSON array counts as "no list given". Within an array, only string elements
// become ids; other element types are dropped, since an id that is not a
// string can never match a stored trade. listPresent reports whether the
// caller sent a non-empty array at all, so the handler can tell "remove these"
// apart from "remove everything" even when every element was dropped.
func decodeTradeIDs(raw json.RawMessage) (ids []string, listPresent bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, false
	}
	for _, e := range elems {
		var id string
		if err := json.Unmarshal(e, &id); err == nil {
			ids = append(ids, id)
		}
	}
	return ids, len(elems) > 0
}

// Delete answers DELETE /incoming. With tradeIds it removes just those trades;
// with tradeIds omitted or empty it clears the whole account ledger. That
// destructive default is deliberate and load-bearing: the dashboard's "Clear
// All Trades" button depends on it.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		httputil.WriteJSON(w, http.StatusUnauthorized, failure("Unauthorized"))
		return
	}
	var req deleteRequest
	_ = httputil.ReadJSON(r, &req)
	if req.AccountID == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, failure("accountId required"))
		return
	}
	ids, listPresent := decodeTradeIDs(req.TradeIDs)
	if listPresent && len(ids) == 0 {
		// The caller named trades to remove but none of the ids were usable
		// strings; that matches nothing. It must not collapse into the
		// clear-all branch below.
		httputil.WriteJSON(w, http.StatusOK, okRemoved(0))
		return
	}
	removed, err := h.store.RemoveByIDs(req.AccountID, ids)
	if err != nil {
		h.log.Error("failed removing trades",
			zap.String("account", req.AccountID), zap.Error(err))
		httputil.WriteJSON(w, http.StatusInternalServerError, failure(err.Error()))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, okRemoved(removed))
}
