package controllers

import (
	"net/http"

	json "github.com/goccy/go-json"

	"fbd/internal/baseline"
	"fbd/internal/providers"
)

// DebugController exposes manual triggers for inspection outside
// production. Its routes are only registered when the daemon runs in
// debug mode; production builds expose the read-only accessors only.
type DebugController struct {
	logger providers.Logger
	engine baseline.EngineInterface
	store  baseline.StoreInterface
}

func NewDebugController(logger providers.Logger, engine baseline.EngineInterface, store baseline.StoreInterface) *DebugController {
	return &DebugController{
		logger: logger,
		engine: engine,
		store:  store,
	}
}

// Refetch forces a fetch from the ledger, bypassing whatever the local
// store holds.
func (dc *DebugController) Refetch(w http.ResponseWriter, r *http.Request) {
	identity := getIdentity(r)
	b := dc.engine.FetchBaseline(r.Context(), identity)
	if b == nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// Save re-publishes the current local baseline to the ledger.
func (dc *DebugController) Save(w http.ResponseWriter, r *http.Request) {
	identity := getIdentity(r)
	b := dc.engine.FetchBaseline(r.Context(), identity)
	if b == nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	ok := dc.engine.SaveBaseline(r.Context(), identity, b)
	writeJSON(w, http.StatusOK, map[string]bool{"saved": ok})
}

// Reset rebuilds the baseline from the posted follower set.
func (dc *DebugController) Reset(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var payload syncRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	cls, err := dc.engine.Reset(r.Context(), payload.Identity, payload.Followers)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	dc.logger.Warnf(providers.TypeApp, "Baseline reset for %s", payload.Identity)
	writeJSON(w, http.StatusOK, cls)
}

// Raw dumps the stored bytes without validation.
func (dc *DebugController) Raw(w http.ResponseWriter, r *http.Request) {
	data := dc.store.Raw(getIdentity(r))
	if data == nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
