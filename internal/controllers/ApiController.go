package controllers

import (
	"errors"
	"net/http"

	json "github.com/goccy/go-json"

	"fbd/internal/baseline"
	"fbd/internal/providers"
)

const maxRequestBodySize = 1 << 20 // 1 MB

type ApiController struct {
	logger providers.Logger
	engine baseline.EngineInterface
	cache  providers.CacheProviderInterface
}

func NewApiController(logger providers.Logger, engine baseline.EngineInterface, cache providers.CacheProviderInterface) *ApiController {
	return &ApiController{
		logger: logger,
		engine: engine,
		cache:  cache,
	}
}

type syncRequest struct {
	Identity  string   `json:"identity"`
	Followers []string `json:"followers"`
}

func getIdentity(r *http.Request) string {
	return r.URL.Query().Get("id")
}

func (ac *ApiController) serveFromCacheOrCompute(w http.ResponseWriter, cacheKey string, compute func() (any, error)) {
	if data, ok := ac.cache.Get(cacheKey); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	result, err := compute()
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	gson, err := json.Marshal(result)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	ac.cache.Set(cacheKey, gson)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	gson, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(gson)
}

// Sync takes the observed follower set for an identity and returns the
// classification plus the up-to-date baseline.
func (ac *ApiController) Sync(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var payload syncRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	cls, err := ac.engine.ProcessFollowers(r.Context(), payload.Identity, payload.Followers)
	if err != nil {
		if errors.Is(err, baseline.ErrBadIdentity) {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	// The count endpoint caches per identity; a sync moves the baseline.
	ac.cache.Del("count:" + payload.Identity)

	writeJSON(w, http.StatusOK, cls)
}

// GetBaseline is deliberately uncached: a fetch always consults the
// ledger and falls back to the local copy on failure.
func (ac *ApiController) GetBaseline(w http.ResponseWriter, r *http.Request) {
	b := ac.engine.FetchBaseline(r.Context(), getIdentity(r))
	if b == nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (ac *ApiController) GetCount(w http.ResponseWriter, r *http.Request) {
	identity := getIdentity(r)
	ac.serveFromCacheOrCompute(w, "count:"+identity, func() (any, error) {
		return map[string]int{"count": ac.engine.Count(identity)}, nil
	})
}

func (ac *ApiController) GetContains(w http.ResponseWriter, r *http.Request) {
	identity := getIdentity(r)
	follower := r.URL.Query().Get("f")
	writeJSON(w, http.StatusOK, map[string]bool{"contains": ac.engine.Contains(identity, follower)})
}
