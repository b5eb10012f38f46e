package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/bull-run-boost/pkg/contracts/events"
)

const maxLimit = 100

// Reader é a leitura de liquidações usada pela API
type Reader interface {
	RecentByPlayer(ctx context.Context, playerID string, limit int) ([]events.RaceSettled, error)
}

// API expõe o histórico auditado de corridas.
// Cache é opcional; sem ele toda consulta vai ao Postgres.
type API struct {
	Repo  Reader
	Cache *Cache
	Log   *zap.Logger
}

func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/v1/players/{id}/settlements", a.listSettlements)
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// listSettlements retorna as últimas liquidações, preferencialmente do cache
func (a *API) listSettlements(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	limit := 10
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxLimit {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be between 1 and 100"})
			return
		}
		limit = n
	}

	if a.Cache != nil {
		if v, ok, err := a.Cache.Get(r.Context(), id, limit); err == nil && ok {
			writeJSON(w, http.StatusOK, v)
			return
		}
	}

	out, err := a.Repo.RecentByPlayer(r.Context(), id, limit)
	if err != nil {
		if a.Log != nil {
			a.Log.Warn("settlements query failed", zap.String("player_id", id), zap.Error(err))
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	if a.Cache != nil {
		_ = a.Cache.Set(r.Context(), id, limit, out)
	}
	writeJSON(w, http.StatusOK, out)
}
