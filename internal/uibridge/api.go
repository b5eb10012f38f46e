package uibridge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/bull-run-boost/internal/gamesocket"
	"github.com/radieske/bull-run-boost/internal/race"
	"github.com/radieske/bull-run-boost/internal/session"
)

// Race é o que a API usa da sessão do jogador
type Race interface {
	PlaceBet(ctx context.Context, suit race.Suit, amount int64) (session.View, error)
	CycleBet(ctx context.Context, suit race.Suit) (session.View, error)
	StartRace(ctx context.Context) (race.RaceStart, error)
	DrawCard(ctx context.Context) error
	ClaimBonus(ctx context.Context) error
	ResetToBetting(ctx context.Context) (session.View, error)
	Snapshot(ctx context.Context) (session.View, error)
	History(ctx context.Context) ([]race.Outcome, error)
}

// API expõe a sessão para a camada de apresentação
type API struct {
	Race Race
	Hub  *Hub // opcional; habilita /ws
	Log  *zap.Logger
}

type betRequest struct {
	Suit   string `json:"suit"`
	Amount int64  `json:"amount"`
}

// Router retorna o roteador HTTP com os endpoints da corrida
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/v1/race", a.getRace)
	r.Get("/v1/race/history", a.getHistory)
	r.Post("/v1/race/bets", a.placeBet)
	r.Post("/v1/race/bets/{suit}/cycle", a.cycleBet)
	r.Post("/v1/race/start", a.startRace)
	r.Post("/v1/race/draw", a.drawCard)
	r.Post("/v1/race/bonus", a.claimBonus)
	r.Post("/v1/race/reset", a.reset)
	if a.Hub != nil {
		r.Get("/ws", a.Hub.HandleWS)
	}
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError: rejeição de regra -> 409, sessão ou socket indisponível -> 503
func (a *API) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case race.IsRejection(err):
		status = http.StatusConflict
	case errors.Is(err, session.ErrClosed), errors.Is(err, gamesocket.ErrNotConnected):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	if status >= 500 && a.Log != nil {
		a.Log.Warn("request failed", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (a *API) getRace(w http.ResponseWriter, r *http.Request) {
	v, err := a.Race.Snapshot(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (a *API) getHistory(w http.ResponseWriter, r *http.Request) {
	h, err := a.Race.History(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (a *API) placeBet(w http.ResponseWriter, r *http.Request) {
	var req betRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	suit, err := race.ParseSuit(req.Suit)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	v, err := a.Race.PlaceBet(r.Context(), suit, req.Amount)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (a *API) cycleBet(w http.ResponseWriter, r *http.Request) {
	suit, err := race.ParseSuit(chi.URLParam(r, "suit"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	v, err := a.Race.CycleBet(r.Context(), suit)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// startRace responde 202: a largada só vale depois do "race-started"
func (a *API) startRace(w http.ResponseWriter, r *http.Request) {
	rs, err := a.Race.StartRace(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, rs)
}

func (a *API) drawCard(w http.ResponseWriter, r *http.Request) {
	if err := a.Race.DrawCard(r.Context()); err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (a *API) claimBonus(w http.ResponseWriter, r *http.Request) {
	if err := a.Race.ClaimBonus(r.Context()); err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (a *API) reset(w http.ResponseWriter, r *http.Request) {
	v, err := a.Race.ResetToBetting(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}
