package audit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/bull-run-boost/pkg/contracts/events"
)

type readerFunc func(ctx context.Context, playerID string, limit int) ([]events.RaceSettled, error)

func (f readerFunc) RecentByPlayer(ctx context.Context, playerID string, limit int) ([]events.RaceSettled, error) {
	return f(ctx, playerID, limit)
}

func TestAPI_ListSettlements(t *testing.T) {
	var gotPlayer string
	var gotLimit int
	api := &API{Repo: readerFunc(func(_ context.Context, playerID string, limit int) ([]events.RaceSettled, error) {
		gotPlayer, gotLimit = playerID, limit
		return []events.RaceSettled{settled("4b7c1c50-9f0e-4a0f-8d43-0c9a5e6b2f11")}, nil
	})}
	h := api.Router()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/players/cowboy/settlements", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cowboy", gotPlayer)
	assert.Equal(t, 10, gotLimit)

	var out []events.RaceSettled
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, int64(40), out[0].Winnings)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/players/cowboy/settlements?limit=3", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, gotLimit)

	for _, q := range []string{"0", "101", "abc"} {
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/players/cowboy/settlements?limit="+q, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestAPI_RepoFailure(t *testing.T) {
	api := &API{Repo: readerFunc(func(context.Context, string, int) ([]events.RaceSettled, error) {
		return nil, errors.New("db down")
	})}

	rec := httptest.NewRecorder()
	api.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/players/cowboy/settlements", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"db down"}`, rec.Body.String())
}
