package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthFunc verifica uma dependência (redis, postgres, socket do jogo...)
type HealthFunc func(ctx context.Context) error

// Check associa um nome a uma verificação, exibido quando falha
type Check struct {
	Name string
	Fn   HealthFunc
}

// Handler monta o mux com /metrics e /healthz
func Handler(checks ...Check) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()

		for _, c := range checks {
			if err := c.Fn(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(fmt.Sprintf("%s unhealthy: %v", c.Name, err)))
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return mux
}

// StartMetricsServer sobe um servidor HTTP leve só pra /metrics e /healthz.
// roda numa goroutine; o chamador faz Shutdown no encerramento.
func StartMetricsServer(port string, checks ...Check) *http.Server {
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: Handler(checks...),
	}

	go func() {
		_ = srv.ListenAndServe()
	}()

	return srv
}
