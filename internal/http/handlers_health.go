package httpx

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	healthResponse      = `{"status":"ok"}`
	unavailableResponse = `{"status":"unavailable"}`

	readinessTimeout = 2 * time.Second
)

// Pinger reports whether a dependency is reachable. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// healthHandler returns a simple 200 OK status for liveness checks.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeStatus(w, r, http.StatusOK, healthResponse)
}

// readinessHandler reports 200 only while the identity store answers a ping.
func readinessHandler(db Pinger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db == nil {
			writeStatus(w, r, http.StatusOK, healthResponse)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			logger.WarnContext(r.Context(), "readiness check failed", "error", err)
			writeStatus(w, r, http.StatusServiceUnavailable, unavailableResponse)
			return
		}
		writeStatus(w, r, http.StatusOK, healthResponse)
	}
}

func writeStatus(w http.ResponseWriter, r *http.Request, code int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.WriteString(w, body); err != nil {
		// Nothing more to do if the client connection is gone.
		return
	}
}
