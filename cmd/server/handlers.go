package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/xtding233/maplecalc/internal/alphabet"
	"github.com/xtding233/maplecalc/internal/calc"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

type errResp struct {
	Err        string           `json:"err"`
	Violations []calc.Violation `json:"violations,omitempty"`
}

type healthResp struct {
	Status        string `json:"status"`
	TablesVersion string `json:"tables_version"`
}

// newMux routes every endpoint. reg may be nil to omit /metrics.
func newMux(svc *calc.Service, reg *prometheus.Registry, log *zap.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/hunt", handleJSON(log, svc.Hunt))
	mux.HandleFunc("POST /v1/breakeven", handleJSON(log, svc.Breakeven))
	mux.HandleFunc("POST /v1/title", handleJSON(log, svc.Title))
	mux.HandleFunc("POST /v1/alphabet", handleJSON(log, func(ctx context.Context, req calc.AlphabetRequest) (alphabet.Estimate, error) {
		return svc.Alphabet(ctx, req, nil)
	}))
	mux.HandleFunc("POST /v1/alphabet/sweep", handleJSON(log, svc.AlphabetSweep))
	mux.HandleFunc("POST /v1/alphabet/required", handleJSON(log, svc.AlphabetRequired))
	mux.HandleFunc("POST /v1/boss", handleJSON(log, svc.Boss))

	mux.HandleFunc("GET /v1/tables", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Tables())
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthResp{Status: "ok", TablesVersion: svc.Tables().Version})
	})
	if reg != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}
	return mux
}

// handleJSON decodes the body into Req, calls fn and writes the result.
func handleJSON[Req, Resp any](log *zap.Logger, fn func(context.Context, Req) (Resp, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req Req
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errResp{Err: fmt.Sprintf("invalid body: %v", err)})
			return
		}
		resp, err := fn(r.Context(), req)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	var ce *calc.ConfigurationError
	switch {
	case errors.As(err, &ce):
		writeJSON(w, http.StatusBadRequest, errResp{Err: ce.Error(), Violations: ce.Violations})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusServiceUnavailable, errResp{Err: err.Error()})
	default:
		log.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errResp{Err: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
