// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package evidenceweb exposes the evidence-resolve service over HTTP, in
// the manual net/http style of the teacher's internal/web/server.go: no
// framework, explicit server timeouts, hand-rolled routing.
package evidenceweb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tikcccc/EPD-Tender/internal/evidenceapi"
	"github.com/tikcccc/EPD-Tender/internal/evidenceservice"
	"github.com/tikcccc/EPD-Tender/internal/locator"
)

// Server serves the evidence-resolve endpoint and a health check.
type Server struct {
	port    string
	service *evidenceservice.Service
	server  *http.Server
}

// NewServer returns a Server bound to port, backed by svc.
func NewServer(port string, svc *evidenceservice.Service) *Server {
	return &Server{port: port, service: svc}
}

// Start builds the route table and blocks serving on the configured port.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/api/v1/evidence/resolve", s.withRequestID(s.handleResolve))

	s.server = s.createSecureServer(mux)

	fmt.Printf("evidence-locator listening on :%s\n", s.port)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("evidence-locator server failed: %w", err)
	}
	return nil
}

// Stop closes the underlying listener.
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// createSecureServer mirrors the teacher's explicit-timeout server
// construction in internal/web/server.go.
func (s *Server) createSecureServer(handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         ":" + s.port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

type requestIDKey struct{}

// withRequestID takes the request id from the X-Request-Id header or
// generates one, echoes it on the response header, and stores it on the
// request context so every envelope carries it, per spec.md §6.
func (s *Server) withRequestID(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = "req-" + uuid.NewString()
		}
		w.Header().Set("X-Request-Id", requestID)
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		next(w, r.WithContext(ctx))
	}
}

func requestIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return "req-missing"
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r.Context())

	if r.Method != http.MethodPost {
		writeEnvelope(w, http.StatusMethodNotAllowed, evidenceapi.ErrorResponse(requestID, "METHOD_NOT_ALLOWED", "POST required", nil))
		return
	}

	var req evidenceapi.EvidenceResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEnvelope(w, http.StatusBadRequest, evidenceapi.ErrorResponse(requestID, "VALIDATION_ERROR", "malformed request body", nil))
		return
	}

	data, err := s.service.Resolve(r.Context(), req)
	if err != nil {
		writeEnvelope(w, statusFor(err), errorEnvelopeFor(requestID, err))
		return
	}

	writeEnvelope(w, http.StatusOK, evidenceapi.OKResponse(requestID, data))
}

func statusFor(err error) int {
	var svcErr *evidenceservice.Error
	if errors.As(err, &svcErr) {
		switch svcErr.Kind {
		case evidenceservice.ErrorKindValidation:
			return http.StatusBadRequest
		case evidenceservice.ErrorKindDocumentUnreadable:
			return http.StatusUnprocessableEntity
		case evidenceservice.ErrorKindInternal:
			return http.StatusInternalServerError
		}
	}
	var locErr *locator.Error
	if errors.As(err, &locErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func errorEnvelopeFor(requestID string, err error) evidenceapi.Envelope {
	var svcErr *evidenceservice.Error
	if errors.As(err, &svcErr) {
		return evidenceapi.ErrorResponse(requestID, svcErr.Code, svcErr.Message, nil)
	}
	return evidenceapi.ErrorResponse(requestID, "INTERNAL_ERROR", err.Error(), nil)
}

func writeEnvelope(w http.ResponseWriter, status int, env evidenceapi.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}
