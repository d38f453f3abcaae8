// Package httpadapter is the intake API surface: document upload, submission
// status and extraction results. Processing itself happens in the worker;
// upload only stores, records and enqueues.
package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/meridianbio/labintake/internal/core/ports"
	"github.com/meridianbio/labintake/internal/core/usecase"
	"github.com/meridianbio/labintake/internal/observability/metrics"
)

type Router struct {
	ingestUC       *usecase.IngestSubmissionUseCase
	store          ports.SubmissionStore
	maxUploadBytes int64
	httpMetrics    *metrics.HTTPServerMetrics
	service        string
}

type RouterOptions struct {
	MaxUploadBytes int64
	Metrics        *metrics.HTTPServerMetrics
	Service        string
}

func NewRouter(ingestUC *usecase.IngestSubmissionUseCase, store ports.SubmissionStore, opts RouterOptions) *Router {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = usecase.DefaultMaxDocumentBytes
	}
	if opts.Service == "" {
		opts.Service = "api"
	}
	return &Router{
		ingestUC:       ingestUC,
		store:          store,
		maxUploadBytes: opts.MaxUploadBytes,
		httpMetrics:    opts.Metrics,
		service:        opts.Service,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/submissions", rt.uploadSubmission)
	mux.HandleFunc("/v1/submissions/", rt.getSubmission)

	var handler http.Handler = mux
	if rt.httpMetrics != nil {
		handler = rt.httpMetrics.Middleware(rt.service, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) uploadSubmission(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, rt.maxUploadBytes)
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	sub, err := rt.ingestUC.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusAccepted, sub)
}

// getSubmission serves both /v1/submissions/{id} and
// /v1/submissions/{id}/result.
func (rt *Router) getSubmission(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/submissions/")
	id, tail, _ := strings.Cut(rest, "/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "submission id is required"})
		return
	}

	switch tail {
	case "":
		sub, err := rt.store.GetSubmission(r.Context(), id)
		if err != nil {
			writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, sub)
	case "result":
		result, err := rt.store.GetResult(r.Context(), id)
		if err != nil {
			writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, result)
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown resource"})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
