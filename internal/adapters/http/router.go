package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/voxrag/voxrag/internal/config"
	"github.com/voxrag/voxrag/internal/core/domain"
	"github.com/voxrag/voxrag/internal/core/ports"
	"github.com/voxrag/voxrag/internal/observability/metrics"
)

const serviceName = "api"

type Router struct {
	cfg     config.Config
	ingest  ports.DocumentIngestor
	query   ports.QueryService
	docs    ports.DocumentReader
	metrics *metrics.HTTPServerMetrics
}

func NewRouter(
	cfg config.Config,
	ingest ports.DocumentIngestor,
	query ports.QueryService,
	docs ports.DocumentReader,
	m *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		cfg:     cfg,
		ingest:  ingest,
		query:   query,
		docs:    docs,
		metrics: m,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/documents", rt.uploadDocument)
	mux.HandleFunc("/v1/documents/", rt.getDocumentByID)
	mux.HandleFunc("/v1/query", rt.handleQuery)
	mux.HandleFunc("/v1/query/stream", rt.handleQueryStream)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.cfg.MaxInFlight > 0 {
		handler = backpressureMiddleware(handler, rt.cfg.MaxInFlight, 50*time.Millisecond)
	}
	if rt.cfg.RateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.cfg.RateLimitRPS, rt.cfg.RateLimitBurst)
	}
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	doc, err := rt.ingest.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) getDocumentByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	doc, err := rt.docs.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

type queryRequest struct {
	SessionID string `json:"session_id"`
	Query     string `json:"query"`
}

func decodeQueryRequest(r *http.Request) (queryRequest, bool) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, false
	}
	req.SessionID = strings.TrimSpace(req.SessionID)
	req.Query = strings.TrimSpace(req.Query)
	return req, req.SessionID != "" && req.Query != ""
}

func (rt *Router) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	req, ok := decodeQueryRequest(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "session_id and query are required"})
		return
	}

	started := time.Now()
	result, err := rt.query.HandleQuery(r.Context(), req.SessionID, req.Query, nil)
	rt.recordQuery(result, err, time.Since(started))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) recordQuery(result *domain.QueryResult, err error, elapsed time.Duration) {
	if rt.metrics == nil {
		return
	}
	if err != nil {
		if domain.IsKind(err, domain.ErrSessionContention) {
			rt.metrics.RecordSessionReject(serviceName)
		}
		rt.metrics.RecordQuery(serviceName, "error", 0, elapsed, 0, nil)
		return
	}
	rt.metrics.RecordQuery(
		serviceName,
		"ok",
		time.Duration(result.TTFBMillis)*time.Millisecond,
		time.Duration(result.TotalMillis)*time.Millisecond,
		len(result.Sources),
		result.DegradedStages,
	)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	status := mapErrorToHTTPStatus(err)
	writeJSON(w, status, map[string]string{"error": clientErrorMessage(status, err)})
}
