package httpadapter

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// sseWriter serializes server-sent events over one response. Events carry
// a name and a JSON payload; the stream always ends with [DONE].
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming is not supported by response writer")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	return &sseWriter{w: w, flusher: flusher}, nil
}

func (s *sseWriter) Event(name string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", name, body); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

func (s *sseWriter) Done() error {
	if _, err := io.WriteString(s.w, "data: [DONE]\n\n"); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

type fillerEvent struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

type errorEvent struct {
	Error string `json:"error"`
}

// handleQueryStream runs the pipeline and streams the filler phrase the
// moment the pipeline emits it, so a voice client can start speaking
// while retrieval and generation are still running.
func (rt *Router) handleQueryStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	req, ok := decodeQueryRequest(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "session_id and query are required"})
		return
	}

	sse, err := newSSEWriter(w)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	onFiller := func(text string) {
		_ = sse.Event("filler", fillerEvent{SessionID: req.SessionID, Text: text})
	}

	started := time.Now()
	result, err := rt.query.HandleQuery(r.Context(), req.SessionID, req.Query, onFiller)
	rt.recordQuery(result, err, time.Since(started))
	if err != nil {
		// Headers already went out; the error travels as an event.
		_ = sse.Event("error", errorEvent{Error: clientErrorMessage(mapErrorToHTTPStatus(err), err)})
		_ = sse.Done()
		return
	}

	if err := sse.Event("answer", result); err != nil {
		return
	}
	if len(result.Sources) > 0 {
		if err := sse.Event("sources", result.Sources); err != nil {
			return
		}
	}
	_ = sse.Done()
}
