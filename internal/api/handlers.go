package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/scrapable/preview-service/internal/preview"
)

type previewRequest struct {
	URL string `json:"url"`
}

type previewResponse struct {
	Status   string            `json:"status"`
	Elements []preview.Element `json:"elements"`
	TierInfo *preview.TierInfo `json:"tier_info,omitempty"`
	TaskID   string            `json:"task_id,omitempty"`
	Message  string            `json:"message"`
}

// createPreview runs one preview request to a terminal outcome. The fast
// path and the async fallback are invisible to the caller; only the final
// result distinguishes them via task_id.
func (s *Server) createPreview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	runner := s.runners()
	result, err := runner.RequestPreview(r.Context(), req.URL)
	if err != nil {
		s.logger.Warn("preview request failed",
			zap.String("url", req.URL),
			zap.Error(err),
		)
		switch {
		case errors.Is(err, preview.ErrInvalidInput):
			s.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, preview.ErrUnauthenticated):
			s.writeError(w, http.StatusUnauthorized, "backend credential unavailable")
		case errors.Is(err, preview.ErrAsyncEnqueue), errors.Is(err, preview.ErrAsyncTask):
			s.writeError(w, http.StatusBadGateway, err.Error())
		case errors.Is(err, preview.ErrSuperseded):
			s.writeError(w, http.StatusConflict, "preview request superseded")
		case r.Context().Err() != nil:
			s.writeError(w, http.StatusGatewayTimeout, "preview request canceled")
		default:
			s.writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	resp := previewResponse{
		Status:   "completed",
		Elements: result.Elements,
		TierInfo: result.TierInfo,
		TaskID:   result.TaskID,
		Message:  preview.SuccessNotice(result.Elements, result.TierInfo),
	}
	s.writeJSON(w, http.StatusOK, resp)
}
