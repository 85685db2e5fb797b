// Package handlers provides HTTP handlers for the docpivot API.
package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/docpivot/docpivot/internal/job"
	"github.com/docpivot/docpivot/internal/observability"
)

// ConvertHandler handles conversion submission and job queries.
type ConvertHandler struct {
	logger *observability.Logger
	engine *job.Engine
}

// NewConvertHandler creates a new conversion handler.
func NewConvertHandler(logger *observability.Logger, engine *job.Engine) *ConvertHandler {
	return &ConvertHandler{
		logger: logger,
		engine: engine,
	}
}

// ConvertRequestDTO represents a conversion submission. Content is
// either the document text or, when encoding is "base64", the encoded
// bytes of a binary document.
type ConvertRequestDTO struct {
	SourceFormat string `json:"source_format"`
	TargetFormat string `json:"target_format"`
	Content      string `json:"content"`
	Encoding     string `json:"encoding,omitempty"`
}

// JobDTO is the wire representation of a conversion job.
type JobDTO struct {
	JobID        string      `json:"job_id"`
	Status       string      `json:"status"`
	Progress     float64     `json:"progress"`
	SourceFormat string      `json:"source_format"`
	TargetFormat string      `json:"target_format"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
	Error        *FailureDTO `json:"error,omitempty"`
}

// FailureDTO describes why a job failed.
type FailureDTO struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func toJobDTO(j job.Job) JobDTO {
	dto := JobDTO{
		JobID:        j.ID.String(),
		Status:       string(j.Status),
		Progress:     j.Progress,
		SourceFormat: string(j.Source),
		TargetFormat: string(j.Target),
		CreatedAt:    j.CreatedAt,
		UpdatedAt:    j.UpdatedAt,
	}
	if j.Failure != nil {
		dto.Error = &FailureDTO{Kind: j.Failure.Kind, Message: j.Failure.Message}
	}
	return dto
}

// Submit handles POST /convert. With ?wait=true the response is the
// terminal job; otherwise the queued job is returned immediately.
func (h *ConvertHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var reqDTO ConvertRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	payload := []byte(reqDTO.Content)
	if reqDTO.Encoding == "base64" {
		decoded, err := base64.StdEncoding.DecodeString(reqDTO.Content)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid base64 content", err.Error())
			return
		}
		payload = decoded
	} else if reqDTO.Encoding != "" {
		writeError(w, http.StatusBadRequest, "unsupported encoding", reqDTO.Encoding)
		return
	}

	j, err := h.engine.Submit(r.Context(), reqDTO.SourceFormat, reqDTO.TargetFormat, payload)
	if err != nil {
		status := http.StatusBadRequest
		switch {
		case errors.Is(err, job.ErrPayloadTooLarge):
			status = http.StatusRequestEntityTooLarge
		case errors.Is(err, job.ErrUnsupportedConversion):
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, job.RejectionReason(err), err.Error())
		return
	}

	if r.URL.Query().Get("wait") == "true" {
		final, err := h.engine.Wait(r.Context(), j.ID)
		if err != nil {
			h.logger.Warn().Err(err).Str("job_id", j.ID.String()).Msg("Wait interrupted")
			writeJSON(w, http.StatusAccepted, toJobDTO(final))
			return
		}
		writeJSON(w, http.StatusOK, toJobDTO(final))
		return
	}

	writeJSON(w, http.StatusAccepted, toJobDTO(j))
}

// Status handles GET /jobs/{jobID}.
func (h *ConvertHandler) Status(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid job id", err.Error())
		return
	}

	j, err := h.engine.Status(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "job not found", "")
		return
	}

	writeJSON(w, http.StatusOK, toJobDTO(j))
}

// Result handles GET /jobs/{jobID}/result. The converted document is
// returned raw with the target format's content type.
func (h *ConvertHandler) Result(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid job id", err.Error())
		return
	}

	j, err := h.engine.Status(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "job not found", "")
		return
	}

	switch j.Status {
	case job.StatusCompleted:
		w.Header().Set("Content-Type", j.Target.ContentType())
		w.WriteHeader(http.StatusOK)
		w.Write(j.Result)
	case job.StatusFailed:
		writeError(w, http.StatusUnprocessableEntity, j.Failure.Kind, j.Failure.Message)
	default:
		writeError(w, http.StatusConflict, "job not finished",
			"current status: "+string(j.Status))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := map[string]string{
		"error": message,
	}
	if detail != "" {
		resp["detail"] = detail
	}
	json.NewEncoder(w).Encode(resp)
}
