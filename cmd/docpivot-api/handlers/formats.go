package handlers

import (
	"net/http"

	"github.com/docpivot/docpivot/internal/format"
	"github.com/docpivot/docpivot/internal/observability"
)

// FormatsHandler reports the supported formats and conversion targets.
type FormatsHandler struct {
	logger *observability.Logger
	graph  *format.Graph
}

// NewFormatsHandler creates a new formats handler.
func NewFormatsHandler(logger *observability.Logger, graph *format.Graph) *FormatsHandler {
	return &FormatsHandler{
		logger: logger,
		graph:  graph,
	}
}

// FormatDTO describes one supported format.
type FormatDTO struct {
	Name        string   `json:"name"`
	ContentType string   `json:"content_type"`
	Description string   `json:"description"`
	Targets     []string `json:"targets"`
}

// FormatsResponseDTO is the full formats listing.
type FormatsResponseDTO struct {
	Formats []FormatDTO `json:"formats"`
}

// List handles GET /formats.
func (h *FormatsHandler) List(w http.ResponseWriter, r *http.Request) {
	all := format.All()
	resp := FormatsResponseDTO{Formats: make([]FormatDTO, 0, len(all))}

	for _, f := range all {
		dto := FormatDTO{
			Name:        string(f),
			ContentType: f.ContentType(),
			Description: f.Description(),
			Targets:     make([]string, 0, len(all)-1),
		}
		for _, target := range all {
			if target == f {
				continue
			}
			if _, ok := h.graph.Path(f, target); ok {
				dto.Targets = append(dto.Targets, string(target))
			}
		}
		resp.Formats = append(resp.Formats, dto)
	}

	writeJSON(w, http.StatusOK, resp)
}
