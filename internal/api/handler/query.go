package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/skylens/skylens/internal/api/models"
	"github.com/skylens/skylens/internal/api/response"
	"github.com/skylens/skylens/internal/pipeline"
)

// queryProcessor runs the natural-language query pipeline.
type queryProcessor interface {
	ProcessQuery(ctx context.Context, qc pipeline.QueryContext) (*pipeline.Result, error)
}

// QueryHandler handles natural-language query endpoints.
type QueryHandler struct {
	pipeline queryProcessor
	logger   zerolog.Logger
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(p queryProcessor, logger zerolog.Logger) *QueryHandler {
	return &QueryHandler{
		pipeline: p,
		logger:   logger.With().Str("handler", "query").Logger(),
	}
}

// ProcessQuery handles POST /v1/query:process.
func (h *QueryHandler) ProcessQuery(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "Request body must be valid JSON", nil)
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		response.BadRequest(w, r, "Request validation failed", errs)
		return
	}

	qc := pipeline.QueryContext{
		Text:             req.Text,
		PriorCollections: req.PriorCollections,
	}
	for _, turn := range req.History {
		qc.History = append(qc.History, pipeline.Turn{
			Role:    turn.Role,
			Content: turn.Content,
		})
	}

	result, err := h.pipeline.ProcessQuery(r.Context(), qc)
	if err != nil {
		if errors.Is(err, pipeline.ErrEmptyQuery) {
			response.BadRequest(w, r, "Query text must not be blank", nil)
			return
		}
		h.logger.Error().Err(err).Msg("query pipeline failed")
		response.InternalError(w, r, "Query processing failed")
		return
	}

	response.JSON(w, r, http.StatusOK, result)
}
