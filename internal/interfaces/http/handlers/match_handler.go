package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medcodelab/substance-mapper/internal/domain/matching"
	"github.com/medcodelab/substance-mapper/pkg/errors"
)

// maxRecordsPerRequest bounds synchronous request size; larger batches go
// through the job queue.
const maxRecordsPerRequest = 10000

// MatchService is the application surface the match endpoints need.
type MatchService interface {
	MatchBatch(ctx context.Context, records []string) ([]matching.Result, error)
	SubmitJob(ctx context.Context, records []string) (string, error)
}

// MatchHandler serves synchronous matching and asynchronous job submission.
type MatchHandler struct {
	service MatchService
}

func NewMatchHandler(service MatchService) *MatchHandler {
	return &MatchHandler{service: service}
}

// MatchRequest carries the free-text records to map.
type MatchRequest struct {
	Records []string `json:"records"`
}

// MatchResponse returns one output per input record, positionally aligned,
// plus the per-fragment detail.
type MatchResponse struct {
	Outputs []string          `json:"outputs"`
	Results []matching.Result `json:"results"`
}

// Match handles POST /api/v1/match.
func (h *MatchHandler) Match(c *gin.Context) {
	var req MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Wrap(err, errors.ErrCodeValidation, "invalid request body"))
		return
	}
	if len(req.Records) == 0 {
		respondError(c, errors.New(errors.ErrCodeValidation, "records must not be empty"))
		return
	}
	if len(req.Records) > maxRecordsPerRequest {
		respondError(c, errors.Newf(errors.ErrCodeValidation,
			"at most %d records per request, submit a job for larger batches", maxRecordsPerRequest))
		return
	}

	results, err := h.service.MatchBatch(c.Request.Context(), req.Records)
	if err != nil {
		respondError(c, err)
		return
	}

	outputs := make([]string, len(results))
	for i, r := range results {
		outputs[i] = r.Output
	}
	c.JSON(http.StatusOK, MatchResponse{Outputs: outputs, Results: results})
}

// SubmitJobResponse acknowledges an accepted asynchronous job.
type SubmitJobResponse struct {
	JobID string `json:"job_id"`
}

// SubmitJob handles POST /api/v1/match/jobs.
func (h *MatchHandler) SubmitJob(c *gin.Context) {
	var req MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Wrap(err, errors.ErrCodeValidation, "invalid request body"))
		return
	}
	if len(req.Records) == 0 {
		respondError(c, errors.New(errors.ErrCodeValidation, "records must not be empty"))
		return
	}

	jobID, err := h.service.SubmitJob(c.Request.Context(), req.Records)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, SubmitJobResponse{JobID: jobID})
}
