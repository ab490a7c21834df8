package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/medcodelab/substance-mapper/internal/domain/vocabulary"
	"github.com/medcodelab/substance-mapper/pkg/errors"
)

// VocabularyService is the application surface the vocabulary endpoints need.
type VocabularyService interface {
	Vocabulary() *vocabulary.Vocabulary
	RefreshVocabulary(ctx context.Context) error
}

// VocabularyHandler exposes the loaded reference list and its refresh.
type VocabularyHandler struct {
	service VocabularyService
}

func NewVocabularyHandler(service VocabularyService) *VocabularyHandler {
	return &VocabularyHandler{service: service}
}

// VocabularyResponse describes the active reference list.  Entries are only
// included when requested, the list can be large.
type VocabularyResponse struct {
	Version string             `json:"version"`
	Size    int                `json:"size"`
	Entries []vocabulary.Entry `json:"entries,omitempty"`
}

// Get handles GET /api/v1/vocabulary.
func (h *VocabularyHandler) Get(c *gin.Context) {
	vocab := h.service.Vocabulary()
	if vocab == nil {
		respondError(c, errors.New(errors.ErrCodeVocabularyNotLoaded, "reference vocabulary not loaded"))
		return
	}

	resp := VocabularyResponse{
		Version: vocab.Version(),
		Size:    vocab.Len(),
	}
	if include, _ := strconv.ParseBool(c.Query("include_entries")); include {
		resp.Entries = vocab.Entries()
	}
	c.JSON(http.StatusOK, resp)
}

// Refresh handles POST /api/v1/vocabulary/refresh.
func (h *VocabularyHandler) Refresh(c *gin.Context) {
	if err := h.service.RefreshVocabulary(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}

	vocab := h.service.Vocabulary()
	c.JSON(http.StatusOK, VocabularyResponse{
		Version: vocab.Version(),
		Size:    vocab.Len(),
	})
}
