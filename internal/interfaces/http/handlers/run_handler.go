package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/turtacn/aopwiki-graph/internal/domain/run"
	"github.com/turtacn/aopwiki-graph/pkg/errors"
)

const maxListLimit = 100

// RunHandler exposes the conversion run ledger read-only.
type RunHandler struct {
	repo run.Repository
}

func NewRunHandler(repo run.Repository) *RunHandler {
	return &RunHandler{repo: repo}
}

// List handles GET /runs?limit=N, newest first.
func (h *RunHandler) List(c *gin.Context) {
	limit := 20
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(c, errors.New(errors.ErrCodeValidation, "limit must be a positive integer"))
			return
		}
		limit = min(n, maxListLimit)
	}
	runs, err := h.repo.ListRecent(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	if runs == nil {
		runs = []*run.Run{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// Get handles GET /runs/:id.
func (h *RunHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, errors.New(errors.ErrCodeValidation, "invalid run id"))
		return
	}
	rn, err := h.repo.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rn)
}
