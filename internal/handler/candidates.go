package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"academy/internal/service"
)

type CandidateHandler struct {
	Service *service.CandidateService
	Batch   *service.CandidateBatchService
}

func (h *CandidateHandler) Register(admin *gin.RouterGroup) {
	g := admin.Group("/candidates")
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.POST("/generate", h.generate)
	g.POST("/:id/discard", h.discard)
}

// @Summary List question candidates
// @Tags admin
// @Param date query string false "YYYY-MM-DD"
// @Param status query string false "CANDIDATE|SELECTED|DISCARDED"
// @Param source_type query string false "INDEX|EARNINGS|MACRO"
// @Success 200 {object} apiResponse
// @Router /api/admin/candidates [get]
func (h *CandidateHandler) list(c *gin.Context) {
	date, ok := dateQuery(c, "date")
	if !ok {
		Error(c, http.StatusBadRequest, "invalid date", nil)
		return
	}
	limit := intQuery(c, "limit", 100)
	offset := intQuery(c, "offset", 0)
	items, total, err := h.Service.List(c.Request.Context(), service.ListCandidatesInput{
		Date:       date,
		Status:     strings.ToUpper(strings.TrimSpace(c.Query("status"))),
		SourceType: strings.ToUpper(strings.TrimSpace(c.Query("source_type"))),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

func (h *CandidateHandler) get(c *gin.Context) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	item, err := h.Service.Get(c.Request.Context(), id)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, item, nil)
}

type generateCandidatesRequest struct {
	Date string `json:"date"`
}

// @Summary Run the candidate batch for a date (default today, UTC)
// @Tags admin
// @Param body body generateCandidatesRequest false "date"
// @Success 200 {object} apiResponse
// @Failure 409 {object} apiResponse
// @Router /api/admin/candidates/generate [post]
func (h *CandidateHandler) generate(c *gin.Context) {
	if h.Batch == nil {
		Error(c, http.StatusInternalServerError, "batch unavailable", nil)
		return
	}
	var req generateCandidatesRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			Error(c, http.StatusBadRequest, "invalid body", nil)
			return
		}
	}
	date := time.Now().UTC()
	if v := strings.TrimSpace(req.Date); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			Error(c, http.StatusBadRequest, "invalid date", nil)
			return
		}
		date = t
	}
	res, err := h.Batch.Run(c.Request.Context(), date)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, res, nil)
}

// @Summary Discard a candidate
// @Tags admin
// @Param id path int true "candidate id"
// @Success 200 {object} apiResponse
// @Router /api/admin/candidates/{id}/discard [post]
func (h *CandidateHandler) discard(c *gin.Context) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	item, err := h.Service.Discard(c.Request.Context(), id)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, item, nil)
}
