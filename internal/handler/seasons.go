package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"academy/internal/service"
)

type SeasonHandler struct {
	Seasons     *service.SeasonService
	Leaderboard *service.LeaderboardService
}

func (h *SeasonHandler) Register(admin, user *gin.RouterGroup) {
	admin.POST("/seasons", h.create)
	admin.PATCH("/seasons/:id/activate", h.activate)

	user.GET("/seasons", h.list)
	user.GET("/seasons/:id/leaderboard", h.leaderboard)
	user.GET("/seasons/:id/users/:userId/score", h.userScore)
}

type createSeasonRequest struct {
	Name     string    `json:"name" binding:"required"`
	StartAt  time.Time `json:"start_at" binding:"required"`
	EndAt    time.Time `json:"end_at" binding:"required"`
	Activate bool      `json:"activate"`
}

// @Summary Create a season
// @Tags admin
// @Param body body createSeasonRequest true "season"
// @Success 201 {object} apiResponse
// @Router /api/admin/seasons [post]
func (h *SeasonHandler) create(c *gin.Context) {
	var req createSeasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	s, err := h.Seasons.Create(c.Request.Context(), service.CreateSeasonInput{
		Name:     req.Name,
		StartAt:  req.StartAt,
		EndAt:    req.EndAt,
		Activate: req.Activate,
	})
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, s)
}

// @Summary Make a season the only active one
// @Tags admin
// @Param id path int true "season id"
// @Success 200 {object} apiResponse
// @Router /api/admin/seasons/{id}/activate [patch]
func (h *SeasonHandler) activate(c *gin.Context) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	s, err := h.Seasons.Activate(c.Request.Context(), id)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, s, nil)
}

// @Summary List seasons
// @Tags leaderboard
// @Param active query bool false "only the active season"
// @Success 200 {object} apiResponse
// @Router /api/seasons [get]
func (h *SeasonHandler) list(c *gin.Context) {
	activeOnly, _ := strconv.ParseBool(c.Query("active"))
	items, err := h.Seasons.List(c.Request.Context(), activeOnly)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, items, nil)
}

// @Summary Season leaderboard with competition ranks
// @Tags leaderboard
// @Param id path int true "season id"
// @Success 200 {object} apiResponse
// @Failure 404 {object} apiResponse
// @Router /api/seasons/{id}/leaderboard [get]
func (h *SeasonHandler) leaderboard(c *gin.Context) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	entries, err := h.Leaderboard.Leaderboard(c.Request.Context(), id)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, entries, map[string]any{"total": len(entries)})
}

// @Summary A user's score in a season
// @Tags leaderboard
// @Param id path int true "season id"
// @Param userId path int true "user id"
// @Success 200 {object} apiResponse
// @Router /api/seasons/{id}/users/{userId}/score [get]
func (h *SeasonHandler) userScore(c *gin.Context) {
	seasonID := uint64Param(c, "id")
	userID := uint64Param(c, "userId")
	if seasonID == 0 || userID == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	rep, err := h.Leaderboard.UserScore(c.Request.Context(), userID, seasonID)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, rep, nil)
}
