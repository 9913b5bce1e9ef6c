package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"academy/internal/auth"
	"academy/internal/service"
)

type PredictionHandler struct {
	Predictions *service.PredictionService
	Leaderboard *service.LeaderboardService
}

func (h *PredictionHandler) Register(user *gin.RouterGroup) {
	user.POST("/predictions", h.submit)
	user.GET("/me/predictions", h.mine)
	user.GET("/me/score", h.myScore)
}

type submitPredictionRequest struct {
	QuestionID uint64 `json:"question_id" binding:"required"`
	Choice     string `json:"choice" binding:"required"`
}

// @Summary Submit a prediction (once per question)
// @Tags predictions
// @Param body body submitPredictionRequest true "choice O|X"
// @Success 201 {object} apiResponse
// @Failure 409 {object} apiResponse "already submitted or question not open"
// @Router /api/predictions [post]
func (h *PredictionHandler) submit(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		Error(c, http.StatusUnauthorized, "unauthenticated", nil)
		return
	}
	var req submitPredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	p, err := h.Predictions.Submit(c.Request.Context(), userID, req.QuestionID, req.Choice)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, p)
}

// @Summary The caller's predictions
// @Tags predictions
// @Param season_id query int false "season"
// @Success 200 {object} apiResponse
// @Router /api/me/predictions [get]
func (h *PredictionHandler) mine(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		Error(c, http.StatusUnauthorized, "unauthenticated", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	items, total, err := h.Predictions.ListForUser(c.Request.Context(), userID, uint64Query(c, "season_id"), limit, offset)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

// @Summary The caller's score report
// @Tags leaderboard
// @Param season_id query int false "season; active season when omitted"
// @Success 200 {object} apiResponse
// @Router /api/me/score [get]
func (h *PredictionHandler) myScore(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		Error(c, http.StatusUnauthorized, "unauthenticated", nil)
		return
	}
	rep, err := h.Leaderboard.UserScore(c.Request.Context(), userID, uint64Query(c, "season_id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, rep, nil)
}
