package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"academy/internal/service"
)

// QuestionHandler serves the admin question lifecycle and the user reads.
type QuestionHandler struct {
	Questions   *service.QuestionService
	Resolutions *service.ResolutionService
}

func (h *QuestionHandler) Register(admin, user *gin.RouterGroup) {
	a := admin.Group("/questions")
	a.POST("", h.create)
	a.GET("", h.list)
	a.GET("/needing-answers", h.needingAnswers)
	a.POST("/close-expired", h.closeExpired)
	a.GET("/:id", h.get)
	a.PATCH("/:id", h.update)
	a.PATCH("/:id/confirm", h.confirm)
	a.PATCH("/:id/force-close", h.forceClose)
	a.PATCH("/:id/resolve", h.resolve)
	a.PATCH("/:id/resolution", h.updateResolution)
	a.POST("/:id/suggest-resolution", h.suggest)
	admin.GET("/resolutions", h.listResolutions)

	u := user.Group("/questions")
	u.GET("/today", h.today)
	u.GET("/:id", h.get)
}

type createQuestionRequest struct {
	SeasonID    uint64    `json:"season_id"`
	CandidateID *uint64   `json:"candidate_id"`
	Ticker      *string   `json:"ticker"`
	Prompt      string    `json:"prompt"`
	Pros        []string  `json:"pros"`
	Cons        []string  `json:"cons"`
	Importance  string    `json:"importance"`
	Impact      string    `json:"impact"`
	ClosesAt    time.Time `json:"closes_at"`
}

// @Summary Create a DRAFT question, or promote a candidate when candidate_id is set
// @Tags admin
// @Param body body createQuestionRequest true "question"
// @Success 201 {object} apiResponse
// @Success 200 {object} apiResponse "candidate already promoted"
// @Router /api/admin/questions [post]
func (h *QuestionHandler) create(c *gin.Context) {
	var req createQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	q, created, err := h.Questions.Create(c.Request.Context(), service.CreateQuestionInput{
		SeasonID:    req.SeasonID,
		CandidateID: req.CandidateID,
		Ticker:      req.Ticker,
		Prompt:      req.Prompt,
		Pros:        req.Pros,
		Cons:        req.Cons,
		Importance:  req.Importance,
		Impact:      req.Impact,
		ClosesAt:    req.ClosesAt,
	})
	if err != nil {
		ServiceError(c, err)
		return
	}
	if !created {
		Ok(c, q, map[string]any{"created": false})
		return
	}
	Created(c, q)
}

// @Summary List questions
// @Tags admin
// @Param status query string false "comma separated statuses"
// @Param season_id query int false "season"
// @Success 200 {object} apiResponse
// @Router /api/admin/questions [get]
func (h *QuestionHandler) list(c *gin.Context) {
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	items, total, err := h.Questions.List(c.Request.Context(), service.ListQuestionsInput{
		SeasonID: uint64Query(c, "season_id"),
		Statuses: csvQuery(c, "status"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

// @Summary Questions awaiting a resolution (OPEN or CLOSED)
// @Tags admin
// @Success 200 {object} apiResponse
// @Router /api/admin/questions/needing-answers [get]
func (h *QuestionHandler) needingAnswers(c *gin.Context) {
	items, err := h.Questions.NeedingAnswers(c.Request.Context())
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, items, nil)
}

// @Summary Close every OPEN question past closes_at
// @Tags admin
// @Success 200 {object} apiResponse
// @Router /api/admin/questions/close-expired [post]
func (h *QuestionHandler) closeExpired(c *gin.Context) {
	n, err := h.Questions.CloseExpired(c.Request.Context())
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, gin.H{"closed": n}, nil)
}

// @Summary Question detail with its resolution
// @Tags questions
// @Param id path int true "question id"
// @Success 200 {object} apiResponse
// @Failure 404 {object} apiResponse
// @Router /api/questions/{id} [get]
func (h *QuestionHandler) get(c *gin.Context) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	detail, err := h.Questions.Get(c.Request.Context(), id)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, detail, nil)
}

type updateQuestionRequest struct {
	Ticker     *string    `json:"ticker"`
	Prompt     *string    `json:"prompt"`
	Pros       []string   `json:"pros"`
	Cons       []string   `json:"cons"`
	Importance *string    `json:"importance"`
	Impact     *string    `json:"impact"`
	ClosesAt   *time.Time `json:"closes_at"`
}

// @Summary Edit a DRAFT or OPEN question
// @Tags admin
// @Param id path int true "question id"
// @Param body body updateQuestionRequest true "fields"
// @Success 200 {object} apiResponse
// @Failure 409 {object} apiResponse
// @Router /api/admin/questions/{id} [patch]
func (h *QuestionHandler) update(c *gin.Context) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	var req updateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	q, err := h.Questions.Update(c.Request.Context(), id, service.UpdateQuestionInput{
		Ticker:     req.Ticker,
		Prompt:     req.Prompt,
		Pros:       req.Pros,
		Cons:       req.Cons,
		Importance: req.Importance,
		Impact:     req.Impact,
		ClosesAt:   req.ClosesAt,
	})
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, q, nil)
}

// @Summary Publish a DRAFT question (DRAFT -> OPEN)
// @Tags admin
// @Param id path int true "question id"
// @Success 200 {object} apiResponse
// @Router /api/admin/questions/{id}/confirm [patch]
func (h *QuestionHandler) confirm(c *gin.Context) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	q, err := h.Questions.Confirm(c.Request.Context(), id)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, q, nil)
}

// @Summary Close an OPEN question now
// @Tags admin
// @Param id path int true "question id"
// @Success 200 {object} apiResponse
// @Router /api/admin/questions/{id}/force-close [patch]
func (h *QuestionHandler) forceClose(c *gin.Context) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	q, err := h.Questions.ForceClose(c.Request.Context(), id)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, q, nil)
}

type resolveRequest struct {
	Outcome     string  `json:"outcome" binding:"required"`
	ProofURL    *string `json:"proof_url"`
	Explanation *string `json:"explanation"`
}

// @Summary Resolve a question and award points
// @Tags admin
// @Param id path int true "question id"
// @Param body body resolveRequest true "outcome O|X|VOID"
// @Success 200 {object} apiResponse
// @Failure 409 {object} apiResponse
// @Router /api/admin/questions/{id}/resolve [patch]
func (h *QuestionHandler) resolve(c *gin.Context) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	res, err := h.Resolutions.Resolve(c.Request.Context(), id, service.ResolveInput{
		Outcome:     req.Outcome,
		ProofURL:    req.ProofURL,
		Explanation: req.Explanation,
	})
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, res, nil)
}

type resolutionMetadataRequest struct {
	ProofURL    *string `json:"proof_url"`
	Explanation *string `json:"explanation"`
}

// @Summary Update proof/explanation of a resolution
// @Tags admin
// @Param id path int true "question id"
// @Param body body resolutionMetadataRequest true "metadata"
// @Success 200 {object} apiResponse
// @Router /api/admin/questions/{id}/resolution [patch]
func (h *QuestionHandler) updateResolution(c *gin.Context) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	var req resolutionMetadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	res, err := h.Resolutions.UpdateMetadata(c.Request.Context(), id, req.ProofURL, req.Explanation)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, res, nil)
}

// @Summary Ask the text generator for a suggested outcome
// @Tags admin
// @Param id path int true "question id"
// @Success 200 {object} apiResponse
// @Failure 502 {object} apiResponse
// @Router /api/admin/questions/{id}/suggest-resolution [post]
func (h *QuestionHandler) suggest(c *gin.Context) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	ans, err := h.Resolutions.Suggest(c.Request.Context(), id)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, ans, nil)
}

// @Summary List resolutions
// @Tags admin
// @Param outcome query string false "O|X|VOID"
// @Success 200 {object} apiResponse
// @Router /api/admin/resolutions [get]
func (h *QuestionHandler) listResolutions(c *gin.Context) {
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	outcome, _ := service.NormalizeOutcome(c.Query("outcome"))
	items, total, err := h.Resolutions.List(c.Request.Context(), outcome, limit, offset)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

// @Summary Questions open for predictions now
// @Tags questions
// @Success 200 {object} apiResponse
// @Router /api/questions/today [get]
func (h *QuestionHandler) today(c *gin.Context) {
	items, err := h.Questions.Today(c.Request.Context())
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, items, nil)
}
