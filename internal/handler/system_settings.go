package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"academy/internal/models"
	"academy/internal/repository"
	"academy/internal/service"
)

type SystemSettingsHandler struct {
	Repo     repository.Repository
	Settings *service.SystemSettingsService
}

func (h *SystemSettingsHandler) Register(admin *gin.RouterGroup) {
	g := admin.Group("/system-settings")
	g.GET("", h.list)
	g.GET("/switches", h.listSwitches)
	g.PUT("/switches/:name", h.putSwitch)
	g.GET("/:key", h.get)
	g.PUT("/:key", h.put)
}

// @Summary List system settings
// @Tags admin
// @Param prefix query string false "key prefix"
// @Success 200 {object} apiResponse
// @Router /api/admin/system-settings [get]
func (h *SystemSettingsHandler) list(c *gin.Context) {
	limit := intQuery(c, "limit", 200)
	offset := intQuery(c, "offset", 0)
	var prefix *string
	if v := strings.TrimSpace(c.Query("prefix")); v != "" {
		prefix = &v
	}
	asc := true
	params := repository.ListSystemSettingsParams{
		Limit:   limit,
		Offset:  offset,
		Prefix:  prefix,
		OrderBy: "key",
		Asc:     &asc,
	}
	items, err := h.Repo.ListSystemSettings(c.Request.Context(), params)
	if err != nil {
		ServiceError(c, err)
		return
	}
	total, err := h.Repo.CountSystemSettings(c.Request.Context(), params)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

func (h *SystemSettingsHandler) get(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))
	if key == "" {
		Error(c, http.StatusBadRequest, "invalid key", nil)
		return
	}
	item, err := h.Repo.GetSystemSettingByKey(c.Request.Context(), key)
	if err != nil {
		ServiceError(c, err)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "not found", nil)
		return
	}
	Ok(c, item, nil)
}

type putSystemSettingRequest struct {
	Value       any    `json:"value"`
	Description string `json:"description"`
}

// @Summary Upsert a system setting
// @Tags admin
// @Param key path string true "setting key"
// @Param body body putSystemSettingRequest true "value"
// @Success 200 {object} apiResponse
// @Router /api/admin/system-settings/{key} [put]
func (h *SystemSettingsHandler) put(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))
	if key == "" {
		Error(c, http.StatusBadRequest, "invalid key", nil)
		return
	}
	var req putSystemSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	if service.IsKnownSwitch(key) {
		if _, ok := req.Value.(bool); !ok {
			Error(c, http.StatusBadRequest, "feature switches take a boolean value", nil)
			return
		}
	}
	raw, err := json.Marshal(req.Value)
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid value", nil)
		return
	}
	item := &models.SystemSetting{
		Key:         key,
		Value:       datatypes.JSON(raw),
		Description: strings.TrimSpace(req.Description),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := h.Repo.UpsertSystemSetting(c.Request.Context(), item); err != nil {
		ServiceError(c, err)
		return
	}
	next, _ := h.Repo.GetSystemSettingByKey(c.Request.Context(), key)
	Ok(c, next, nil)
}

// @Summary Effective value of every feature switch
// @Tags admin
// @Success 200 {object} apiResponse
// @Router /api/admin/system-settings/switches [get]
func (h *SystemSettingsHandler) listSwitches(c *gin.Context) {
	Ok(c, h.Settings.Switches(c.Request.Context()), nil)
}

type putSwitchRequest struct {
	Enabled bool `json:"enabled"`
}

// @Summary Toggle a feature switch
// @Tags admin
// @Param name path string true "switch name without the feature. prefix"
// @Param body body putSwitchRequest true "enabled"
// @Success 200 {object} apiResponse
// @Router /api/admin/system-settings/switches/{name} [put]
func (h *SystemSettingsHandler) putSwitch(c *gin.Context) {
	key := "feature." + strings.TrimSpace(c.Param("name"))
	if !service.IsKnownSwitch(key) {
		Error(c, http.StatusNotFound, "not found", nil)
		return
	}
	var req putSwitchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	if err := h.Settings.SetEnabled(c.Request.Context(), key, req.Enabled); err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, gin.H{"key": key, "enabled": req.Enabled}, nil)
}
