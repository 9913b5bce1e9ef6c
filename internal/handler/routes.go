package handler

import (
	"github.com/gin-gonic/gin"

	"academy/internal/auth"
)

// Routes mounts every API handler under /api with the matching guard.
// Nil handlers are skipped.
type Routes struct {
	Auth           auth.Authenticator
	Health         *HealthHandler
	Candidates     *CandidateHandler
	Questions      *QuestionHandler
	Predictions    *PredictionHandler
	Seasons        *SeasonHandler
	SystemSettings *SystemSettingsHandler
	Events         *EventsHandler
}

func (rt Routes) Register(r *gin.Engine) {
	if rt.Health != nil {
		rt.Health.Register(r)
	}
	admin := r.Group("/api/admin", rt.Auth.RequireAdmin())
	user := r.Group("/api", rt.Auth.RequireUser())

	if rt.Candidates != nil {
		rt.Candidates.Register(admin)
	}
	if rt.Questions != nil {
		rt.Questions.Register(admin, user)
	}
	if rt.Predictions != nil {
		rt.Predictions.Register(user)
	}
	if rt.Seasons != nil {
		rt.Seasons.Register(admin, user)
	}
	if rt.SystemSettings != nil {
		rt.SystemSettings.Register(admin)
	}
	if rt.Events != nil {
		rt.Events.Register(user)
	}
}
