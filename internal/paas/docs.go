package paas

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func RegisterDocs(r *gin.Engine) {
	r.GET("/docs", func(c *gin.Context) {
		c.Header("Content-Type", "text/markdown; charset=utf-8")
		c.String(http.StatusOK, `# Academy Service

Daily O/X prediction questions, scoring and seasonal leaderboards.

## Access via PaaS

Base path (through gateway):
- /api/v1/services/academy/

## Auth

All /api/* routes require a Bearer JWT whose subject is the numeric user id.
Admin routes additionally require role=admin. Health endpoints are public.

## Routes

Admin:
- GET  /api/admin/candidates?date=YYYY-MM-DD
- POST /api/admin/candidates/generate
- POST /api/admin/candidates/:id/discard
- POST /api/admin/questions
- GET  /api/admin/questions
- GET  /api/admin/questions/needing-answers
- POST /api/admin/questions/close-expired
- GET  /api/admin/questions/:id
- PATCH /api/admin/questions/:id
- PATCH /api/admin/questions/:id/confirm
- PATCH /api/admin/questions/:id/force-close
- PATCH /api/admin/questions/:id/resolve
- PATCH /api/admin/questions/:id/resolution
- POST /api/admin/questions/:id/suggest-resolution
- GET  /api/admin/resolutions
- POST /api/admin/seasons
- PATCH /api/admin/seasons/:id/activate
- GET  /api/admin/system-settings
- GET  /api/admin/system-settings/:key
- PUT  /api/admin/system-settings/:key

User:
- GET  /api/questions/today
- GET  /api/questions/:id
- POST /api/predictions
- GET  /api/me/predictions
- GET  /api/me/score
- GET  /api/seasons
- GET  /api/seasons/:id/leaderboard
- GET  /api/seasons/:id/users/:userId/score
- GET  /api/ws/events (websocket)

Infra:
- GET /healthz
- GET /readyz
- GET /swagger/index.html
`)
	})
}
