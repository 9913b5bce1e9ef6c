// Package docs is generated by swaggo/swag from the handler annotations
// (go generate ./cmd/academy). Regenerate after changing an annotation.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/healthz": {
            "get": {"tags": ["health"], "summary": "Health check", "responses": {"200": {"description": "OK"}}}
        },
        "/readyz": {
            "get": {"tags": ["health"], "summary": "Readiness check", "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}}
        },
        "/api/admin/candidates": {
            "get": {
                "tags": ["admin"],
                "summary": "List question candidates",
                "parameters": [
                    {"type": "string", "description": "YYYY-MM-DD", "name": "date", "in": "query"},
                    {"type": "string", "description": "CANDIDATE|SELECTED|DISCARDED", "name": "status", "in": "query"},
                    {"type": "string", "description": "INDEX|EARNINGS|MACRO", "name": "source_type", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.apiResponse"}}}
            }
        },
        "/api/admin/candidates/generate": {
            "post": {
                "tags": ["admin"],
                "summary": "Run the candidate batch for a date (default today, UTC)",
                "parameters": [{"description": "date", "name": "body", "in": "body", "schema": {"$ref": "#/definitions/handler.generateCandidatesRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.apiResponse"}}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.apiResponse"}}}
            }
        },
        "/api/admin/candidates/{id}/discard": {
            "post": {
                "tags": ["admin"],
                "summary": "Discard a candidate",
                "parameters": [{"type": "integer", "description": "candidate id", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.apiResponse"}}}
            }
        },
        "/api/admin/questions": {
            "get": {
                "tags": ["admin"],
                "summary": "List questions",
                "parameters": [
                    {"type": "string", "description": "comma separated statuses", "name": "status", "in": "query"},
                    {"type": "integer", "description": "season", "name": "season_id", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.apiResponse"}}}
            },
            "post": {
                "tags": ["admin"],
                "summary": "Create a DRAFT question, or promote a candidate when candidate_id is set",
                "parameters": [{"description": "question", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.createQuestionRequest"}}],
                "responses": {"200": {"description": "candidate already promoted"}, "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.apiResponse"}}}
            }
        },
        "/api/admin/questions/needing-answers": {
            "get": {"tags": ["admin"], "summary": "Questions awaiting a resolution (OPEN or CLOSED)", "responses": {"200": {"description": "OK"}}}
        },
        "/api/admin/questions/close-expired": {
            "post": {"tags": ["admin"], "summary": "Close every OPEN question past closes_at", "responses": {"200": {"description": "OK"}}}
        },
        "/api/admin/questions/{id}": {
            "get": {
                "tags": ["admin"],
                "summary": "Question detail with its resolution",
                "parameters": [{"type": "integer", "description": "question id", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            },
            "patch": {
                "tags": ["admin"],
                "summary": "Edit a DRAFT or OPEN question",
                "parameters": [
                    {"type": "integer", "description": "question id", "name": "id", "in": "path", "required": true},
                    {"description": "fields", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.updateQuestionRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}
            }
        },
        "/api/admin/questions/{id}/confirm": {
            "patch": {
                "tags": ["admin"],
                "summary": "Publish a DRAFT question (DRAFT -> OPEN)",
                "parameters": [{"type": "integer", "description": "question id", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/admin/questions/{id}/force-close": {
            "patch": {
                "tags": ["admin"],
                "summary": "Close an OPEN question now",
                "parameters": [{"type": "integer", "description": "question id", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/admin/questions/{id}/resolve": {
            "patch": {
                "tags": ["admin"],
                "summary": "Resolve a question and award points",
                "parameters": [
                    {"type": "integer", "description": "question id", "name": "id", "in": "path", "required": true},
                    {"description": "outcome O|X|VOID", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.resolveRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}
            }
        },
        "/api/admin/questions/{id}/resolution": {
            "patch": {
                "tags": ["admin"],
                "summary": "Update proof/explanation of a resolution",
                "parameters": [
                    {"type": "integer", "description": "question id", "name": "id", "in": "path", "required": true},
                    {"description": "metadata", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.resolutionMetadataRequest"}}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/admin/questions/{id}/suggest-resolution": {
            "post": {
                "tags": ["admin"],
                "summary": "Ask the text generator for a suggested outcome",
                "parameters": [{"type": "integer", "description": "question id", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "502": {"description": "Bad Gateway"}}
            }
        },
        "/api/admin/resolutions": {
            "get": {
                "tags": ["admin"],
                "summary": "List resolutions",
                "parameters": [{"type": "string", "description": "O|X|VOID", "name": "outcome", "in": "query"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/admin/seasons": {
            "post": {
                "tags": ["admin"],
                "summary": "Create a season",
                "parameters": [{"description": "season", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.createSeasonRequest"}}],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/api/admin/seasons/{id}/activate": {
            "patch": {
                "tags": ["admin"],
                "summary": "Make a season the only active one",
                "parameters": [{"type": "integer", "description": "season id", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/admin/system-settings": {
            "get": {"tags": ["admin"], "summary": "List system settings", "responses": {"200": {"description": "OK"}}}
        },
        "/api/admin/system-settings/switches": {
            "get": {"tags": ["admin"], "summary": "Effective value of every feature switch", "responses": {"200": {"description": "OK"}}}
        },
        "/api/admin/system-settings/switches/{name}": {
            "put": {
                "tags": ["admin"],
                "summary": "Toggle a feature switch",
                "parameters": [
                    {"type": "string", "description": "switch name without the feature. prefix", "name": "name", "in": "path", "required": true},
                    {"description": "enabled", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.putSwitchRequest"}}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/admin/system-settings/{key}": {
            "put": {
                "tags": ["admin"],
                "summary": "Upsert a system setting",
                "parameters": [
                    {"type": "string", "description": "setting key", "name": "key", "in": "path", "required": true},
                    {"description": "value", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.putSystemSettingRequest"}}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/questions/today": {
            "get": {"tags": ["questions"], "summary": "Questions open for predictions now", "responses": {"200": {"description": "OK"}}}
        },
        "/api/questions/{id}": {
            "get": {
                "tags": ["questions"],
                "summary": "Question detail with its resolution",
                "parameters": [{"type": "integer", "description": "question id", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/predictions": {
            "post": {
                "tags": ["predictions"],
                "summary": "Submit a prediction (once per question)",
                "parameters": [{"description": "choice O|X", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.submitPredictionRequest"}}],
                "responses": {"201": {"description": "Created"}, "409": {"description": "already submitted or question not open"}}
            }
        },
        "/api/me/predictions": {
            "get": {
                "tags": ["predictions"],
                "summary": "The caller's predictions",
                "parameters": [{"type": "integer", "description": "season", "name": "season_id", "in": "query"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/me/score": {
            "get": {
                "tags": ["leaderboard"],
                "summary": "The caller's score report",
                "parameters": [{"type": "integer", "description": "season; active season when omitted", "name": "season_id", "in": "query"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/seasons": {
            "get": {
                "tags": ["leaderboard"],
                "summary": "List seasons",
                "parameters": [{"type": "boolean", "description": "only the active season", "name": "active", "in": "query"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/seasons/{id}/leaderboard": {
            "get": {
                "tags": ["leaderboard"],
                "summary": "Season leaderboard with competition ranks",
                "parameters": [{"type": "integer", "description": "season id", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/seasons/{id}/users/{userId}/score": {
            "get": {
                "tags": ["leaderboard"],
                "summary": "A user's score in a season",
                "parameters": [
                    {"type": "integer", "description": "season id", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "user id", "name": "userId", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/ws/events": {
            "get": {"tags": ["events"], "summary": "Live question and leaderboard events (websocket)", "responses": {}}
        }
    },
    "definitions": {
        "handler.apiResponse": {
            "type": "object",
            "properties": {"code": {"type": "integer"}, "data": {}, "message": {"type": "string"}, "meta": {"type": "object", "additionalProperties": true}}
        },
        "handler.generateCandidatesRequest": {
            "type": "object",
            "properties": {"date": {"type": "string"}}
        },
        "handler.createQuestionRequest": {
            "type": "object",
            "properties": {
                "candidate_id": {"type": "integer"},
                "closes_at": {"type": "string"},
                "cons": {"type": "array", "items": {"type": "string"}},
                "impact": {"type": "string"},
                "importance": {"type": "string"},
                "prompt": {"type": "string"},
                "pros": {"type": "array", "items": {"type": "string"}},
                "season_id": {"type": "integer"},
                "ticker": {"type": "string"}
            }
        },
        "handler.updateQuestionRequest": {
            "type": "object",
            "properties": {
                "closes_at": {"type": "string"},
                "cons": {"type": "array", "items": {"type": "string"}},
                "impact": {"type": "string"},
                "importance": {"type": "string"},
                "prompt": {"type": "string"},
                "pros": {"type": "array", "items": {"type": "string"}},
                "ticker": {"type": "string"}
            }
        },
        "handler.resolveRequest": {
            "type": "object",
            "required": ["outcome"],
            "properties": {"explanation": {"type": "string"}, "outcome": {"type": "string"}, "proof_url": {"type": "string"}}
        },
        "handler.resolutionMetadataRequest": {
            "type": "object",
            "properties": {"explanation": {"type": "string"}, "proof_url": {"type": "string"}}
        },
        "handler.createSeasonRequest": {
            "type": "object",
            "required": ["end_at", "name", "start_at"],
            "properties": {"activate": {"type": "boolean"}, "end_at": {"type": "string"}, "name": {"type": "string"}, "start_at": {"type": "string"}}
        },
        "handler.putSwitchRequest": {
            "type": "object",
            "properties": {"enabled": {"type": "boolean"}}
        },
        "handler.putSystemSettingRequest": {
            "type": "object",
            "properties": {"description": {"type": "string"}, "value": {}}
        },
        "handler.submitPredictionRequest": {
            "type": "object",
            "required": ["choice", "question_id"],
            "properties": {"choice": {"type": "string"}, "question_id": {"type": "integer"}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "Academy API",
	Description:      "Daily O/X market prediction questions, scoring and season leaderboards.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
