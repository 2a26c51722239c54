package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "EduBright Game Sync API",
        "description": "Game session synchronization and impact engine service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Sessions", "description": "Game session lifecycle"},
        {"name": "UI Sync", "description": "Dashboard synchronization channel"},
        {"name": "Students", "description": "Student projections and exports"},
        {"name": "Admin", "description": "Operational endpoints"}
    ],
    "paths": {
        "/game-sync/sessions": {
            "get": {
                "tags": ["Sessions"],
                "summary": "List sessions",
                "parameters": [
                    {"name": "gameId", "in": "query", "type": "string"},
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "state", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Sessions"],
                "summary": "Register session",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterSessionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown student or game"}
                }
            }
        },
        "/game-sync/sessions/next": {
            "get": {
                "tags": ["Sessions"],
                "summary": "Peek oldest pending session for a game",
                "parameters": [
                    {"name": "gameId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No pending session"}
                }
            }
        },
        "/game-sync/sessions/{id}": {
            "get": {
                "tags": ["Sessions"],
                "summary": "Session status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/SessionStatusResponse"}},
                    "404": {"description": "Unknown session"}
                }
            }
        },
        "/game-sync/sessions/{id}/start": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Mark session started",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Started (idempotent)"},
                    "404": {"description": "Unknown session"},
                    "409": {"description": "Session already completed"}
                }
            }
        },
        "/game-sync/sessions/{id}/end": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Record final result and complete the session",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EndSessionRequest"}}
                ],
                "responses": {
                    "200": {"description": "Completed; repeated calls return the first recorded result"},
                    "404": {"description": "Unknown session"}
                }
            }
        },
        "/game-sync/results": {
            "get": {
                "tags": ["Sessions"],
                "summary": "Latest completed result per student",
                "parameters": [
                    {"name": "gameId", "in": "query", "required": true, "type": "string"},
                    {"name": "studentIds", "in": "query", "required": true, "type": "string", "description": "Comma separated student IDs"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/game-sync/ui-sync": {
            "post": {
                "tags": ["UI Sync"],
                "summary": "Merge dashboard sync state",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UISyncRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/UISyncState"}}
                }
            }
        },
        "/game-sync/ui-sync-status": {
            "get": {
                "tags": ["UI Sync"],
                "summary": "Current dashboard sync state",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/UISyncState"}}
                }
            }
        },
        "/students/{id}/action-plans": {
            "get": {
                "tags": ["Students"],
                "summary": "List action plans",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown student"}
                }
            }
        },
        "/students/{id}/progress-report": {
            "get": {
                "tags": ["Students"],
                "summary": "Export progress report",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"], "default": "csv"},
                    {"name": "Authorization", "in": "header", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Rendered report"},
                    "401": {"description": "Missing or invalid admin token"}
                }
            }
        },
        "/admin/sessions/cleanup": {
            "post": {
                "tags": ["Admin"],
                "summary": "Delete stale pending sessions",
                "parameters": [
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/CleanupRequest"}},
                    {"name": "Authorization", "in": "header", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Missing or invalid admin token"}
                }
            }
        }
    },
    "definitions": {
        "RegisterSessionRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "game_id": {"type": "string"},
                "operator_id": {"type": "string"}
            },
            "required": ["student_id", "game_id", "operator_id"]
        },
        "EndSessionRequest": {
            "type": "object",
            "properties": {
                "result_score": {"type": "number", "minimum": 0, "maximum": 100},
                "duration": {"type": "number"},
                "metadata": {"type": "object"}
            },
            "required": ["result_score"]
        },
        "SessionStatusResponse": {
            "type": "object",
            "properties": {
                "session_id": {"type": "string"},
                "game_id": {"type": "string"},
                "student_id": {"type": "string"},
                "state": {"type": "string", "enum": ["pending", "started", "completed"]},
                "is_started": {"type": "boolean"},
                "completed": {"type": "boolean"},
                "result_score": {"type": "number"},
                "created_at": {"type": "string"},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"}
            }
        },
        "CleanupRequest": {
            "type": "object",
            "properties": {
                "max_age": {"type": "string", "description": "Go duration, e.g. 1h30m"}
            }
        },
        "UISyncRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "session_id": {"type": "string"},
                "completed": {"type": "boolean"},
                "score": {"type": "number"}
            },
            "required": ["student_id", "session_id"]
        },
        "UISyncState": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "session_id": {"type": "string"},
                "completed": {"type": "boolean"},
                "score": {"type": "number"},
                "updated_at": {"type": "string"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
