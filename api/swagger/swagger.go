package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Studij API",
        "description": "Course catalog, study materials and deadline notifications for Discord study servers",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Dashboard operator login"},
        {"name": "Catalog", "description": "Study programs, years and semesters"},
        {"name": "Subjects", "description": "Subjects within a semester"},
        {"name": "Materials", "description": "Study material links"},
        {"name": "Deadlines", "description": "Exam and submission deadlines"},
        {"name": "Guilds", "description": "Per-guild catalog binding and notification channel"},
        {"name": "Export", "description": "Downloadable deadline schedules"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate dashboard user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/programs": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List study programs",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Catalog"],
                "summary": "Create study program",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateProgramRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Name already exists", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/programs/{id}": {
            "delete": {
                "tags": ["Catalog"],
                "summary": "Delete program including years, semesters, subjects, materials and deadlines",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/programs/{id}/years": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List years of a program",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/years": {
            "post": {
                "tags": ["Catalog"],
                "summary": "Create year under a program",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateYearRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/years/{id}/semesters": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List semesters of a year",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/semesters": {
            "post": {
                "tags": ["Catalog"],
                "summary": "Create semester under a year",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSemesterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/semesters/{id}/deadlines": {
            "get": {
                "tags": ["Deadlines"],
                "summary": "List upcoming deadlines for a semester",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/subjects": {
            "get": {
                "tags": ["Subjects"],
                "summary": "List subjects",
                "parameters": [
                    {"name": "semester_id", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Subjects"],
                "summary": "Create subject",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSubjectRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Acronym already exists in semester", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/subjects/{id}": {
            "get": {
                "tags": ["Subjects"],
                "summary": "Get subject",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Subjects"],
                "summary": "Delete subject including its materials and deadlines",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/subjects/{id}/detail": {
            "get": {
                "tags": ["Subjects"],
                "summary": "Get subject with visible materials and upcoming deadlines",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "guild_id", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/subjects/{id}/materials": {
            "get": {
                "tags": ["Materials"],
                "summary": "List materials visible to a guild",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "guild_id", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/subjects/{id}/deadlines": {
            "get": {
                "tags": ["Deadlines"],
                "summary": "List deadlines visible to a guild",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "guild_id", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/materials": {
            "post": {
                "tags": ["Materials"],
                "summary": "Create material",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateMaterialRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/materials/{id}": {
            "delete": {
                "tags": ["Materials"],
                "summary": "Delete material",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/deadlines": {
            "post": {
                "tags": ["Deadlines"],
                "summary": "Create deadline",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateDeadlineRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/deadlines/{id}": {
            "delete": {
                "tags": ["Deadlines"],
                "summary": "Delete deadline",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/guilds/{id}/config": {
            "get": {
                "tags": ["Guilds"],
                "summary": "Get guild configuration",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Guild not configured", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/guilds/{id}/setup": {
            "put": {
                "tags": ["Guilds"],
                "summary": "Bind a guild to a program, year and semester",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SetupRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/guilds/{id}/channel": {
            "put": {
                "tags": ["Guilds"],
                "summary": "Set the notification channel",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SetChannelRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/export/deadlines": {
            "get": {
                "tags": ["Export"],
                "summary": "Download upcoming deadlines as CSV or PDF",
                "parameters": [
                    {"name": "semester_id", "in": "query", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "CreateProgramRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string"}
            }
        },
        "CreateYearRequest": {
            "type": "object",
            "required": ["program_id", "number"],
            "properties": {
                "program_id": {"type": "string"},
                "number": {"type": "integer"}
            }
        },
        "CreateSemesterRequest": {
            "type": "object",
            "required": ["year_id", "number"],
            "properties": {
                "year_id": {"type": "string"},
                "number": {"type": "integer", "enum": [1, 2]}
            }
        },
        "CreateSubjectRequest": {
            "type": "object",
            "required": ["semester_id", "name", "acronym", "ects"],
            "properties": {
                "semester_id": {"type": "string"},
                "name": {"type": "string"},
                "acronym": {"type": "string"},
                "professor": {"type": "string"},
                "assistants": {"type": "string"},
                "ects": {"type": "integer"}
            }
        },
        "CreateMaterialRequest": {
            "type": "object",
            "required": ["subject_id", "url", "description"],
            "properties": {
                "subject_id": {"type": "string"},
                "guild_id": {"type": "string"},
                "url": {"type": "string"},
                "description": {"type": "string"}
            }
        },
        "CreateDeadlineRequest": {
            "type": "object",
            "required": ["subject_id", "type", "due_date"],
            "properties": {
                "subject_id": {"type": "string"},
                "guild_id": {"type": "string"},
                "type": {"type": "string", "enum": ["EXAM", "COLLOQUIUM", "LAB", "SUBMISSION"]},
                "due_date": {"type": "string", "format": "date"},
                "description": {"type": "string"}
            }
        },
        "SetupRequest": {
            "type": "object",
            "required": ["program_id", "year_id", "semester_id"],
            "properties": {
                "program_id": {"type": "string"},
                "year_id": {"type": "string"},
                "semester_id": {"type": "string"},
                "channel_id": {"type": "string"}
            }
        },
        "SetChannelRequest": {
            "type": "object",
            "required": ["channel_id"],
            "properties": {
                "channel_id": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
