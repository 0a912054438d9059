package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Timetable Sync API",
        "description": "Class and personnel schedules kept in sync, with slot conflict detection",
        "version": "0.2.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Schedule Entries", "description": "Entry mutations written to both schedules"},
        {"name": "Schedules", "description": "Class and personnel schedule views"},
        {"name": "Conflicts", "description": "Doubly claimed slots in stored schedules"},
        {"name": "Personnel", "description": "Personnel directory"},
        {"name": "Level", "description": "School level vocabulary"}
    ],
    "paths": {
        "/schedule-entries": {
            "post": {
                "tags": ["Schedule Entries"],
                "summary": "Create or update a schedule entry",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpsertEntryRequest"}}
                ],
                "responses": {
                    "200": {"description": "Updated", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Slot conflict; meta.conflict holds the occupying entry", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Storage write failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule-entries/{id}": {
            "put": {
                "tags": ["Schedule Entries"],
                "summary": "Update a schedule entry",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpsertEntryRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Slot conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Schedule Entries"],
                "summary": "Delete a schedule entry from both schedules",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "grade", "in": "query", "type": "string"},
                    {"name": "classNumber", "in": "query", "type": "string"},
                    {"name": "field", "in": "query", "type": "string"},
                    {"name": "personnelCode", "in": "query", "type": "string"},
                    {"name": "day", "in": "query", "type": "string"},
                    {"name": "timeStart", "in": "query", "type": "string"},
                    {"name": "timeEnd", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules": {
            "delete": {
                "tags": ["Schedules"],
                "summary": "Remove every stored schedule",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/personnel-schedules": {
            "get": {
                "tags": ["Schedules"],
                "summary": "List personnel schedules",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/personnel-schedules/{code}": {
            "get": {
                "tags": ["Schedules"],
                "summary": "Get the schedule of one personnel",
                "parameters": [
                    {"name": "code", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/personnel-schedules/{code}/conflicts": {
            "get": {
                "tags": ["Conflicts"],
                "summary": "List doubly claimed slots of one personnel",
                "parameters": [
                    {"name": "code", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/class-schedules": {
            "get": {
                "tags": ["Schedules"],
                "summary": "List class schedules",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/class-schedules/{grade}/{classNumber}/{field}": {
            "get": {
                "tags": ["Schedules"],
                "summary": "Get the schedule of one class",
                "parameters": [
                    {"name": "grade", "in": "path", "required": true, "type": "string"},
                    {"name": "classNumber", "in": "path", "required": true, "type": "string"},
                    {"name": "field", "in": "path", "required": true, "type": "string", "description": "'-' when the level has no fields"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/conflicts": {
            "get": {
                "tags": ["Conflicts"],
                "summary": "Report doubly claimed slots across every schedule",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/personnel": {
            "get": {
                "tags": ["Personnel"],
                "summary": "Search personnel by name or code",
                "parameters": [
                    {"name": "q", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Personnel"],
                "summary": "Register or update personnel",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterPersonnelRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Code owned by another record", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/personnel/{code}": {
            "get": {
                "tags": ["Personnel"],
                "summary": "Get personnel by code",
                "parameters": [
                    {"name": "code", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/level": {
            "get": {
                "tags": ["Level"],
                "summary": "Describe the configured school level",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "ClassIdentity": {
            "type": "object",
            "properties": {
                "grade": {"type": "string"},
                "classNumber": {"type": "string"},
                "field": {"type": "string"}
            }
        },
        "UpsertEntryRequest": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "day": {"type": "string", "enum": ["Saturday", "Sunday", "Monday", "Tuesday", "Wednesday", "Thursday"]},
                "timeStart": {"type": "string", "example": "08:00"},
                "timeEnd": {"type": "string", "example": "08:45"},
                "personnelCode": {"type": "string", "example": "11112222"},
                "classIdentity": {"$ref": "#/definitions/ClassIdentity"},
                "hourType": {"type": "string", "enum": ["regular", "overtime", "substitute", "non_teaching"]},
                "teachingGroup": {"type": "string"},
                "description": {"type": "string"},
                "origin": {"type": "string", "enum": ["class", "personnel"]},
                "override": {"type": "boolean"}
            },
            "required": ["day", "timeStart", "origin"]
        },
        "RegisterPersonnelRequest": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "personnelCode": {"type": "string"},
                "fullName": {"type": "string"},
                "mainPosition": {"type": "string"},
                "employmentStatus": {"type": "string"}
            },
            "required": ["personnelCode", "fullName"]
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
