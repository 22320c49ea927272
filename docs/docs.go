// Package docs holds the OpenAPI description served under /swagger.
// Regenerate with: swag init -g cmd/main.go
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
        "/tournaments": {
            "get": {
                "produces": ["application/json"],
                "tags": ["tournaments"],
                "summary": "Discover tournaments",
                "parameters": [
                    {"type": "array", "items": {"type": "string"}, "collectionFormat": "multi", "name": "sportType", "in": "query"},
                    {"type": "array", "items": {"type": "string"}, "collectionFormat": "multi", "name": "skillLevel", "in": "query"},
                    {"type": "number", "name": "prizePool[min]", "in": "query"},
                    {"type": "number", "name": "prizePool[max]", "in": "query"},
                    {"type": "number", "name": "entryFee[min]", "in": "query"},
                    {"type": "number", "name": "entryFee[max]", "in": "query"},
                    {"type": "string", "name": "search", "in": "query"},
                    {"type": "string", "name": "date", "in": "query"},
                    {"type": "string", "name": "sortBy", "in": "query"},
                    {"type": "string", "name": "sortOrder", "in": "query"},
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "number", "name": "lat", "in": "query"},
                    {"type": "number", "name": "lng", "in": "query"},
                    {"type": "number", "name": "radius", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errorBody"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["tournaments"],
                "summary": "Create a tournament",
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errorBody"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/errorBody"}}
                }
            }
        },
        "/tournaments/my": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["tournaments"],
                "summary": "Tournaments the caller organizes or joined",
                "parameters": [{"type": "boolean", "name": "finished", "in": "query"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/tournaments/{id}": {
            "get": {
                "tags": ["tournaments"],
                "summary": "Tournament detail",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errorBody"}}}
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["tournaments"],
                "summary": "Update a tournament",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/errorBody"}}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["tournaments"],
                "summary": "Delete a tournament",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/tournaments/{id}/status": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "tags": ["tournaments"],
                "summary": "Activate or deactivate a tournament",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"type": "boolean", "name": "isActive", "in": "query", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/tournaments/{id}/user": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "tags": ["participants"],
                "summary": "Remove a participant (organizer only)",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"type": "string", "name": "participantId", "in": "query", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/tournaments/{id}/register": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["participants"],
                "summary": "Join a tournament",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/errorBody"}}}
            }
        },
        "/tournaments/{id}/leave": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["participants"],
                "summary": "Leave a tournament",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/location": {
            "get": {
                "tags": ["location"],
                "summary": "Caller position derived from the request IP",
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errorBody"}}}
            }
        },
        "/files": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "tags": ["files"],
                "summary": "Upload a tournament image",
                "parameters": [{"type": "file", "name": "file", "in": "formData", "required": true}],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/webhooks/users": {
            "post": {
                "tags": ["webhooks"],
                "summary": "Identity provider user events",
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errorBody"}}}
            }
        }
    },
    "definitions": {
        "errorBody": {
            "type": "object",
            "properties": {
                "statusCode": {"type": "integer"},
                "error": {"type": "string"},
                "message": {"type": "string"},
                "code": {"type": "string"},
                "fields": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Tournament Finder API",
	Description:      "Discovery and participant lifecycle of competitive event listings.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
