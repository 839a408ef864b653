// Package docs - спецификация API для swagger UI (/swagger/index.html).
// Регенерация: swag init -g cmd/api/main.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/v1/health": {
            "get": {"tags": ["Health"], "summary": "Health check", "produces": ["application/json"], "responses": {"200": {"description": "OK"}, "503": {"description": "Degraded"}}}
        },
        "/api/v1/places": {
            "get": {
                "tags": ["Places"], "summary": "Одобренные места с доступностью", "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "route_id", "in": "query"},
                    {"type": "string", "name": "category", "in": "query"},
                    {"type": "string", "name": "at", "in": "query", "description": "RFC3339"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "502": {"description": "Bad Gateway"}}
            }
        },
        "/api/v1/places/{id}/availability": {
            "get": {
                "tags": ["Places"], "summary": "Доступность места", "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"type": "string", "name": "at", "in": "query", "description": "RFC3339"}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/v1/map/sessions": {
            "post": {
                "tags": ["Map"], "summary": "Создать сессию карты", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.CreateSessionRequest"}}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "502": {"description": "Bad Gateway"}}
            }
        },
        "/api/v1/map/sessions/{id}": {
            "get": {"tags": ["Map"], "summary": "Состояние сессии", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "delete": {"tags": ["Map"], "summary": "Закрыть сессию", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"204": {"description": "No Content"}, "404": {"description": "Not Found"}}}
        },
        "/api/v1/map/sessions/{id}/guest": {
            "get": {"tags": ["Map"], "summary": "HTML страница гостя", "produces": ["text/html"], "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "HTML"}}}
        },
        "/api/v1/map/sessions/{id}/messages": {
            "post": {
                "tags": ["Map"], "summary": "Сообщение гостя", "consumes": ["text/plain"],
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "name": "generation", "in": "query"},
                    {"name": "message", "in": "body", "required": true, "schema": {"type": "string"}}
                ],
                "responses": {"204": {"description": "No Content"}, "404": {"description": "Not Found"}, "410": {"description": "Stale generation"}}
            }
        },
        "/api/v1/map/sessions/{id}/commands": {
            "get": {
                "tags": ["Map"], "summary": "Команды гостю",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"type": "string", "name": "after", "in": "query", "default": "0"},
                    {"type": "integer", "name": "limit", "in": "query", "default": 100}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/map/sessions/{id}/route": {
            "post": {
                "tags": ["Map"], "summary": "Запросить маршрут", "consumes": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.RouteRequest"}}
                ],
                "responses": {"202": {"description": "Accepted"}, "409": {"description": "Location required"}, "503": {"description": "Map unavailable"}}
            },
            "delete": {"tags": ["Map"], "summary": "Убрать маршрут", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        }
    },
    "definitions": {
        "dto.LocationRequest": {
            "type": "object",
            "properties": {"lat": {"type": "number"}, "lng": {"type": "number"}}
        },
        "dto.CreateSessionRequest": {
            "type": "object",
            "properties": {
                "guest_kind": {"type": "string", "enum": ["browser", "headless"]},
                "route_id": {"type": "string"},
                "category": {"type": "string"},
                "location": {"$ref": "#/definitions/dto.LocationRequest"}
            }
        },
        "dto.RouteRequest": {
            "type": "object",
            "required": ["place_id"],
            "properties": {"place_id": {"type": "string"}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Ruta Cafe Map Service API",
	Description:      "Доступность мест маршрута кафе и сессии карты с расчётом маршрута.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
