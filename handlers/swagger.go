package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger serves the API description.
// - GET /swagger/index.html  -> Swagger UI loading doc.json
// - GET /swagger/doc.json    -> OpenAPI document
func RegisterSwagger(r *gin.Engine) {
	r.GET("/swagger/index.html", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(swaggerHTML))
	})

	r.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>zen8labs-auth API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "zen8labs-auth", "version": "v1.0.0" },
  "components": {
    "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer", "bearerFormat": "JWT" } },
    "schemas": {
      "Credentials": { "type": "object", "required": ["email", "password"], "properties": { "email": { "type": "string", "format": "email" }, "password": { "type": "string", "minLength": 6 } } },
      "Register": { "type": "object", "required": ["email", "password"], "properties": { "email": { "type": "string", "format": "email" }, "password": { "type": "string", "minLength": 6 }, "name": { "type": "string" } } },
      "Refresh": { "type": "object", "properties": { "refreshToken": { "type": "string" } } },
      "Tokens": { "type": "object", "properties": { "accessToken": { "type": "string" }, "refreshToken": { "type": "string" }, "csrfToken": { "type": "string" }, "expiresAt": { "type": "integer", "description": "seconds until the access token expires" }, "tokenType": { "type": "string", "example": "Bearer" } } },
      "Envelope": { "type": "object", "properties": { "status": { "type": "boolean" }, "code": { "type": "integer" }, "data": {}, "error": { "type": "object", "additionalProperties": { "type": "array", "items": { "type": "string" } }, "description": "per-field messages on 400" }, "message": { "type": "string" }, "timestamp": { "type": "string", "format": "date-time" } } }
    }
  },
  "paths": {
    "/v1/auth/login": {
      "post": {
        "summary": "Authenticate and open a session for this device",
        "requestBody": { "content": { "application/json": { "schema": { "$ref": "#/components/schemas/Credentials" } } } },
        "responses": { "200": { "description": "tokens issued, cookies set" }, "400": { "description": "validation failed" }, "401": { "description": "invalid email or password" }, "429": { "description": "rate limited" } }
      }
    },
    "/v1/auth/register": {
      "post": {
        "summary": "Create a user",
        "requestBody": { "content": { "application/json": { "schema": { "$ref": "#/components/schemas/Register" } } } },
        "responses": { "201": { "description": "user created" }, "400": { "description": "validation failed" }, "409": { "description": "email already registered" } }
      }
    },
    "/v1/auth/refresh": {
      "post": {
        "summary": "Issue a new access token from a refresh token (body or refreshToken cookie)",
        "requestBody": { "required": false, "content": { "application/json": { "schema": { "$ref": "#/components/schemas/Refresh" } } } },
        "responses": { "200": { "description": "new access token" }, "401": { "description": "session expired, please sign in again" } }
      }
    },
    "/v1/auth/logout": {
      "post": {
        "summary": "Revoke the session bound to a refresh token",
        "requestBody": { "required": false, "content": { "application/json": { "schema": { "$ref": "#/components/schemas/Refresh" } } } },
        "responses": { "200": { "description": "logged out" } }
      }
    },
    "/v1/auth/me": {
      "get": { "summary": "Current user", "security": [{ "bearer": [] }], "responses": { "200": { "description": "identity" }, "401": { "description": "missing or invalid access token" } } }
    },
    "/v1/auth/sessions": {
      "get": { "summary": "Active sessions of the current user", "security": [{ "bearer": [] }], "responses": { "200": { "description": "session list" }, "401": { "description": "missing or invalid access token" } } }
    },
    "/v1/auth/events": {
      "get": { "summary": "Recent audit events of the current user", "security": [{ "bearer": [] }], "parameters": [{ "name": "limit", "in": "query", "schema": { "type": "integer", "default": 20, "maximum": 100 } }], "responses": { "200": { "description": "event list" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "text exposition" } } } }
  }
}`
