package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg gin.IRouter) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>fitrank-api Swagger</title>
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
  "info": { "title": "fitrank-api", "version": "v1.0.0" },
  "components": {
    "securitySchemes": {
      "cookieAuth": { "type": "apiKey", "in": "cookie", "name": "access_token" },
      "bearerAuth": { "type": "http", "scheme": "bearer", "bearerFormat": "JWT" }
    }
  },
  "paths": {
    "/api/users/register": {
      "post": {
        "summary": "Register a new user",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","required":["email","password","name"],"properties":{"email":{"type":"string"},"password":{"type":"string"},"name":{"type":"string"},"birthday":{"type":"string","format":"date"},"marketing":{"type":"boolean"},"push":{"type":"boolean"},"notice":{"type":"boolean"}}}}}},
        "responses": { "201": { "description": "user created" }, "400": { "description": "invalid input" }, "409": { "description": "email already registered" } }
      }
    },
    "/api/users/login": {
      "post": {
        "summary": "Log in and receive access/refresh tokens",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"email":{"type":"string"},"password":{"type":"string"}}}}}},
        "responses": { "200": { "description": "tokens returned and set as cookies" }, "403": { "description": "incorrect password" }, "404": { "description": "user not found" } }
      }
    },
    "/api/users/refresh-token": {
      "post": { "summary": "Exchange a refresh token for a new access token", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"refreshToken":{"type":"string"}}}}}}, "responses": { "200": { "description": "new access token" }, "401": { "description": "missing refresh token" }, "403": { "description": "invalid refresh token" } } }
    },
    "/api/users/logout": {
      "post": { "summary": "Revoke the session", "security": [{"cookieAuth":[]},{"bearerAuth":[]}], "responses": { "200": { "description": "logged out" } } }
    },
    "/api/users/profile": {
      "get": { "summary": "Current user profile", "security": [{"cookieAuth":[]},{"bearerAuth":[]}], "responses": { "200": { "description": "user" }, "404": { "description": "user not found" } } },
      "put": { "summary": "Partially update the profile", "security": [{"cookieAuth":[]},{"bearerAuth":[]}], "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"email":{"type":"string"},"password":{"type":"string"},"name":{"type":"string"},"birthday":{"type":"string"},"marketing":{"type":"boolean"},"push":{"type":"boolean"},"notice":{"type":"boolean"},"token":{"type":"string"},"fcm":{"type":"string"}}}}}}, "responses": { "200": { "description": "updated user" }, "400": { "description": "invalid input" } } }
    },
    "/api/users/upload-image": {
      "post": { "summary": "Upload a profile image", "security": [{"cookieAuth":[]},{"bearerAuth":[]}], "requestBody": { "content": { "multipart/form-data": { "schema": {"type":"object","properties":{"image":{"type":"string","format":"binary"}}}}}}, "responses": { "200": { "description": "image URL" }, "400": { "description": "no file uploaded" }, "404": { "description": "user not found" } } }
    },
    "/api/users/reset-password": {
      "post": { "summary": "Mail a temporary password", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"email":{"type":"string"}}}}}}, "responses": { "200": { "description": "mail sent" }, "404": { "description": "user not found" } } }
    },
    "/rankings": {
      "post": {
        "summary": "Leaderboard for a session metric",
        "security": [{"cookieAuth":[]},{"bearerAuth":[]}],
        "parameters": [{ "in": "query", "name": "user_id", "required": true, "schema": { "type": "integer" } }],
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"type":{"type":"string","enum":["coverage","distance","sprint","speed_max","speed_avg","agility_ratio","rate"]},"start_date":{"type":"string","format":"date"},"end_date":{"type":"string","format":"date"}}}}}},
        "responses": { "200": { "description": "ranked list" }, "400": { "description": "invalid ranking type" } }
      }
    },
    "/admin/send-notification": {
      "post": { "summary": "Push a notification to users by email", "security": [{"cookieAuth":[]},{"bearerAuth":[]}], "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"emails":{"type":"array","items":{"type":"string"}},"title":{"type":"string"},"message":{"type":"string"}}}}}}, "responses": { "200": { "description": "delivery counts" }, "400": { "description": "no recipients or device tokens" }, "404": { "description": "no matching users" }, "500": { "description": "provider error" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "metrics" } } } }
  }
}`
