package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "UNEXCA Student Documents API",
        "description": "ID cards and enrollment certificates for UNEXCA students",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Authentication", "description": "Login and current profile"},
        {"name": "Constancia", "description": "Enrollment certificates"},
        {"name": "Carnet", "description": "Student ID cards"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate by cedula and password",
                "consumes": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Token issued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/profile": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current student profile",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Profile", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Student not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/constancy/generate": {
            "post": {
                "tags": ["Constancia"],
                "summary": "Generate an enrollment certificate",
                "consumes": ["application/json"],
                "produces": ["application/pdf"],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/CertificateRequest"}}
                ],
                "responses": {
                    "200": {"description": "PDF document"},
                    "400": {"description": "Missing field", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/carnet/generate": {
            "post": {
                "tags": ["Carnet"],
                "summary": "Render an ID card",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"in": "formData", "name": "cedula", "type": "string", "required": true},
                    {"in": "formData", "name": "foto", "type": "file", "required": false}
                ],
                "responses": {
                    "201": {"description": "Card issued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid input", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Student not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "413": {"description": "Photo too large", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/carnet/download/{cedula}": {
            "get": {
                "tags": ["Carnet"],
                "summary": "Download the latest card image",
                "security": [{"BearerAuth": []}],
                "produces": ["image/png"],
                "parameters": [{"in": "path", "name": "cedula", "type": "string", "required": true}],
                "responses": {"200": {"description": "PNG image"}, "404": {"description": "No card issued"}}
            }
        },
        "/carnet/list/{cedula}": {
            "get": {
                "tags": ["Carnet"],
                "summary": "Card history, newest first",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json", "text/csv"],
                "parameters": [
                    {"in": "path", "name": "cedula", "type": "string", "required": true},
                    {"in": "query", "name": "format", "type": "string", "enum": ["json", "csv"]}
                ],
                "responses": {"200": {"description": "History"}}
            }
        },
        "/carnet/validity/{cedula}": {
            "get": {
                "tags": ["Carnet"],
                "summary": "Validity of the latest card",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "cedula", "type": "string", "required": true}],
                "responses": {"200": {"description": "Validity", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/carnet/print/{cedula}": {
            "get": {
                "tags": ["Carnet"],
                "summary": "Printable Letter sheet with the latest card",
                "security": [{"BearerAuth": []}],
                "produces": ["application/pdf"],
                "parameters": [
                    {"in": "path", "name": "cedula", "type": "string", "required": true},
                    {"in": "query", "name": "mode", "type": "string", "enum": ["horizontal", "vertical"]}
                ],
                "responses": {"200": {"description": "PDF document"}}
            }
        },
        "/carnet/image/{id}": {
            "get": {
                "tags": ["Carnet"],
                "summary": "Card image by id",
                "security": [{"BearerAuth": []}],
                "produces": ["image/png"],
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {"200": {"description": "PNG image"}, "403": {"description": "Not the owner"}}
            }
        },
        "/carnet/shared/{token}": {
            "get": {
                "tags": ["Carnet"],
                "summary": "Card image through a signed link",
                "produces": ["image/png"],
                "parameters": [{"in": "path", "name": "token", "type": "string", "required": true}],
                "responses": {"200": {"description": "PNG image"}, "403": {"description": "Invalid or expired link"}}
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["cedula", "password"],
            "properties": {
                "cedula": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "CertificateRequest": {
            "type": "object",
            "required": ["nombre", "apellido", "cedula", "nucleo", "periodo", "carrera", "seccion", "turno"],
            "properties": {
                "nombre": {"type": "string"},
                "apellido": {"type": "string"},
                "cedula": {"type": "string"},
                "nucleo": {"type": "string"},
                "periodo": {"type": "string"},
                "carrera": {"type": "string"},
                "seccion": {"type": "string"},
                "turno": {"type": "string"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "field": {"type": "string"}
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
