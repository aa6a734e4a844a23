// Package docs registra la spec OpenAPI servida en /swagger/*.
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
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/api/auth/signup": {
            "post": {
                "tags": ["auth"],
                "summary": "Registrar cuenta",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/SignupRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Profile"}},
                    "409": {"description": "Email taken", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "422": {"description": "Validation", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Login con email y password",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/LoginResponse"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "429": {"description": "Too many requests", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/auth/logout": {
            "post": {
                "tags": ["auth"],
                "summary": "Revocar el token actual",
                "security": [{"BearerAuth": []}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/api/users/me": {
            "get": {
                "tags": ["users"],
                "summary": "Perfil del usuario autenticado",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Profile"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            },
            "put": {
                "tags": ["users"],
                "summary": "Actualizar nombre y teléfono",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateProfileRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Profile"}},
                    "422": {"description": "Validation", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/users/me/password": {
            "put": {
                "tags": ["users"],
                "summary": "Cambiar password",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "204": {"description": "No Content"},
                    "403": {"description": "Current password is incorrect", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/users/assistants": {
            "get": {
                "tags": ["assistants"],
                "summary": "Asistentes del owner",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/Member"}}}}
            },
            "post": {
                "tags": ["assistants"],
                "summary": "Agregar asistente por email",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/EmailRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Member"}},
                    "404": {"description": "User not found", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "409": {"description": "Already added", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/users/assistants/{assistantUserId}": {
            "delete": {
                "tags": ["assistants"],
                "summary": "Quitar asistente y sus permisos",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "assistantUserId", "required": true, "type": "integer"}],
                "responses": {"204": {"description": "No Content"}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ErrorBody"}}}
            }
        },
        "/api/users/owners": {
            "get": {
                "tags": ["assistants"],
                "summary": "Owners para los que trabaja el usuario",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/Member"}}}}
            }
        },
        "/api/properties": {
            "get": {
                "tags": ["properties"],
                "summary": "Listar propiedades visibles",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "query", "name": "mode", "type": "string", "enum": ["owner", "assistant", "all"]},
                    {"in": "query", "name": "ownerId", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/Property"}}},
                    "400": {"description": "Bad filter", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            },
            "post": {
                "tags": ["properties"],
                "summary": "Crear propiedad",
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/Property"}}}
            }
        },
        "/api/properties/{propertyId}": {
            "get": {
                "tags": ["properties"],
                "summary": "Detalle de propiedad",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "propertyId", "required": true, "type": "integer"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Property"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/properties/{propertyId}/assistants": {
            "get": {
                "tags": ["access"],
                "summary": "Asistentes con acceso a la propiedad",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "propertyId", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/Grant"}}}}
            },
            "post": {
                "tags": ["access"],
                "summary": "Otorgar acceso a un asistente",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "propertyId", "required": true, "type": "integer"},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/GrantRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Grant"}},
                    "409": {"description": "Already granted", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "422": {"description": "Unknown permission", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/properties/{propertyId}/assistants/{userId}": {
            "put": {
                "tags": ["access"],
                "summary": "Reemplazar permisos",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "propertyId", "required": true, "type": "integer"},
                    {"in": "path", "name": "userId", "required": true, "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Grant"}}}
            },
            "delete": {
                "tags": ["access"],
                "summary": "Revocar acceso",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "propertyId", "required": true, "type": "integer"},
                    {"in": "path", "name": "userId", "required": true, "type": "integer"}
                ],
                "responses": {"204": {"description": "No Content"}}
            }
        }
    },
    "definitions": {
        "ErrorBody": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "fields": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "SignupRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "fullName": {"type": "string"},
                "phone": {"type": "string"},
                "userType": {"type": "string", "enum": ["OWNER", "ASSISTANT"]}
            }
        },
        "LoginRequest": {
            "type": "object",
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        },
        "LoginResponse": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "id": {"type": "integer"},
                "email": {"type": "string"},
                "fullName": {"type": "string"},
                "userType": {"type": "string"}
            }
        },
        "Profile": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "email": {"type": "string"},
                "fullName": {"type": "string"},
                "phone": {"type": "string"},
                "userType": {"type": "string"}
            }
        },
        "UpdateProfileRequest": {
            "type": "object",
            "properties": {"fullName": {"type": "string"}, "phone": {"type": "string"}}
        },
        "EmailRequest": {
            "type": "object",
            "properties": {"email": {"type": "string"}}
        },
        "Member": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "email": {"type": "string"},
                "fullName": {"type": "string"},
                "isActive": {"type": "boolean"},
                "since": {"type": "string", "format": "date-time"}
            }
        },
        "Property": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "ownerId": {"type": "integer"},
                "name": {"type": "string"},
                "address": {"type": "string"},
                "city": {"type": "string"},
                "totalFloors": {"type": "integer"},
                "accessRole": {"type": "string", "enum": ["OWNER", "ASSISTANT"]},
                "permissions": {"type": "array", "items": {"type": "string"}}
            }
        },
        "GrantRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "permissions": {"type": "array", "items": {"type": "string"}}
            }
        },
        "Grant": {
            "type": "object",
            "properties": {
                "userId": {"type": "integer"},
                "email": {"type": "string"},
                "fullName": {"type": "string"},
                "permissions": {"type": "array", "items": {"type": "string"}},
                "grantedAt": {"type": "string", "format": "date-time"},
                "updatedAt": {"type": "string", "format": "date-time"}
            }
        }
    }
}`

// SwaggerInfo guarda la info exportada para que la pisen los cmd.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "rent-console API",
	Description:      "Auth, asistentes, propiedades y permisos por propiedad.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
