// Package docs serves the OpenAPI description of the JourneyMate API.
// Regenerate the template with `swag init` after changing handler annotations.
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
        "/tours": {
            "get": {
                "description": "Filters, sorts and pages the held catalog.",
                "produces": ["application/json"],
                "tags": ["Catalog"],
                "summary": "List tours",
                "parameters": [
                    {"type": "string", "name": "search", "in": "query"},
                    {"type": "number", "name": "minPrice", "in": "query"},
                    {"type": "number", "name": "maxPrice", "in": "query"},
                    {"type": "integer", "name": "category", "in": "query"},
                    {"type": "string", "name": "sort", "in": "query"},
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "pageSize", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/catalog.PageResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/types.Response"}}
                }
            }
        },
        "/tours/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Catalog"],
                "summary": "Tour details",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.TourView"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.Response"}}
                }
            }
        },
        "/favourites": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Favourites"],
                "summary": "List favourites",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/types.Response"}}
                }
            }
        },
        "/favourites/{tourID}/toggle": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Favourites"],
                "summary": "Toggle favourite",
                "parameters": [{"type": "integer", "name": "tourID", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/types.Response"}}
                }
            }
        },
        "/interactions": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Interactions"],
                "summary": "Record an interaction",
                "parameters": [{"name": "interaction", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.RecordInteractionRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/types.Interaction"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.Response"}}
                }
            }
        },
        "/interactions/flush": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Interactions"],
                "summary": "Flush interactions",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/payments/checkout": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Payments"],
                "summary": "Start a checkout",
                "parameters": [{"name": "checkout", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.CheckoutRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/types.CheckoutSession"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/types.Response"}}
                }
            }
        },
        "/companies/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Companies"],
                "summary": "Company profile",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.CompanyProfile"}}
                }
            }
        }
    },
    "definitions": {
        "types.Response": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean", "example": true},
                "message": {"type": "string"},
                "error": {"type": "string"}
            }
        },
        "types.TourView": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "title": {"type": "string"},
                "price": {"type": "number"},
                "rating": {"type": "number"},
                "isFavourite": {"type": "boolean"}
            }
        },
        "catalog.PageResponse": {
            "type": "object",
            "properties": {
                "tours": {"type": "array", "items": {"$ref": "#/definitions/types.TourView"}},
                "totalPages": {"type": "integer"},
                "totalItems": {"type": "integer"},
                "page": {"type": "integer"},
                "pageSize": {"type": "integer"}
            }
        },
        "types.RecordInteractionRequest": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "type": {"type": "string", "enum": ["event", "travel"]},
                "checkout": {"type": "integer"},
                "favourite": {"type": "boolean"},
                "like": {"type": "boolean"},
                "booked": {"type": "boolean"}
            }
        },
        "types.Interaction": {
            "type": "object",
            "properties": {
                "userId": {"type": "string"},
                "id": {"type": "string"},
                "type": {"type": "string"},
                "total": {"type": "number"}
            }
        },
        "types.CheckoutRequest": {
            "type": "object",
            "properties": {
                "tourId": {"type": "integer", "example": 12},
                "amount": {"type": "number", "example": 1500},
                "currency": {"type": "string", "example": "EGP"},
                "description": {"type": "string"},
                "quantity": {"type": "integer"}
            }
        },
        "types.CheckoutSession": {
            "type": "object",
            "properties": {
                "orderCode": {"type": "integer"},
                "checkoutUrl": {"type": "string"},
                "amount": {"type": "number"},
                "currency": {"type": "string"},
                "provider": {"type": "string"}
            }
        },
        "types.CompanyProfile": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "tours": {"type": "array", "items": {"$ref": "#/definitions/types.TourView"}}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "JourneyMate API",
	Description:      "Backend for the JourneyMate tourism app: tour catalog, favourites, interactions, chat and payments.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
