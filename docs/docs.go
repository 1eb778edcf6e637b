// Package docs holds the Swagger description served at /docs. Keep it in sync
// with the annotations in internal/handlers.
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
        "/classify": {
            "post": {
                "description": "Sends the photo to a vision model and returns whether the snake is venomous.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["classify"],
                "summary": "Classify a snake photo",
                "parameters": [
                    {
                        "description": "Base64 encoded image",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handlers.ClassifyRequest"}
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/classification.Result"}
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {"$ref": "#/definitions/classification.Result"}
                    }
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    },
    "definitions": {
        "classification.Result": {
            "type": "object",
            "properties": {
                "description": {"type": "string"},
                "status": {
                    "type": "string",
                    "enum": ["Venomous", "Mildly Venomous", "Not Venomous", "Unknown", "Error"]
                }
            }
        },
        "handlers.ClassifyRequest": {
            "type": "object",
            "properties": {
                "image": {
                    "description": "Base64 image bytes, optionally as a data URI.",
                    "type": "string",
                    "example": "/9j/4AAQSkZJRgABAQ..."
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Snake Check API",
	Description:      "Classifies snake photos as venomous, mildly venomous or not venomous.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
