// Package docs registers the OpenAPI description served at /swagger.
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
        "/workflow": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["workflow"],
                "summary": "Current workflow state",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.WorkflowResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}}
                }
            }
        },
        "/workflow/file": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/octet-stream"],
                "tags": ["workflow"],
                "summary": "Preview the selected file",
                "description": "Returns the uploaded file inline with its original content type",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "404": {"description": "No file selected", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["workflow"],
                "summary": "Select a file for processing",
                "parameters": [
                    {"type": "file", "description": "Document (PDF, JPG, PNG, TIFF, DOCX, XLSX or PPTX)", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/handler.WorkflowResponse"}},
                    "400": {"description": "Missing file or unsupported type", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}},
                    "409": {"description": "Workflow busy or not at the upload step", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}},
                    "413": {"description": "File too large", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}}
                }
            }
        },
        "/workflow/next": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["workflow"],
                "summary": "Advance one step",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.WorkflowResponse"}},
                    "409": {"description": "No document or workflow busy", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}}
                }
            }
        },
        "/workflow/back": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["workflow"],
                "summary": "Go back one step",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.WorkflowResponse"}},
                    "409": {"description": "Workflow busy", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}}
                }
            }
        },
        "/workflow/confirm": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["workflow"],
                "summary": "Confirm and save the reviewed document",
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/handler.WorkflowResponse"}},
                    "409": {"description": "Not at the confirm step or save in progress", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}}
                }
            }
        },
        "/workflow/document/fields": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["workflow"],
                "summary": "Edit an extracted value",
                "parameters": [
                    {"description": "Field key and new value", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.EditFieldRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.WorkflowResponse"}},
                    "400": {"description": "Invalid body or unknown field", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}},
                    "409": {"description": "Not at the review step", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}}
                }
            }
        },
        "/workflow/document/export": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "tags": ["workflow"],
                "summary": "Export the current document",
                "parameters": [
                    {"type": "string", "default": "csv", "description": "csv or xlsx", "name": "format", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "400": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}},
                    "409": {"description": "No document", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Sign out",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}}
                }
            }
        }
    },
    "definitions": {
        "handler.APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "handler.EditFieldRequest": {
            "type": "object",
            "required": ["key"],
            "properties": {
                "key": {"type": "string", "example": "invoiceNumber"},
                "value": {}
            }
        },
        "handler.ErrorResponseBody": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean", "example": false},
                "error": {"$ref": "#/definitions/handler.APIError"}
            }
        },
        "handler.Response": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean", "example": true},
                "data": {}
            }
        },
        "handler.WorkflowResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean", "example": true},
                "data": {"$ref": "#/definitions/workflow.View"}
            }
        },
        "workflow.View": {
            "type": "object",
            "properties": {
                "step": {"type": "integer"},
                "step_name": {"type": "string", "example": "review"},
                "processing": {"type": "boolean"},
                "is_updating": {"type": "boolean"},
                "update_success": {"type": "boolean"},
                "save_status": {"type": "string", "example": "idle"},
                "saved_id": {"type": "string"},
                "error": {"type": "string"},
                "file": {"type": "object"},
                "job": {"type": "object"},
                "document": {"type": "object"},
                "actions": {
                    "type": "object",
                    "properties": {
                        "select_file": {"type": "boolean"},
                        "next": {"type": "boolean"},
                        "back": {"type": "boolean"},
                        "edit": {"type": "boolean"},
                        "confirm": {"type": "boolean"}
                    }
                }
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
	Title:            "docflow API",
	Description:      "Upload, review and confirm documents processed by the document-processing API.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
