package handler

import "docflow/internal/workflow"

// Swagger type definitions for API documentation.

// --- Request Types ---

// EditFieldRequest represents the edit field request body.
type EditFieldRequest struct {
	Key   string      `json:"key" binding:"required" example:"invoiceNumber"`
	Value interface{} `json:"value"`
}

// --- Response Types ---

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
	Error  string `json:"error,omitempty" example:"database not reachable"`
}

// MessageResponse represents a simple message response.
type MessageResponse struct {
	Message string `json:"message" example:"signed out"`
}

// WorkflowResponse wraps a workflow view.
type WorkflowResponse struct {
	Success bool          `json:"success" example:"true"`
	Data    workflow.View `json:"data"`
}

// Response wraps a success response.
type Response struct {
	Success bool        `json:"success" example:"true"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponseBody wraps an error response.
type ErrorResponseBody struct {
	Success bool      `json:"success" example:"false"`
	Error   *APIError `json:"error"`
}
