package handler

// Error message constants to avoid duplication and improve maintainability
const (
	databaseNotAvailable = "Database not available"
	invalidRequestBody   = "Invalid request body"
	ownerRequired        = "Owner authentication required"
)
