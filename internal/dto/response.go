package dto

import (
	"github.com/anilkrishnach/DataEngineering-Spark/internal/pipeline"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// RunResponse represents a completed run
type RunResponse struct {
	Status string           `json:"status"`
	Report *pipeline.Report `json:"report"`
}

// TableResponse represents the stats of one table of the latest run
type TableResponse struct {
	RunID string              `json:"run_id"`
	Table pipeline.TableStats `json:"table"`
}
