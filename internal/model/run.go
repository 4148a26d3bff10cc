package model

import (
	"encoding/json"
	"time"
)

// RunStatus tracks the lifecycle of a pipeline run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// RunParams records the knobs a run was started with, for reproducibility.
type RunParams struct {
	TargetCategory string `json:"target_category"`
	RadiusM        int    `json:"radius_m"`
	Limit          int    `json:"limit"`
	DatasetURL     string `json:"dataset_url,omitempty"`
}

// Run is one recorded execution of the pipeline.
type Run struct {
	ID        string          `json:"id"`
	Status    RunStatus       `json:"status"`
	Params    RunParams       `json:"params"`
	Report    json.RawMessage `json:"report,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
