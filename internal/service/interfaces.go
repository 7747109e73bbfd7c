package service

import (
	"opportunity-engine/pkg/logger"
	"opportunity-engine/pkg/pipeline"
)

// RunService prepares the settings and collaborators of a run.
type RunService interface {
	// Settings fills unset operator inputs from configuration.
	Settings(s pipeline.Settings) pipeline.Settings
	// NewRunner wires the extraction and trend clients for one run.
	NewRunner(s pipeline.Settings, sink logger.Sink, progress logger.ProgressFunc) *pipeline.Runner
}
