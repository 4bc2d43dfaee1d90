package ui

import (
	"go.uber.org/zap"
)

// PipelineProgressLogger forwards transformation pipeline progress messages
// to a zap logger. It satisfies the pipeline's progress reporting contract.
type PipelineProgressLogger struct {
	logger *zap.Logger
}

// NewPipelineProgressLogger constructs a progress logger backed by the provided zap logger.
func NewPipelineProgressLogger(logger *zap.Logger) *PipelineProgressLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PipelineProgressLogger{logger: logger}
}

// Progress logs one pipeline progress message at info level.
func (progressLogger *PipelineProgressLogger) Progress(message string) {
	if progressLogger == nil {
		return
	}
	progressLogger.logger.Info(message)
}
