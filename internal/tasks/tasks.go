package tasks

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/cantus/internal/formatter"
	"github.com/desertthunder/cantus/internal/shared"
)

// ProgramLoader loads a mass with its entries. Implemented by programs.Service.
type ProgramLoader interface {
	Load(ctx context.Context, massID string) (*formatter.Program, error)
}

// ExportEngine runs bulk exports.
type ExportEngine struct {
	loader ProgramLoader
	logger *log.Logger
}

// NewExportEngine creates an engine that loads programs through loader.
//
// The logger defaults to a stderr logger.
func NewExportEngine(loader ProgramLoader, logger *log.Logger) *ExportEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &ExportEngine{loader: loader, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *ExportEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
