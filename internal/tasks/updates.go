package tasks

import (
	"fmt"

	"github.com/desertthunder/cantus/internal/formatter"
	"github.com/dustin/go-humanize"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	LoadProgram Phase = iota
	ExportProgram
	WriteManifest
)

func (p Phase) String() string {
	switch p {
	case LoadProgram:
		return "load_program"
	case ExportProgram:
		return "export_program"
	case WriteManifest:
		return "write_manifest"
	default:
		return ""
	}
}

func loadingUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadProgram,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Loading %d program(s)...", total),
	}
}

func loadedUpdate(step, total int, p *formatter.Program) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadProgram,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Loaded: %s (%d entries)", step, total, p.Mass.Name, len(p.Entries)),
		Data:    p,
	}
}

func exportCompletedUpdate(step, total int, res MassExportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportProgram,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%s)", step, total, res.MassName, humanize.Bytes(uint64(res.Size))),
		Data:    res,
	}
}

func exportFailedUpdate(step, total int, res MassExportResult) ProgressUpdate {
	name := res.MassName
	if name == "" {
		name = res.MassID
	}
	return ProgressUpdate{
		Phase:   ExportProgram,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, res.Error),
		Data:    res,
	}
}

func manifestUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteManifest,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Manifest written to %s", path),
	}
}
