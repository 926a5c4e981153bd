package tasks

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/desertthunder/cantus/internal/formatter"
	"github.com/desertthunder/cantus/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultWorkers = 4
	maxWorkers     = 8
)

// BulkExportOpts contains configuration for bulk mass exports.
type BulkExportOpts struct {
	Format     formatter.Format // Export format (default: pdf)
	OutputDir  string           // Output directory (default: cantus_export_{epoch})
	NumWorkers int              // Concurrent workers (default: 4, max: 8)
	RateLimit  float64          // Program loads per second (default: 5)
}

// MassExportResult is the outcome for one mass.
type MassExportResult struct {
	Index    int
	MassID   string
	MassName string
	Date     string
	File     string
	Size     int64
	Success  bool
	Error    error
}

// BulkExportResult summarizes a bulk export. Results follow the order of the requested IDs.
type BulkExportResult struct {
	Total           int
	Succeeded       int
	Failed          int
	Cancelled       bool
	OutputDirectory string
	ManifestPath    string
	Results         []MassExportResult
}

type exportJob struct {
	index   int
	massID  string
	program *formatter.Program
}

// BulkExport exports multiple masses concurrently with rate limiting and progress tracking.
//
// Program loads are spaced by the rate limiter and rendering happens on a bounded worker pool. Failed
// masses are recorded and the others continue. A cancelled context stops scheduling new masses; the
// manifest still lists the ones that finished.
func (e *ExportEngine) BulkExport(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	ids []string,
	opts BulkExportOpts,
) (*BulkExportResult, error) {
	if e.loader == nil {
		return nil, fmt.Errorf("%w: program loader not initialized", shared.ErrServiceUnavailable)
	}

	if opts.Format == "" {
		opts.Format = formatter.FormatPDF
	}
	if _, err := formatter.ParseFormat(string(opts.Format)); err != nil {
		return nil, err
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("cantus_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = defaultWorkers
	}
	if opts.NumWorkers > maxWorkers {
		opts.NumWorkers = maxWorkers
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		Total:           len(ids),
		OutputDirectory: opts.OutputDir,
		Results:         make([]MassExportResult, 0, len(ids)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan exportJob, len(ids))
	results := make(chan MassExportResult, len(ids))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		e.sendProgress(prog, loadingUpdate(0, len(ids)))
		for i, massID := range ids {
			if ctx.Err() != nil {
				return
			}
			if err := limiter.Wait(ctx); err != nil {
				return
			}

			program, err := e.loader.Load(ctx, massID)
			if err != nil {
				results <- MassExportResult{
					Index:  i,
					MassID: massID,
					Error:  fmt.Errorf("failed to load program: %w", err),
				}
				continue
			}

			e.sendProgress(prog, loadedUpdate(i+1, len(ids), program))
			jobs <- exportJob{index: i, massID: massID, program: program}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.Succeeded++
			e.sendProgress(prog, exportCompletedUpdate(completed, len(ids), res))
		} else {
			result.Failed++
			e.logger.Warn("export failed", "mass", res.MassID, "err", res.Error)
			e.sendProgress(prog, exportFailedUpdate(completed, len(ids), res))
		}
	}

	slices.SortFunc(result.Results, func(a, b MassExportResult) int { return cmp.Compare(a.Index, b.Index) })
	result.Cancelled = ctx.Err() != nil && completed < len(ids)

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := formatter.WriteManifest(manifest(result, opts.Format), manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	e.sendProgress(prog, manifestUpdate(manifestPath))
	return result, nil
}

// exportWorker is a worker goroutine that renders programs from the jobs channel.
func (e *ExportEngine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan exportJob,
	results chan<- MassExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		results <- e.exportSingleProgram(job, opts)
	}
}

// exportSingleProgram writes one program. The file is either complete or absent.
func (e *ExportEngine) exportSingleProgram(j exportJob, opts BulkExportOpts) MassExportResult {
	res := MassExportResult{
		Index:    j.index,
		MassID:   j.massID,
		MassName: j.program.Mass.Name,
		Date:     j.program.Mass.DateString(),
	}

	written, err := formatter.WriteExport(*j.program, opts.Format, opts.OutputDir)
	if err != nil {
		res.Error = fmt.Errorf("%s export failed: %w", opts.Format, err)
		return res
	}

	res.File = written.Path
	res.Size = written.Size
	res.Success = true
	return res
}

func manifest(r *BulkExportResult, f formatter.Format) formatter.Manifest {
	m := formatter.Manifest{
		Format:          f,
		GeneratedAt:     time.Now().UTC(),
		OutputDirectory: r.OutputDirectory,
		Total:           r.Total,
		Succeeded:       r.Succeeded,
		Failed:          r.Failed,
		Entries:         make([]formatter.ManifestEntry, 0, len(r.Results)),
	}
	for _, res := range r.Results {
		entry := formatter.ManifestEntry{
			MassID:   res.MassID,
			MassName: res.MassName,
			Date:     res.Date,
			Size:     res.Size,
		}
		if res.File != "" {
			entry.File = filepath.Base(res.File)
		}
		if res.Error != nil {
			entry.Error = res.Error.Error()
		}
		m.Entries = append(m.Entries, entry)
	}
	return m
}
