package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/cantus/internal/formatter"
	"github.com/desertthunder/cantus/internal/models"
	"github.com/desertthunder/cantus/internal/shared"
	th "github.com/desertthunder/cantus/internal/testing"
	"go.uber.org/goleak"
)

type mockLoader struct {
	mu       sync.Mutex
	programs map[string]*formatter.Program
	calls    int
}

func (m *mockLoader) Load(ctx context.Context, massID string) (*formatter.Program, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	p, ok := m.programs[massID]
	if !ok {
		return nil, fmt.Errorf("%w: mass %s", shared.ErrNotFound, massID)
	}
	return p, nil
}

func newLoader(n int) (*mockLoader, []string) {
	l := &mockLoader{programs: map[string]*formatter.Program{}}
	ids := make([]string, n)
	for i := range n {
		id := fmt.Sprintf("mass%d", i+1)
		ids[i] = id
		mass := th.Sunday()
		mass.ID = id
		mass.Name = fmt.Sprintf("Messe %d", i+1)
		mass.Date = mass.Date.AddDate(0, 0, 7*i)
		l.programs[id] = &formatter.Program{
			Mass: mass,
			Entries: []models.MassSong{
				{ID: "e1", Position: 1, LiturgicalMoment: "Entrée", SelectedParts: []int{0, 1}, Song: th.Alleluia()},
			},
		}
	}
	return l, ids
}

func drain(ch <-chan ProgressUpdate) (*[]ProgressUpdate, chan struct{}) {
	updates := &[]ProgressUpdate{}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for u := range ch {
			*updates = append(*updates, u)
		}
	}()
	return updates, done
}

func TestBulkExport_SuccessfulExport(t *testing.T) {
	defer goleak.VerifyNone(t)

	tests := []struct {
		name   string
		format formatter.Format
		count  int
	}{
		{"single pdf", formatter.FormatPDF, 1},
		{"several docx", formatter.FormatDOCX, 3},
		{"markdown", formatter.FormatMarkdown, 2},
		{"text", formatter.FormatText, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tempDir := t.TempDir()
			loader, ids := newLoader(tt.count)
			engine := NewExportEngine(loader, shared.NewLogger(&th.FWriter{}))

			result, err := engine.BulkExport(context.Background(), nil, ids, BulkExportOpts{
				Format:     tt.format,
				OutputDir:  tempDir,
				NumWorkers: 2,
				RateLimit:  100,
			})
			if err != nil {
				t.Fatalf("BulkExport() error = %v", err)
			}

			if result.Total != tt.count || result.Succeeded != tt.count || result.Failed != 0 {
				t.Errorf("got total=%d succeeded=%d failed=%d, want %d/%d/0",
					result.Total, result.Succeeded, result.Failed, tt.count, tt.count)
			}
			for i, res := range result.Results {
				if res.MassID != ids[i] {
					t.Errorf("result %d is %s, want %s", i, res.MassID, ids[i])
				}
				th.AssertFileExists(t, res.File)
				if filepath.Ext(res.File) != "."+string(tt.format) {
					t.Errorf("unexpected extension on %s", res.File)
				}
			}
			th.AssertFileExists(t, result.ManifestPath)
		})
	}
}

func TestBulkExport_PartialFailures(t *testing.T) {
	defer goleak.VerifyNone(t)

	tempDir := t.TempDir()
	loader, _ := newLoader(2)
	engine := NewExportEngine(loader, shared.NewLogger(&th.FWriter{}))

	progressCh := make(chan ProgressUpdate, 100)
	updates, done := drain(progressCh)

	ids := []string{"mass1", "missing", "mass2"}
	result, err := engine.BulkExport(context.Background(), progressCh, ids, BulkExportOpts{
		Format:     formatter.FormatText,
		OutputDir:  tempDir,
		NumWorkers: 2,
		RateLimit:  100,
	})
	close(progressCh)
	<-done

	if err != nil {
		t.Fatalf("BulkExport() error = %v", err)
	}
	if result.Succeeded != 2 || result.Failed != 1 {
		t.Errorf("got succeeded=%d failed=%d, want 2/1", result.Succeeded, result.Failed)
	}

	failed := result.Results[1]
	if failed.MassID != "missing" || failed.Success || !errors.Is(failed.Error, shared.ErrNotFound) {
		t.Errorf("unexpected failed result: %+v", failed)
	}

	var m formatter.Manifest
	if err := json.Unmarshal([]byte(th.MustReadFile(t, result.ManifestPath)), &m); err != nil {
		t.Fatalf("invalid manifest: %v", err)
	}
	if m.Total != 3 || m.Failed != 1 || len(m.Entries) != 3 {
		t.Errorf("unexpected manifest: %+v", m)
	}
	if m.Entries[0].File != "Messe_1_2024-12-15.txt" {
		t.Errorf("expected manifest file name relative to the directory, got %q", m.Entries[0].File)
	}
	if m.Entries[1].Error == "" {
		t.Error("manifest should record the failure")
	}

	entries, _ := os.ReadDir(tempDir)
	if len(entries) != 3 {
		t.Errorf("expected two exports and a manifest, found %d files", len(entries))
	}

	phases := map[Phase]bool{}
	for _, u := range *updates {
		phases[u.Phase] = true
	}
	for _, p := range []Phase{LoadProgram, ExportProgram, WriteManifest} {
		if !phases[p] {
			t.Errorf("expected %s phase in progress updates", p)
		}
	}
}

func TestBulkExport_LoaderMissing(t *testing.T) {
	engine := NewExportEngine(nil, nil)
	_, err := engine.BulkExport(context.Background(), nil, []string{"m"}, BulkExportOpts{OutputDir: t.TempDir()})
	if !errors.Is(err, shared.ErrServiceUnavailable) {
		t.Errorf("expected ErrServiceUnavailable, got %v", err)
	}
}

func TestBulkExport_UnsupportedFormat(t *testing.T) {
	loader, ids := newLoader(1)
	engine := NewExportEngine(loader, nil)
	_, err := engine.BulkExport(context.Background(), nil, ids, BulkExportOpts{Format: "csv", OutputDir: t.TempDir()})
	if !errors.Is(err, shared.ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestBulkExport_ContextCancellation(t *testing.T) {
	defer goleak.VerifyNone(t)

	loader, ids := newLoader(3)
	engine := NewExportEngine(loader, shared.NewLogger(&th.FWriter{}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := engine.BulkExport(ctx, nil, ids, BulkExportOpts{
		OutputDir:  t.TempDir(),
		NumWorkers: 1,
		RateLimit:  100,
	})
	if err != nil {
		t.Fatalf("BulkExport() should handle cancellation gracefully, got error: %v", err)
	}
	if !result.Cancelled {
		t.Error("result should be marked cancelled")
	}
	if loader.calls != 0 {
		t.Errorf("no program should be loaded after cancellation, got %d", loader.calls)
	}
	th.AssertFileExists(t, result.ManifestPath)
}

func TestBulkExport_DefaultOptions(t *testing.T) {
	defer goleak.VerifyNone(t)

	t.Chdir(t.TempDir())
	loader, ids := newLoader(1)
	engine := NewExportEngine(loader, nil)

	result, err := engine.BulkExport(context.Background(), nil, ids, BulkExportOpts{NumWorkers: 50})
	if err != nil {
		t.Fatalf("BulkExport() error = %v", err)
	}
	th.AssertDirExists(t, result.OutputDirectory)
	if filepath.Ext(result.Results[0].File) != ".pdf" {
		t.Errorf("expected pdf by default, got %s", result.Results[0].File)
	}
}

func TestBulkExport_RateLimiting(t *testing.T) {
	loader, ids := newLoader(3)
	engine := NewExportEngine(loader, nil)

	start := time.Now()
	result, err := engine.BulkExport(context.Background(), nil, ids, BulkExportOpts{
		Format:    formatter.FormatText,
		OutputDir: t.TempDir(),
		RateLimit: 20,
	})
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("BulkExport() error = %v", err)
	}
	if result.Succeeded != 3 {
		t.Errorf("Succeeded = %d, want 3", result.Succeeded)
	}
	if elapsed < 80*time.Millisecond {
		t.Errorf("3 loads at 20/s should take at least 100ms, took %v", elapsed)
	}
}

func TestProgressUpdate_NonBlocking(t *testing.T) {
	defer goleak.VerifyNone(t)

	loader, ids := newLoader(2)
	engine := NewExportEngine(loader, nil)
	progressCh := make(chan ProgressUpdate)
	outputDir := t.TempDir()

	done := make(chan error, 1)
	go func() {
		_, err := engine.BulkExport(context.Background(), progressCh, ids, BulkExportOpts{
			Format:    formatter.FormatText,
			OutputDir: outputDir,
			RateLimit: 100,
		})
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("BulkExport() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("BulkExport() should not block on progress sends")
	}
}

func TestPhaseString(t *testing.T) {
	for p, want := range map[Phase]string{
		LoadProgram:   "load_program",
		ExportProgram: "export_program",
		WriteManifest: "write_manifest",
		Phase(99):     "",
	} {
		if got := p.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", p, got, want)
		}
	}
}
