package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/cloo-solutions/propertybot/internal/domain"
	"github.com/cloo-solutions/propertybot/internal/service"
)

// Importer defines the bulk ingestion used by scheduled imports
type Importer interface {
	ImportFile(ctx context.Context, source string, progress service.ImportProgressFunc) (*service.ImportReport, error)
}

// ImportJob re-imports a configured source on every run. Rows already stored
// are skipped, so repeated runs only add what is new.
type ImportJob struct {
	importer Importer
	source   string
}

// NewImportJob creates a new ImportJob instance
func NewImportJob(importer Importer, source string) *ImportJob {
	return &ImportJob{importer: importer, source: source}
}

// ProcessJobs implements the JobProcessor interface
func (j *ImportJob) ProcessJobs(ctx context.Context) error {
	report, err := j.importer.ImportFile(ctx, j.source, nil)
	if err != nil {
		return fmt.Errorf("import of %s failed: %w", j.source, err)
	}

	log.Printf("Scheduled import of %s: imported %d, skipped %d, failed %d",
		j.source, report.Imported, report.Skipped, report.Failed)
	return nil
}

// EntrySource lists every stored embedding.
type EntrySource interface {
	All(ctx context.Context) ([]*domain.EmbeddingEntry, error)
}

// IndexLoader replaces the contents of an in-memory index.
type IndexLoader interface {
	Load(entries []*domain.EmbeddingEntry) error
}

// IndexWarmJob copies the stored embeddings into an in-memory index.
type IndexWarmJob struct {
	source EntrySource
	target IndexLoader
}

// NewIndexWarmJob creates a new IndexWarmJob instance
func NewIndexWarmJob(source EntrySource, target IndexLoader) *IndexWarmJob {
	return &IndexWarmJob{source: source, target: target}
}

// ProcessJobs implements the JobProcessor interface
func (j *IndexWarmJob) ProcessJobs(ctx context.Context) error {
	entries, err := j.source.All(ctx)
	if err != nil {
		return fmt.Errorf("failed to list embeddings: %w", err)
	}

	if err := j.target.Load(entries); err != nil {
		return fmt.Errorf("failed to load index: %w", err)
	}

	log.Printf("In-memory index loaded with %d entries", len(entries))
	return nil
}
