package service

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/cloo-solutions/propertybot/internal/domain"
	"github.com/cloo-solutions/propertybot/internal/telemetry"
	"golang.org/x/time/rate"
)

// DefaultImportBatchSize is the number of new rows embedded and committed together.
const DefaultImportBatchSize = 1000

// SourceOpener opens a bulk import source by name. A source that does not
// exist yields domain.ErrImportSourceMissing.
type SourceOpener interface {
	Open(ctx context.Context, source string) (io.ReadCloser, error)
}

// ImportConfig tunes bulk ingestion.
type ImportConfig struct {
	BatchSize int
	// EmbedRateLimit caps embedding calls per second; zero means unlimited.
	EmbedRateLimit float64
}

// ImportReport summarises a bulk import run.
type ImportReport struct {
	Source   string `json:"source"`
	Read     int    `json:"read"`
	Imported int    `json:"imported"`
	Skipped  int    `json:"skipped"`
	Failed   int    `json:"failed"`
}

// ImportProgressFunc is called after every flushed batch and once at the end.
type ImportProgressFunc func(report ImportReport)

// PropertyInput is a single property submitted for ingestion.
type PropertyInput struct {
	ID          string
	Title       string
	Description string
	SingleLine  string
}

// ImportService persists properties and indexes their embeddings.
type ImportService struct {
	embedder EmbeddingClient
	repo     PropertyRepositoryInterface
	txRunner TxRunner
	opener   SourceOpener
	cache    EmbeddingIndex
	limiter  *rate.Limiter
	metrics  *telemetry.Metrics
	cfg      ImportConfig
}

// NewImportService creates a new ImportService instance
func NewImportService(
	embedder EmbeddingClient,
	repo PropertyRepositoryInterface,
	txRunner TxRunner,
	opener SourceOpener,
	metrics *telemetry.Metrics,
	cfg ImportConfig,
) *ImportService {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultImportBatchSize
	}

	limit := rate.Inf
	if cfg.EmbedRateLimit > 0 {
		limit = rate.Limit(cfg.EmbedRateLimit)
	}

	return &ImportService{
		embedder: embedder,
		repo:     repo,
		txRunner: txRunner,
		opener:   opener,
		limiter:  rate.NewLimiter(limit, 1),
		metrics:  metrics,
		cfg:      cfg,
	}
}

// WithSearchCache mirrors every committed embedding into an additional index,
// typically the in-memory index serving searches.
func (s *ImportService) WithSearchCache(cache EmbeddingIndex) *ImportService {
	s.cache = cache
	return s
}

// ImportProperty ingests one property. It returns false with
// domain.ErrPropertyAlreadyExists when the ID is already stored.
func (s *ImportService) ImportProperty(ctx context.Context, input PropertyInput) (bool, error) {
	p := domain.NewProperty(input.ID, input.Title, input.Description, input.SingleLine)
	if err := domain.ValidateProperty(p); err != nil {
		return false, err
	}

	ctx, span := telemetry.StartSpan(ctx, "ImportService.ImportProperty", telemetry.SpanAttributes{
		PropertyID: p.ID,
		Operation:  "import",
	})
	defer span.End()

	existing, err := s.repo.ExistingIDs(ctx, []string{p.ID})
	if err != nil {
		return false, err
	}
	if existing[p.ID] {
		s.metrics.ImportRows(telemetry.RowSkipped, 1)
		return false, domain.ErrPropertyAlreadyExists
	}

	entry, err := s.embed(ctx, p)
	if err != nil {
		s.metrics.ImportRows(telemetry.RowFailed, 1)
		return false, domain.ErrEmbeddingFailed.Wrap(err)
	}

	if err := s.commit(ctx, []*domain.Property{p}, []*domain.EmbeddingEntry{entry}); err != nil {
		return false, err
	}

	s.metrics.ImportRows(telemetry.RowImported, 1)
	return true, nil
}

// ImportFile ingests a bulk property file. Rows whose ID is already stored,
// or repeated earlier in the file, are skipped; malformed rows are counted
// and logged. Running it twice on the same file imports nothing the second
// time.
func (s *ImportService) ImportFile(ctx context.Context, source string, progress ImportProgressFunc) (*ImportReport, error) {
	ctx, span := telemetry.StartSpan(ctx, "ImportService.ImportFile", telemetry.SpanAttributes{
		Source:    source,
		Operation: "import_file",
	})
	defer span.End()

	rc, err := s.opener.Open(ctx, source)
	if err != nil {
		telemetry.CaptureMessage(ctx, fmt.Sprintf("import source unavailable: %s", source))
		return nil, err
	}
	defer rc.Close()

	report, err := s.ImportReader(ctx, rc, progress)
	if report != nil {
		report.Source = source
	}
	if err != nil {
		span.SetError(err)
	}
	return report, err
}

// ImportReader ingests a bulk property file from r.
func (s *ImportService) ImportReader(ctx context.Context, r io.Reader, progress ImportProgressFunc) (*ImportReport, error) {
	report := &ImportReport{}
	seen := make(map[string]struct{})
	batch := make([]*domain.Property, 0, s.cfg.BatchSize)

	notify := func() {
		if progress != nil {
			progress(*report)
		}
	}

	err := readPropertyRows(r, func(row propertyRow) error {
		report.Read++

		if row.Err != nil {
			log.Printf("import: line %d: %v", row.Line, row.Err)
			report.Failed++
			s.metrics.ImportRows(telemetry.RowFailed, 1)
			return nil
		}

		if err := domain.ValidateProperty(row.Property); err != nil {
			log.Printf("import: line %d: %v", row.Line, err)
			report.Failed++
			s.metrics.ImportRows(telemetry.RowFailed, 1)
			return nil
		}

		if _, dup := seen[row.Property.ID]; dup {
			report.Skipped++
			s.metrics.ImportRows(telemetry.RowSkipped, 1)
			return nil
		}
		seen[row.Property.ID] = struct{}{}

		batch = append(batch, row.Property)
		if len(batch) < s.cfg.BatchSize {
			return nil
		}

		if err := s.flush(ctx, batch, report); err != nil {
			return err
		}
		batch = batch[:0]
		notify()
		return nil
	})
	if err != nil {
		return report, err
	}

	if len(batch) > 0 {
		if err := s.flush(ctx, batch, report); err != nil {
			return report, err
		}
	}

	log.Printf("import: read %d rows, imported %d, skipped %d, failed %d",
		report.Read, report.Imported, report.Skipped, report.Failed)
	notify()
	return report, nil
}

// flush embeds the rows of batch that are not stored yet and commits them
// in one transaction.
func (s *ImportService) flush(ctx context.Context, batch []*domain.Property, report *ImportReport) error {
	ids := make([]string, 0, len(batch))
	for _, p := range batch {
		ids = append(ids, p.ID)
	}

	existing, err := s.repo.ExistingIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to check existing properties: %w", err)
	}

	props := make([]*domain.Property, 0, len(batch))
	entries := make([]*domain.EmbeddingEntry, 0, len(batch))
	for _, p := range batch {
		if existing[p.ID] {
			report.Skipped++
			s.metrics.ImportRows(telemetry.RowSkipped, 1)
			continue
		}

		entry, err := s.embed(ctx, p)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("import: property %s: %v", p.ID, err)
			report.Failed++
			s.metrics.ImportRows(telemetry.RowFailed, 1)
			continue
		}

		props = append(props, p)
		entries = append(entries, entry)
	}

	if len(props) == 0 {
		return nil
	}

	log.Printf("import: committing batch of %d properties", len(props))
	if err := s.commit(ctx, props, entries); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}

	report.Imported += len(props)
	s.metrics.ImportRows(telemetry.RowImported, len(props))
	return nil
}

func (s *ImportService) embed(ctx context.Context, p *domain.Property) (*domain.EmbeddingEntry, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return embedProperty(ctx, s.embedder, p)
}

func (s *ImportService) commit(ctx context.Context, props []*domain.Property, entries []*domain.EmbeddingEntry) error {
	err := s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		for i, p := range props {
			if err := repos.Properties().Create(ctx, p); err != nil {
				return err
			}
			if err := repos.Embeddings().Index(ctx, entries[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.cache != nil {
		for _, entry := range entries {
			if err := s.cache.Index(ctx, entry); err != nil {
				log.Printf("import: failed to mirror %s into search cache: %v", entry.PropertyID, err)
			}
		}
	}

	return nil
}
