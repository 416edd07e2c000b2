package service

import (
	"context"
	"log"

	"github.com/cloo-solutions/propertybot/internal/domain"
	"github.com/cloo-solutions/propertybot/internal/telemetry"
)

// CatalogClient looks up presentable listings by identifier in one call.
type CatalogClient interface {
	Properties(ctx context.Context, ids []string) ([]domain.ListedProperty, error)
}

// RecordResolver turns extracted identifiers into catalog records.
type RecordResolver struct {
	catalog CatalogClient
	metrics *telemetry.Metrics
}

// NewRecordResolver creates a new RecordResolver
func NewRecordResolver(catalog CatalogClient, metrics *telemetry.Metrics) *RecordResolver {
	return &RecordResolver{catalog: catalog, metrics: metrics}
}

// Resolve fetches the records for ids with a single batched lookup. An empty
// set short-circuits without calling the catalog. Identifiers the catalog
// does not know are absent from the result, and a failed lookup resolves
// nothing rather than failing the turn.
func (r *RecordResolver) Resolve(ctx context.Context, ids []string) []domain.ListedProperty {
	if len(ids) == 0 {
		return []domain.ListedProperty{}
	}

	ctx, span := telemetry.StartSpan(ctx, "RecordResolver.Resolve", telemetry.SpanAttributes{
		Operation: "resolve",
	})
	defer span.End()

	found, err := r.catalog.Properties(ctx, ids)
	if err != nil {
		log.Printf("resolver: catalog lookup for %d ids failed: %v", len(ids), err)
		telemetry.CaptureError(ctx, domain.ErrCatalogFailed.Wrap(err))
		r.metrics.CatalogFailure()
		r.metrics.ResolutionMisses(len(ids))
		return []domain.ListedProperty{}
	}

	byID := make(map[string]domain.ListedProperty, len(found))
	for _, rec := range found {
		byID[domain.CanonicalID(rec.ID)] = rec
	}

	records := make([]domain.ListedProperty, 0, len(ids))
	for _, id := range ids {
		rec, ok := byID[domain.CanonicalID(id)]
		if !ok {
			continue
		}
		records = append(records, rec)
		delete(byID, domain.CanonicalID(id))
	}

	r.metrics.ResolutionMisses(len(ids) - len(records))
	return records
}
