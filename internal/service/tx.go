package service

import (
	"context"

	"github.com/cloo-solutions/propertybot/internal/domain"
)

// PropertyRepositoryInterface defines the repository interface for property persistence
type PropertyRepositoryInterface interface {
	Create(ctx context.Context, p *domain.Property) error
	GetByID(ctx context.Context, id string) (*domain.Property, error)
	GetByIDs(ctx context.Context, ids []string) ([]*domain.Property, error)
	// ExistingIDs reports which of ids are already stored.
	ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error)
}

// TxRepositories provides transaction-bound repositories.
type TxRepositories interface {
	Properties() PropertyRepositoryInterface
	Embeddings() EmbeddingIndex
}

// TxRunner executes a function within a transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(repos TxRepositories) error) error
}
