package service

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/cloo-solutions/propertybot/internal/domain"
	"github.com/cloo-solutions/propertybot/internal/index"
	"github.com/stretchr/testify/mock"
)

// MockEmbeddingClient mocks the provider embedding client
type MockEmbeddingClient struct {
	mock.Mock
}

func (m *MockEmbeddingClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

// MockEmbeddingIndex is a mock implementation of EmbeddingIndex
type MockEmbeddingIndex struct {
	mock.Mock
}

func (m *MockEmbeddingIndex) Index(ctx context.Context, entry *domain.EmbeddingEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockEmbeddingIndex) Search(ctx context.Context, vector []float32, minScore float64, maxResults int) ([]domain.SearchMatch, error) {
	args := m.Called(ctx, vector, minScore, maxResults)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SearchMatch), args.Error(1)
}

// MockGenerator is a mock implementation of Generator
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Complete(ctx context.Context, systemPrompt string, history []domain.ChatMessage, userMessage string) (string, error) {
	args := m.Called(ctx, systemPrompt, history, userMessage)
	return args.String(0), args.Error(1)
}

// MockCatalogClient is a mock implementation of CatalogClient
type MockCatalogClient struct {
	mock.Mock
}

func (m *MockCatalogClient) Properties(ctx context.Context, ids []string) ([]domain.ListedProperty, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ListedProperty), args.Error(1)
}

// MockPropertyRepository is a mock implementation of PropertyRepositoryInterface
type MockPropertyRepository struct {
	mock.Mock
}

func (m *MockPropertyRepository) Create(ctx context.Context, p *domain.Property) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPropertyRepository) GetByID(ctx context.Context, id string) (*domain.Property, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Property), args.Error(1)
}

func (m *MockPropertyRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Property, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Property), args.Error(1)
}

func (m *MockPropertyRepository) ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]bool), args.Error(1)
}

// MockUUIDGenerator returns the given UUIDs in order
type MockUUIDGenerator struct {
	callCount int
	uuids     []string
}

func NewMockUUIDGenerator(uuids ...string) *MockUUIDGenerator {
	return &MockUUIDGenerator{uuids: uuids}
}

func (m *MockUUIDGenerator) NewString() string {
	if m.callCount < len(m.uuids) {
		uuid := m.uuids[m.callCount]
		m.callCount++
		return uuid
	}
	return "default-uuid"
}

// fakeStore is an in-memory property store with a transaction runner that
// only applies writes when the callback succeeds.
type fakeStore struct {
	mu        sync.Mutex
	props     map[string]*domain.Property
	index     *index.Memory
	createErr error
	commits   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{props: make(map[string]*domain.Property), index: index.NewMemory()}
}

func (s *fakeStore) Create(ctx context.Context, p *domain.Property) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	if _, ok := s.props[p.ID]; ok {
		return domain.ErrPropertyAlreadyExists
	}
	s.props[p.ID] = p
	return nil
}

func (s *fakeStore) GetByID(ctx context.Context, id string) (*domain.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.props[id]
	if !ok {
		return nil, domain.ErrPropertyNotFound
	}
	return p, nil
}

func (s *fakeStore) GetByIDs(ctx context.Context, ids []string) ([]*domain.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Property, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.props[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *fakeStore) ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]bool)
	for _, id := range ids {
		if _, ok := s.props[id]; ok {
			out[id] = true
		}
	}
	return out, nil
}

func (s *fakeStore) ids() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.props))
	for id := range s.props {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *fakeStore) WithTx(ctx context.Context, fn func(repos TxRepositories) error) error {
	staged := &stagedTx{store: s}
	if err := fn(staged); err != nil {
		return err
	}
	for i, p := range staged.props {
		if err := s.Create(ctx, p); err != nil {
			return err
		}
		if err := s.index.Index(ctx, staged.entries[i]); err != nil {
			return err
		}
	}
	s.mu.Lock()
	s.commits++
	s.mu.Unlock()
	return nil
}

type stagedTx struct {
	store   *fakeStore
	props   []*domain.Property
	entries []*domain.EmbeddingEntry
}

func (t *stagedTx) Properties() PropertyRepositoryInterface { return stagedProps{t} }
func (t *stagedTx) Embeddings() EmbeddingIndex              { return stagedIndex{t} }

type stagedProps struct{ tx *stagedTx }

func (p stagedProps) Create(ctx context.Context, prop *domain.Property) error {
	if p.tx.store.createErr != nil {
		return p.tx.store.createErr
	}
	p.tx.props = append(p.tx.props, prop)
	return nil
}

func (p stagedProps) GetByID(ctx context.Context, id string) (*domain.Property, error) {
	return p.tx.store.GetByID(ctx, id)
}

func (p stagedProps) GetByIDs(ctx context.Context, ids []string) ([]*domain.Property, error) {
	return p.tx.store.GetByIDs(ctx, ids)
}

func (p stagedProps) ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	return p.tx.store.ExistingIDs(ctx, ids)
}

type stagedIndex struct{ tx *stagedTx }

func (i stagedIndex) Index(ctx context.Context, entry *domain.EmbeddingEntry) error {
	i.tx.entries = append(i.tx.entries, entry)
	return nil
}

func (i stagedIndex) Search(ctx context.Context, vector []float32, minScore float64, maxResults int) ([]domain.SearchMatch, error) {
	return i.tx.store.index.Search(ctx, vector, minScore, maxResults)
}

// staticOpener serves named in-memory sources.
type staticOpener map[string]string

func (o staticOpener) Open(ctx context.Context, source string) (io.ReadCloser, error) {
	body, ok := o[source]
	if !ok {
		return nil, domain.ErrImportSourceMissing
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

// hashEmbedder derives a deterministic 4-dimensional vector from text.
type hashEmbedder struct {
	mu    sync.Mutex
	calls int
	fail  map[string]bool
}

func (e *hashEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	for marker := range e.fail {
		if strings.Contains(text, marker) {
			return nil, io.ErrUnexpectedEOF
		}
	}
	v := make([]float32, 4)
	for i, r := range text {
		v[i%4] += float32(r%17) + 1
	}
	return v, nil
}
