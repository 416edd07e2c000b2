package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cloo-solutions/propertybot/internal/domain"
	"github.com/cloo-solutions/propertybot/internal/index"
	"github.com/cloo-solutions/propertybot/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockJobProcessor is a mock implementation of JobProcessor
type MockJobProcessor struct {
	mock.Mock
}

func (m *MockJobProcessor) ProcessJobs(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockImporter is a mock implementation of Importer
type MockImporter struct {
	mock.Mock
}

func (m *MockImporter) ImportFile(ctx context.Context, source string, progress service.ImportProgressFunc) (*service.ImportReport, error) {
	args := m.Called(ctx, source, progress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ImportReport), args.Error(1)
}

// MockEntrySource is a mock implementation of EntrySource
type MockEntrySource struct {
	mock.Mock
}

func (m *MockEntrySource) All(ctx context.Context) ([]*domain.EmbeddingEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.EmbeddingEntry), args.Error(1)
}

// TestWorker_StartStop tests the worker start and stop functionality
func TestWorker_StartStop(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(nil)

	worker := NewWorker("test", mockProcessor, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	time.Sleep(250 * time.Millisecond)

	worker.Stop()
	wg.Wait()

	mockProcessor.AssertCalled(t, "ProcessJobs", mock.Anything)
}

// TestWorker_ContextCancellation tests worker stops on context cancellation
func TestWorker_ContextCancellation(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(errors.New("keeps going"))

	worker := NewWorker("test", mockProcessor, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	time.Sleep(250 * time.Millisecond)

	cancel()
	wg.Wait()

	mockProcessor.AssertCalled(t, "ProcessJobs", mock.Anything)
}

type countingProcessor struct {
	calls atomic.Int32
}

func (p *countingProcessor) ProcessJobs(ctx context.Context) error {
	p.calls.Add(1)
	return nil
}

func TestWorker_RunOnStart(t *testing.T) {
	processor := &countingProcessor{}
	worker := NewWorker("test", processor, time.Hour).RunOnStart()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Start(ctx)
	}()

	require.Eventually(t, func() bool {
		return processor.calls.Load() > 0
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
	assert.Equal(t, int32(1), processor.calls.Load())
}

func TestImportJob_ProcessJobs(t *testing.T) {
	importer := new(MockImporter)
	importer.On("ImportFile", mock.Anything, "s3://imports/properties.csv", mock.Anything).
		Return(&service.ImportReport{Imported: 2, Skipped: 10}, nil)

	err := NewImportJob(importer, "s3://imports/properties.csv").ProcessJobs(context.Background())

	assert.NoError(t, err)
	importer.AssertExpectations(t)
}

func TestImportJob_ProcessJobs_MissingSource(t *testing.T) {
	importer := new(MockImporter)
	importer.On("ImportFile", mock.Anything, "gone.csv", mock.Anything).Return(nil, domain.ErrImportSourceMissing)

	err := NewImportJob(importer, "gone.csv").ProcessJobs(context.Background())

	assert.ErrorIs(t, err, domain.ErrImportSourceMissing)
	assert.Contains(t, err.Error(), "gone.csv")
}

func TestIndexWarmJob_ProcessJobs(t *testing.T) {
	source := new(MockEntrySource)
	target := index.NewMemory()

	source.On("All", mock.Anything).Return([]*domain.EmbeddingEntry{
		{PropertyID: "a", Vector: []float32{1, 0}},
		{PropertyID: "b", Vector: []float32{0, 1}},
	}, nil)

	err := NewIndexWarmJob(source, target).ProcessJobs(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, target.Len())
}

func TestIndexWarmJob_ProcessJobs_SourceError(t *testing.T) {
	source := new(MockEntrySource)
	source.On("All", mock.Anything).Return(nil, errors.New("database error"))

	err := NewIndexWarmJob(source, index.NewMemory()).ProcessJobs(context.Background())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list embeddings")
}
