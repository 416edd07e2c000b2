package handlers

import (
	"context"

	"github.com/cloo-solutions/propertybot/internal/domain"
	"github.com/cloo-solutions/propertybot/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockChatAssistant struct {
	mock.Mock
}

func (m *MockChatAssistant) OpenTurn() *domain.ChatTurn {
	args := m.Called()
	return args.Get(0).(*domain.ChatTurn)
}

func (m *MockChatAssistant) Ask(ctx context.Context, question string) (*domain.ChatTurn, error) {
	args := m.Called(ctx, question)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChatTurn), args.Error(1)
}

func (m *MockChatAssistant) AskInSession(ctx context.Context, session *service.ChatSession, question string) (*domain.ChatTurn, error) {
	args := m.Called(ctx, session, question)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChatTurn), args.Error(1)
}

type MockPropertySearcher struct {
	mock.Mock
}

func (m *MockPropertySearcher) Find(ctx context.Context, query string) ([]*domain.Property, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Property), args.Error(1)
}

type MockPropertyImporter struct {
	mock.Mock
}

func (m *MockPropertyImporter) ImportProperty(ctx context.Context, input service.PropertyInput) (bool, error) {
	args := m.Called(ctx, input)
	return args.Bool(0), args.Error(1)
}

func (m *MockPropertyImporter) ImportFile(ctx context.Context, source string, progress service.ImportProgressFunc) (*service.ImportReport, error) {
	args := m.Called(ctx, source, progress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ImportReport), args.Error(1)
}

func greetingTurn(id string) *domain.ChatTurn {
	return &domain.ChatTurn{
		ID:      id,
		Answer:  domain.Greeting,
		Records: []domain.ListedProperty{},
		Stage:   domain.TurnStageDelivered,
	}
}
