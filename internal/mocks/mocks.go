package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"blinkchat/internal/models"
)

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) Insert(ctx context.Context, msg models.Message) (models.Message, error) {
	args := m.Called(ctx, msg)
	var stored models.Message
	if val := args.Get(0); val != nil {
		stored = val.(models.Message)
	}
	return stored, args.Error(1)
}

func (m *MessageRepositoryMock) QueryRecent(ctx context.Context, room string, since time.Time) ([]models.Message, error) {
	args := m.Called(ctx, room, since)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]models.Message, error) {
	args := m.Called(ctx, cutoff)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

type ImageStoreMock struct {
	mock.Mock
}

func (m *ImageStoreMock) Save(data []byte, format string) (string, error) {
	args := m.Called(data, format)
	return args.String(0), args.Error(1)
}

type FileStoreMock struct {
	mock.Mock
}

func (m *FileStoreMock) Delete(ref string) error {
	args := m.Called(ref)
	return args.Error(0)
}
