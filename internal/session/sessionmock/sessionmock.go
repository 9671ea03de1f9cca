// Package sessionmock provides a testify-based mock of session.Store.
// It is used by handler tests to simulate store failures and to assert
// which store calls a request makes.
package sessionmock

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/patric-chuzhbe/shareride/internal/session"
)

// StoreMock is a testify mock that implements session.Store.
type StoreMock struct {
	mock.Mock
}

// Load mocks reading a session.
func (m *StoreMock) Load(ctx context.Context, id string) (session.Values, error) {
	args := m.Called(ctx, id)
	values, _ := args.Get(0).(session.Values)
	return values, args.Error(1)
}

// Save mocks persisting a session.
func (m *StoreMock) Save(ctx context.Context, id string, values session.Values, ttl time.Duration) error {
	args := m.Called(ctx, id, values, ttl)
	return args.Error(0)
}

// Delete mocks removing a session.
func (m *StoreMock) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
