package mocks

import (
	"context"

	"github.com/phrazzld/todo-reminders/internal/service/auth"
	"github.com/stretchr/testify/mock"
)

// TestifyMockVerifier is a testify/mock implementation of auth.TokenVerifier.
type TestifyMockVerifier struct {
	mock.Mock
}

var _ auth.TokenVerifier = (*TestifyMockVerifier)(nil)

// Verify implements auth.TokenVerifier.
func (m *TestifyMockVerifier) Verify(ctx context.Context, token string) (*auth.Claims, error) {
	args := m.Called(ctx, token)
	claims, _ := args.Get(0).(*auth.Claims)
	return claims, args.Error(1)
}
