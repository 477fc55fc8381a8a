//go:build !integration

package web_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"fitness-ai-planner/internal/domain/model"
	"fitness-ai-planner/internal/usecase"
)

// MockJobUC implements usecase.JobUseCase with per-test overrides.
type MockJobUC struct {
	CreateFunc      func(ctx context.Context, userID string, kind model.JobKind, prompt string) (string, error)
	StatusFunc      func(ctx context.Context, jobID, userID string) (*usecase.StatusSnapshot, error)
	CancelFunc      func(ctx context.Context, jobID, userID string) error
	SaveResultFunc  func(ctx context.Context, jobID, userID string) (*usecase.SaveOutcome, error)
	RetryFailedFunc func(ctx context.Context, limit int) (int, error)
	CleanupOldFunc  func(ctx context.Context) (int64, error)
}

var _ usecase.JobUseCase = (*MockJobUC)(nil)

func (m *MockJobUC) Create(ctx context.Context, userID string, kind model.JobKind, prompt string) (string, error) {
	return m.CreateFunc(ctx, userID, kind, prompt)
}

func (m *MockJobUC) Status(ctx context.Context, jobID, userID string) (*usecase.StatusSnapshot, error) {
	return m.StatusFunc(ctx, jobID, userID)
}

func (m *MockJobUC) Cancel(ctx context.Context, jobID, userID string) error {
	return m.CancelFunc(ctx, jobID, userID)
}

func (m *MockJobUC) SaveResult(ctx context.Context, jobID, userID string) (*usecase.SaveOutcome, error) {
	return m.SaveResultFunc(ctx, jobID, userID)
}

func (m *MockJobUC) Await(ctx context.Context, jobID, userID string, interval, timeout time.Duration) (*usecase.StatusSnapshot, error) {
	return m.StatusFunc(ctx, jobID, userID)
}

func (m *MockJobUC) RetryFailed(ctx context.Context, limit int) (int, error) {
	return m.RetryFailedFunc(ctx, limit)
}

func (m *MockJobUC) CleanupOld(ctx context.Context) (int64, error) {
	return m.CleanupOldFunc(ctx)
}

func (m *MockJobUC) RequeueStale(ctx context.Context, limit int) (int, error) {
	return 0, nil
}

const (
	testJWTSecret = "test-secret"
	testAdminKey  = "test-admin-key"
)

// mintToken signs a session token for userID the way the auth layer
// expects it.
func mintToken(t *testing.T, userID string) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}
