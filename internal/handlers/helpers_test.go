package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"CardKeeper/internal/config"
	"CardKeeper/internal/handlers"
	"CardKeeper/internal/middleware"
	"CardKeeper/internal/model"
	"CardKeeper/internal/repo"
	"CardKeeper/internal/service"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type mockCardRepo struct{ mock.Mock }

func (m *mockCardRepo) Upsert(ctx context.Context, c *model.Card) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockCardRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockCardRepo) GetByID(ctx context.Context, id string) (*model.Card, error) {
	args := m.Called(ctx, id)
	if c, ok := args.Get(0).(*model.Card); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

var _ repo.CardRepository = (*mockCardRepo)(nil)

const testClientSecret = "s3cret"

func newTestRouter(t *testing.T) (http.Handler, *config.Config, *mockCardRepo) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testClientSecret), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := &config.Config{AuthSecret: "test-secret", ClientID: "cardkeeper", ClientSecretHash: string(hash)}
	logger := zap.NewNop().Sugar()
	r := &mockCardRepo{}
	h := handlers.NewHandler(service.NewCardService(r, logger), logger, cfg)
	return h.Router, cfg, r
}

func addAuth(t *testing.T, req *http.Request, secret string) {
	t.Helper()
	rr := httptest.NewRecorder()
	_, err := middleware.SetLoginCookie(rr, "cardkeeper", secret)
	require.NoError(t, err)
	for _, c := range rr.Result().Cookies() {
		req.AddCookie(c)
	}
}
