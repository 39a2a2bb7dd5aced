package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"CardKeeper/internal/cli/repo"
	"CardKeeper/internal/common"

	"go.uber.org/zap"
)

// AuthCookie — имя cookie с JWT шлюза.
const AuthCookie = "auth_token"

// errUnauthorized отличает 401, после которого стоит перевыпустить токен.
var errUnauthorized = errors.New("unauthorized")

// CardClient реализует RemoteStore поверх HTTP API шлюза.
type CardClient struct {
	serverURL    string
	clientID     string
	clientSecret string
	tokens       repo.TokenStore
	http         *http.Client
	log          *zap.SugaredLogger

	authMu sync.Mutex
}

var _ RemoteStore = (*CardClient)(nil)

// NewCardClient creates a client for serverURL (scheme://host:port).
// httpClient may be nil; per-call deadlines come from ctx.
func NewCardClient(serverURL, clientID, clientSecret string, tokens repo.TokenStore, httpClient *http.Client, log *zap.SugaredLogger) *CardClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &CardClient{
		serverURL:    strings.TrimRight(serverURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		tokens:       tokens,
		http:         httpClient,
		log:          log,
	}
}

// doJSON sends a request with an optional JSON body. If token is non-empty,
// it is passed as the auth cookie.
func (c *CardClient) doJSON(ctx context.Context, method, path string, payload any, token string) (*http.Response, []byte, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.serverURL+path, body)
	if err != nil {
		return nil, nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: AuthCookie, Value: token})
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	return resp, respBody, nil
}

// Authenticate обменивает client id/secret на JWT и сохраняет его.
func (c *CardClient) Authenticate(ctx context.Context) (string, error) {
	c.authMu.Lock()
	defer c.authMu.Unlock()

	creds := map[string]string{"client_id": c.clientID, "client_secret": c.clientSecret}
	resp, body, err := c.doJSON(ctx, http.MethodPost, "/api/auth/token", creds, "")
	if err != nil {
		return "", fmt.Errorf("%w: authenticate: %v", common.ErrRemoteUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: authenticate: status %d: %s", common.ErrRemoteUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	token, err := tokenFromResponse(resp, body)
	if err != nil {
		return "", fmt.Errorf("%w: authenticate: %v", common.ErrRemoteUnavailable, err)
	}
	if c.tokens != nil {
		if err := c.tokens.Save(token); err != nil {
			c.log.Warnw("failed to persist auth token", "error", err)
		}
	}
	return token, nil
}

// tokenFromResponse берёт токен из auth cookie, иначе из JSON {"token": ...}.
func tokenFromResponse(resp *http.Response, body []byte) (string, error) {
	for _, ck := range resp.Cookies() {
		if ck.Name == AuthCookie && ck.Value != "" {
			return ck.Value, nil
		}
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &out); err == nil && out.Token != "" {
		return out.Token, nil
	}
	return "", errors.New("no auth token in response")
}

func (c *CardClient) currentToken(ctx context.Context) (string, error) {
	if c.tokens != nil {
		tok, err := c.tokens.Load()
		if err != nil {
			c.log.Warnw("failed to load auth token", "error", err)
		}
		if tok != "" {
			return tok, nil
		}
	}
	return c.Authenticate(ctx)
}

// authorized выполняет запрос с токеном; на 401 перевыпускает токен один раз.
func (c *CardClient) authorized(ctx context.Context, op, method, path string, payload any) error {
	token, err := c.currentToken(ctx)
	if err != nil {
		return err
	}
	err = c.send(ctx, op, method, path, payload, token)
	if !errors.Is(err, errUnauthorized) {
		return err
	}
	if c.tokens != nil {
		_ = c.tokens.Clear()
	}
	token, err = c.Authenticate(ctx)
	if err != nil {
		return err
	}
	return c.send(ctx, op, method, path, payload, token)
}

func (c *CardClient) send(ctx context.Context, op, method, path string, payload any, token string) error {
	resp, body, err := c.doJSON(ctx, method, path, payload, token)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", common.ErrRemoteUnavailable, op, err)
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s: %w", common.ErrRemoteUnavailable, op, errUnauthorized)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("%w: %s: status %d: %s", common.ErrRemoteUnavailable, op, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// UpsertCard отправляет строку карточки (upsert по id).
func (c *CardClient) UpsertCard(ctx context.Context, row CardRow) error {
	return c.authorized(ctx, "upsert card "+row.ID, http.MethodPost, "/api/cards", row)
}

// DeleteCard удаляет карточку на шлюзе. Отсутствующая карточка — не ошибка.
func (c *CardClient) DeleteCard(ctx context.Context, id string) error {
	return c.authorized(ctx, "delete card "+id, http.MethodDelete, "/api/cards/"+url.PathEscape(id), nil)
}

// Ping проверяет доступность шлюза без авторизации.
func (c *CardClient) Ping(ctx context.Context) error {
	return c.send(ctx, "ping", http.MethodGet, "/api/ping", nil, "")
}
