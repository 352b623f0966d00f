package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/dmitrijs2005/focuskeeper/internal/auth"
	"github.com/dmitrijs2005/focuskeeper/internal/common"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
)

const (
	foldersPath      = "/api/v1/folders"
	sessionsPath     = "/api/v1/sessions"
	topicConfigsPath = "/api/v1/topic_configs"
)

// RESTClient implements Client over the row store's HTTP API.
type RESTClient struct {
	base     string
	provider auth.Provider
	hc       *http.Client

	mu    sync.RWMutex
	token string
}

// NewRESTClient returns a client for the row store at base
// (e.g. "https://sync.example.com").
func NewRESTClient(base string, provider auth.Provider, timeout time.Duration) *RESTClient {
	return &RESTClient{
		base:     base,
		provider: provider,
		hc:       &http.Client{Timeout: timeout},
	}
}

// Authorize fetches a bearer token through the auth provider and caches it
// for subsequent requests.
func (c *RESTClient) Authorize(ctx context.Context) error {
	token, err := c.provider.Token(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	return nil
}

func (c *RESTClient) Close() error {
	c.hc.CloseIdleConnections()
	return nil
}

func (c *RESTClient) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// statusErr maps a non-2xx response to the common error taxonomy.
func statusErr(code int) error {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("remote returned %d: %w", code, common.ErrUnauthorized)
	case http.StatusNotFound:
		return fmt.Errorf("remote returned %d: %w", code, common.ErrNotFound)
	case http.StatusConflict:
		return fmt.Errorf("remote returned %d: %w", code, common.ErrRemoteConflict)
	default:
		return fmt.Errorf("remote returned %d: %w", code, common.ErrRemoteUnavailable)
	}
}

func (c *RESTClient) do(ctx context.Context, method, path string, query url.Values, body, out any, headers map[string]string) error {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.bearer())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w: %w", common.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return statusErr(resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w: %w", common.ErrRemoteUnavailable, err)
		}
	}
	return nil
}

// get issues a GET with exponential-backoff retries on transient failures
// (network errors and 5xx). GETs are safe to retry; writes are not and rely
// on the idempotency key instead.
func (c *RESTClient) get(ctx context.Context, path string, query url.Values, out any) error {
	backoff := retry.WithMaxRetries(2, retry.NewExponential(200*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := c.do(ctx, http.MethodGet, path, query, nil, out, nil)
		if isTransient(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

// isTransient reports whether err is worth retrying. Unauthorized, not-found,
// and conflict are terminal for the request.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, common.ErrUnauthorized) ||
		errors.Is(err, common.ErrNotFound) ||
		errors.Is(err, common.ErrRemoteConflict) {
		return false
	}
	return errors.Is(err, common.ErrRemoteUnavailable)
}

func upsertRow[T any](ctx context.Context, c *RESTClient, path string, id int64, row *T) (*T, error) {
	var stored T
	if id == 0 {
		// create; the idempotency key makes a retried or raced create safe
		headers := map[string]string{"Idempotency-Key": uuid.NewString()}
		if err := c.do(ctx, http.MethodPost, path, nil, row, &stored, headers); err != nil {
			return nil, err
		}
		return &stored, nil
	}
	if err := c.do(ctx, http.MethodPut, path+"/"+strconv.FormatInt(id, 10), nil, row, &stored, nil); err != nil {
		return nil, err
	}
	return &stored, nil
}

func lookupRow[T any](ctx context.Context, c *RESTClient, path string, query url.Values) (*T, error) {
	var row T
	if err := c.get(ctx, path+"/lookup", query, &row); err != nil {
		return nil, err
	}
	return &row, nil
}

func listModifiedSince[T any](ctx context.Context, c *RESTClient, path, userID string, since time.Time) ([]T, error) {
	q := url.Values{}
	q.Set("user_id", userID)
	q.Set("updated_after", since.UTC().Format(time.RFC3339Nano))
	var rows []T
	if err := c.get(ctx, path, q, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *RESTClient) UpsertFolder(ctx context.Context, row *FolderRow) (*FolderRow, error) {
	return upsertRow(ctx, c, foldersPath, row.ID, row)
}

func (c *RESTClient) FolderByLocalID(ctx context.Context, userID string, localID int64) (*FolderRow, error) {
	q := url.Values{}
	q.Set("user_id", userID)
	q.Set("local_id", strconv.FormatInt(localID, 10))
	return lookupRow[FolderRow](ctx, c, foldersPath, q)
}

func (c *RESTClient) FolderByName(ctx context.Context, userID, name string) (*FolderRow, error) {
	q := url.Values{}
	q.Set("user_id", userID)
	q.Set("name", name)
	return lookupRow[FolderRow](ctx, c, foldersPath, q)
}

func (c *RESTClient) FoldersModifiedSince(ctx context.Context, userID string, since time.Time) ([]FolderRow, error) {
	return listModifiedSince[FolderRow](ctx, c, foldersPath, userID, since)
}

func (c *RESTClient) UpsertSession(ctx context.Context, row *SessionRow) (*SessionRow, error) {
	return upsertRow(ctx, c, sessionsPath, row.ID, row)
}

func (c *RESTClient) SessionByLocalID(ctx context.Context, userID string, localID int64) (*SessionRow, error) {
	q := url.Values{}
	q.Set("user_id", userID)
	q.Set("local_id", strconv.FormatInt(localID, 10))
	return lookupRow[SessionRow](ctx, c, sessionsPath, q)
}

func (c *RESTClient) SessionsModifiedSince(ctx context.Context, userID string, since time.Time) ([]SessionRow, error) {
	return listModifiedSince[SessionRow](ctx, c, sessionsPath, userID, since)
}

func (c *RESTClient) UpsertTopicConfig(ctx context.Context, row *TopicConfigRow) (*TopicConfigRow, error) {
	return upsertRow(ctx, c, topicConfigsPath, row.ID, row)
}

func (c *RESTClient) TopicConfigByTopic(ctx context.Context, userID, topic string) (*TopicConfigRow, error) {
	q := url.Values{}
	q.Set("user_id", userID)
	q.Set("topic", topic)
	return lookupRow[TopicConfigRow](ctx, c, topicConfigsPath, q)
}

func (c *RESTClient) TopicConfigsModifiedSince(ctx context.Context, userID string, since time.Time) ([]TopicConfigRow, error) {
	return listModifiedSince[TopicConfigRow](ctx, c, topicConfigsPath, userID, since)
}
