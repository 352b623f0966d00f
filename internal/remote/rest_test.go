package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/focuskeeper/internal/auth"
	"github.com/dmitrijs2005/focuskeeper/internal/common"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUser = "5f0c9f9e-0a1c-4f7e-9dce-0fb24c2a3a11"

func testProvider(t *testing.T) auth.Provider {
	t.Helper()
	p, err := auth.NewStaticProvider(testUser, "test-token")
	require.NoError(t, err)
	return p
}

func newClient(t *testing.T, handler http.Handler) *RESTClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewRESTClient(srv.URL, testProvider(t), time.Second)
	require.NoError(t, c.Authorize(context.Background()))
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestUpsertFolder_CreateSendsIdempotencyKeyAndBearer(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, foldersPath, r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("Idempotency-Key"))

		var row FolderRow
		require.NoError(t, json.NewDecoder(r.Body).Decode(&row))
		row.ID = 42
		_ = json.NewEncoder(w).Encode(row)
	}))

	stored, err := c.UpsertFolder(context.Background(), &FolderRow{
		UserID: testUser, LocalID: 7, Name: "Study", UpdatedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), stored.ID)
	assert.Equal(t, "Study", stored.Name)
}

func TestUpsertSession_UpdateUsesPutWithID(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, sessionsPath+"/42", r.URL.Path)
		assert.Empty(t, r.Header.Get("Idempotency-Key"))

		var row SessionRow
		require.NoError(t, json.NewDecoder(r.Body).Decode(&row))
		_ = json.NewEncoder(w).Encode(row)
	}))

	end := time.Now()
	stored, err := c.UpsertSession(context.Background(), &SessionRow{
		ID: 42, UserID: testUser, LocalID: 3, Topic: "Algorithms",
		StartTime: end.Add(-time.Hour), EndTime: &end, Duration: 3600,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), stored.ID)
}

func TestUpsertFolder_ConflictMapsToErrRemoteConflict(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))

	_, err := c.UpsertFolder(context.Background(), &FolderRow{UserID: testUser, LocalID: 1, Name: "X"})
	assert.True(t, errors.Is(err, common.ErrRemoteConflict))
}

func TestFolderByLocalID_NotFound(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, foldersPath+"/lookup", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := c.FolderByLocalID(context.Background(), testUser, 99)
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestFolderByName_QueryParams(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, testUser, r.URL.Query().Get("user_id"))
		assert.Equal(t, "Deep Work", r.URL.Query().Get("name"))
		_ = json.NewEncoder(w).Encode(FolderRow{ID: 5, UserID: testUser, LocalID: 2, Name: "Deep Work"})
	}))

	row, err := c.FolderByName(context.Background(), testUser, "Deep Work")
	require.NoError(t, err)
	assert.Equal(t, int64(5), row.ID)
}

func TestSessionsModifiedSince_SendsWatermark(t *testing.T) {
	since := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, sessionsPath, r.URL.Path)
		assert.Equal(t, testUser, r.URL.Query().Get("user_id"))
		assert.Equal(t, since.Format(time.RFC3339Nano), r.URL.Query().Get("updated_after"))
		_ = json.NewEncoder(w).Encode([]SessionRow{
			{ID: 1, UserID: testUser, LocalID: 1, Topic: "A"},
			{ID: 2, UserID: testUser, LocalID: 2, Topic: "B"},
		})
	}))

	rows, err := c.SessionsModifiedSince(context.Background(), testUser, since)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "B", rows[1].Topic)
}

func TestGet_RetriesTransientServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode([]FolderRow{})
	}))

	_, err := c.FoldersModifiedSince(context.Background(), testUser, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGet_DoesNotRetryUnauthorized(t *testing.T) {
	var calls atomic.Int32
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := c.TopicConfigsModifiedSince(context.Background(), testUser, time.Time{})
	assert.True(t, errors.Is(err, common.ErrUnauthorized))
	assert.Equal(t, int32(1), calls.Load())
}

func TestDo_NetworkErrorMapsToUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewRESTClient(srv.URL, testProvider(t), 100*time.Millisecond)
	require.NoError(t, c.Authorize(context.Background()))

	_, err := c.UpsertTopicConfig(context.Background(), &TopicConfigRow{UserID: testUser, Topic: "A"})
	assert.True(t, errors.Is(err, common.ErrRemoteUnavailable))
}
