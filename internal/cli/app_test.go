package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/focuskeeper/internal/config"
	"github.com/dmitrijs2005/focuskeeper/internal/logging"
	"github.com/dmitrijs2005/focuskeeper/internal/remote"
	"github.com/dmitrijs2005/focuskeeper/internal/storage"
	"github.com/dmitrijs2005/focuskeeper/internal/sync"
	"github.com/dmitrijs2005/focuskeeper/internal/timer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

const testUser = "5f0c9f9e-0a1c-4f7e-9dce-0fb24c2a3a11"

// unreachableClient always fails authorization, so sync degrades to a no-op.
type unreachableClient struct{ remote.Client }

func (unreachableClient) Authorize(ctx context.Context) error {
	return context.DeadlineExceeded
}
func (unreachableClient) Close() error { return nil }

func testApp(t *testing.T) (*App, *bytes.Buffer) {
	t.Helper()
	s, err := storage.OpenMemory(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	log := logging.NewNopLogger()
	out := &bytes.Buffer{}
	cfg := &config.Config{SyncInterval: time.Minute}

	return &App{
		cfg:    cfg,
		log:    log,
		store:  s,
		client: unreachableClient{},
		timer:  timer.NewEngine(s, testUser, log),
		syncer: sync.NewEngine(s, unreachableClient{}, testUser, log),
		userID: testUser,
		out:    out,
	}, out
}

func TestDispatch_FolderLifecycle(t *testing.T) {
	a, out := testApp(t)
	ctx := context.Background()

	a.dispatch(ctx, "mkfolder Study #14b8a6")
	assert.Contains(t, out.String(), `created folder "Study"`)

	out.Reset()
	a.dispatch(ctx, "folders")
	assert.Contains(t, out.String(), "Study")
	assert.Contains(t, out.String(), "#14b8a6")

	out.Reset()
	a.dispatch(ctx, "edfolder Study Research #333333")
	a.dispatch(ctx, "folders")
	assert.Contains(t, out.String(), "Research")
	assert.Contains(t, out.String(), "#333333")

	out.Reset()
	a.dispatch(ctx, "rmfolder Research")
	assert.Contains(t, out.String(), `deleted folder "Research"`)

	out.Reset()
	a.dispatch(ctx, "folders")
	assert.Contains(t, out.String(), "no folders")
}

func TestDispatch_StartStatusStop(t *testing.T) {
	a, out := testApp(t)
	ctx := context.Background()

	a.dispatch(ctx, "mkfolder Study")
	out.Reset()

	a.dispatch(ctx, "start Algorithms Study")
	assert.Contains(t, out.String(), `started "Algorithms"`)

	out.Reset()
	a.dispatch(ctx, "status")
	assert.Contains(t, out.String(), `running "Algorithms"`)
	assert.Contains(t, out.String(), "folder: Study")

	out.Reset()
	a.dispatch(ctx, "stop")
	assert.Contains(t, out.String(), `stopped "Algorithms"`)

	out.Reset()
	a.dispatch(ctx, "status")
	assert.Contains(t, out.String(), "idle")
}

func TestDispatch_StartUnknownFolder(t *testing.T) {
	a, out := testApp(t)

	a.dispatch(context.Background(), "start Algorithms Missing")
	assert.Contains(t, out.String(), `no folder named "Missing"`)
}

func TestDispatch_TopicCommands(t *testing.T) {
	a, out := testApp(t)
	ctx := context.Background()

	a.dispatch(ctx, "mkfolder Study")
	a.dispatch(ctx, "assign Algorithms Study")
	out.Reset()

	a.dispatch(ctx, "topics Study")
	assert.Contains(t, out.String(), "Algorithms")

	out.Reset()
	a.dispatch(ctx, "rename Algorithms DSA")
	a.dispatch(ctx, "topics Study")
	assert.Contains(t, out.String(), "DSA")

	out.Reset()
	a.dispatch(ctx, "assign DSA -")
	assert.Contains(t, out.String(), `detached "DSA"`)
}

func TestDispatch_SyncOfflineIsSkipped(t *testing.T) {
	a, out := testApp(t)

	a.dispatch(context.Background(), "sync")
	assert.Contains(t, out.String(), "sync skipped")
}

func TestDispatch_StatsEmpty(t *testing.T) {
	a, out := testApp(t)

	a.dispatch(context.Background(), "stats 14")
	assert.Contains(t, out.String(), "no recorded time in the last 14 days")
}

func TestDispatch_UnknownAndExit(t *testing.T) {
	a, out := testApp(t)
	ctx := context.Background()

	assert.False(t, a.dispatch(ctx, "frobnicate"))
	assert.Contains(t, out.String(), "Unknown command: frobnicate")

	assert.False(t, a.dispatch(ctx, "   "))
	assert.True(t, a.dispatch(ctx, "exit"))
}

func TestRunREPL_ExitsOnQuit(t *testing.T) {
	a, out := testApp(t)

	in := strings.NewReader("status\nquit\n")
	a.runREPL(context.Background(), in)

	assert.Contains(t, out.String(), "idle")
	assert.Contains(t, out.String(), "Bye!")
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "00:05", formatElapsed(5))
	assert.Equal(t, "01:05", formatElapsed(65))
	assert.Equal(t, "1:00:01", formatElapsed(3601))
}
