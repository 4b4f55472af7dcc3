package remote

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/fastygo/taskpulse/domain"
	"github.com/fastygo/taskpulse/internal/devserver"
	"github.com/fastygo/taskpulse/repository"
)

type testServer struct {
	dev  *devserver.Server
	ln   *fasthttputil.InmemoryListener
	hits atomic.Int32
}

func startServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{dev: devserver.New(devserver.Options{}), ln: fasthttputil.NewInmemoryListener()}
	server := &fasthttp.Server{Handler: func(ctx *fasthttp.RequestCtx) {
		ts.hits.Add(1)
		ts.dev.Handler(ctx)
	}}
	go func() { _ = server.Serve(ts.ln) }()
	t.Cleanup(func() { _ = ts.ln.Close() })
	return ts
}

func (ts *testServer) client(creds CredentialSource) *Client {
	return NewClient(Config{BaseURL: "http://taskpulse.test/api/", Timeout: 2 * time.Second, Dial: DialInMemory(ts.ln)}, creds, nil)
}

func (ts *testServer) clientFor(t *testing.T, userID string) *Client {
	t.Helper()
	token, err := ts.dev.Token(userID, time.Hour)
	require.NoError(t, err)
	return ts.client(CredentialFunc(func() string { return token }))
}

func TestNoCredentialIssuesNoRequest(t *testing.T) {
	ts := startServer(t)
	c := ts.client(nil)
	ctx := context.Background()

	_, err := c.List(ctx, repository.TaskFilter{})
	assert.ErrorIs(t, err, domain.ErrNoCredential)
	_, err = c.Complete(ctx, "t1")
	assert.ErrorIs(t, err, domain.ErrNoCredential)
	assert.ErrorIs(t, c.Track(ctx, domain.Event{Kind: domain.EventTaskDeleted}), domain.ErrNoCredential)
	_, err = c.Dashboard(ctx)
	assert.ErrorIs(t, err, domain.ErrNoCredential)

	assert.Zero(t, ts.hits.Load())
}

func TestPublicCallsNeedNoCredential(t *testing.T) {
	ts := startServer(t)
	c := ts.client(nil)
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))

	session, err := c.Login(ctx, "alice", 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "alice", session.UserID)
	assert.NotEmpty(t, session.Token)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), session.ExpiresAt, 5*time.Second)

	authed := ts.client(CredentialFunc(func() string { return session.Token }))
	tasks, err := authed.List(ctx, repository.TaskFilter{})
	require.NoError(t, err)
	assert.Empty(t, tasks)
	assert.NotNil(t, tasks)

	_, err = c.Login(ctx, "  ", time.Minute)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}

func TestTaskLifecycle(t *testing.T) {
	ts := startServer(t)
	c := ts.clientFor(t, "bob")
	ctx := context.Background()

	created, err := c.Create(ctx, domain.TaskDraft{Title: "Write tests", Priority: domain.PriorityHigh, Category: "Work", EstimatedDuration: 25})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "work", created.Category)

	due := time.Date(2030, 1, 2, 15, 0, 0, 0, time.UTC)
	updated, err := c.Update(ctx, created.ID, domain.TaskChanges{Title: domain.StringPtr("Write more tests"), DueDate: &due})
	require.NoError(t, err)
	assert.Equal(t, "Write more tests", updated.Title)
	require.NotNil(t, updated.DueDate)
	assert.True(t, due.Equal(*updated.DueDate))

	cleared, err := c.Update(ctx, created.ID, domain.TaskChanges{ClearDueDate: true})
	require.NoError(t, err)
	assert.Nil(t, cleared.DueDate)

	done, err := c.Complete(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, done.Completed)
	assert.Equal(t, domain.StatusCompleted, done.Status)

	completed := domain.StatusCompleted
	tasks, err := c.List(ctx, repository.TaskFilter{Status: &completed})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, created.ID, tasks[0].ID)

	require.NoError(t, c.Delete(ctx, created.ID))
	err = c.Delete(ctx, created.ID)
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))
	assert.Equal(t, "task not found", err.Error())
}

func TestValidationErrorsCarryFieldData(t *testing.T) {
	ts := startServer(t)
	c := ts.clientFor(t, "carol")

	_, err := c.Create(context.Background(), domain.TaskDraft{Title: "x", Priority: domain.PriorityLow, EstimatedDuration: -5})
	require.Error(t, err)

	var dErr *domain.Error
	require.True(t, errors.As(err, &dErr))
	assert.Equal(t, domain.ErrCodeInvalid, dErr.Code)
	assert.Equal(t, "validation failed", dErr.Message)
	fields, ok := dErr.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, fields, "estimated_duration")
}

func TestRejectedTokenIsUnauthorized(t *testing.T) {
	ts := startServer(t)
	c := ts.client(CredentialFunc(func() string { return "not-a-jwt" }))

	_, err := c.List(context.Background(), repository.TaskFilter{})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnauthorized))
	assert.Equal(t, "invalid token", err.Error())
}

func TestUsersAreIsolated(t *testing.T) {
	ts := startServer(t)
	ctx := context.Background()
	alice := ts.clientFor(t, "alice")
	eve := ts.clientFor(t, "eve")

	task, err := alice.Create(ctx, domain.TaskDraft{Title: "private", Priority: 1, EstimatedDuration: 10})
	require.NoError(t, err)

	_, err = eve.Complete(ctx, task.ID)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))
	tasks, err := eve.List(ctx, repository.TaskFilter{})
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestAnalyticsEndpoints(t *testing.T) {
	ts := startServer(t)
	c := ts.clientFor(t, "dana")
	ctx := context.Background()

	task, err := c.Create(ctx, domain.TaskDraft{Title: "a", Priority: domain.PriorityHigh, EstimatedDuration: 10})
	require.NoError(t, err)
	_, err = c.Complete(ctx, task.ID)
	require.NoError(t, err)
	require.NoError(t, c.Track(ctx, domain.Event{Kind: domain.EventTaskCompleted, TaskID: task.ID, Priority: domain.PriorityHigh, XPEarned: 30}))

	snap, err := c.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 30, snap.UserStats.TotalXP)
	assert.Equal(t, 1, snap.UserStats.Level)
	assert.Equal(t, 970, snap.UserStats.XPToNextLevel)
	assert.Equal(t, 1, snap.WeeklyMetrics.TasksCompleted)
	assert.False(t, snap.FetchedAt.IsZero())

	insights, err := c.Insights(ctx)
	require.NoError(t, err)
	assert.NotNil(t, insights)

	days, err := c.Heatmap(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, days)
	assert.Equal(t, 1, days[len(days)-1].Count)

	metrics, err := c.Productivity(ctx)
	require.NoError(t, err)
	assert.Len(t, metrics.Trend, 7)

	events := ts.dev.Store.Events("dana")
	require.Len(t, events, 1)
	assert.Equal(t, 30, events[0].XPEarned)

	err = c.Track(ctx, domain.Event{TaskID: task.ID})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}

func TestScheduleEndpoints(t *testing.T) {
	ts := startServer(t)
	c := ts.clientFor(t, "erin")
	ctx := context.Background()

	task, err := c.Create(ctx, domain.TaskDraft{Title: "a", Priority: domain.PriorityMedium, EstimatedDuration: 40})
	require.NoError(t, err)

	schedule, err := c.Generate(ctx, domain.ScheduleRequest{"work_hours": 8})
	require.NoError(t, err)
	assert.Contains(t, string(schedule), task.ID)
	assert.Contains(t, string(schedule), "work_hours")

	at := time.Date(2030, 3, 4, 9, 0, 0, 0, time.UTC)
	out, err := c.Reschedule(ctx, task.ID, at, schedule)
	require.NoError(t, err)
	assert.Contains(t, string(out), "2030-03-04T09:00:00Z")

	_, err = c.Reschedule(ctx, "missing", at, nil)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))
}

func TestTransportFailuresAreNetworkErrors(t *testing.T) {
	dial := func(string) (net.Conn, error) { return nil, errors.New("connection refused") }
	c := NewClient(Config{BaseURL: "http://taskpulse.test/api", Dial: dial}, CredentialFunc(func() string { return "tok" }), nil)

	_, err := c.List(context.Background(), repository.TaskFilter{})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNetwork))
	assert.Contains(t, err.Error(), domain.ErrNoResponse.Message)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.List(ctx, repository.TaskFilter{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
