package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/campaign-evaluation/internal/errors"
	"github.com/unclebandit/campaign-evaluation/internal/metrics"
	"github.com/unclebandit/campaign-evaluation/internal/model"
	"github.com/unclebandit/campaign-evaluation/internal/service"
)

// MockItemRepo keeps campaign items in memory
type MockItemRepo struct {
	mu       sync.Mutex
	items    []model.Record
	fetchErr error
	updates  [][]model.Record
	marked   []string
	markErr  error

	// when set, UpdateCampaignItems signals entered and waits for release
	entered chan struct{}
	release chan struct{}
}

func (m *MockItemRepo) FetchCampaignItems(ctx context.Context, recordID string) ([]model.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	out := make([]model.Record, len(m.items))
	for i, rec := range m.items {
		out[i] = rec.Clone()
	}
	return out, nil
}

func (m *MockItemRepo) UpdateCampaignItems(ctx context.Context, changeset []model.Record) (string, error) {
	if m.entered != nil {
		m.entered <- struct{}{}
		<-m.release
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = append(m.updates, changeset)
	return "", nil
}

func (m *MockItemRepo) GetRecord(ctx context.Context, id string, fields ...string) (model.Record, error) {
	return nil, appErrors.NewCampaignItemNotFound(id)
}

func (m *MockItemRepo) UpdateRecord(ctx context.Context, rec model.Record) error { return nil }

func (m *MockItemRepo) MarkRecalculationRequested(ctx context.Context, ids []string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.markErr != nil {
		return m.markErr
	}
	m.marked = append(m.marked, ids...)
	return nil
}

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func item(id, label string) model.Record {
	return model.Record{
		model.FieldID:              id,
		model.FieldName:            "Item " + id,
		model.FieldABTest:          label,
		model.FieldConfirmedStores: "1001,1002",
	}
}

func newService(repo *MockItemRepo) (*service.EvaluationService, *clock, *metrics.Metrics) {
	c := &clock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	m := metrics.New()
	return &service.EvaluationService{
		ItemRepo:   repo,
		Metrics:    m,
		SessionTTL: 10 * time.Minute,
		Now:        c.Now,
	}, c, m
}

func TestOpenSession(t *testing.T) {
	svc, _, m := newService(&MockItemRepo{items: []model.Record{item("a1", "1A"), item("a2", "2A")}})

	id, view, err := svc.Open(context.Background(), "r1")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, "r1", view.RecordID)
	assert.Len(t, view.Rows, 2)
	assert.Equal(t, 1, svc.Count())
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SessionsActive))

	ctrl, err := svc.Session(id)
	require.NoError(t, err)
	assert.Equal(t, "r1", ctrl.RecordID())
}

func TestOpenSessionFetchFailure(t *testing.T) {
	svc, _, _ := newService(&MockItemRepo{fetchErr: errors.New("db down")})

	_, _, err := svc.Open(context.Background(), "r1")
	require.Error(t, err)
	assert.Equal(t, 0, svc.Count())
}

func TestSessionsAreIndependent(t *testing.T) {
	repo := &MockItemRepo{items: []model.Record{item("a1", "1A")}}
	svc, _, _ := newService(repo)

	first, _, err := svc.Open(context.Background(), "r1")
	require.NoError(t, err)
	second, _, err := svc.Open(context.Background(), "r1")
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	ctrl, err := svc.Session(first)
	require.NoError(t, err)
	require.NoError(t, ctrl.EditCells("a1", model.Record{"Reach__c": "7"}))

	other, err := svc.Session(second)
	require.NoError(t, err)
	assert.Len(t, ctrl.View().Drafts, 1)
	assert.Empty(t, other.View().Drafts)
}

func TestCloseSession(t *testing.T) {
	svc, _, m := newService(&MockItemRepo{items: []model.Record{item("a1", "1A")}})
	id, _, err := svc.Open(context.Background(), "r1")
	require.NoError(t, err)

	require.NoError(t, svc.Close(id))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.SessionsActive))

	_, err = svc.Session(id)
	assert.True(t, appErrors.IsNotFound(err))
	assert.True(t, appErrors.IsNotFound(svc.Close(id)))
}

func TestSessionExpires(t *testing.T) {
	svc, c, _ := newService(&MockItemRepo{items: []model.Record{item("a1", "1A")}})
	id, _, err := svc.Open(context.Background(), "r1")
	require.NoError(t, err)

	c.Advance(9 * time.Minute)
	_, err = svc.Session(id)
	require.NoError(t, err, "use refreshes the idle timer")

	c.Advance(9 * time.Minute)
	_, err = svc.Session(id)
	require.NoError(t, err)

	c.Advance(11 * time.Minute)
	_, err = svc.Session(id)
	assert.True(t, appErrors.IsNotFound(err))
	assert.Equal(t, 0, svc.Count())
}

func TestExpiredSessionSurvivesWhileSaving(t *testing.T) {
	repo := &MockItemRepo{
		items:   []model.Record{item("a1", "1A")},
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	svc, c, _ := newService(repo)
	id, _, err := svc.Open(context.Background(), "r1")
	require.NoError(t, err)
	ctrl, err := svc.Session(id)
	require.NoError(t, err)
	require.NoError(t, ctrl.EditCells("a1", model.Record{model.FieldName: "Renamed"}))

	done := make(chan error, 1)
	go func() {
		_, err := ctrl.Save(context.Background())
		done <- err
	}()
	<-repo.entered

	c.Advance(11 * time.Minute)
	got, err := svc.Session(id)
	require.NoError(t, err)
	assert.Same(t, ctrl, got)
	assert.Equal(t, 0, svc.Sweep())

	close(repo.release)
	require.NoError(t, <-done)
	assert.False(t, ctrl.Busy())
	assert.Equal(t, 1, svc.Count())
}

func TestSweep(t *testing.T) {
	svc, c, m := newService(&MockItemRepo{items: []model.Record{item("a1", "1A")}})
	stale, _, err := svc.Open(context.Background(), "r1")
	require.NoError(t, err)

	c.Advance(8 * time.Minute)
	fresh, _, err := svc.Open(context.Background(), "r2")
	require.NoError(t, err)

	c.Advance(5 * time.Minute)
	assert.Equal(t, 1, svc.Sweep())
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SessionsActive))

	_, err = svc.Session(stale)
	assert.Error(t, err)
	_, err = svc.Session(fresh)
	assert.NoError(t, err)
}

func TestRunJanitorStopsWithContext(t *testing.T) {
	svc, _, _ := newService(&MockItemRepo{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		svc.RunJanitor(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}
