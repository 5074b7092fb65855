package application_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/gerritwatch/internal/application"
	"github.com/ericfisherdev/gerritwatch/internal/domain/model"
	"github.com/ericfisherdev/gerritwatch/internal/domain/port/driven"
)

// --- Mock implementations ---

type mockGerritClient struct {
	mu       sync.Mutex
	queried  []string
	lastOpts model.Options
	query    func(changeID string) (model.QueryResult, error)
	testOK   bool
	tested   []string
}

func (m *mockGerritClient) Query(_ context.Context, opts model.Options, changeID string) (model.QueryResult, error) {
	m.mu.Lock()
	m.queried = append(m.queried, changeID)
	m.lastOpts = opts
	m.mu.Unlock()

	if m.query != nil {
		return m.query(changeID)
	}
	return model.OKResult(model.ChangeStatus{ID: changeID, Subject: "s", Status: model.ChangeStatusNew}), nil
}

func (m *mockGerritClient) Test(_ context.Context, endpoint string, _ model.Credentials) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tested = append(m.tested, endpoint)
	return m.testOK
}

func (m *mockGerritClient) queriedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queried...)
}

func (m *mockGerritClient) options() model.Options {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastOpts
}

type mockOptionsStore struct {
	mu      sync.Mutex
	opts    *model.Options
	loadErr error
	saveErr error
	saved   []model.Options
}

func (m *mockOptionsStore) Load(_ context.Context) (*model.Options, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.opts == nil {
		return nil, m.loadErr
	}
	opts := *m.opts
	return &opts, m.loadErr
}

func (m *mockOptionsStore) Save(_ context.Context, opts model.Options) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, opts)
	m.opts = &opts
	return nil
}

func (m *mockOptionsStore) set(opts model.Options) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opts = &opts
}

type mockChangeStore struct {
	mu      sync.Mutex
	ids     []string
	results map[string]model.QueryResult
}

func newMockChangeStore(ids ...string) *mockChangeStore {
	return &mockChangeStore{ids: ids, results: map[string]model.QueryResult{}}
}

func (m *mockChangeStore) Add(_ context.Context, changeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids = append(m.ids, changeID)
	return nil
}

func (m *mockChangeStore) Remove(_ context.Context, _ string) error { return nil }

func (m *mockChangeStore) Get(_ context.Context, _ string) (*model.TrackedChange, error) {
	return nil, nil
}

func (m *mockChangeStore) ListAll(_ context.Context) ([]model.TrackedChange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	changes := make([]model.TrackedChange, 0, len(m.ids))
	for _, id := range m.ids {
		changes = append(changes, model.TrackedChange{ChangeID: id})
	}
	return changes, nil
}

func (m *mockChangeStore) SaveResult(_ context.Context, changeID string, result model.QueryResult, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.ids {
		if id == changeID {
			m.results[changeID] = result
			return nil
		}
	}
	return fmt.Errorf("save %s: %w", changeID, driven.ErrChangeNotTracked)
}

func (m *mockChangeStore) result(changeID string) (model.QueryResult, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.results[changeID]
	return r, ok
}

func (m *mockChangeStore) resultCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.results)
}

// --- Helpers ---

func configuredOptions() model.Options {
	return model.Options{
		RefreshTime: 3600,
		Endpoint:    "https://gerrit.example.com",
		Credentials: model.Credentials{Email: "dev@example.com", Password: "pw"},
	}
}

// startService runs the poll service in the background until the test ends.
func startService(t *testing.T, svc *application.PollService) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Start(ctx)
		close(done)
	}()

	t.Cleanup(func() {
		cancel()
		<-done
	})
}

// --- Tests ---

func TestPollService_InitialPollStoresEveryResult(t *testing.T) {
	opts := configuredOptions()
	client := &mockGerritClient{}
	store := newMockChangeStore("1", "2", "3")
	svc := application.NewPollService(client, &mockOptionsStore{opts: &opts}, store, application.NewEndpointProvider(), 2)

	startService(t, svc)

	require.Eventually(t, func() bool { return store.resultCount() == 3 }, time.Second, 10*time.Millisecond)
	assert.ElementsMatch(t, []string{"1", "2", "3"}, client.queriedIDs())
	assert.Equal(t, opts, client.options())
}

func TestPollService_OneFailureDoesNotAbortCycle(t *testing.T) {
	opts := configuredOptions()
	client := &mockGerritClient{
		query: func(changeID string) (model.QueryResult, error) {
			switch changeID {
			case "bad":
				return model.ErrorResult(changeID), nil
			case "odd":
				return model.QueryResult{}, errors.New("unexpected gerrit API shape")
			}
			return model.OKResult(model.ChangeStatus{ID: changeID, Subject: "ok"}), nil
		},
	}
	store := newMockChangeStore("bad", "odd", "good")
	svc := application.NewPollService(client, &mockOptionsStore{opts: &opts}, store, application.NewEndpointProvider(), 1)

	startService(t, svc)

	require.Eventually(t, func() bool { return store.resultCount() == 3 }, time.Second, 10*time.Millisecond)

	bad, _ := store.result("bad")
	assert.Equal(t, model.ResultError, bad.Kind)
	odd, _ := store.result("odd")
	assert.Equal(t, model.ResultError, odd.Kind, "shape errors are stored as error results")
	good, _ := store.result("good")
	assert.Equal(t, model.ResultOK, good.Kind)
}

func TestPollService_NoOptionsSkipsPolling(t *testing.T) {
	client := &mockGerritClient{}
	store := newMockChangeStore("1")
	svc := application.NewPollService(client, &mockOptionsStore{}, store, application.NewEndpointProvider(), 1)

	startService(t, svc)

	err := svc.RefreshChange(context.Background(), "1")
	assert.ErrorIs(t, err, application.ErrMissingConfig)
	assert.Empty(t, client.queriedIDs())
}

func TestPollService_RestartReloadsOptions(t *testing.T) {
	optionsStore := &mockOptionsStore{}
	client := &mockGerritClient{}
	store := newMockChangeStore("77")
	endpoint := application.NewEndpointProvider()
	svc := application.NewPollService(client, optionsStore, store, endpoint, 1)

	startService(t, svc)

	// Wait for the loop to be serving requests before options appear.
	require.NoError(t, svc.Restart(context.Background()))
	assert.Empty(t, client.queriedIDs())

	opts := configuredOptions()
	optionsStore.set(opts)

	require.NoError(t, svc.Restart(context.Background()))
	assert.Equal(t, opts, endpoint.Get(), "options are reloaded before Restart returns")

	require.Eventually(t, func() bool { return store.resultCount() == 1 }, time.Second, 10*time.Millisecond,
		"restart polls straight away")
	assert.Equal(t, []string{"77"}, client.queriedIDs())
	res, ok := store.result("77")
	require.True(t, ok)
	assert.Equal(t, model.ResultOK, res.Kind)
}

func TestPollService_RestartAnswersBeforePolling(t *testing.T) {
	release := make(chan struct{})
	client := &mockGerritClient{
		query: func(changeID string) (model.QueryResult, error) {
			<-release
			return model.OKResult(model.ChangeStatus{ID: changeID}), nil
		},
	}
	optionsStore := &mockOptionsStore{}
	endpoint := application.NewEndpointProvider()
	svc := application.NewPollService(client, optionsStore, newMockChangeStore("1"), endpoint, 1)

	startService(t, svc)
	t.Cleanup(func() { close(release) })

	// Wait for the loop to be serving requests before options appear.
	require.NoError(t, svc.Restart(context.Background()))

	opts := configuredOptions()
	optionsStore.set(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	require.NoError(t, svc.Restart(ctx))
	assert.Equal(t, opts, endpoint.Get())
}

func TestPollService_RestartLoadError(t *testing.T) {
	optionsStore := &mockOptionsStore{}
	svc := application.NewPollService(&mockGerritClient{}, optionsStore, newMockChangeStore(), application.NewEndpointProvider(), 1)

	startService(t, svc)

	optionsStore.mu.Lock()
	optionsStore.loadErr = errors.New("disk on fire")
	optionsStore.mu.Unlock()

	err := svc.Restart(context.Background())
	assert.ErrorContains(t, err, "disk on fire")
}

func TestPollService_RefreshChange(t *testing.T) {
	opts := configuredOptions()
	client := &mockGerritClient{}
	store := newMockChangeStore()
	svc := application.NewPollService(client, &mockOptionsStore{opts: &opts}, store, application.NewEndpointProvider(), 1)

	startService(t, svc)

	require.NoError(t, store.Add(context.Background(), "555"))
	require.NoError(t, svc.RefreshChange(context.Background(), "555"))

	res, ok := store.result("555")
	require.True(t, ok)
	assert.Equal(t, "555", res.ID)
}

func TestPollService_RefreshUntrackedChange(t *testing.T) {
	opts := configuredOptions()
	svc := application.NewPollService(&mockGerritClient{}, &mockOptionsStore{opts: &opts}, newMockChangeStore(), application.NewEndpointProvider(), 1)

	startService(t, svc)

	err := svc.RefreshChange(context.Background(), "404")
	assert.ErrorIs(t, err, driven.ErrChangeNotTracked)
}

func TestPollService_RefreshTransportFailure(t *testing.T) {
	opts := configuredOptions()
	client := &mockGerritClient{
		query: func(changeID string) (model.QueryResult, error) { return model.ErrorResult(changeID), nil },
	}
	store := newMockChangeStore("9")
	svc := application.NewPollService(client, &mockOptionsStore{opts: &opts}, store, application.NewEndpointProvider(), 1)

	startService(t, svc)

	err := svc.RefreshChange(context.Background(), "9")
	assert.Error(t, err)

	res, ok := store.result("9")
	require.True(t, ok)
	assert.Equal(t, model.ErrorResult("9"), res)
}

func TestPollService_RestartCanceledContext(t *testing.T) {
	svc := application.NewPollService(&mockGerritClient{}, &mockOptionsStore{}, newMockChangeStore(), application.NewEndpointProvider(), 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// No loop is running, so only the context can release the caller.
	assert.ErrorIs(t, svc.Restart(ctx), context.Canceled)
	assert.ErrorIs(t, svc.RefreshChange(ctx, "1"), context.Canceled)
}
