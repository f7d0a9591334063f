package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stwalsh4118/recordbook/internal/client"
	"github.com/stwalsh4118/recordbook/internal/models"
)

// fakeScheduler fires callbacks only when Advance moves past their deadline.
type fakeScheduler struct {
	mu    sync.Mutex
	now   time.Duration
	tasks []*fakeTimer
}

type fakeTimer struct {
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	wasPending := !t.stopped && !t.fired
	t.stopped = true
	return wasPending
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{at: s.now + d, f: f}
	s.tasks = append(s.tasks, t)
	return t
}

func (s *fakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.now += d
	var due []*fakeTimer
	for _, t := range s.tasks {
		if !t.stopped && !t.fired && t.at <= s.now {
			t.fired = true
			due = append(due, t)
		}
	}
	s.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].at < due[j].at })
	for _, t := range due {
		t.f()
	}
}

// fakeAPI serves records from a slice and records every list call.
type fakeAPI struct {
	mu        sync.Mutex
	records   []models.Record
	listCalls []client.ListParams
	listErr   error
	createErr error
	deleteErr error
	nextID    int
}

func (f *fakeAPI) ListRecords(_ context.Context, p client.ListParams) (*models.RecordPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls = append(f.listCalls, p)
	if f.listErr != nil {
		return nil, f.listErr
	}

	total := len(f.records)
	start := min((p.Page-1)*p.Limit, total)
	end := min(start+p.Limit, total)
	pages := (total + p.Limit - 1) / p.Limit
	return &models.RecordPage{
		Records:      append([]models.Record{}, f.records[start:end]...),
		TotalRecords: int64(total),
		TotalPages:   pages,
		CurrentPage:  p.Page,
		PageSize:     p.Limit,
	}, nil
}

func (f *fakeAPI) CreateRecord(_ context.Context, in models.RecordInput) (*models.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	rec := models.Record{ID: fmt.Sprintf("new-%d", f.nextID), Name: *in.Name}
	f.records = append(f.records, rec)
	return &rec, nil
}

func (f *fakeAPI) UpdateRecord(_ context.Context, id string, in models.RecordInput) (*models.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.records {
		if f.records[i].ID == id {
			if in.Name != nil {
				f.records[i].Name = *in.Name
			}
			rec := f.records[i]
			return &rec, nil
		}
	}
	return nil, &client.APIError{Status: http.StatusNotFound, Code: "NOT_FOUND", Message: "No record found with the specified ID"}
}

func (f *fakeAPI) DeleteRecord(_ context.Context, id string) (*client.DeleteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	for i := range f.records {
		if f.records[i].ID == id {
			f.records = append(f.records[:i], f.records[i+1:]...)
			return &client.DeleteResult{Message: "Record deleted successfully", Success: true}, nil
		}
	}
	return nil, &client.APIError{Status: http.StatusNotFound, Code: "NOT_FOUND", Message: "No record found with the specified ID"}
}

func (f *fakeAPI) States(context.Context) ([]string, error) {
	return []string{"Assam", "Bihar"}, nil
}

func (f *fakeAPI) lastList() client.ListParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls[len(f.listCalls)-1]
}

func (f *fakeAPI) listCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listCalls)
}

func seededAPI(n int) *fakeAPI {
	api := &fakeAPI{}
	for i := 0; i < n; i++ {
		api.records = append(api.records, models.Record{ID: fmt.Sprintf("r%02d", i), Name: fmt.Sprintf("Person %02d", i)})
	}
	return api
}

func newController(api *fakeAPI) (*Controller, *fakeScheduler) {
	sched := &fakeScheduler{}
	return New(api, WithScheduler(sched)), sched
}

func TestController_Defaults(t *testing.T) {
	c, _ := newController(seededAPI(0))

	s := c.Snapshot()
	assert.Equal(t, 1, s.CurrentPage)
	assert.Equal(t, 1, s.TotalPages)
	assert.Equal(t, DefaultPageSize, s.PageSize)
	assert.Equal(t, "name", s.SortBy)
	assert.Equal(t, SortAsc, s.SortOrder)
	assert.NotNil(t, s.Records)
}

func TestController_Load(t *testing.T) {
	api := seededAPI(20)
	c, _ := newController(api)

	require.NoError(t, c.Load(context.Background()))

	s := c.Snapshot()
	assert.Len(t, s.Records, 8)
	assert.EqualValues(t, 20, s.TotalRecords)
	assert.Equal(t, 3, s.TotalPages)
	assert.False(t, s.Loading)
	assert.Equal(t, []string{"Assam", "Bihar"}, s.States)
	assert.Equal(t, client.ListParams{Page: 1, Limit: 8, SortBy: "name", SortOrder: "asc"}, api.lastList())
}

func TestController_EmptyStoreShowsOnePage(t *testing.T) {
	c, _ := newController(seededAPI(0))

	require.NoError(t, c.Refresh(context.Background()))

	assert.Equal(t, 1, c.Snapshot().TotalPages)
}

func TestController_ResetsToFirstPage(t *testing.T) {
	ctx := context.Background()
	api := seededAPI(40)
	c, _ := newController(api)

	steps := []struct {
		name string
		run  func() error
	}{
		{"search", func() error { return c.SetSearch(ctx, "Person") }},
		{"sort", func() error { return c.Sort(ctx, "email") }},
		{"page size", func() error { return c.SetPageSize(ctx, 16) }},
	}
	for _, step := range steps {
		t.Run(step.name, func(t *testing.T) {
			require.NoError(t, c.SetPage(ctx, 3))
			require.Equal(t, 3, c.Snapshot().CurrentPage)

			require.NoError(t, step.run())

			assert.Equal(t, 1, c.Snapshot().CurrentPage)
			assert.Equal(t, 1, api.lastList().Page)
		})
	}
	assert.Equal(t, client.ListParams{Page: 1, Limit: 16, Search: "Person", SortBy: "email", SortOrder: "asc"}, api.lastList())
}

func TestController_SortToggles(t *testing.T) {
	ctx := context.Background()
	c, _ := newController(seededAPI(3))

	require.NoError(t, c.Sort(ctx, "name"))
	assert.Equal(t, SortDesc, c.Snapshot().SortOrder)

	require.NoError(t, c.Sort(ctx, "name"))
	assert.Equal(t, SortAsc, c.Snapshot().SortOrder)

	require.NoError(t, c.Sort(ctx, "name"))
	require.NoError(t, c.Sort(ctx, "city"))
	s := c.Snapshot()
	assert.Equal(t, "city", s.SortBy)
	assert.Equal(t, SortAsc, s.SortOrder)
}

func TestController_SetPageSizeRejectsUnknownSize(t *testing.T) {
	api := seededAPI(3)
	c, _ := newController(api)

	err := c.SetPageSize(context.Background(), 10)

	assert.ErrorIs(t, err, ErrInvalidPageSize)
	assert.Equal(t, DefaultPageSize, c.Snapshot().PageSize)
	assert.Equal(t, 0, api.listCount())
}

func TestController_Apply(t *testing.T) {
	api := seededAPI(40)
	c, _ := newController(api)

	require.NoError(t, c.Apply(context.Background(), View{Page: 2, PageSize: 24, Search: "Person", SortBy: "city", SortOrder: SortDesc}))

	assert.Equal(t, 1, api.listCount())
	assert.Equal(t, client.ListParams{Page: 2, Limit: 24, Search: "Person", SortBy: "city", SortOrder: "desc"}, api.lastList())
	assert.Len(t, c.Snapshot().Records, 16)

	err := c.Apply(context.Background(), View{PageSize: 7})
	assert.ErrorIs(t, err, ErrInvalidPageSize)
	assert.Equal(t, 1, api.listCount())
}

func TestController_PageNavigation(t *testing.T) {
	ctx := context.Background()
	c, _ := newController(seededAPI(20))
	require.NoError(t, c.Refresh(ctx))

	require.NoError(t, c.PrevPage(ctx))
	assert.Equal(t, 1, c.Snapshot().CurrentPage)

	require.NoError(t, c.NextPage(ctx))
	require.NoError(t, c.NextPage(ctx))
	require.NoError(t, c.NextPage(ctx))
	s := c.Snapshot()
	assert.Equal(t, 3, s.CurrentPage)
	assert.Len(t, s.Records, 4)

	require.NoError(t, c.SetPage(ctx, -4))
	assert.Equal(t, 1, c.Snapshot().CurrentPage)
}

func TestController_AddSchedulesRefetch(t *testing.T) {
	ctx := context.Background()
	api := seededAPI(8)
	c, sched := newController(api)
	require.NoError(t, c.Refresh(ctx))
	calls := api.listCount()

	rec, err := c.Add(ctx, models.RecordInput{Name: models.StringPtr("Zoya")})
	require.NoError(t, err)

	s := c.Snapshot()
	assert.Equal(t, rec.ID, s.Records[0].ID)
	assert.Equal(t, "Record added successfully!", s.Success)
	assert.Equal(t, calls, api.listCount())

	sched.Advance(RefetchDelay - time.Millisecond)
	assert.Equal(t, calls, api.listCount())

	sched.Advance(time.Millisecond)
	assert.Equal(t, calls+1, api.listCount())
	s = c.Snapshot()
	assert.EqualValues(t, 9, s.TotalRecords)
	assert.Equal(t, 2, s.TotalPages)
}

func TestController_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	api := seededAPI(3)
	c, sched := newController(api)
	require.NoError(t, c.Refresh(ctx))

	_, err := c.Update(ctx, "r01", models.RecordInput{Name: models.StringPtr("Renamed")})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", c.Snapshot().Records[1].Name)
	assert.Equal(t, "Record updated successfully!", c.Snapshot().Success)

	require.NoError(t, c.Delete(ctx, "r00"))
	s := c.Snapshot()
	assert.Len(t, s.Records, 2)
	assert.Equal(t, "Record deleted successfully!", s.Success)

	sched.Advance(RefetchDelay)
	assert.EqualValues(t, 2, c.Snapshot().TotalRecords)
}

func TestController_ErrorBanner(t *testing.T) {
	ctx := context.Background()
	api := seededAPI(3)
	c, _ := newController(api)
	require.NoError(t, c.Refresh(ctx))

	err := c.Delete(ctx, "missing")
	require.Error(t, err)
	assert.Equal(t, "No record found with the specified ID", c.Snapshot().Error)

	api.createErr = errors.New("boom")
	_, err = c.Add(ctx, models.RecordInput{Name: models.StringPtr("X")})
	require.Error(t, err)
	assert.Equal(t, "Failed to add record", c.Snapshot().Error)
	assert.False(t, c.Snapshot().Loading)
}

func TestController_FetchFailureEmptiesList(t *testing.T) {
	ctx := context.Background()
	api := seededAPI(10)
	c, _ := newController(api)
	require.NoError(t, c.Refresh(ctx))

	api.listErr = fmt.Errorf("%w: dial tcp: connection refused", client.ErrNoResponse)
	require.Error(t, c.Refresh(ctx))

	s := c.Snapshot()
	assert.Empty(t, s.Records)
	assert.Equal(t, 1, s.TotalPages)
	assert.Zero(t, s.TotalRecords)
	assert.Equal(t, "No response received from server", s.Error)
}

func TestController_MessagesClearAfterTimeout(t *testing.T) {
	ctx := context.Background()
	c, sched := newController(seededAPI(3))

	require.NoError(t, c.Delete(ctx, "r00"))
	sched.Advance(4 * time.Second)
	assert.Equal(t, "Record deleted successfully!", c.Snapshot().Success)

	// A new message restarts the countdown.
	require.NoError(t, c.Delete(ctx, "r01"))
	sched.Advance(2 * time.Second)
	assert.Equal(t, "Record deleted successfully!", c.Snapshot().Success)

	sched.Advance(3 * time.Second)
	s := c.Snapshot()
	assert.Empty(t, s.Success)
	assert.Empty(t, s.Error)
}

func TestController_Subscribe(t *testing.T) {
	ctx := context.Background()
	c, _ := newController(seededAPI(3))

	var seen []State
	unsubscribe := c.Subscribe(func(s State) { seen = append(seen, s) })

	require.NoError(t, c.Refresh(ctx))
	require.Len(t, seen, 2)
	assert.True(t, seen[0].Loading)
	assert.False(t, seen[1].Loading)
	assert.Len(t, seen[1].Records, 3)

	unsubscribe()
	require.NoError(t, c.Refresh(ctx))
	assert.Len(t, seen, 2)
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "Zipcode bad", ErrorMessage(&client.APIError{Status: 400, Message: "Zipcode bad"}, "fallback"))
	assert.Equal(t, "fallback", ErrorMessage(errors.New("x"), "fallback"))
	assert.Equal(t, "No response received from server", ErrorMessage(client.ErrNoResponse, "fallback"))
}

// gatedAPI holds the first list call until release is closed.
type gatedAPI struct {
	*fakeAPI
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedAPI) ListRecords(ctx context.Context, p client.ListParams) (*models.RecordPage, error) {
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.entered)
		<-g.release
	}
	return g.fakeAPI.ListRecords(ctx, p)
}

func TestController_SlowRefreshDoesNotOverwriteNewerPage(t *testing.T) {
	ctx := context.Background()
	api := &gatedAPI{fakeAPI: seededAPI(20), entered: make(chan struct{}), release: make(chan struct{})}
	c := New(api, WithScheduler(&fakeScheduler{}))

	done := make(chan error, 1)
	go func() { done <- c.Refresh(ctx) }()
	<-api.entered

	require.NoError(t, c.SetPage(ctx, 2))
	close(api.release)
	require.NoError(t, <-done)

	s := c.Snapshot()
	assert.Equal(t, 2, s.CurrentPage)
	require.Len(t, s.Records, 8)
	assert.Equal(t, "r08", s.Records[0].ID)
	assert.False(t, s.Loading)
}

func TestController_SlowFailedRefreshIsDropped(t *testing.T) {
	ctx := context.Background()
	fake := seededAPI(20)
	api := &gatedAPI{fakeAPI: fake, entered: make(chan struct{}), release: make(chan struct{})}
	c := New(api, WithScheduler(&fakeScheduler{}))

	done := make(chan error, 1)
	go func() { done <- c.Refresh(ctx) }()
	<-api.entered

	require.NoError(t, c.SetPage(ctx, 3))
	fake.mu.Lock()
	fake.listErr = errors.New("connection reset")
	fake.mu.Unlock()
	close(api.release)
	require.NoError(t, <-done)

	s := c.Snapshot()
	assert.Equal(t, 3, s.CurrentPage)
	assert.Len(t, s.Records, 4)
	assert.Empty(t, s.Error)
}
