// Package dashboard holds the state behind the record list view: the current
// page, search and sort settings, a loading flag and transient banners.
//
// All mutations go through a Controller, which calls the API, updates its
// state under a mutex and notifies subscribers with a snapshot after every
// change. Success and error banners clear themselves after MessageTimeout;
// add, update and delete schedule a refetch of the current page after
// RefetchDelay so pagination totals catch up with the change.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/stwalsh4118/recordbook/internal/client"
	"github.com/stwalsh4118/recordbook/internal/logger"
	"github.com/stwalsh4118/recordbook/internal/models"
)

const (
	// MessageTimeout is how long a success or error banner stays up.
	MessageTimeout = 5 * time.Second
	// RefetchDelay is the pause between a mutation and the page refetch.
	RefetchDelay = 100 * time.Millisecond

	DefaultPageSize  = 8
	DefaultSortField = "name"
	SortAsc          = "asc"
	SortDesc         = "desc"
)

// PageSizes are the page sizes a user can pick.
var PageSizes = []int{8, 16, 24, 32}

// ErrInvalidPageSize is returned by SetPageSize for sizes not in PageSizes.
var ErrInvalidPageSize = errors.New("invalid page size")

// API is the subset of the records API the dashboard needs.
type API interface {
	ListRecords(ctx context.Context, p client.ListParams) (*models.RecordPage, error)
	CreateRecord(ctx context.Context, in models.RecordInput) (*models.Record, error)
	UpdateRecord(ctx context.Context, id string, in models.RecordInput) (*models.Record, error)
	DeleteRecord(ctx context.Context, id string) (*client.DeleteResult, error)
	States(ctx context.Context) ([]string, error)
}

// Timer is a pending scheduled call.
type Timer interface {
	Stop() bool
}

// Scheduler runs f after d. The default uses time.AfterFunc.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// State is a snapshot of the dashboard.
type State struct {
	Records      []models.Record
	CurrentPage  int
	TotalPages   int
	TotalRecords int64
	PageSize     int
	Search       string
	SortBy       string
	SortOrder    string
	Loading      bool
	Success      string
	Error        string
	States       []string
}

func (s State) clone() State {
	s.Records = slices.Clone(s.Records)
	s.States = slices.Clone(s.States)
	return s
}

// Controller owns the dashboard state.
type Controller struct {
	api   API
	sched Scheduler
	log   *logger.Logger

	mu        sync.Mutex
	state     State
	observers map[int]func(State)
	nextObs   int
	msgTimer  Timer
	fetchSeq  uint64
}

// Option configures a Controller.
type Option func(*Controller)

// WithScheduler replaces the timer source.
func WithScheduler(s Scheduler) Option {
	return func(c *Controller) { c.sched = s }
}

// WithLogger sets the logger used for background refetch failures.
func WithLogger(log *logger.Logger) Option {
	return func(c *Controller) { c.log = log }
}

// New creates a Controller showing page 1 sorted by name ascending.
func New(api API, opts ...Option) *Controller {
	c := &Controller{
		api:   api,
		sched: realScheduler{},
		log:   logger.Nop(),
		state: State{
			Records:     []models.Record{},
			CurrentPage: 1,
			TotalPages:  1,
			PageSize:    DefaultPageSize,
			SortBy:      DefaultSortField,
			SortOrder:   SortAsc,
			States:      []string{},
		},
		observers: make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe registers fn to receive a snapshot after every state change.
// The returned function removes the subscription.
func (c *Controller) Subscribe(fn func(State)) func() {
	c.mu.Lock()
	id := c.nextObs
	c.nextObs++
	c.observers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Load fetches the first page and the state list.
func (c *Controller) Load(ctx context.Context) error {
	err := c.Refresh(ctx)
	c.fetchStates(ctx)
	return err
}

// Refresh refetches the current page with the current settings. A failure
// empties the list and raises the error banner. When a newer fetch starts
// before this one returns, this one's result is dropped.
func (c *Controller) Refresh(ctx context.Context) error {
	var seq uint64
	params := c.update(func(s *State) client.ListParams {
		c.fetchSeq++
		seq = c.fetchSeq
		s.Loading = true
		s.Error = ""
		return client.ListParams{
			Page:      s.CurrentPage,
			Limit:     s.PageSize,
			Search:    s.Search,
			SortBy:    s.SortBy,
			SortOrder: s.SortOrder,
		}
	})

	page, err := c.api.ListRecords(ctx, params)

	stale := false
	c.mutate(func(s *State) {
		if seq != c.fetchSeq {
			stale = true
			return
		}
		s.Loading = false
		if err != nil {
			s.Records = []models.Record{}
			s.TotalPages = 1
			s.TotalRecords = 0
			c.setError(s, err, "Failed to fetch records")
			return
		}
		s.Records = page.Records
		if s.Records == nil {
			s.Records = []models.Record{}
		}
		s.TotalPages = max(page.TotalPages, 1)
		s.TotalRecords = page.TotalRecords
	})
	if stale {
		return nil
	}
	if err != nil {
		return fmt.Errorf("fetch records: %w", err)
	}
	return nil
}

// View selects what the list shows. Zero values keep the current setting.
type View struct {
	Page      int
	PageSize  int
	Search    string
	SortBy    string
	SortOrder string
}

// Apply sets several view settings at once and fetches once.
func (c *Controller) Apply(ctx context.Context, v View) error {
	if v.PageSize != 0 && !slices.Contains(PageSizes, v.PageSize) {
		return fmt.Errorf("%w: %d", ErrInvalidPageSize, v.PageSize)
	}
	c.mutate(func(s *State) {
		if v.PageSize != 0 {
			s.PageSize = v.PageSize
		}
		if v.Search != "" {
			s.Search = v.Search
		}
		if v.SortBy != "" {
			s.SortBy = v.SortBy
		}
		switch v.SortOrder {
		case SortAsc, SortDesc:
			s.SortOrder = v.SortOrder
		}
		s.CurrentPage = max(v.Page, 1)
	})
	return c.Refresh(ctx)
}

// SetSearch changes the search term and returns to page 1.
func (c *Controller) SetSearch(ctx context.Context, term string) error {
	c.mutate(func(s *State) {
		s.Search = term
		s.CurrentPage = 1
	})
	return c.Refresh(ctx)
}

// Sort sorts by field. Sorting the current field again flips the direction;
// a new field starts ascending. Either way the view returns to page 1.
func (c *Controller) Sort(ctx context.Context, field string) error {
	c.mutate(func(s *State) {
		if s.SortBy == field {
			if s.SortOrder == SortAsc {
				s.SortOrder = SortDesc
			} else {
				s.SortOrder = SortAsc
			}
		} else {
			s.SortBy = field
			s.SortOrder = SortAsc
		}
		s.CurrentPage = 1
	})
	return c.Refresh(ctx)
}

// SetPage moves to page. Pages below 1 select page 1.
func (c *Controller) SetPage(ctx context.Context, page int) error {
	c.mutate(func(s *State) {
		s.CurrentPage = max(page, 1)
	})
	return c.Refresh(ctx)
}

// NextPage moves forward unless already on the last page.
func (c *Controller) NextPage(ctx context.Context) error {
	s := c.Snapshot()
	if s.CurrentPage >= s.TotalPages {
		return nil
	}
	return c.SetPage(ctx, s.CurrentPage+1)
}

// PrevPage moves back unless already on page 1.
func (c *Controller) PrevPage(ctx context.Context) error {
	s := c.Snapshot()
	if s.CurrentPage <= 1 {
		return nil
	}
	return c.SetPage(ctx, s.CurrentPage-1)
}

// SetPageSize changes the page size and returns to page 1.
func (c *Controller) SetPageSize(ctx context.Context, size int) error {
	if !slices.Contains(PageSizes, size) {
		return fmt.Errorf("%w: %d", ErrInvalidPageSize, size)
	}
	c.mutate(func(s *State) {
		s.PageSize = size
		s.CurrentPage = 1
	})
	return c.Refresh(ctx)
}

// Add creates a record, shows it at the top of the list and schedules a
// refetch.
func (c *Controller) Add(ctx context.Context, in models.RecordInput) (*models.Record, error) {
	c.startMutation()

	rec, err := c.api.CreateRecord(ctx, in)

	c.mutate(func(s *State) {
		s.Loading = false
		if err != nil {
			c.setError(s, err, "Failed to add record")
			return
		}
		s.Records = append([]models.Record{*rec}, s.Records...)
		c.setSuccess(s, "Record added successfully!")
	})
	if err != nil {
		return nil, fmt.Errorf("add record: %w", err)
	}

	c.scheduleRefetch()
	return rec, nil
}

// Update saves changes to a record and replaces it in the list.
func (c *Controller) Update(ctx context.Context, id string, in models.RecordInput) (*models.Record, error) {
	c.startMutation()

	rec, err := c.api.UpdateRecord(ctx, id, in)

	c.mutate(func(s *State) {
		s.Loading = false
		if err != nil {
			c.setError(s, err, "Failed to update record")
			return
		}
		for i := range s.Records {
			if s.Records[i].ID == id {
				s.Records[i] = *rec
			}
		}
		c.setSuccess(s, "Record updated successfully!")
	})
	if err != nil {
		return nil, fmt.Errorf("update record: %w", err)
	}

	c.scheduleRefetch()
	return rec, nil
}

// Delete removes a record from the store and the list.
func (c *Controller) Delete(ctx context.Context, id string) error {
	c.startMutation()

	_, err := c.api.DeleteRecord(ctx, id)

	c.mutate(func(s *State) {
		s.Loading = false
		if err != nil {
			c.setError(s, err, "Failed to delete record")
			return
		}
		s.Records = slices.DeleteFunc(s.Records, func(r models.Record) bool { return r.ID == id })
		c.setSuccess(s, "Record deleted successfully!")
	})
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}

	c.scheduleRefetch()
	return nil
}

// ClearMessages drops both banners.
func (c *Controller) ClearMessages() {
	c.mutate(func(s *State) {
		c.stopMessageTimer()
		s.Success = ""
		s.Error = ""
	})
}

func (c *Controller) fetchStates(ctx context.Context) {
	states, err := c.api.States(ctx)
	c.mutate(func(s *State) {
		if err != nil {
			s.States = []string{}
			return
		}
		s.States = states
	})
}

func (c *Controller) startMutation() {
	c.mutate(func(s *State) {
		s.Loading = true
		s.Error = ""
	})
}

func (c *Controller) scheduleRefetch() {
	c.sched.AfterFunc(RefetchDelay, func() {
		if err := c.Refresh(context.Background()); err != nil {
			c.log.Warn("Background refetch failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	})
}

// setError and setSuccess must be called with c.mu held.
func (c *Controller) setError(s *State, err error, fallback string) {
	s.Error = ErrorMessage(err, fallback)
	c.armMessageTimer()
}

func (c *Controller) setSuccess(s *State, msg string) {
	s.Success = msg
	c.armMessageTimer()
}

func (c *Controller) armMessageTimer() {
	c.stopMessageTimer()
	var t Timer
	t = c.sched.AfterFunc(MessageTimeout, func() {
		c.mutate(func(s *State) {
			if c.msgTimer != t {
				return
			}
			c.msgTimer = nil
			s.Success = ""
			s.Error = ""
		})
	})
	c.msgTimer = t
}

func (c *Controller) stopMessageTimer() {
	if c.msgTimer != nil {
		c.msgTimer.Stop()
		c.msgTimer = nil
	}
}

// mutate applies fn under the lock and then notifies observers.
func (c *Controller) mutate(fn func(s *State)) {
	c.mu.Lock()
	fn(&c.state)
	snapshot, observers := c.state.clone(), c.observerList()
	c.mu.Unlock()

	for _, obs := range observers {
		obs(snapshot)
	}
}

// update is mutate for callers that need a value computed under the lock.
func (c *Controller) update(fn func(s *State) client.ListParams) client.ListParams {
	var out client.ListParams
	c.mutate(func(s *State) { out = fn(s) })
	return out
}

func (c *Controller) observerList() []func(State) {
	out := make([]func(State), 0, len(c.observers))
	for _, obs := range c.observers {
		out = append(out, obs)
	}
	return out
}

// ErrorMessage picks the banner text for err: the server's message for API
// errors, a connectivity hint when the server was unreachable, otherwise
// fallback.
func ErrorMessage(err error, fallback string) string {
	if apiErr, ok := client.AsAPIError(err); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	if errors.Is(err, client.ErrNoResponse) {
		return "No response received from server"
	}
	return fallback
}
