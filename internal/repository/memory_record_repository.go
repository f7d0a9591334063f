package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stwalsh4118/recordbook/internal/models"
)

// memoryRecordRepository keeps records in a map. It backs tests and
// ephemeral deployments (DB_DRIVER=memory).
type memoryRecordRepository struct {
	mu      sync.RWMutex
	records map[string]models.Record
}

// NewMemoryRecordRepository creates an empty in-memory RecordRepository.
func NewMemoryRecordRepository() RecordRepository {
	return &memoryRecordRepository{records: make(map[string]models.Record)}
}

func (r *memoryRecordRepository) List(_ context.Context, q ListQuery) ([]models.Record, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]models.Record, 0, len(r.records))
	for _, rec := range r.records {
		if matchesSearch(rec, q.Search) {
			matched = append(matched, rec)
		}
	}
	sortRecords(matched, q.SortField, q.Descending())

	total := int64(len(matched))
	start := q.Offset()
	if start >= len(matched) {
		return []models.Record{}, total, nil
	}
	end := start + q.PageSize
	if end > len(matched) {
		end = len(matched)
	}

	page := make([]models.Record, end-start)
	copy(page, matched[start:end])
	return page, total, nil
}

func (r *memoryRecordRepository) FindByID(_ context.Context, id string) (*models.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (r *memoryRecordRepository) FindByField(_ context.Context, field, value string) ([]models.Record, error) {
	if !IsFilterField(field) {
		return nil, fmt.Errorf("unsupported filter field %q", field)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	needle := strings.ToLower(value)
	out := []models.Record{}
	for _, rec := range r.records {
		if strings.Contains(strings.ToLower(fieldValue(rec, field)), needle) {
			out = append(out, rec)
		}
	}
	sortRecords(out, DefaultSortField, false)
	return out, nil
}

func (r *memoryRecordRepository) FindByDateRange(_ context.Context, start, end time.Time) ([]models.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []models.Record{}
	for _, rec := range r.records {
		if !rec.RecordDate.Before(start) && !rec.RecordDate.After(end) {
			out = append(out, rec)
		}
	}
	sortRecords(out, "recordDate", false)
	return out, nil
}

func (r *memoryRecordRepository) Create(_ context.Context, rec *models.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec.ID = uuid.NewString()
	r.records[rec.ID] = *rec
	return nil
}

func (r *memoryRecordRepository) Replace(_ context.Context, rec *models.Record) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[rec.ID]; !ok {
		return false, nil
	}
	r.records[rec.ID] = *rec
	return true, nil
}

func (r *memoryRecordRepository) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[id]; !ok {
		return false, nil
	}
	delete(r.records, id)
	return true, nil
}

func (r *memoryRecordRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.records)), nil
}

func matchesSearch(rec models.Record, search string) bool {
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	for _, field := range SearchFields {
		if strings.Contains(strings.ToLower(fieldValue(rec, field)), needle) {
			return true
		}
	}
	return false
}

func fieldValue(rec models.Record, field string) string {
	switch field {
	case "name":
		return rec.Name
	case "email":
		return rec.Email
	case "phone":
		return rec.Phone
	case "address":
		return rec.Address
	case "state":
		return rec.State
	case "district":
		return rec.District
	case "city":
		return rec.City
	case "zipcode":
		return rec.Zipcode
	default:
		return ""
	}
}

func fieldTime(rec models.Record, field string) (time.Time, bool) {
	switch field {
	case "recordDate":
		return rec.RecordDate, true
	case "createdAt":
		return rec.CreatedAt, true
	case "updatedAt":
		return rec.UpdatedAt, true
	default:
		return time.Time{}, false
	}
}

// sortRecords orders records by field, then by id, in the same direction.
func sortRecords(records []models.Record, field string, desc bool) {
	sort.SliceStable(records, func(i, j int) bool {
		c := compareField(records[i], records[j], field)
		if c == 0 {
			c = strings.Compare(records[i].ID, records[j].ID)
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func compareField(a, b models.Record, field string) int {
	if ta, ok := fieldTime(a, field); ok {
		tb, _ := fieldTime(b, field)
		return ta.Compare(tb)
	}
	return strings.Compare(fieldValue(a, field), fieldValue(b, field))
}
