package repository

import (
	"context"
	"slices"
	"time"

	"github.com/stwalsh4118/recordbook/internal/models"
)

// Sort directions accepted by ListQuery.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// Listing defaults.
const (
	DefaultPage      = 1
	DefaultPageSize  = 8
	MaxPageSize      = 100
	DefaultSortField = "name"
)

// SearchFields are the record fields matched by a free-text search.
var SearchFields = []string{"name", "email", "phone", "address", "state", "district", "city", "zipcode"}

// SortFields are the record fields a listing can be ordered by.
var SortFields = []string{
	"name", "email", "phone", "address", "state", "district", "city", "zipcode",
	"recordDate", "createdAt", "updatedAt",
}

// FilterFields are the fields FindByField accepts.
var FilterFields = []string{"state", "district", "city", "zipcode"}

// ListQuery describes one page of a record listing.
type ListQuery struct {
	Search    string
	SortField string
	SortOrder string
	Page      int
	PageSize  int
}

// Normalize fills defaults and clamps out-of-range values.
func (q ListQuery) Normalize() ListQuery {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	if !IsSortField(q.SortField) {
		q.SortField = DefaultSortField
	}
	if q.SortOrder != SortAsc {
		if q.SortOrder == "" {
			q.SortOrder = SortAsc
		} else {
			q.SortOrder = SortDesc
		}
	}
	return q
}

// Offset is the number of records skipped before this page.
func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// Descending reports whether the listing sorts high to low.
func (q ListQuery) Descending() bool {
	return q.SortOrder != SortAsc
}

// IsSortField reports whether field can order a listing.
func IsSortField(field string) bool {
	return slices.Contains(SortFields, field)
}

// IsFilterField reports whether field can be used with FindByField.
func IsFilterField(field string) bool {
	return slices.Contains(FilterFields, field)
}

// RecordRepository defines data access for records. Implementations exist for
// MongoDB, PostgreSQL, SQLite and memory; all behave identically, except that
// SQLite's LIKE folds case for ASCII letters only, so a search term with
// non-ASCII letters matches case-sensitively there.
type RecordRepository interface {
	// List returns the records of one page and the total number of records
	// matching the query's search term. The query must be normalized.
	// Results are ordered by the sort field, ties broken by id.
	List(ctx context.Context, q ListQuery) ([]models.Record, int64, error)

	// FindByID returns nil, nil when no record has the id, including ids that
	// are malformed for the backing store.
	FindByID(ctx context.Context, id string) (*models.Record, error)

	// FindByField returns records whose field contains value, ignoring case.
	// field must be one of FilterFields.
	FindByField(ctx context.Context, field, value string) ([]models.Record, error)

	// FindByDateRange returns records with start <= recordDate <= end.
	FindByDateRange(ctx context.Context, start, end time.Time) ([]models.Record, error)

	// Create stores rec and assigns rec.ID.
	Create(ctx context.Context, rec *models.Record) error

	// Replace overwrites the stored record with rec.ID.
	// It returns false when no such record exists.
	Replace(ctx context.Context, rec *models.Record) (bool, error)

	// Delete removes the record with id. It returns false when none existed.
	Delete(ctx context.Context, id string) (bool, error)

	// Count returns the total number of records.
	Count(ctx context.Context) (int64, error)
}
