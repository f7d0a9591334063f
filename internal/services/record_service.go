package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stwalsh4118/recordbook/internal/logger"
	"github.com/stwalsh4118/recordbook/internal/models"
	"github.com/stwalsh4118/recordbook/internal/repository"
	"github.com/stwalsh4118/recordbook/internal/validation"
)

// Service-level errors
var (
	ErrRecordNotFound   = errors.New("record not found")
	ErrInvalidField     = errors.New("unsupported filter field")
	ErrInvalidDateRange = errors.New("invalid date range")
)

const invalidRecordDateMessage = "Record date must be a valid date"

// ListParams are the listing options accepted by RecordService.List.
// Zero values select the defaults.
type ListParams struct {
	Page      int
	PageSize  int
	Search    string
	SortField string
	SortOrder string
}

// RecordService defines the business operations on records.
//
// Errors: ErrRecordNotFound when the id does not name a record, *validation.Error
// when input fails validation, and a wrapped repository error otherwise.
type RecordService interface {
	// List returns one page of records filtered by a case-insensitive search.
	List(ctx context.Context, p ListParams) (*models.RecordPage, error)

	// GetByID returns the record with id.
	GetByID(ctx context.Context, id string) (*models.Record, error)

	// Create validates and stores a new record.
	Create(ctx context.Context, in models.RecordInput) (*models.Record, error)

	// Update merges the sent fields into the stored record, re-validates and stores it.
	Update(ctx context.Context, id string, in models.RecordInput) (*models.Record, error)

	// Delete removes the record with id.
	Delete(ctx context.Context, id string) error

	// Count returns the total number of records.
	Count(ctx context.Context) (int64, error)

	// ListByField returns records whose state, district, city or zipcode
	// contains value, ignoring case.
	ListByField(ctx context.Context, field, value string) ([]models.Record, error)

	// ListByDateRange returns records with start <= recordDate <= end.
	ListByDateRange(ctx context.Context, start, end time.Time) ([]models.Record, error)
}

type recordService struct {
	repo         repository.RecordRepository
	validator    *validation.Validator
	log          *logger.Logger
	now          func() time.Time
	storeTimeout time.Duration
}

// RecordServiceOption configures a RecordService.
type RecordServiceOption func(*recordService)

// WithStoreTimeout bounds every store call. Zero leaves the request
// context as it is.
func WithStoreTimeout(d time.Duration) RecordServiceOption {
	return func(s *recordService) {
		s.storeTimeout = d
	}
}

// NewRecordService creates a new instance of RecordService.
func NewRecordService(repo repository.RecordRepository, v *validation.Validator, log *logger.Logger, opts ...RecordServiceOption) RecordService {
	s := &recordService{
		repo:      repo,
		validator: v,
		log:       log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// storeCtx derives the context for a single store call.
func (s *recordService) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.storeTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.storeTimeout)
}

// timestamp returns the current time at the precision every store keeps.
func (s *recordService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

func (s *recordService) List(ctx context.Context, p ListParams) (*models.RecordPage, error) {
	q := repository.ListQuery{
		Search:    strings.TrimSpace(p.Search),
		SortField: p.SortField,
		SortOrder: p.SortOrder,
		Page:      p.Page,
		PageSize:  p.PageSize,
	}.Normalize()

	storeCtx, cancel := s.storeCtx(ctx)
	defer cancel()
	records, total, err := s.repo.List(storeCtx, q)
	if err != nil {
		s.log.Error("Failed to list records", err, map[string]interface{}{
			"page":   q.Page,
			"search": q.Search,
		})
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	totalPages := int((total + int64(q.PageSize) - 1) / int64(q.PageSize))

	s.log.Debug("Listed records", map[string]interface{}{
		"page":      q.Page,
		"page_size": q.PageSize,
		"search":    q.Search,
		"sort":      q.SortField + " " + q.SortOrder,
		"total":     total,
	})

	return &models.RecordPage{
		Records:      records,
		TotalRecords: total,
		TotalPages:   totalPages,
		CurrentPage:  q.Page,
		PageSize:     q.PageSize,
	}, nil
}

func (s *recordService) GetByID(ctx context.Context, id string) (*models.Record, error) {
	storeCtx, cancel := s.storeCtx(ctx)
	defer cancel()
	rec, err := s.repo.FindByID(storeCtx, id)
	if err != nil {
		s.log.Error("Failed to query record", err, map[string]interface{}{"record_id": id})
		return nil, fmt.Errorf("failed to query record: %w", err)
	}
	if rec == nil {
		return nil, ErrRecordNotFound
	}
	return rec, nil
}

func (s *recordService) Create(ctx context.Context, in models.RecordInput) (*models.Record, error) {
	rec := &models.Record{}
	fieldErrs := applyInput(rec, in)
	if rec.RecordDate.IsZero() && len(fieldErrs) == 0 {
		rec.RecordDate = s.timestamp()
	}

	if err := s.validate(rec, fieldErrs); err != nil {
		s.log.Warn("Rejected invalid record", map[string]interface{}{"fields": fieldNames(err)})
		return nil, err
	}

	now := s.timestamp()
	rec.Phone = models.FormatPhone(rec.Phone)
	rec.CreatedAt = now
	rec.UpdatedAt = now

	storeCtx, cancel := s.storeCtx(ctx)
	defer cancel()
	if err := s.repo.Create(storeCtx, rec); err != nil {
		s.log.Error("Failed to create record", err, nil)
		return nil, fmt.Errorf("failed to create record: %w", err)
	}

	s.log.Info("Record created", map[string]interface{}{"record_id": rec.ID})
	return rec, nil
}

func (s *recordService) Update(ctx context.Context, id string, in models.RecordInput) (*models.Record, error) {
	rec, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fieldErrs := applyInput(rec, in)
	if err := s.validate(rec, fieldErrs); err != nil {
		s.log.Warn("Rejected invalid record update", map[string]interface{}{
			"record_id": id,
			"fields":    fieldNames(err),
		})
		return nil, err
	}

	rec.Phone = models.FormatPhone(rec.Phone)
	rec.UpdatedAt = s.timestamp()

	storeCtx, cancel := s.storeCtx(ctx)
	defer cancel()
	ok, err := s.repo.Replace(storeCtx, rec)
	if err != nil {
		s.log.Error("Failed to update record", err, map[string]interface{}{"record_id": id})
		return nil, fmt.Errorf("failed to update record: %w", err)
	}
	if !ok {
		return nil, ErrRecordNotFound
	}

	s.log.Info("Record updated", map[string]interface{}{"record_id": id})
	return rec, nil
}

func (s *recordService) Delete(ctx context.Context, id string) error {
	storeCtx, cancel := s.storeCtx(ctx)
	defer cancel()
	ok, err := s.repo.Delete(storeCtx, id)
	if err != nil {
		s.log.Error("Failed to delete record", err, map[string]interface{}{"record_id": id})
		return fmt.Errorf("failed to delete record: %w", err)
	}
	if !ok {
		return ErrRecordNotFound
	}

	s.log.Info("Record deleted", map[string]interface{}{"record_id": id})
	return nil
}

func (s *recordService) Count(ctx context.Context) (int64, error) {
	storeCtx, cancel := s.storeCtx(ctx)
	defer cancel()
	n, err := s.repo.Count(storeCtx)
	if err != nil {
		s.log.Error("Failed to count records", err, nil)
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return n, nil
}

func (s *recordService) ListByField(ctx context.Context, field, value string) ([]models.Record, error) {
	if !repository.IsFilterField(field) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidField, field)
	}

	storeCtx, cancel := s.storeCtx(ctx)
	defer cancel()
	records, err := s.repo.FindByField(storeCtx, field, strings.TrimSpace(value))
	if err != nil {
		s.log.Error("Failed to query records by field", err, map[string]interface{}{
			"field": field,
			"value": value,
		})
		return nil, fmt.Errorf("failed to query records by %s: %w", field, err)
	}
	return records, nil
}

func (s *recordService) ListByDateRange(ctx context.Context, start, end time.Time) ([]models.Record, error) {
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return nil, fmt.Errorf("%w: start must not be after end", ErrInvalidDateRange)
	}

	storeCtx, cancel := s.storeCtx(ctx)
	defer cancel()
	records, err := s.repo.FindByDateRange(storeCtx, start.UTC(), end.UTC())
	if err != nil {
		s.log.Error("Failed to query records by date range", err, map[string]interface{}{
			"start": start,
			"end":   end,
		})
		return nil, fmt.Errorf("failed to query records by date range: %w", err)
	}
	return records, nil
}

// validate runs struct validation and folds in errors found while parsing input.
func (s *recordService) validate(rec *models.Record, parseErrs validation.FieldErrors) error {
	err := s.validator.Record(rec)
	if len(parseErrs) == 0 {
		return err
	}

	fields := validation.FieldErrors{}
	if verr, ok := validation.AsError(err); ok {
		for k, v := range verr.Fields {
			fields[k] = v
		}
	} else if err != nil {
		return err
	}
	for k, v := range parseErrs {
		fields[k] = v
	}
	return validation.NewError(fields)
}

// applyInput copies the sent fields of in onto rec, trimming strings.
// A blank recordDate counts as not sent. Unparseable dates are returned as
// field errors.
func applyInput(rec *models.Record, in models.RecordInput) validation.FieldErrors {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&rec.Name, in.Name)
	set(&rec.Phone, in.Phone)
	set(&rec.Email, in.Email)
	set(&rec.Address, in.Address)
	set(&rec.State, in.State)
	set(&rec.District, in.District)
	set(&rec.City, in.City)
	set(&rec.Zipcode, in.Zipcode)

	if in.RecordDate == nil {
		return nil
	}
	raw := strings.TrimSpace(*in.RecordDate)
	if raw == "" {
		return nil
	}
	t, ok := validation.ParseRecordDate(raw)
	if !ok {
		return validation.FieldErrors{"recordDate": invalidRecordDateMessage}
	}
	rec.RecordDate = t.Truncate(time.Millisecond)
	return nil
}

func fieldNames(err error) []string {
	verr, ok := validation.AsError(err)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(verr.Fields))
	for k := range verr.Fields {
		names = append(names, k)
	}
	return names
}
