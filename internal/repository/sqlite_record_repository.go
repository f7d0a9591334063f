package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stwalsh4118/recordbook/internal/database"
	"github.com/stwalsh4118/recordbook/internal/models"
)

// sqliteRow is a records row as stored by SQLite. Times are Unix nanoseconds.
type sqliteRow struct {
	ID         string `db:"id"`
	Name       string `db:"name"`
	Phone      string `db:"phone"`
	Email      string `db:"email"`
	Address    string `db:"address"`
	State      string `db:"state"`
	District   string `db:"district"`
	City       string `db:"city"`
	Zipcode    string `db:"zipcode"`
	RecordDate int64  `db:"record_date"`
	CreatedAt  int64  `db:"created_at"`
	UpdatedAt  int64  `db:"updated_at"`
}

func (row sqliteRow) toModel() models.Record {
	return models.Record{
		ID:         row.ID,
		Name:       row.Name,
		Phone:      row.Phone,
		Email:      row.Email,
		Address:    row.Address,
		State:      row.State,
		District:   row.District,
		City:       row.City,
		Zipcode:    row.Zipcode,
		RecordDate: fromUnixNano(row.RecordDate),
		CreatedAt:  fromUnixNano(row.CreatedAt),
		UpdatedAt:  fromUnixNano(row.UpdatedAt),
	}
}

func toUnixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

type sqliteRecordRepository struct {
	db      *database.SQLite
	dialect sqlDialect
}

// NewSQLiteRecordRepository creates a RecordRepository backed by SQLite.
func NewSQLiteRecordRepository(db *database.SQLite) RecordRepository {
	return &sqliteRecordRepository{db: db, dialect: sqliteDialect}
}

func (r *sqliteRecordRepository) selectRecords(ctx context.Context, query string, args ...any) ([]models.Record, error) {
	var rows []sqliteRow
	if err := r.db.DB.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}

	records := make([]models.Record, len(rows))
	for i, row := range rows {
		records[i] = row.toModel()
	}
	return records, nil
}

func (r *sqliteRecordRepository) List(ctx context.Context, q ListQuery) ([]models.Record, int64, error) {
	countSQL, countArgs := r.dialect.countQuery(q.Search)
	var total int64
	if err := r.db.DB.GetContext(ctx, &total, countSQL, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("failed to count records: %w", err)
	}

	listSQL, listArgs := r.dialect.listQuery(q)
	records, err := r.selectRecords(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (r *sqliteRecordRepository) FindByID(ctx context.Context, id string) (*models.Record, error) {
	var row sqliteRow
	if err := r.db.DB.GetContext(ctx, &row, r.dialect.byIDQuery(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query record %s: %w", id, err)
	}

	rec := row.toModel()
	return &rec, nil
}

func (r *sqliteRecordRepository) FindByField(ctx context.Context, field, value string) ([]models.Record, error) {
	if !IsFilterField(field) {
		return nil, fmt.Errorf("unsupported filter field %q", field)
	}
	query, args := r.dialect.fieldQuery(field, value)
	return r.selectRecords(ctx, query, args...)
}

func (r *sqliteRecordRepository) FindByDateRange(ctx context.Context, start, end time.Time) ([]models.Record, error) {
	return r.selectRecords(ctx, r.dialect.dateRangeQuery(), toUnixNano(start), toUnixNano(end))
}

func (r *sqliteRecordRepository) Create(ctx context.Context, rec *models.Record) error {
	id := uuid.NewString()
	_, err := r.db.DB.ExecContext(ctx, r.dialect.insertQuery(),
		id, rec.Name, rec.Phone, rec.Email, rec.Address, rec.State, rec.District, rec.City, rec.Zipcode,
		toUnixNano(rec.RecordDate), toUnixNano(rec.CreatedAt), toUnixNano(rec.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	rec.ID = id
	return nil
}

func (r *sqliteRecordRepository) Replace(ctx context.Context, rec *models.Record) (bool, error) {
	res, err := r.db.DB.ExecContext(ctx, r.dialect.updateQuery(),
		rec.Name, rec.Phone, rec.Email, rec.Address, rec.State, rec.District, rec.City, rec.Zipcode,
		toUnixNano(rec.RecordDate), toUnixNano(rec.CreatedAt), toUnixNano(rec.UpdatedAt), rec.ID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update record %s: %w", rec.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read update result: %w", err)
	}
	return n > 0, nil
}

func (r *sqliteRecordRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.DB.ExecContext(ctx, r.dialect.deleteQuery(), id)
	if err != nil {
		return false, fmt.Errorf("failed to delete record %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}
	return n > 0, nil
}

func (r *sqliteRecordRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.DB.GetContext(ctx, &total, "SELECT COUNT(*) FROM records"); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return total, nil
}
