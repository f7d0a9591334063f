package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/recordbook/internal/database"
	"github.com/stwalsh4118/recordbook/internal/models"
)

// postgresRow is a records row as scanned by pgx.
type postgresRow struct {
	ID         string    `db:"id"`
	Name       string    `db:"name"`
	Phone      string    `db:"phone"`
	Email      string    `db:"email"`
	Address    string    `db:"address"`
	State      string    `db:"state"`
	District   string    `db:"district"`
	City       string    `db:"city"`
	Zipcode    string    `db:"zipcode"`
	RecordDate time.Time `db:"record_date"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (row postgresRow) toModel() models.Record {
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
		RecordDate: row.RecordDate.UTC(),
		CreatedAt:  row.CreatedAt.UTC(),
		UpdatedAt:  row.UpdatedAt.UTC(),
	}
}

type postgresRecordRepository struct {
	db      *database.Postgres
	dialect sqlDialect
}

// NewPostgresRecordRepository creates a RecordRepository backed by PostgreSQL.
func NewPostgresRecordRepository(db *database.Postgres) RecordRepository {
	return &postgresRecordRepository{db: db, dialect: postgresDialect}
}

func (r *postgresRecordRepository) query(ctx context.Context, sql string, args ...any) ([]models.Record, error) {
	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}

	scanned, err := pgx.CollectRows(rows, pgx.RowToStructByName[postgresRow])
	if err != nil {
		return nil, fmt.Errorf("failed to scan record rows: %w", err)
	}

	records := make([]models.Record, len(scanned))
	for i, row := range scanned {
		records[i] = row.toModel()
	}
	return records, nil
}

func (r *postgresRecordRepository) List(ctx context.Context, q ListQuery) ([]models.Record, int64, error) {
	countSQL, countArgs := r.dialect.countQuery(q.Search)
	var total int64
	if err := r.db.Pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count records: %w", err)
	}

	listSQL, listArgs := r.dialect.listQuery(q)
	records, err := r.query(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (r *postgresRecordRepository) FindByID(ctx context.Context, id string) (*models.Record, error) {
	rows, err := r.db.Pool.Query(ctx, r.dialect.byIDQuery(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to query record %s: %w", id, err)
	}

	row, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[postgresRow])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan record %s: %w", id, err)
	}

	rec := row.toModel()
	return &rec, nil
}

func (r *postgresRecordRepository) FindByField(ctx context.Context, field, value string) ([]models.Record, error) {
	if !IsFilterField(field) {
		return nil, fmt.Errorf("unsupported filter field %q", field)
	}
	sql, args := r.dialect.fieldQuery(field, value)
	return r.query(ctx, sql, args...)
}

func (r *postgresRecordRepository) FindByDateRange(ctx context.Context, start, end time.Time) ([]models.Record, error) {
	return r.query(ctx, r.dialect.dateRangeQuery(), start, end)
}

func (r *postgresRecordRepository) Create(ctx context.Context, rec *models.Record) error {
	id := uuid.NewString()
	_, err := r.db.Pool.Exec(ctx, r.dialect.insertQuery(),
		id, rec.Name, rec.Phone, rec.Email, rec.Address, rec.State, rec.District, rec.City, rec.Zipcode,
		rec.RecordDate, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	rec.ID = id
	return nil
}

func (r *postgresRecordRepository) Replace(ctx context.Context, rec *models.Record) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, r.dialect.updateQuery(),
		rec.Name, rec.Phone, rec.Email, rec.Address, rec.State, rec.District, rec.City, rec.Zipcode,
		rec.RecordDate, rec.CreatedAt, rec.UpdatedAt, rec.ID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update record %s: %w", rec.ID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *postgresRecordRepository) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, r.dialect.deleteQuery(), id)
	if err != nil {
		return false, fmt.Errorf("failed to delete record %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *postgresRecordRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM records").Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return total, nil
}
