package repository

import (
	"strings"

	"github.com/jmoiron/sqlx"
)

const recordColumns = `id, name, phone, email, address, state, district, city, zipcode, record_date, created_at, updated_at`

// sqlColumns maps record field names to table columns.
var sqlColumns = map[string]string{
	"name":       "name",
	"email":      "email",
	"phone":      "phone",
	"address":    "address",
	"state":      "state",
	"district":   "district",
	"city":       "city",
	"zipcode":    "zipcode",
	"recordDate": "record_date",
	"createdAt":  "created_at",
	"updatedAt":  "updated_at",
}

// sqlDialect renders record queries for one SQL engine. Queries are written
// with ? placeholders and rebound for the engine.
type sqlDialect struct {
	like     string
	bindType int
}

var (
	postgresDialect = sqlDialect{like: "ILIKE", bindType: sqlx.DOLLAR}
	// SQLite's LIKE ignores case for ASCII letters only.
	sqliteDialect = sqlDialect{like: "LIKE", bindType: sqlx.QUESTION}
)

func (d sqlDialect) rebind(query string) string {
	return sqlx.Rebind(d.bindType, query)
}

// containsPattern turns s into a LIKE pattern matching s literally anywhere.
func containsPattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

func (d sqlDialect) likeClause(column string) string {
	return column + " " + d.like + ` ? ESCAPE '\'`
}

func (d sqlDialect) searchWhere(search string) (string, []any) {
	if search == "" {
		return "", nil
	}
	pattern := containsPattern(search)
	clauses := make([]string, 0, len(SearchFields))
	args := make([]any, 0, len(SearchFields))
	for _, field := range SearchFields {
		clauses = append(clauses, d.likeClause(sqlColumns[field]))
		args = append(args, pattern)
	}
	return " WHERE " + strings.Join(clauses, " OR "), args
}

func (d sqlDialect) listQuery(q ListQuery) (string, []any) {
	where, args := d.searchWhere(q.Search)
	dir := "ASC"
	if q.Descending() {
		dir = "DESC"
	}
	query := "SELECT " + recordColumns + " FROM records" + where +
		" ORDER BY " + sqlColumns[q.SortField] + " " + dir + ", id " + dir +
		" LIMIT ? OFFSET ?"
	args = append(args, q.PageSize, q.Offset())
	return d.rebind(query), args
}

func (d sqlDialect) countQuery(search string) (string, []any) {
	where, args := d.searchWhere(search)
	return d.rebind("SELECT COUNT(*) FROM records" + where), args
}

func (d sqlDialect) fieldQuery(field, value string) (string, []any) {
	query := "SELECT " + recordColumns + " FROM records WHERE " + d.likeClause(sqlColumns[field]) +
		" ORDER BY name ASC, id ASC"
	return d.rebind(query), []any{containsPattern(value)}
}

func (d sqlDialect) dateRangeQuery() string {
	return d.rebind("SELECT " + recordColumns + " FROM records WHERE record_date >= ? AND record_date <= ?" +
		" ORDER BY record_date ASC, id ASC")
}

func (d sqlDialect) byIDQuery() string {
	return d.rebind("SELECT " + recordColumns + " FROM records WHERE id = ?")
}

func (d sqlDialect) insertQuery() string {
	return d.rebind("INSERT INTO records (" + recordColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
}

func (d sqlDialect) updateQuery() string {
	return d.rebind(`UPDATE records SET name = ?, phone = ?, email = ?, address = ?, state = ?, district = ?,
		city = ?, zipcode = ?, record_date = ?, created_at = ?, updated_at = ? WHERE id = ?`)
}

func (d sqlDialect) deleteQuery() string {
	return d.rebind("DELETE FROM records WHERE id = ?")
}
