// Package warehouse reads warehouse tables through database/sql.
// SQL Server is the production driver; SQLite serves local extracts and
// tests.
package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	mssql "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/quarry/internal/core/domain"
	"github.com/custodia-labs/quarry/internal/core/ports/driven"
	"github.com/custodia-labs/quarry/internal/logger"
)

// Ensure Source implements the interface.
var _ driven.RowSource = (*Source)(nil)

// mssqlInvalidObject is SQL Server's "Invalid object name" error number.
const mssqlInvalidObject = 208

// identPattern accepts table names with an optional schema prefix.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Source is a RowSource over a database/sql handle.
type Source struct {
	db     *sql.DB
	driver domain.WarehouseDriver
}

// Connect prepares a handle without dialling. The first query or Ping
// opens the connection.
func Connect(settings domain.WarehouseSettings) (*Source, error) {
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: warehouse is not configured. Set warehouse.dsn or QUARRY_WAREHOUSE_DSN",
			domain.ErrRowSourceUnavailable)
	}

	db, err := sql.Open(driverName(settings.Driver), settings.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", domain.ErrRowSourceUnavailable, settings.Driver, err)
	}
	return New(db, settings.Driver), nil
}

// New wraps an open database handle.
func New(db *sql.DB, driver domain.WarehouseDriver) *Source {
	return &Source{db: db, driver: driver}
}

func driverName(d domain.WarehouseDriver) string {
	if d == domain.WarehouseDriverSQLite {
		return "sqlite"
	}
	return "sqlserver"
}

// ReadTable returns every row of table in source order. An unknown table
// returns domain.ErrNotFound.
func (s *Source) ReadTable(ctx context.Context, table string) (domain.TableData, error) {
	out := domain.TableData{Name: table}

	quoted, err := s.quote(table)
	if err != nil {
		return out, err
	}

	start := time.Now()
	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+quoted) //nolint:gosec // identifier is validated and quoted
	if err != nil {
		return out, s.classify(table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return out, fmt.Errorf("reading columns of %s: %w", table, err)
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return out, fmt.Errorf("reading column types of %s: %w", table, err)
	}

	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return out, fmt.Errorf("scanning %s row %d: %w", table, len(out.Rows)+1, err)
		}
		for i, v := range values {
			values[i] = normalise(types[i].DatabaseTypeName(), v)
		}
		out.Rows = append(out.Rows, domain.NewRow(cols, values))
	}
	if err := rows.Err(); err != nil {
		return out, fmt.Errorf("reading %s: %w", table, err)
	}

	logger.Debug("Read %d rows from %s in %s", len(out.Rows), table, time.Since(start).Round(time.Millisecond))
	return out, nil
}

// quote validates and quotes a possibly schema-qualified identifier.
func (s *Source) quote(table string) (string, error) {
	if !identPattern.MatchString(table) {
		return "", fmt.Errorf("%w: table name %q", domain.ErrInvalidInput, table)
	}
	parts := strings.Split(table, ".")
	for i, p := range parts {
		if s.driver == domain.WarehouseDriverSQLServer {
			parts[i] = "[" + p + "]"
		} else {
			parts[i] = `"` + p + `"`
		}
	}
	return strings.Join(parts, "."), nil
}

// classify maps query errors to domain sentinels.
func (s *Source) classify(table string, err error) error {
	var msErr mssql.Error
	switch {
	case errors.As(err, &msErr) && msErr.Number == mssqlInvalidObject:
		return fmt.Errorf("%w: table %s", domain.ErrNotFound, table)
	case strings.Contains(err.Error(), "no such table"):
		return fmt.Errorf("%w: table %s", domain.ErrNotFound, table)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: querying %s: %w", domain.ErrRowSourceUnavailable, table, err)
	}
}

// normalise converts driver-specific representations to the plain Go
// values the formatters expect. SQL Server returns DECIMAL and MONEY as
// digit strings and UNIQUEIDENTIFIER as raw bytes.
func normalise(typeName string, v any) any {
	b, ok := v.([]byte)
	if !ok {
		return v
	}
	switch strings.ToUpper(typeName) {
	case "DECIMAL", "NUMERIC", "MONEY", "SMALLMONEY":
		if f, err := strconv.ParseFloat(string(b), 64); err == nil {
			return f
		}
	case "UNIQUEIDENTIFIER":
		var id mssql.UniqueIdentifier
		if err := id.Scan(b); err == nil {
			return id.String()
		}
	case "BINARY", "VARBINARY", "IMAGE", "BLOB":
		return b
	}
	return string(b)
}

// Ping validates the warehouse is reachable.
func (s *Source) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrRowSourceUnavailable, s.driver, err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Source) Close() error {
	return s.db.Close()
}
