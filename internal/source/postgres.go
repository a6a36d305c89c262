package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/JonMunkholm/detarget/internal/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgUndefinedTable is the SQLSTATE for a missing relation.
const pgUndefinedTable = "42P01"

// PostgresSource exports one table as CSV with COPY. The table is named
// by the locator's table query parameter, optionally schema-qualified.
type PostgresSource struct {
	dsn   string
	table string
	url   *url.URL
}

func newPostgresSource(u *url.URL) (*PostgresSource, error) {
	q := u.Query()
	table := q.Get("table")
	if table == "" {
		return nil, fmt.Errorf("%w: postgres locator needs ?table=", core.ErrUnsupportedSource)
	}
	q.Del("table")

	dsn := *u
	dsn.RawQuery = q.Encode()
	return &PostgresSource{dsn: dsn.String(), table: table, url: u}, nil
}

// copyQuery builds the COPY statement with the table name quoted.
func (p *PostgresSource) copyQuery() string {
	ident := pgx.Identifier(splitQualified(p.table)).Sanitize()
	return fmt.Sprintf("COPY (SELECT * FROM %s) TO STDOUT WITH (FORMAT csv, HEADER true)", ident)
}

// Fetch connects, then streams COPY output through a pipe. Closing the
// returned reader aborts the copy and closes the connection.
func (p *PostgresSource) Fetch(ctx context.Context) (io.ReadCloser, error) {
	cfg, err := pgxpool.ParseConfig(p.dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: parse postgres url: %w", core.ErrUnsupportedSource, err)
	}
	cfg.MaxConns = 1
	cfg.MinConns = 0

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %w", core.ErrFetchFailed, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping: %w", core.ErrFetchFailed, err)
	}

	pr, pw := io.Pipe()
	query := p.copyQuery()
	go func() {
		defer pool.Close()
		err := pool.AcquireFunc(ctx, func(c *pgxpool.Conn) error {
			_, err := c.Conn().PgConn().CopyTo(ctx, pw, query)
			return err
		})
		pw.CloseWithError(p.classify(err))
	}()
	return pr, nil
}

func (p *PostgresSource) classify(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUndefinedTable {
		return fmt.Errorf("%w: table %s: %w", core.ErrResourceNotFound, p.table, err)
	}
	return fmt.Errorf("%w: copy %s: %w", core.ErrFetchFailed, p.table, err)
}

// Locator returns the URL without the password.
func (p *PostgresSource) Locator() string {
	return p.url.Redacted()
}

// splitQualified splits "schema.table" into its parts.
func splitQualified(name string) []string {
	if schema, table, ok := strings.Cut(name, "."); ok {
		return []string{schema, table}
	}
	return []string{name}
}
