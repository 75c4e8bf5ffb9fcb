package sqlrepo

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	_ "github.com/glebarez/go-sqlite"
	_ "github.com/go-sql-driver/mysql"
)

//go:embed migrations
var migrations embed.FS

// Dialect holds the statements that differ between the supported engines.
// Everything else is shared SQL with ? placeholders.
type Dialect struct {
	Name        string // "mysql" or "sqlite"
	driver      string
	upsertPlace string
}

var (
	MySQL = Dialect{
		Name:        "mysql",
		driver:      "mysql",
		upsertPlace: upsertPlaceMySQL,
	}
	SQLite = Dialect{
		Name:        "sqlite",
		driver:      "sqlite",
		upsertPlace: upsertPlaceSQLite,
	}
)

// DialectFor maps a configured driver name to its dialect.
func DialectFor(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mysql":
		return MySQL, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported database driver %q", name)
	}
}

// Open connects and pings. In-memory SQLite is pinned to one connection,
// otherwise every pooled connection would see its own empty database.
func Open(ctx context.Context, d Dialect, dsn string) (*sql.DB, error) {
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.Name, err)
	}
	if d.Name == SQLite.Name {
		if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
			db.SetMaxOpenConns(1)
		}
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite pragma: %w", err)
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", d.Name, err)
	}
	return db, nil
}

// Migrate applies the embedded schema files for the dialect in name order.
// Every statement is idempotent so Migrate is safe to run on each start.
func Migrate(ctx context.Context, db *sql.DB, d Dialect) error {
	dir := path.Join("migrations", d.Name)
	ents, err := fs.ReadDir(migrations, dir)
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && path.Ext(e.Name()) == ".sql" {
			files = append(files, path.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	for _, f := range files {
		b, err := fs.ReadFile(migrations, f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}
		for _, stmt := range splitStatements(string(b)) {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("exec %s: %w", f, err)
			}
		}
	}
	return nil
}

func splitStatements(script string) []string {
	var out []string
	for _, s := range strings.Split(script, ";") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
