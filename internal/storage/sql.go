package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// dialect holds the statements that differ between SQL engines.
type dialect struct {
	driver     string
	migrations []string
	get        string
	put        string
	del        string
	list       string
	clear      string
}

var (
	sqliteDialect = dialect{
		driver: "sqlite",
		migrations: []string{
			`CREATE TABLE IF NOT EXISTS records (
				store TEXT NOT NULL,
				id TEXT NOT NULL,
				data BLOB NOT NULL,
				PRIMARY KEY (store, id)
			)`,
			`ALTER TABLE records ADD COLUMN updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP`,
		},
		get:   `SELECT data FROM records WHERE store = ? AND id = ?`,
		put:   `INSERT INTO records (store, id, data, updated_at) VALUES (?, ?, ?, ?) ON CONFLICT(store, id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		del:   `DELETE FROM records WHERE store = ? AND id = ?`,
		list:  `SELECT id FROM records WHERE store = ? ORDER BY id`,
		clear: `DELETE FROM records WHERE store = ?`,
	}

	postgresDialect = dialect{
		driver: "postgres",
		migrations: []string{
			`CREATE TABLE IF NOT EXISTS records (
				store TEXT NOT NULL,
				id TEXT NOT NULL,
				data BYTEA NOT NULL,
				PRIMARY KEY (store, id)
			)`,
			`ALTER TABLE records ADD COLUMN IF NOT EXISTS updated_at TIMESTAMPTZ NOT NULL DEFAULT now()`,
		},
		get:   `SELECT data FROM records WHERE store = $1 AND id = $2`,
		put:   `INSERT INTO records (store, id, data, updated_at) VALUES ($1, $2, $3, $4) ON CONFLICT (store, id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		del:   `DELETE FROM records WHERE store = $1 AND id = $2`,
		list:  `SELECT id FROM records WHERE store = $1 ORDER BY id`,
		clear: `DELETE FROM records WHERE store = $1`,
	}

	mysqlDialect = dialect{
		driver: "mysql",
		migrations: []string{
			`CREATE TABLE IF NOT EXISTS records (
				store VARCHAR(32) NOT NULL,
				id VARCHAR(191) NOT NULL,
				data LONGBLOB NOT NULL,
				PRIMARY KEY (store, id)
			) DEFAULT CHARSET=utf8mb4`,
			`ALTER TABLE records ADD COLUMN updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP`,
		},
		get:   `SELECT data FROM records WHERE store = ? AND id = ?`,
		put:   `INSERT INTO records (store, id, data, updated_at) VALUES (?, ?, ?, ?) ON DUPLICATE KEY UPDATE data = VALUES(data), updated_at = VALUES(updated_at)`,
		del:   `DELETE FROM records WHERE store = ? AND id = ?`,
		list:  `SELECT id FROM records WHERE store = ? ORDER BY id`,
		clear: `DELETE FROM records WHERE store = ?`,
	}
)

// SQL is a Port over a single records table. It backs SQLite, Postgres and MySQL.
type SQL struct {
	conn *sql.DB
	d    dialect
}

// OpenPostgres connects to Postgres with a lib/pq DSN.
func OpenPostgres(ctx context.Context, dsn string) (*SQL, error) {
	return openSQL(ctx, postgresDialect, dsn)
}

// OpenMySQL connects to MySQL with a go-sql-driver DSN.
func OpenMySQL(ctx context.Context, dsn string) (*SQL, error) {
	return openSQL(ctx, mysqlDialect, dsn)
}

func openSQL(ctx context.Context, d dialect, dsn string) (*SQL, error) {
	conn, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.driver, err)
	}
	conn.SetMaxOpenConns(5)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping %s: %w", d.driver, err)
	}

	s := &SQL{conn: conn, d: d}
	if err := s.migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQL) migrate(ctx context.Context) error {
	for _, m := range s.d.migrations {
		if _, err := s.conn.ExecContext(ctx, m); err != nil {
			// ALTER TABLE fails if the column already exists; ignore it
			if strings.Contains(m, "ALTER TABLE") && isDuplicateColumn(err) {
				continue
			}
			return fmt.Errorf("migration failed: %s: %w", m[:40], err)
		}
	}
	return nil
}

func isDuplicateColumn(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate column")
}

func (s *SQL) Get(ctx context.Context, store Store, id string) (Record, bool, error) {
	if err := validStore(store); err != nil {
		return Record{}, false, err
	}
	var data []byte
	err := s.conn.QueryRowContext(ctx, s.d.get, string(store), id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("get %s/%s: %w", store, id, err)
	}
	return Record{ID: id, Data: data}, true, nil
}

func (s *SQL) Put(ctx context.Context, store Store, rec Record) error {
	if err := validStore(store); err != nil {
		return err
	}
	if _, err := s.conn.ExecContext(ctx, s.d.put, string(store), rec.ID, rec.Data, time.Now().UTC()); err != nil {
		return fmt.Errorf("put %s/%s: %w", store, rec.ID, err)
	}
	return nil
}

func (s *SQL) Delete(ctx context.Context, store Store, id string) error {
	if err := validStore(store); err != nil {
		return err
	}
	if _, err := s.conn.ExecContext(ctx, s.d.del, string(store), id); err != nil {
		return fmt.Errorf("delete %s/%s: %w", store, id, err)
	}
	return nil
}

func (s *SQL) ListKeys(ctx context.Context, store Store) ([]string, error) {
	if err := validStore(store); err != nil {
		return nil, err
	}
	rows, err := s.conn.QueryContext(ctx, s.d.list, string(store))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", store, err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		keys = append(keys, id)
	}
	return keys, rows.Err()
}

func (s *SQL) Clear(ctx context.Context, store Store) error {
	if err := validStore(store); err != nil {
		return err
	}
	if _, err := s.conn.ExecContext(ctx, s.d.clear, string(store)); err != nil {
		return fmt.Errorf("clear %s: %w", store, err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQL) Close() error {
	return s.conn.Close()
}
