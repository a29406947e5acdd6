package config

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"
)

// InitDatabase idempotently creates authguard's schema: accounts, the RBAC
// catalog (roles/permissions/permission_fields), the grant tables joining
// them, and the mv_user_permissions materialized view the Authenticator
// reads on every authorized request. Kept POC-friendly like
// IANDYI-care-service's InitDatabase: IF NOT EXISTS everywhere, no
// migration tooling.
func InitDatabase(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS roles (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			level INTEGER NOT NULL,
			is_superuser BOOLEAN NOT NULL DEFAULT false
		)`,
		`CREATE TABLE IF NOT EXISTS user_roles (
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			role_id UUID NOT NULL REFERENCES roles(id) ON DELETE CASCADE,
			PRIMARY KEY (user_id, role_id)
		)`,
		`CREATE TABLE IF NOT EXISTS permissions (
			id UUID PRIMARY KEY,
			resource TEXT NOT NULL,
			action TEXT NOT NULL,
			operation TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			key TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS permission_fields (
			id UUID PRIMARY KEY,
			permission_id UUID NOT NULL REFERENCES permissions(id) ON DELETE CASCADE,
			src TEXT NOT NULL,
			name TEXT NOT NULL,
			UNIQUE (permission_id, src, name)
		)`,
		`CREATE TABLE IF NOT EXISTS role_permissions (
			role_id UUID NOT NULL REFERENCES roles(id) ON DELETE CASCADE,
			permission_id UUID NOT NULL REFERENCES permissions(id) ON DELETE CASCADE,
			scope TEXT NOT NULL,
			PRIMARY KEY (role_id, permission_id)
		)`,
		`CREATE TABLE IF NOT EXISTS role_permission_fields (
			role_id UUID NOT NULL,
			permission_id UUID NOT NULL,
			field_id UUID NOT NULL REFERENCES permission_fields(id) ON DELETE CASCADE,
			effect TEXT NOT NULL,
			PRIMARY KEY (role_id, permission_id, field_id),
			FOREIGN KEY (role_id, permission_id) REFERENCES role_permissions(role_id, permission_id) ON DELETE CASCADE
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("config: create schema: %w", err)
		}
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_user_roles_role_id ON user_roles(role_id)",
		"CREATE INDEX IF NOT EXISTS idx_role_permissions_permission_id ON role_permissions(permission_id)",
		"CREATE INDEX IF NOT EXISTS idx_permission_fields_permission_id ON permission_fields(permission_id)",
	}
	for _, stmt := range indexes {
		if _, err := db.Exec(stmt); err != nil {
			log.Printf("config: failed to create index: %v", err)
		}
	}

	// mv_user_permissions is the Authenticator's single read on the request
	// path: one row per (user_id, permission_key), carrying the highest-
	// level role's scope and the allow/deny field names unioned across
	// every role granting the permission. REFRESH ... CONCURRENTLY needs a
	// unique index to avoid locking reads out during a rebuild.
	if _, err := db.Exec(`
		CREATE MATERIALIZED VIEW IF NOT EXISTS mv_user_permissions AS
		WITH ranked AS (
			SELECT
				ur.user_id,
				p.id            AS permission_id,
				p.key           AS permission_key,
				p.resource,
				p.action,
				p.operation,
				p.description,
				rp.scope,
				row_number() OVER (
					PARTITION BY ur.user_id, p.id
					ORDER BY r.level DESC
				) AS rnk
			FROM user_roles ur
			JOIN roles r ON r.id = ur.role_id
			JOIN role_permissions rp ON rp.role_id = r.id
			JOIN permissions p ON p.id = rp.permission_id
		),
		winning AS (
			SELECT * FROM ranked WHERE rnk = 1
		),
		fields AS (
			SELECT
				ur.user_id,
				rpf.permission_id,
				array_agg(DISTINCT pf.name) FILTER (WHERE pf.src = 'QUERY' AND rpf.effect = 'ALLOW') AS allow_query_fields,
				array_agg(DISTINCT pf.name) FILTER (WHERE pf.src = 'JSON'  AND rpf.effect = 'ALLOW') AS allow_json_fields,
				array_agg(DISTINCT pf.name) FILTER (WHERE pf.src = 'QUERY' AND rpf.effect = 'DENY')  AS deny_query_fields,
				array_agg(DISTINCT pf.name) FILTER (WHERE pf.src = 'JSON'  AND rpf.effect = 'DENY')  AS deny_json_fields
			FROM user_roles ur
			JOIN role_permission_fields rpf ON rpf.role_id = ur.role_id
			JOIN permission_fields pf ON pf.id = rpf.field_id
			GROUP BY ur.user_id, rpf.permission_id
		)
		SELECT
			w.user_id,
			w.permission_key,
			w.resource,
			w.action,
			w.operation,
			w.description,
			w.scope,
			COALESCE(f.allow_query_fields, ARRAY[]::TEXT[]) AS allow_query_fields,
			COALESCE(f.allow_json_fields, ARRAY[]::TEXT[])  AS allow_json_fields,
			COALESCE(f.deny_query_fields, ARRAY[]::TEXT[])  AS deny_query_fields,
			COALESCE(f.deny_json_fields, ARRAY[]::TEXT[])   AS deny_json_fields
		FROM winning w
		LEFT JOIN fields f ON f.user_id = w.user_id AND f.permission_id = w.permission_id
	`); err != nil {
		return fmt.Errorf("config: create mv_user_permissions: %w", err)
	}
	if _, err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_mv_user_permissions_pk
		ON mv_user_permissions (user_id, permission_key)
	`); err != nil {
		return fmt.Errorf("config: index mv_user_permissions: %w", err)
	}

	log.Println("authguard: database schema initialized")
	return nil
}

// ConnectDatabase establishes a connection pool with bounded retry,
// following IANDYI-care-service's ConnectDatabase shape.
func ConnectDatabase(databaseURL string, maxRetries int, retryDelay time.Duration) (*sql.DB, error) {
	var db *sql.DB
	var err error

	for i := 0; i < maxRetries; i++ {
		db, err = sql.Open("postgres", databaseURL)
		if err != nil {
			log.Printf("config: open database connection (attempt %d/%d): %v", i+1, maxRetries, err)
			if i < maxRetries-1 {
				time.Sleep(retryDelay)
				continue
			}
			return nil, fmt.Errorf("config: connect to database after %d attempts: %w", maxRetries, err)
		}

		if err = db.Ping(); err != nil {
			log.Printf("config: ping database (attempt %d/%d): %v", i+1, maxRetries, err)
			db.Close()
			if i < maxRetries-1 {
				time.Sleep(retryDelay)
				continue
			}
			return nil, fmt.Errorf("config: ping database after %d attempts: %w", maxRetries, err)
		}

		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		return db, nil
	}

	return nil, fmt.Errorf("config: connect to database: %w", err)
}
