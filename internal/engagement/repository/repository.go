package repository

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/joinsangha/storefront/internal/engagement/domain"
	"github.com/joinsangha/storefront/pkg/database"
)

//go:embed migrations
var migrationsFS embed.FS

const migrationsTable = "blog_stats_schema_migrations"

type StatsRepository interface {
	Increment(ctx context.Context, postID string, views float64, likes int64) (domain.Stats, error)
	GetStats(ctx context.Context, postID string) (map[string]domain.Stats, error)
}

type dialect struct {
	name      string
	increment string
	selectAll string
	selectOne string
	migrate   func(*sql.DB, database.Migration) error
}

// Both upserts create the row on first touch and apply the deltas in the
// same statement. Likes never drop below zero.
var (
	postgresDialect = dialect{
		name: "postgres",
		increment: `
			INSERT INTO blog_stats (post_id, views, likes)
			VALUES ($1, $2::numeric, GREATEST(0, $3::integer))
			ON CONFLICT (post_id) DO UPDATE SET
				views = blog_stats.views + $2::numeric,
				likes = GREATEST(0, blog_stats.likes + $3::integer),
				updated_at = NOW()
			RETURNING views, likes`,
		selectAll: `SELECT post_id, views, likes FROM blog_stats ORDER BY post_id`,
		selectOne: `SELECT post_id, views, likes FROM blog_stats WHERE post_id = $1`,
		migrate:   database.MigratePostgres,
	}

	sqliteDialect = dialect{
		name: "sqlite",
		increment: `
			INSERT INTO blog_stats (post_id, views, likes)
			VALUES (?1, ?2, MAX(0, ?3))
			ON CONFLICT (post_id) DO UPDATE SET
				views = views + ?2,
				likes = MAX(0, likes + ?3),
				updated_at = CURRENT_TIMESTAMP
			RETURNING views, likes`,
		selectAll: `SELECT post_id, views, likes FROM blog_stats ORDER BY post_id`,
		selectOne: `SELECT post_id, views, likes FROM blog_stats WHERE post_id = ?1`,
		migrate:   database.MigrateSQLite,
	}
)

type Repository struct {
	db      *sql.DB
	dialect dialect
}

func NewPostgresRepository(db *sql.DB) *Repository {
	return &Repository{db: db, dialect: postgresDialect}
}

func NewSQLiteRepository(db *sql.DB) *Repository {
	return &Repository{db: db, dialect: sqliteDialect}
}

func (r *Repository) RunMigrations() error {
	return r.dialect.migrate(r.db, database.Migration{
		FS:    migrationsFS,
		Dir:   "migrations/" + r.dialect.name,
		Table: migrationsTable,
	})
}

func (r *Repository) Increment(ctx context.Context, postID string, views float64, likes int64) (domain.Stats, error) {
	var s domain.Stats
	err := r.db.QueryRowContext(ctx, r.dialect.increment, postID, views, likes).Scan(&s.Views, &s.Likes)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("failed to update blog stats: %w", err)
	}
	return s, nil
}

// GetStats returns every record, or only postID's when it is set. An unknown
// post yields an empty map.
func (r *Repository) GetStats(ctx context.Context, postID string) (map[string]domain.Stats, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if postID == "" {
		rows, err = r.db.QueryContext(ctx, r.dialect.selectAll)
	} else {
		rows, err = r.db.QueryContext(ctx, r.dialect.selectOne, postID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query blog stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]domain.Stats)
	for rows.Next() {
		var (
			id string
			s  domain.Stats
		)
		if err := rows.Scan(&id, &s.Views, &s.Likes); err != nil {
			return nil, fmt.Errorf("failed to scan blog stats: %w", err)
		}
		stats[id] = s
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return stats, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}
