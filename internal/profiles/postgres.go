package profiles

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"malt-scraper/internal/config"
	"malt-scraper/pkg/models"
)

//go:embed migrations/*.sql
var migrations embed.FS

// PostgresRepository stores profiles in the malt_profiles table
type PostgresRepository struct {
	pool *pgxpool.Pool
}

var _ Repository = (*PostgresRepository)(nil)

// Connect opens a pool for cfg and verifies it
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Migrate applies the embedded migrations in name order. Each is idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) ([]string, error) {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	for _, name := range names {
		sql, err := migrations.ReadFile(name)
		if err != nil {
			return nil, err
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			return nil, fmt.Errorf("failed to apply %s: %w", name, err)
		}
	}
	return names, nil
}

const profileColumns = `id, profile_id, profile_url, status, record, last_scraped_at, created_at, updated_at`

func scanProfile(row pgx.Row) (*models.Profile, error) {
	var (
		p      models.Profile
		id     uuid.UUID
		status string
		record []byte
	)
	if err := row.Scan(&id, &p.ProfileID, &p.ProfileURL, &status, &record, &p.LastScrapedAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.ID = id.String()
	p.Status = models.ProfileStatus(status)

	if len(record) > 0 {
		var rec models.ProfileRecord
		if err := json.Unmarshal(record, &rec); err != nil {
			return nil, fmt.Errorf("failed to decode record of %s: %w", p.ProfileID, err)
		}
		p.Record = &rec
	}
	return &p, nil
}

func (r *PostgresRepository) FindByProfileID(ctx context.Context, profileID string) (*models.Profile, error) {
	p, err := scanProfile(r.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM malt_profiles WHERE profile_id = $1`, profileID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find profile %s: %w", profileID, err)
	}
	return p, nil
}

func (r *PostgresRepository) Create(ctx context.Context, profileID, profileURL string) (*models.Profile, error) {
	// the no-op update makes RETURNING yield the existing row on conflict
	p, err := scanProfile(r.pool.QueryRow(ctx,
		`INSERT INTO malt_profiles (id, profile_id, profile_url, status)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (profile_id) DO UPDATE SET profile_id = EXCLUDED.profile_id
		 RETURNING `+profileColumns,
		uuid.New(), profileID, profileURL, string(models.ProfileStatusTodo)))
	if err != nil {
		return nil, fmt.Errorf("failed to create profile %s: %w", profileID, err)
	}
	return p, nil
}

func (r *PostgresRepository) SetStatus(ctx context.Context, profile *models.Profile, status models.ProfileStatus) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE malt_profiles SET status = $1, updated_at = NOW() WHERE profile_id = $2 RETURNING updated_at`,
		string(status), profile.ProfileID,
	).Scan(&profile.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to set status of %s: %w", profile.ProfileID, err)
	}
	profile.Status = status
	return nil
}

func (r *PostgresRepository) ApplyFields(ctx context.Context, profile *models.Profile, record *models.ProfileRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	err = r.pool.QueryRow(ctx,
		`UPDATE malt_profiles
		 SET record = $1, fullname = $2, title = $3, last_scraped_at = NOW(), updated_at = NOW()
		 WHERE profile_id = $4
		 RETURNING last_scraped_at, updated_at`,
		data, record.FullName, record.Title, profile.ProfileID,
	).Scan(&profile.LastScrapedAt, &profile.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to apply fields to %s: %w", profile.ProfileID, err)
	}
	profile.Record = record
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, status models.ProfileStatus, limit int) ([]*models.Profile, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+profileColumns+` FROM malt_profiles
		 WHERE $1 = '' OR status = $1
		 ORDER BY updated_at DESC, profile_id
		 LIMIT $2`,
		string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var out []*models.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
