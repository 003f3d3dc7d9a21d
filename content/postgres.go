package content

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

const createActivitiesSQL = `
CREATE TABLE IF NOT EXISTS activities (
	id                   TEXT PRIMARY KEY,
	type                 TEXT NOT NULL,
	rating               CHAR(1) NOT NULL,
	intensity            SMALLINT NOT NULL,
	script               JSONB NOT NULL,
	tags                 JSONB NOT NULL DEFAULT '[]',
	source               TEXT NOT NULL DEFAULT 'bank',
	audience_scope       TEXT NOT NULL DEFAULT 'all',
	power_role           TEXT NOT NULL DEFAULT 'neutral',
	preference_keys      JSONB NOT NULL DEFAULT '[]',
	domains              JSONB NOT NULL DEFAULT '[]',
	truth_topics         JSONB NOT NULL DEFAULT '[]',
	hard_boundaries      JSONB NOT NULL DEFAULT '[]',
	required_anatomy     JSONB NOT NULL DEFAULT '[]',
	performance_pressure BOOLEAN NOT NULL DEFAULT false,
	checks               JSONB NOT NULL DEFAULT '{}',
	active               BOOLEAN NOT NULL DEFAULT true,
	approved             BOOLEAN NOT NULL DEFAULT true,
	created_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_activities_lookup ON activities(type, rating, intensity, active, approved);
CREATE INDEX IF NOT EXISTS idx_activities_scope ON activities(audience_scope);
`

// PostgresStore serves the activity bank from Postgres.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore ensures the activities table exists on the given
// pool and returns a store bound to it.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, nil
	}
	if _, err := pool.Exec(ctx, createActivitiesSQL); err != nil {
		return nil, fmt.Errorf("ensure activities table: %w", err)
	}
	slog.Info("activity bank ready", "tag", "content")
	return &PostgresStore{pool: pool}, nil
}

// FindCandidates fetches a randomized sample of items matching the hard
// filters. Anatomy and hard-limit filtering happen in SQL against the
// item's declared requirement lists.
func (s *PostgresStore) FindCandidates(ctx context.Context, q Query) ([]*Item, error) {
	if s == nil || s.pool == nil {
		return nil, nil
	}

	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	conds = append(conds, "active AND approved")
	conds = append(conds, "type = "+arg(string(q.Type)))
	conds = append(conds, "rating = "+arg(string(q.Rating)))
	conds = append(conds, "intensity >= "+arg(q.IntensityMin))
	conds = append(conds, "intensity <= "+arg(q.IntensityMax))
	if len(q.AudienceScopes) > 0 {
		conds = append(conds, "audience_scope = ANY("+arg(q.AudienceScopes)+")")
	}
	if len(q.ExcludeIDs) > 0 {
		ids := make([]string, 0, len(q.ExcludeIDs))
		for id := range q.ExcludeIDs {
			ids = append(ids, id)
		}
		conds = append(conds, "NOT (id = ANY("+arg(ids)+"))")
	}
	if len(q.HardLimits) > 0 {
		limits := make([]string, 0, len(q.HardLimits))
		for l := range q.HardLimits {
			limits = append(limits, l)
		}
		conds = append(conds, "NOT (hard_boundaries ?| "+arg(limits)+")")
	}
	// Every required anatomy tag must be available.
	if q.AnatomyAvailable != nil {
		available := make([]string, 0, len(q.AnatomyAvailable))
		for a := range q.AnatomyAvailable {
			available = append(available, a)
		}
		conds = append(conds, "NOT EXISTS (SELECT 1 FROM jsonb_array_elements_text(required_anatomy) req WHERE NOT (req = ANY("+arg(available)+")))")
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}

	sql := `
		SELECT id, type, rating, intensity, script, tags, source, audience_scope,
			power_role, preference_keys, domains, truth_topics, hard_boundaries,
			required_anatomy, performance_pressure, checks
		FROM activities
		WHERE ` + strings.Join(conds, " AND ") + `
		ORDER BY random()
		LIMIT ` + arg(limit)

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Item
	for rows.Next() {
		var it Item
		var typ, rating string
		if err := rows.Scan(&it.ID, &typ, &rating, &it.Intensity, &it.Script,
			&it.Tags, &it.Source, &it.AudienceScope, &it.PowerRole,
			&it.PreferenceKeys, &it.Domains, &it.TruthTopics,
			&it.HardBoundaries, &it.RequiredAnatomy, &it.PerformancePressure,
			&it.Checks); err != nil {
			return nil, err
		}
		it.Type = Type(typ)
		it.Rating = Rating(rating)
		out = append(out, &it)
	}
	return out, rows.Err()
}

var _ Store = (*PostgresStore)(nil)
