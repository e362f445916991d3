package postgres

import "github.com/JonMunkholm/fieldprompts/internal/core"

// Statements are idempotent; EnsureSchema runs them in one transaction
// since Postgres DDL is transactional.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS field_prompts (
		id         BIGSERIAL PRIMARY KEY,
		area       TEXT NOT NULL,
		sub_area   TEXT NOT NULL,
		field      TEXT NOT NULL,
		prompt     TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT ` + core.NaturalKeyConstraint + ` UNIQUE (area, sub_area, field)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_field_prompts_area_sub_area ON field_prompts (area, sub_area)`,
	`CREATE INDEX IF NOT EXISTS idx_field_prompts_field ON field_prompts (field)`,
	`CREATE INDEX IF NOT EXISTS idx_field_prompts_updated_at ON field_prompts (updated_at)`,
	`CREATE TABLE IF NOT EXISTS ingest_runs (
		id               UUID PRIMARY KEY,
		source           TEXT NOT NULL DEFAULT '',
		total            INTEGER NOT NULL,
		inserted         INTEGER NOT NULL,
		skipped_existing INTEGER NOT NULL,
		failed           INTEGER NOT NULL,
		not_attempted    INTEGER NOT NULL,
		started_at       TIMESTAMPTZ NOT NULL,
		duration_ms      BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ingest_runs_started_at ON ingest_runs (started_at DESC)`,
}

const (
	qExists = `SELECT EXISTS (
		SELECT 1 FROM field_prompts WHERE area = $1 AND sub_area = $2 AND field = $3
	)`

	qInsertIgnore = `INSERT INTO field_prompts (area, sub_area, field, prompt, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (area, sub_area, field) DO NOTHING`

	qStats = `SELECT
		COUNT(*),
		COUNT(DISTINCT area),
		COUNT(DISTINCT sub_area),
		COUNT(*) FILTER (WHERE updated_at >= $1),
		MAX(updated_at)
	FROM field_prompts`

	qAreas = `SELECT DISTINCT area FROM field_prompts ORDER BY area`

	qSubAreas = `SELECT DISTINCT sub_area FROM field_prompts WHERE area = $1 ORDER BY sub_area`

	promptColumns = `id, area, sub_area, field, prompt, created_at, updated_at`

	qPrompts = `SELECT ` + promptColumns + ` FROM field_prompts
		WHERE area = $1 AND sub_area = $2 ORDER BY field`

	qPromptByID = `SELECT ` + promptColumns + ` FROM field_prompts WHERE id = $1`

	qPromptByKey = `SELECT ` + promptColumns + ` FROM field_prompts
		WHERE area = $1 AND sub_area = $2 AND field = $3`

	qUpdatePrompt = `UPDATE field_prompts SET prompt = $2, updated_at = $3 WHERE id = $1`

	qRecordRun = `INSERT INTO ingest_runs
		(id, source, total, inserted, skipped_existing, failed, not_attempted, started_at, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	qRuns = `SELECT id, source, total, inserted, skipped_existing, failed, not_attempted, started_at, duration_ms
		FROM ingest_runs ORDER BY started_at DESC LIMIT $1`
)
