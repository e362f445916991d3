package sqlite

// nowText is the current time in timeLayout form. strftime's %f gives
// milliseconds, padded here to nanosecond width.
const nowText = `(strftime('%Y-%m-%dT%H:%M:%f', 'now') || '000000Z')`

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS field_prompts (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		area       TEXT NOT NULL,
		sub_area   TEXT NOT NULL,
		field      TEXT NOT NULL,
		prompt     TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL DEFAULT ` + nowText + `,
		updated_at TEXT NOT NULL DEFAULT ` + nowText + `,
		UNIQUE (area, sub_area, field)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_field_prompts_area_sub_area ON field_prompts (area, sub_area)`,
	`CREATE INDEX IF NOT EXISTS idx_field_prompts_field ON field_prompts (field)`,
	`CREATE INDEX IF NOT EXISTS idx_field_prompts_updated_at ON field_prompts (updated_at)`,
	`CREATE TABLE IF NOT EXISTS ingest_runs (
		id               TEXT PRIMARY KEY,
		source           TEXT NOT NULL DEFAULT '',
		total            INTEGER NOT NULL,
		inserted         INTEGER NOT NULL,
		skipped_existing INTEGER NOT NULL,
		failed           INTEGER NOT NULL,
		not_attempted    INTEGER NOT NULL,
		started_at       TEXT NOT NULL,
		duration_ms      INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ingest_runs_started_at ON ingest_runs (started_at)`,
}

const (
	qExists = `SELECT EXISTS (
		SELECT 1 FROM field_prompts WHERE area = ? AND sub_area = ? AND field = ?
	)`

	qInsertIgnore = `INSERT INTO field_prompts (area, sub_area, field, prompt, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (area, sub_area, field) DO NOTHING`

	qStats = `SELECT
		COUNT(*),
		COUNT(DISTINCT area),
		COUNT(DISTINCT sub_area),
		COALESCE(SUM(CASE WHEN updated_at >= ? THEN 1 ELSE 0 END), 0),
		MAX(updated_at)
	FROM field_prompts`

	qAreas = `SELECT DISTINCT area FROM field_prompts ORDER BY area`

	qSubAreas = `SELECT DISTINCT sub_area FROM field_prompts WHERE area = ? ORDER BY sub_area`

	promptColumns = `id, area, sub_area, field, prompt, created_at, updated_at`

	qPrompts = `SELECT ` + promptColumns + ` FROM field_prompts
		WHERE area = ? AND sub_area = ? ORDER BY field`

	qPromptByID = `SELECT ` + promptColumns + ` FROM field_prompts WHERE id = ?`

	qPromptByKey = `SELECT ` + promptColumns + ` FROM field_prompts
		WHERE area = ? AND sub_area = ? AND field = ?`

	qUpdatePrompt = `UPDATE field_prompts SET prompt = ?, updated_at = ? WHERE id = ?`

	qRecordRun = `INSERT INTO ingest_runs
		(id, source, total, inserted, skipped_existing, failed, not_attempted, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	qRuns = `SELECT id, source, total, inserted, skipped_existing, failed, not_attempted, started_at, duration_ms
		FROM ingest_runs ORDER BY started_at DESC LIMIT ?`
)
