// Package sqlite provides a per-record workflow store backed by SQLite.
//
// The default file store keeps the original whole-document semantics,
// including its last-writer-wins race between concurrent processes. This
// backend is the documented opt-in fix: each workflow lives in its own row,
// so two processes appending concurrently cannot clobber each other's
// records. Select it with `storage.backend: sqlite` in the config.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/opsdeck/opsdeck/internal/log"
	"github.com/opsdeck/opsdeck/internal/workflow"
)

const schema = `
CREATE TABLE IF NOT EXISTS workflows (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	priority TEXT NOT NULL DEFAULT 'low',
	status TEXT NOT NULL DEFAULT 'todo',
	source TEXT NOT NULL DEFAULT 'manual',
	source_id TEXT NOT NULL DEFAULT '',
	steps TEXT NOT NULL DEFAULT '[]',
	estimated_time TEXT NOT NULL DEFAULT '',
	tags TEXT NOT NULL DEFAULT '[]',
	created_at TEXT NOT NULL,
	dollar_impact REAL NOT NULL DEFAULT 0
);
`

// Store persists workflows one row per record.
type Store struct {
	db *sql.DB
}

// Open connects to the database at path, creating the schema when absent.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("opening workflow database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging workflow database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrapping workflow schema: %w", err)
	}
	log.Info(log.CatDB, "Connected to workflow database", "path", path)
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns all workflow rows in creation order. Failures degrade to an
// empty collection, matching the fail-open contract of the file store.
func (s *Store) Load() []workflow.Workflow {
	rows, err := s.db.Query(`
		SELECT id, title, description, priority, status, source, source_id,
			steps, estimated_time, tags, created_at, dollar_impact
		FROM workflows
		ORDER BY created_at, id`)
	if err != nil {
		log.ErrorErr(log.CatDB, "Failed to load workflows", err)
		return []workflow.Workflow{}
	}
	defer func() { _ = rows.Close() }()

	collection := []workflow.Workflow{}
	for rows.Next() {
		w, err := scanWorkflow(rows)
		if err != nil {
			log.ErrorErr(log.CatDB, "Skipping unreadable workflow row", err)
			continue
		}
		collection = append(collection, w)
	}
	if err := rows.Err(); err != nil {
		log.ErrorErr(log.CatDB, "Workflow row iteration failed", err)
	}
	return collection
}

// Save reconciles the table against the given collection: every record is
// upserted and rows absent from the collection are removed. Errors are
// logged, never returned, so in-memory state stays authoritative for the
// session just as with the file store.
func (s *Store) Save(collection []workflow.Workflow) {
	tx, err := s.db.Begin()
	if err != nil {
		log.ErrorErr(log.CatDB, "Failed to begin save transaction", err)
		return
	}

	if err := saveTx(tx, collection); err != nil {
		log.ErrorErr(log.CatDB, "Failed to save workflows", err)
		_ = tx.Rollback()
		return
	}

	if err := tx.Commit(); err != nil {
		log.ErrorErr(log.CatDB, "Failed to commit workflow save", err)
	}
}

func saveTx(tx *sql.Tx, collection []workflow.Workflow) error {
	keep := make([]any, 0, len(collection))

	for _, w := range collection {
		steps, err := json.Marshal(w.Steps)
		if err != nil {
			return fmt.Errorf("encoding steps for %s: %w", w.ID, err)
		}
		tags, err := json.Marshal(w.Tags)
		if err != nil {
			return fmt.Errorf("encoding tags for %s: %w", w.ID, err)
		}

		_, err = tx.Exec(`
			INSERT INTO workflows (
				id, title, description, priority, status, source, source_id,
				steps, estimated_time, tags, created_at, dollar_impact
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				title = excluded.title,
				description = excluded.description,
				priority = excluded.priority,
				status = excluded.status,
				source = excluded.source,
				source_id = excluded.source_id,
				steps = excluded.steps,
				estimated_time = excluded.estimated_time,
				tags = excluded.tags,
				dollar_impact = excluded.dollar_impact`,
			w.ID, w.Title, w.Description, string(w.Priority), string(w.Status),
			string(w.Source), w.SourceID, string(steps), w.EstimatedTime,
			string(tags), w.CreatedAt, w.DollarImpact,
		)
		if err != nil {
			return fmt.Errorf("upserting %s: %w", w.ID, err)
		}
		keep = append(keep, w.ID)
	}

	if len(keep) == 0 {
		if _, err := tx.Exec(`DELETE FROM workflows`); err != nil {
			return fmt.Errorf("clearing workflows: %w", err)
		}
		return nil
	}

	placeholders := "?"
	for i := 1; i < len(keep); i++ {
		placeholders += ",?"
	}
	//nolint:gosec // G202: placeholders are literal "?" strings, values passed as args
	if _, err := tx.Exec(`DELETE FROM workflows WHERE id NOT IN (`+placeholders+`)`, keep...); err != nil {
		return fmt.Errorf("pruning removed workflows: %w", err)
	}
	return nil
}

func scanWorkflow(scanner interface{ Scan(...any) error }) (workflow.Workflow, error) {
	var (
		w         workflow.Workflow
		stepsJSON string
		tagsJSON  string
		priority  string
		status    string
		source    string
	)
	err := scanner.Scan(
		&w.ID, &w.Title, &w.Description, &priority, &status, &source,
		&w.SourceID, &stepsJSON, &w.EstimatedTime, &tagsJSON, &w.CreatedAt,
		&w.DollarImpact,
	)
	if err != nil {
		return workflow.Workflow{}, err
	}

	w.Priority = workflow.Priority(priority)
	w.Status = workflow.Status(status)
	w.Source = workflow.Source(source)

	if err := json.Unmarshal([]byte(stepsJSON), &w.Steps); err != nil {
		w.Steps = []workflow.Step{}
	}
	if err := json.Unmarshal([]byte(tagsJSON), &w.Tags); err != nil {
		w.Tags = nil
	}
	if w.Steps == nil {
		w.Steps = []workflow.Step{}
	}
	return w, nil
}
