package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/opsdeck/opsdeck/internal/log"
	"github.com/opsdeck/opsdeck/internal/workflow"
)

// DefaultFileName is the store slot's file name. The watcher filters events
// to this name, so every persistence call-site must agree on it.
const DefaultFileName = "workflows.json"

// FileStore persists the collection as a single JSON document on disk.
// Writes go through a temp file plus rename so a crash mid-write can never
// leave a truncated slot behind.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the given file path. No I/O happens
// until the first Load or Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

// Load reads the collection from disk. Missing file, unreadable file, and a
// slot that is not a JSON array all yield an empty collection: a bad slot
// must degrade the feature, not disable it. Records are decoded one by one
// so a single malformed record cannot take the rest of the slot with it.
func (s *FileStore) Load() []workflow.Workflow {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.ErrorErr(log.CatStore, "Failed to read workflow store", err, "path", s.path)
		}
		return []workflow.Workflow{}
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		log.ErrorErr(log.CatStore, "Corrupt workflow store, starting empty", err, "path", s.path)
		return []workflow.Workflow{}
	}

	collection := make([]workflow.Workflow, 0, len(raws))
	for i, raw := range raws {
		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			log.ErrorErr(log.CatStore, "Skipping unreadable workflow record", err, "path", s.path, "index", i)
			continue
		}
		collection = append(collection, rec.normalize())
	}
	return collection
}

// Save writes the whole collection to disk. Errors are logged and swallowed;
// the caller's in-memory collection stays authoritative for the session.
func (s *FileStore) Save(collection []workflow.Workflow) {
	data, err := json.MarshalIndent(collection, "", "  ")
	if err != nil {
		log.ErrorErr(log.CatStore, "Failed to serialize workflow collection", err)
		return
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatStore, "Failed to create store directory", err, "dir", dir)
		return
	}

	tmp, err := os.CreateTemp(dir, DefaultFileName+".tmp-*")
	if err != nil {
		log.ErrorErr(log.CatStore, "Failed to create temp store file", err, "dir", dir)
		return
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		log.ErrorErr(log.CatStore, "Failed to write workflow store", err, "path", tmpPath)
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return
	}
	if err := tmp.Close(); err != nil {
		log.ErrorErr(log.CatStore, "Failed to close temp store file", err, "path", tmpPath)
		_ = os.Remove(tmpPath)
		return
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		log.ErrorErr(log.CatStore, "Failed to replace workflow store", err, "path", s.path)
		_ = os.Remove(tmpPath)
		return
	}

	log.Debug(log.CatStore, "Saved workflow collection", "path", s.path, "count", len(collection))
}

// record mirrors the on-disk workflow shape but leaves the fields legacy
// writers are known to mangle as raw JSON, so one wrong-typed createdAt or
// steps value does not fail the record.
type record struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	Priority      workflow.Priority `json:"priority"`
	Status        workflow.Status   `json:"status"`
	Source        workflow.Source   `json:"source"`
	SourceID      string            `json:"sourceId"`
	Steps         json.RawMessage   `json:"steps"`
	EstimatedTime string            `json:"estimatedTime"`
	Tags          []string          `json:"tags"`
	CreatedAt     json.RawMessage   `json:"createdAt"`
	DollarImpact  float64           `json:"dollarImpact"`
}

// normalize repairs records that predate the current shape: createdAt is
// coerced to a timestamp string (now, when missing or wrong-typed) and steps
// to a list (empty, when missing or wrong-typed).
func (r record) normalize() workflow.Workflow {
	w := workflow.Workflow{
		ID:            r.ID,
		Title:         r.Title,
		Description:   r.Description,
		Priority:      r.Priority,
		Status:        r.Status,
		Source:        r.Source,
		SourceID:      r.SourceID,
		EstimatedTime: r.EstimatedTime,
		Tags:          r.Tags,
		DollarImpact:  r.DollarImpact,
	}

	if err := json.Unmarshal(r.Steps, &w.Steps); err != nil || w.Steps == nil {
		w.Steps = []workflow.Step{}
	}

	var created string
	if err := json.Unmarshal(r.CreatedAt, &created); err != nil || created == "" {
		created = time.Now().UTC().Format(time.RFC3339)
	}
	w.CreatedAt = created

	return w
}
