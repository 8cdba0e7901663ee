package models

import "time"

// Import session statuses.
const (
	ImportStatusUploaded   = "uploaded"
	ImportStatusQueued     = "queued"
	ImportStatusProcessing = "processing"
	ImportStatusCompleted  = "completed"
	ImportStatusFailed     = "failed"
	ImportStatusCanceled   = "canceled"
)

type ImportSession struct {
	ID                   int       `db:"id" json:"id"`
	SessionCode          string    `db:"session_code" json:"session_code"`
	UserID               int       `db:"user_id" json:"user_id"`
	Filename             string    `db:"filename" json:"filename"`
	FilePath             string    `db:"file_path" json:"file_path"`
	Mode                 string    `db:"mode" json:"mode"`
	UpdateMode           string    `db:"update_mode" json:"update_mode"`
	AllowDeletes         bool      `db:"allow_deletes" json:"allow_deletes"`
	AllowRenames         bool      `db:"allow_renames" json:"allow_renames"`
	StandardiseNames     bool      `db:"standardise_names" json:"standardise_names"`
	CreateMissingParents bool      `db:"create_missing_parents" json:"create_missing_parents"`
	TotalRows            int       `db:"total_rows" json:"total_rows"`
	CreatedCount         int       `db:"created_count" json:"created_count"`
	UpdatedCount         int       `db:"updated_count" json:"updated_count"`
	DeletedCount         int       `db:"deleted_count" json:"deleted_count"`
	ErrorCount           int       `db:"error_count" json:"error_count"`
	Status               string    `db:"status" json:"status"`
	ErrorMessage         string    `db:"error_message" json:"error_message"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}

// Policy rebuilds the run's immutable policy value from the stored columns.
func (s *ImportSession) Policy() (ImportPolicy, error) {
	mode, err := ParseImportMode(s.Mode)
	if err != nil {
		return ImportPolicy{}, err
	}
	updateMode, err := ParseUpdateMode(s.UpdateMode)
	if err != nil {
		return ImportPolicy{}, err
	}
	return ImportPolicy{
		Mode:                 mode,
		UpdateMode:           updateMode,
		AllowDeletes:         s.AllowDeletes,
		AllowRenames:         s.AllowRenames,
		StandardiseNames:     s.StandardiseNames,
		CreateMissingParents: s.CreateMissingParents,
	}, nil
}

// ImportRow is the persisted outcome of one input line. Messages and RawData
// are JSON-encoded maps (code -> message, column -> value).
type ImportRow struct {
	ID         int64     `db:"id" json:"id"`
	SessionID  int       `db:"session_id" json:"session_id"`
	LineNumber int       `db:"line_number" json:"line_number"`
	Succeeded  bool      `db:"succeeded" json:"succeeded"`
	Operation  string    `db:"operation" json:"operation"`
	CategoryID int64     `db:"category_id" json:"category_id"`
	Messages   string    `db:"messages" json:"messages"`
	RawData    string    `db:"raw_data" json:"raw_data"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// ImportStats aggregates one run's outcome counters.
type ImportStats struct {
	Total   int `json:"total"`
	Created int `json:"created"`
	Updated int `json:"updated"`
	Deleted int `json:"deleted"`
	Errors  int `json:"errors"`
}
