package models

import "time"

// Category is one node of the course category tree. ParentID is 0 for
// top-level categories. IDNumber is an optional external key; when set it
// must be unique across the whole tree, not just among siblings.
type Category struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	ParentID    int64     `db:"parent_id" json:"parent_id"`
	IDNumber    string    `db:"id_number" json:"id_number"`
	Description string    `db:"description" json:"description"`
	Visible     bool      `db:"visible" json:"visible"`
	Theme       string    `db:"theme" json:"theme"`
	SortOrder   int       `db:"sort_order" json:"sort_order"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

type CategoryRequest struct {
	Name        string `json:"name" validate:"required"`
	ParentID    int64  `json:"parent_id"`
	IDNumber    string `json:"id_number"`
	Description string `json:"description"`
	Visible     bool   `json:"visible"`
	Theme       string `json:"theme"`
}

// CategoryDefaults holds the configured fallback values used when an import
// row omits a field and the run's update mode allows defaults.
type CategoryDefaults struct {
	Visible     bool
	Description string
	Theme       string
}
