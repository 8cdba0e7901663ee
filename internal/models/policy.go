package models

import "fmt"

// ImportMode selects which of create/update operations a run permits at all.
type ImportMode string

const (
	ModeCreateNew      ImportMode = "createnew"
	ModeCreateAll      ImportMode = "createall"
	ModeCreateOrUpdate ImportMode = "createorupdate"
	ModeUpdateOnly     ImportMode = "updateonly"
)

// UpdateMode governs how incoming and existing field values are merged when a
// run updates an existing category.
type UpdateMode string

const (
	UpdateNothing        UpdateMode = "nothing"
	UpdateDataOnly       UpdateMode = "dataonly"
	UpdateDataOrDefaults UpdateMode = "dataordefaults"
	UpdateMissingOnly    UpdateMode = "missingonly"
)

func ParseImportMode(s string) (ImportMode, error) {
	switch ImportMode(s) {
	case ModeCreateNew, ModeCreateAll, ModeCreateOrUpdate, ModeUpdateOnly:
		return ImportMode(s), nil
	}
	return "", fmt.Errorf("unknown import mode %q", s)
}

func ParseUpdateMode(s string) (UpdateMode, error) {
	switch UpdateMode(s) {
	case UpdateNothing, UpdateDataOnly, UpdateDataOrDefaults, UpdateMissingOnly:
		return UpdateMode(s), nil
	}
	return "", fmt.Errorf("unknown update mode %q", s)
}

// ImportPolicy is the run-wide import policy. It is built once per run and
// never mutated afterwards; every component receives it by value.
type ImportPolicy struct {
	Mode                 ImportMode
	UpdateMode           UpdateMode
	AllowDeletes         bool
	AllowRenames         bool
	StandardiseNames     bool
	CreateMissingParents bool
}

// Validate rejects policies built from unchecked input. An invalid policy is
// a caller error, not a row error.
func (p ImportPolicy) Validate() error {
	if _, err := ParseImportMode(string(p.Mode)); err != nil {
		return err
	}
	if _, err := ParseUpdateMode(string(p.UpdateMode)); err != nil {
		return err
	}
	return nil
}

// CanCreate reports whether the mode permits creating categories at all.
func (p ImportPolicy) CanCreate() bool {
	return p.Mode != ModeUpdateOnly
}

// CanUpdate reports whether the mode/update-mode pair permits updating an
// existing category.
func (p ImportPolicy) CanUpdate() bool {
	if p.Mode != ModeUpdateOnly && p.Mode != ModeCreateOrUpdate {
		return false
	}
	return p.UpdateMode != UpdateNothing
}
