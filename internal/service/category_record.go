package service

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"coursecat-web/internal/models"
)

// OpKind is the operation a prepared record will perform against the store.
type OpKind string

const (
	OpNone   OpKind = ""
	OpCreate OpKind = "create"
	OpUpdate OpKind = "update"
	OpDelete OpKind = "delete"
)

// unresolvedParent is the sentinel returned by the hierarchy resolver when an
// ancestor is missing and may not be created.
const unresolvedParent int64 = -1

// importFields is the exact set of columns the importer reads from a row.
var importFields = []string{"name", "description", "idnumber", "visible", "deleted", "theme", "oldname"}

// updatableFields is the subset of importFields that ends up in a persisted
// category; deleted and oldname only steer the operation.
var updatableFields = []string{"name", "description", "idnumber", "visible", "theme"}

var numericPattern = regexp.MustCompile(`^[0-9]+$`)

// CategoryRecord holds one input row through its prepare/proceed lifecycle.
// Prepare validates the row and decides the operation without writing
// anything (except through the resolver's ancestor auto-creation); Proceed
// performs exactly one store mutation. Both are single-shot: calling either
// twice, or Proceed after a failed Prepare, is a caller bug and reported as
// an error rather than a row failure.
type CategoryRecord struct {
	store       CategoryStore
	policy      models.ImportPolicy
	defaults    models.CategoryDefaults
	rootName    string
	protectedID int64

	raw      map[string]string
	name     string
	parentID int64
	existing *models.Category
	do       OpKind
	final    map[string]string

	id         int64
	prepared   bool
	prepareOK  bool
	executed   bool
	errs       map[ErrorCode]string
	statuses   map[StatusCode]string
}

// RecordOptions carries the run-wide context a record needs besides its row.
type RecordOptions struct {
	Policy      models.ImportPolicy
	Defaults    models.CategoryDefaults
	RootName    string
	ProtectedID int64
}

func NewCategoryRecord(store CategoryStore, opts RecordOptions, raw map[string]string) *CategoryRecord {
	return &CategoryRecord{
		store:       store,
		policy:      opts.Policy,
		defaults:    opts.Defaults,
		rootName:    opts.RootName,
		protectedID: opts.ProtectedID,
		raw:         raw,
		parentID:    unresolvedParent,
		errs:        make(map[ErrorCode]string),
		statuses:    make(map[StatusCode]string),
	}
}

// Prepare validates the row, resolves its position in the tree and computes
// the operation and final field set. It returns false when the row is
// rejected; the reasons are in Errors(). A non-nil error is not a row
// failure but a run-fatal condition (contract violation, invalid policy or a
// failing store lookup).
func (r *CategoryRecord) Prepare() (bool, error) {
	if r.prepared {
		return false, errors.New("category record prepared twice")
	}
	r.prepared = true

	if err := r.policy.Validate(); err != nil {
		return false, err
	}

	// Mandatory fields.
	rawName, ok := r.raw["name"]
	if !ok || strings.TrimSpace(rawName) == "" {
		r.addError(ErrMissingMandatoryFields)
		return false, nil
	}

	// The id number is an external key and must look like one.
	idNumber := strings.TrimSpace(r.raw["idnumber"])
	if idNumber != "" && !numericPattern.MatchString(idNumber) {
		r.addError(ErrIDNumberNotANumber, idNumber)
		return false, nil
	}

	segments := splitPath(rawName)
	leaf := segments[len(segments)-1]
	if r.policy.StandardiseNames {
		leaf = StandardiseName(leaf)
	}
	if leaf == "" {
		r.addError(ErrMissingMandatoryFields)
		return false, nil
	}
	r.name = leaf

	// Resolve (and possibly materialize) the ancestor chain.
	resolver := r.resolver()
	parentID, err := resolver.Resolve(segments[:len(segments)-1], 0, r.policy.CreateMissingParents)
	if err != nil {
		return false, err
	}
	if parentID == unresolvedParent {
		r.addError(ErrMissingCategoryParent, rawName)
		return false, nil
	}
	r.parentID = parentID

	existing, err := r.store.FindByNameAndParent(r.name, r.parentID)
	if err != nil {
		return false, fmt.Errorf("lookup category %q: %w", r.name, err)
	}
	r.existing = existing

	// Delete branch: nothing else matters once the row asks for deletion.
	if isTruthy(r.raw["deleted"]) {
		if r.existing == nil {
			r.addError(ErrCannotDeleteNotExist, r.name)
			return false, nil
		}
		if !r.policy.AllowDeletes {
			r.addError(ErrDeletionNotAllowed)
			return false, nil
		}
		r.do = OpDelete
		r.prepareOK = true
		return true, nil
	}

	oldName := strings.TrimSpace(r.raw["oldname"])

	// Early mode-vs-existence gate.
	if r.existing != nil && r.policy.Mode == models.ModeCreateNew {
		r.addError(ErrExistsUploadNotAllowed, r.name)
		return false, nil
	}
	if r.existing == nil && !r.policy.CanCreate() && oldName == "" {
		r.addError(ErrNotExistCreateNotAllowed, r.name)
		return false, nil
	}

	// Project the whitelisted fields into the working final data.
	r.final = make(map[string]string, len(importFields))
	for _, field := range importFields {
		if value, ok := r.raw[field]; ok {
			r.final[field] = strings.TrimSpace(value)
		}
	}
	r.final["name"] = r.name

	if oldName != "" {
		return r.prepareRename(oldName)
	}

	// CreateAll resolves name collisions by incrementing instead of failing.
	if r.existing != nil && r.policy.Mode == models.ModeCreateAll {
		if err := r.incrementUntilFree(); err != nil {
			return false, err
		}
	}

	// On the create path the id number must be globally unused.
	if r.existing == nil && r.final["idnumber"] != "" {
		other, err := r.store.FindByIDNumber(r.final["idnumber"])
		if err != nil {
			return false, fmt.Errorf("lookup id number %q: %w", r.final["idnumber"], err)
		}
		if other != nil {
			r.addError(ErrIDNumberNotUnique, r.final["idnumber"])
			return false, nil
		}
	}

	// Final mode/update-mode gate.
	switch {
	case r.existing != nil && (r.policy.Mode == models.ModeCreateNew || r.policy.Mode == models.ModeCreateAll):
		r.addError(ErrExistsUploadNotAllowed, r.name)
		return false, nil
	case r.existing == nil && r.policy.Mode == models.ModeUpdateOnly:
		r.addError(ErrNotExistCreateNotAllowed, r.name)
		return false, nil
	case r.existing != nil && r.policy.Mode == models.ModeCreateOrUpdate && r.policy.UpdateMode == models.UpdateNothing:
		r.addError(ErrUpdateModeSetToNothing)
		return false, nil
	}

	if r.existing != nil {
		if r.protectedID != 0 && r.existing.ID == r.protectedID {
			r.addError(ErrCannotUpdateProtected)
			return false, nil
		}
		r.final = r.finalUpdateData(r.final, r.existing)
		r.do = OpUpdate
	} else {
		r.final = r.finalCreateData(r.final)
		r.do = OpCreate
	}

	r.prepareOK = true
	return true, nil
}

// prepareRename handles the oldname branch of Prepare.
func (r *CategoryRecord) prepareRename(oldName string) (bool, error) {
	if r.existing != nil {
		r.addError(ErrRenameNameAlreadyInUse, r.name)
		return false, nil
	}

	segments := splitPath(oldName)
	oldLeaf := segments[len(segments)-1]
	if r.policy.StandardiseNames {
		oldLeaf = StandardiseName(oldLeaf)
	}

	// The old path is never auto-created.
	resolver := r.resolver()
	oldParentID, err := resolver.Resolve(segments[:len(segments)-1], 0, false)
	if err != nil {
		return false, err
	}
	if oldParentID == unresolvedParent {
		r.addError(ErrOldHierarchyDoesNotExist, oldName)
		return false, nil
	}

	if !r.policy.CanUpdate() {
		r.addError(ErrCanOnlyRenameInUpdateMode)
		return false, nil
	}

	oldCategory, err := r.store.FindByNameAndParent(oldLeaf, oldParentID)
	if err != nil {
		return false, fmt.Errorf("lookup category %q: %w", oldLeaf, err)
	}
	if oldCategory == nil {
		r.addError(ErrRenameOldCategoryNotExist, oldName)
		return false, nil
	}

	if !r.policy.AllowRenames {
		r.addError(ErrRenamingNotAllowed)
		return false, nil
	}

	if r.final["idnumber"] != "" {
		other, err := r.store.FindByIDNumber(r.final["idnumber"])
		if err != nil {
			return false, fmt.Errorf("lookup id number %q: %w", r.final["idnumber"], err)
		}
		if other != nil && other.ID != oldCategory.ID {
			r.addError(ErrIDNumberAlreadyExists, r.final["idnumber"])
			return false, nil
		}
	}

	if r.protectedID != 0 && oldCategory.ID == r.protectedID {
		r.addError(ErrCannotUpdateProtected)
		return false, nil
	}

	r.existing = oldCategory
	r.final = r.finalUpdateData(r.final, oldCategory)
	r.do = OpUpdate
	r.addStatus(StatusRenamed, oldLeaf, r.name)
	r.prepareOK = true
	return true, nil
}

// incrementUntilFree bumps the name (and id number, when set) until neither
// collides, then treats the row as a fresh create. The id number uniqueness
// recheck deliberately happens after the increment, on the post-increment
// values.
func (r *CategoryRecord) incrementUntilFree() error {
	original := r.name
	name := r.name
	for {
		name = incrementName(name)
		found, err := r.store.FindByNameAndParent(name, r.parentID)
		if err != nil {
			return fmt.Errorf("lookup category %q: %w", name, err)
		}
		if found == nil {
			break
		}
	}
	r.name = name
	r.final["name"] = name

	if r.final["idnumber"] != "" {
		idNumber := r.final["idnumber"]
		for {
			idNumber = incrementIDNumber(idNumber)
			found, err := r.store.FindByIDNumber(idNumber)
			if err != nil {
				return fmt.Errorf("lookup id number %q: %w", idNumber, err)
			}
			if found == nil {
				break
			}
		}
		r.final["idnumber"] = idNumber
	}

	r.existing = nil
	if name != original {
		r.addStatus(StatusRenamed, original, name)
	}
	return nil
}

// finalUpdateData merges the incoming fields against an existing category:
// a field keeps its existing value when the update mode is missing-only and
// the category already has one; otherwise the incoming value wins, falling
// back to the configured default when the update mode allows defaults, and to
// the existing value last so an update never silently blanks a field.
func (r *CategoryRecord) finalUpdateData(data map[string]string, existing *models.Category) map[string]string {
	useDefaults := r.policy.UpdateMode == models.UpdateDataOrDefaults
	missingOnly := r.policy.UpdateMode == models.UpdateMissingOnly

	merged := make(map[string]string, len(updatableFields)+1)
	for _, field := range updatableFields {
		existingValue := existingFieldValue(existing, field)
		if missingOnly && existingValue != "" {
			merged[field] = existingValue
			continue
		}
		if value, ok := data[field]; ok && value != "" {
			merged[field] = value
			continue
		}
		if useDefaults {
			if value, ok := r.defaultFieldValue(field); ok {
				merged[field] = value
				continue
			}
		}
		if existingValue != "" {
			merged[field] = existingValue
		}
	}
	merged["name"] = r.name
	merged["id"] = strconv.FormatInt(existing.ID, 10)
	return merged
}

// finalCreateData fills unset fields from the configured defaults and pins
// the resolved parent and leaf name.
func (r *CategoryRecord) finalCreateData(data map[string]string) map[string]string {
	merged := make(map[string]string, len(updatableFields)+1)
	for _, field := range updatableFields {
		if value, ok := data[field]; ok && value != "" {
			merged[field] = value
			continue
		}
		if value, ok := r.defaultFieldValue(field); ok {
			merged[field] = value
		}
	}
	merged["name"] = r.name
	merged["parent"] = strconv.FormatInt(r.parentID, 10)
	return merged
}

func (r *CategoryRecord) defaultFieldValue(field string) (string, bool) {
	switch field {
	case "description":
		return r.defaults.Description, r.defaults.Description != ""
	case "theme":
		return r.defaults.Theme, r.defaults.Theme != ""
	case "visible":
		if r.defaults.Visible {
			return "1", true
		}
		return "0", true
	}
	return "", false
}

func existingFieldValue(c *models.Category, field string) string {
	switch field {
	case "name":
		return c.Name
	case "description":
		return c.Description
	case "idnumber":
		return c.IDNumber
	case "theme":
		return c.Theme
	case "visible":
		// Visibility always has a value; missing-only never overwrites it.
		if c.Visible {
			return "1"
		}
		return "0"
	}
	return ""
}

// Proceed performs the single store mutation decided by Prepare. Store
// failures become row-level errors; the returned error is reserved for
// caller contract violations.
func (r *CategoryRecord) Proceed() error {
	if !r.prepared {
		return errors.New("category record executed before prepare")
	}
	if !r.prepareOK || len(r.errs) > 0 {
		return errors.New("category record executed after failed prepare")
	}
	if r.executed {
		return errors.New("category record executed twice")
	}
	r.executed = true

	switch r.do {
	case OpDelete:
		if err := r.store.DeleteRecursive(r.existing.ID); err != nil {
			r.addError(ErrStoreDeleteFailed, r.name)
			return nil
		}
		r.id = r.existing.ID
		r.addStatus(StatusDeleted)

	case OpCreate:
		category := r.entityFromFinal()
		if err := r.store.Create(&category); err != nil {
			r.addError(ErrStoreCreateFailed, r.name)
			return nil
		}
		r.id = category.ID
		r.addStatus(StatusCreated)

	case OpUpdate:
		category := r.entityFromFinal()
		category.ID = r.existing.ID
		category.ParentID = r.existing.ParentID
		if err := r.store.Update(&category); err != nil {
			r.addError(ErrStoreUpdateFailed, r.name)
			return nil
		}
		r.id = category.ID
		r.addStatus(StatusUpdated)

	default:
		return fmt.Errorf("category record has no operation to execute")
	}
	return nil
}

func (r *CategoryRecord) entityFromFinal() models.Category {
	category := models.Category{
		Name:        r.final["name"],
		IDNumber:    r.final["idnumber"],
		Description: r.final["description"],
		Theme:       r.final["theme"],
		Visible:     true,
	}
	if v, ok := r.final["visible"]; ok {
		category.Visible = isTruthy(v)
	}
	if p, ok := r.final["parent"]; ok {
		parentID, _ := strconv.ParseInt(p, 10, 64)
		category.ParentID = parentID
	}
	return category
}

func (r *CategoryRecord) resolver() *HierarchyResolver {
	return &HierarchyResolver{
		store:       r.store,
		defaults:    r.defaults,
		rootName:    r.rootName,
		protectedID: r.protectedID,
	}
}

func (r *CategoryRecord) addError(code ErrorCode, args ...interface{}) {
	r.errs[code] = renderError(code, args...)
}

func (r *CategoryRecord) addStatus(code StatusCode, args ...interface{}) {
	r.statuses[code] = renderStatus(code, args...)
}

// Failed reports whether the record carries any error, including store
// failures recorded during Proceed.
func (r *CategoryRecord) Failed() bool {
	return len(r.errs) > 0
}

// Errors returns the rendered error messages keyed by code.
func (r *CategoryRecord) Errors() map[string]string {
	out := make(map[string]string, len(r.errs))
	for code, msg := range r.errs {
		out[string(code)] = msg
	}
	return out
}

// Statuses returns the rendered status messages keyed by code.
func (r *CategoryRecord) Statuses() map[string]string {
	out := make(map[string]string, len(r.statuses))
	for code, msg := range r.statuses {
		out[string(code)] = msg
	}
	return out
}

// Operation returns the decided operation kind.
func (r *CategoryRecord) Operation() OpKind {
	return r.do
}

// ID returns the category id assigned or matched during Proceed.
func (r *CategoryRecord) ID() int64 {
	return r.id
}

// ParentID returns the resolved parent, or -1 when unresolved.
func (r *CategoryRecord) ParentID() int64 {
	return r.parentID
}

// ReportData returns the field values to report for this row: the merged
// final data when one was computed, the raw input otherwise (failed rows and
// deletions have no final data).
func (r *CategoryRecord) ReportData() map[string]string {
	source := r.final
	if len(source) == 0 {
		source = r.raw
	}
	out := make(map[string]string, len(source))
	for k, v := range source {
		out[k] = v
	}
	return out
}

// splitPath splits a raw name into its slash-delimited segments, trimmed.
func splitPath(name string) []string {
	parts := strings.Split(name, "/")
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		segments = append(segments, strings.TrimSpace(part))
	}
	return segments
}

func isTruthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}

var trailingNumberPattern = regexp.MustCompile(`^(.*?)(\d+)$`)

// incrementName produces the next candidate name for create-all collision
// handling: a trailing number is bumped, otherwise "_2" is appended.
func incrementName(name string) string {
	if m := trailingNumberPattern.FindStringSubmatch(name); m != nil {
		n, err := strconv.Atoi(m[2])
		if err == nil {
			return m[1] + strconv.Itoa(n+1)
		}
	}
	return name + "_2"
}

func incrementIDNumber(idNumber string) string {
	n, err := strconv.Atoi(idNumber)
	if err != nil {
		return idNumber + "2"
	}
	return strconv.Itoa(n + 1)
}
