package service

import (
	"fmt"
	"strings"

	"coursecat-web/internal/models"
)

// HierarchyResolver walks a category path to a parent id, optionally
// materializing missing ancestors on the way.
type HierarchyResolver struct {
	store       CategoryStore
	defaults    models.CategoryDefaults
	rootName    string
	protectedID int64
}

func NewHierarchyResolver(store CategoryStore, defaults models.CategoryDefaults, rootName string) *HierarchyResolver {
	return &HierarchyResolver{store: store, defaults: defaults, rootName: rootName}
}

// Resolve walks the given path segments from startParentID and returns the
// resolved parent id, or -1 when an ancestor is missing and createMissing is
// false (or its auto-creation failed). A leading segment equal to the root
// alias is ignored. The returned error is reserved for store failures.
func (h *HierarchyResolver) Resolve(segments []string, startParentID int64, createMissing bool) (int64, error) {
	segments = h.stripRootAlias(segments)

	parentID := startParentID
	for i, segment := range segments {
		name := strings.TrimSpace(segment)
		if name == "" {
			continue
		}

		found, err := h.store.FindByNameAndParent(name, parentID)
		if err != nil {
			return unresolvedParent, fmt.Errorf("lookup category %q: %w", name, err)
		}
		if found != nil {
			parentID = found.ID
			continue
		}

		if !createMissing {
			return unresolvedParent, nil
		}

		created, ok := h.createAncestor(segments[:i+1])
		if !ok {
			return unresolvedParent, nil
		}
		parentID = created
	}

	return parentID, nil
}

// createAncestor builds and executes a create-new record for the path prefix
// ending at the missing segment. Any failure collapses to "unresolved"; the
// caller reports the missing-parent error on the original row. Categories
// created here are invisible to the run's per-row counters.
func (h *HierarchyResolver) createAncestor(prefix []string) (int64, bool) {
	raw := map[string]string{
		"name": strings.Join(prefix, "/"),
	}
	opts := RecordOptions{
		Policy: models.ImportPolicy{
			Mode:                 models.ModeCreateNew,
			UpdateMode:           models.UpdateNothing,
			CreateMissingParents: true,
		},
		Defaults:    h.defaults,
		RootName:    h.rootName,
		ProtectedID: h.protectedID,
	}

	record := NewCategoryRecord(h.store, opts, raw)
	ok, err := record.Prepare()
	if err != nil || !ok {
		return unresolvedParent, false
	}
	if err := record.Proceed(); err != nil || record.Failed() {
		return unresolvedParent, false
	}
	return record.ID(), true
}

func (h *HierarchyResolver) stripRootAlias(segments []string) []string {
	if len(segments) == 0 {
		return segments
	}
	if strings.EqualFold(strings.TrimSpace(segments[0]), h.rootName) {
		return segments[1:]
	}
	return segments
}
