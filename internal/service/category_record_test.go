package service

import (
	"errors"
	"testing"

	"coursecat-web/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory CategoryStore used by the engine tests.
type fakeStore struct {
	nextID     int64
	categories map[int64]*models.Category

	failCreate bool
	failUpdate bool
	failDelete bool
	lookupErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{categories: make(map[int64]*models.Category)}
}

func (s *fakeStore) seed(name string, parentID int64, idNumber string) *models.Category {
	s.nextID++
	c := &models.Category{
		ID:       s.nextID,
		Name:     name,
		ParentID: parentID,
		IDNumber: idNumber,
		Visible:  true,
	}
	s.categories[c.ID] = c
	return c
}

func (s *fakeStore) FindByNameAndParent(name string, parentID int64) (*models.Category, error) {
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	for _, c := range s.categories {
		if c.Name == name && c.ParentID == parentID {
			clone := *c
			return &clone, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) FindByIDNumber(idNumber string) (*models.Category, error) {
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	for _, c := range s.categories {
		if c.IDNumber != "" && c.IDNumber == idNumber {
			clone := *c
			return &clone, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) Create(category *models.Category) error {
	if s.failCreate {
		return errors.New("insert failed")
	}
	s.nextID++
	category.ID = s.nextID
	clone := *category
	s.categories[clone.ID] = &clone
	return nil
}

func (s *fakeStore) Update(category *models.Category) error {
	if s.failUpdate {
		return errors.New("update failed")
	}
	existing, ok := s.categories[category.ID]
	if !ok {
		return errors.New("no such category")
	}
	existing.Name = category.Name
	existing.IDNumber = category.IDNumber
	existing.Description = category.Description
	existing.Visible = category.Visible
	existing.Theme = category.Theme
	return nil
}

func (s *fakeStore) DeleteRecursive(id int64) error {
	if s.failDelete {
		return errors.New("delete failed")
	}
	frontier := []int64{id}
	for len(frontier) > 0 {
		var next []int64
		for _, pid := range frontier {
			for _, c := range s.categories {
				if c.ParentID == pid {
					next = append(next, c.ID)
				}
			}
			delete(s.categories, pid)
		}
		frontier = next
	}
	return nil
}

func (s *fakeStore) byName(name string, parentID int64) *models.Category {
	c, _ := s.FindByNameAndParent(name, parentID)
	return c
}

func defaultOptions(policy models.ImportPolicy) RecordOptions {
	return RecordOptions{
		Policy:   policy,
		Defaults: models.CategoryDefaults{Visible: true},
		RootName: "Top",
	}
}

func createPolicy() models.ImportPolicy {
	return models.ImportPolicy{
		Mode:                 models.ModeCreateNew,
		UpdateMode:           models.UpdateNothing,
		StandardiseNames:     true,
		CreateMissingParents: true,
	}
}

func updatePolicy(updateMode models.UpdateMode) models.ImportPolicy {
	return models.ImportPolicy{
		Mode:                 models.ModeCreateOrUpdate,
		UpdateMode:           updateMode,
		StandardiseNames:     true,
		CreateMissingParents: true,
	}
}

func runRecord(t *testing.T, store CategoryStore, opts RecordOptions, raw map[string]string) *CategoryRecord {
	t.Helper()
	record := NewCategoryRecord(store, opts, raw)
	ok, err := record.Prepare()
	require.NoError(t, err)
	require.True(t, ok, "prepare rejected the row: %v", record.Errors())
	require.NoError(t, record.Proceed())
	return record
}

func TestRecordCreatesTopLevelCategory(t *testing.T) {
	store := newFakeStore()

	record := runRecord(t, store, defaultOptions(createPolicy()), map[string]string{
		"name":        "Science",
		"idnumber":    "1001",
		"description": "All science courses",
	})

	assert.Equal(t, OpCreate, record.Operation())
	assert.False(t, record.Failed())
	assert.Contains(t, record.Statuses(), string(StatusCreated))

	created := store.byName("Science", 0)
	require.NotNil(t, created)
	assert.Equal(t, record.ID(), created.ID)
	assert.Equal(t, "1001", created.IDNumber)
	assert.Equal(t, "All science courses", created.Description)
	assert.True(t, created.Visible)
}

func TestRecordCreatesUnderExistingParent(t *testing.T) {
	store := newFakeStore()
	parent := store.seed("Science", 0, "")

	record := runRecord(t, store, defaultOptions(createPolicy()), map[string]string{
		"name": "Science/Physics",
	})

	assert.Equal(t, parent.ID, record.ParentID())
	created := store.byName("Physics", parent.ID)
	require.NotNil(t, created)
}

func TestRecordAutoCreatesMissingAncestors(t *testing.T) {
	store := newFakeStore()

	record := runRecord(t, store, defaultOptions(createPolicy()), map[string]string{
		"name": "Humanities/History/Modern",
	})

	humanities := store.byName("Humanities", 0)
	require.NotNil(t, humanities)
	history := store.byName("History", humanities.ID)
	require.NotNil(t, history)
	modern := store.byName("Modern", history.ID)
	require.NotNil(t, modern)
	assert.Equal(t, history.ID, record.ParentID())
	assert.Equal(t, modern.ID, record.ID())
}

func TestRecordStripsRootAlias(t *testing.T) {
	store := newFakeStore()

	record := runRecord(t, store, defaultOptions(createPolicy()), map[string]string{
		"name": "Top/Science",
	})

	assert.Equal(t, int64(0), record.ParentID())
	require.NotNil(t, store.byName("Science", 0))
	assert.Equal(t, OpCreate, record.Operation())
}

func TestRecordRejectsMissingName(t *testing.T) {
	for _, raw := range []map[string]string{
		{},
		{"name": "   "},
		{"name": "<b></b>"},
	} {
		store := newFakeStore()
		record := NewCategoryRecord(store, defaultOptions(createPolicy()), raw)
		ok, err := record.Prepare()
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Contains(t, record.Errors(), string(ErrMissingMandatoryFields))
	}
}

func TestRecordRejectsNonNumericIDNumber(t *testing.T) {
	store := newFakeStore()
	record := NewCategoryRecord(store, defaultOptions(createPolicy()), map[string]string{
		"name":     "Science",
		"idnumber": "SCI-1",
	})
	ok, err := record.Prepare()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, record.Errors(), string(ErrIDNumberNotANumber))
}

func TestRecordRejectsMissingParentWhenAutoCreateDisabled(t *testing.T) {
	store := newFakeStore()
	policy := createPolicy()
	policy.CreateMissingParents = false

	record := NewCategoryRecord(store, defaultOptions(policy), map[string]string{
		"name": "Science/Physics",
	})
	ok, err := record.Prepare()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, record.Errors(), string(ErrMissingCategoryParent))
	assert.Equal(t, int64(-1), record.ParentID())
	assert.Nil(t, store.byName("Science", 0))
}

func TestRecordRejectsExistingInCreateNewMode(t *testing.T) {
	store := newFakeStore()
	store.seed("Science", 0, "")

	record := NewCategoryRecord(store, defaultOptions(createPolicy()), map[string]string{
		"name": "Science",
	})
	ok, err := record.Prepare()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, record.Errors(), string(ErrExistsUploadNotAllowed))
}

func TestRecordRejectsMissingInUpdateOnlyMode(t *testing.T) {
	store := newFakeStore()
	policy := updatePolicy(models.UpdateDataOnly)
	policy.Mode = models.ModeUpdateOnly

	record := NewCategoryRecord(store, defaultOptions(policy), map[string]string{
		"name": "Science",
	})
	ok, err := record.Prepare()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, record.Errors(), string(ErrNotExistCreateNotAllowed))
}

func TestRecordRejectsUpdateWhenUpdateModeNothing(t *testing.T) {
	store := newFakeStore()
	store.seed("Science", 0, "")

	record := NewCategoryRecord(store, defaultOptions(updatePolicy(models.UpdateNothing)), map[string]string{
		"name": "Science",
	})
	ok, err := record.Prepare()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, record.Errors(), string(ErrUpdateModeSetToNothing))
}

func TestRecordUpdateDataOnly(t *testing.T) {
	store := newFakeStore()
	existing := store.seed("Science", 0, "1001")
	existing.Description = "Old description"
	existing.Theme = "classic"

	record := runRecord(t, store, defaultOptions(updatePolicy(models.UpdateDataOnly)), map[string]string{
		"name":        "Science",
		"description": "New description",
	})

	assert.Equal(t, OpUpdate, record.Operation())
	assert.Contains(t, record.Statuses(), string(StatusUpdated))

	updated := store.categories[existing.ID]
	assert.Equal(t, "New description", updated.Description)
	// Fields the row left empty keep their stored values.
	assert.Equal(t, "1001", updated.IDNumber)
	assert.Equal(t, "classic", updated.Theme)
}

func TestRecordUpdateDataOrDefaults(t *testing.T) {
	store := newFakeStore()
	existing := store.seed("Science", 0, "")
	existing.Description = "Old description"

	opts := defaultOptions(updatePolicy(models.UpdateDataOrDefaults))
	opts.Defaults.Description = "Default description"
	opts.Defaults.Theme = "standard"

	runRecord(t, store, opts, map[string]string{
		"name":  "Science",
		"theme": "ocean",
	})

	updated := store.categories[existing.ID]
	// Incoming wins, the default fills what the row left empty.
	assert.Equal(t, "ocean", updated.Theme)
	assert.Equal(t, "Default description", updated.Description)
}

func TestRecordUpdateMissingOnly(t *testing.T) {
	store := newFakeStore()
	existing := store.seed("Science", 0, "")
	existing.Description = "Original description"
	existing.Visible = false

	runRecord(t, store, defaultOptions(updatePolicy(models.UpdateMissingOnly)), map[string]string{
		"name":        "Science",
		"description": "Should not replace",
		"theme":       "ocean",
		"visible":     "1",
	})

	updated := store.categories[existing.ID]
	// Only the empty theme is filled; description and visibility survive.
	assert.Equal(t, "Original description", updated.Description)
	assert.Equal(t, "ocean", updated.Theme)
	assert.False(t, updated.Visible)
}

func TestRecordDeleteRemovesSubtree(t *testing.T) {
	store := newFakeStore()
	science := store.seed("Science", 0, "")
	physics := store.seed("Physics", science.ID, "")
	store.seed("Mechanics", physics.ID, "")

	policy := createPolicy()
	policy.AllowDeletes = true

	record := runRecord(t, store, defaultOptions(policy), map[string]string{
		"name":    "Science",
		"deleted": "1",
	})

	assert.Equal(t, OpDelete, record.Operation())
	assert.Contains(t, record.Statuses(), string(StatusDeleted))
	assert.Empty(t, store.categories)
}

func TestRecordDeleteRequiresExistingCategory(t *testing.T) {
	store := newFakeStore()
	policy := createPolicy()
	policy.AllowDeletes = true

	record := NewCategoryRecord(store, defaultOptions(policy), map[string]string{
		"name":    "Ghost",
		"deleted": "yes",
	})
	ok, err := record.Prepare()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, record.Errors(), string(ErrCannotDeleteNotExist))
}

func TestRecordDeleteRequiresPermission(t *testing.T) {
	store := newFakeStore()
	store.seed("Science", 0, "")

	record := NewCategoryRecord(store, defaultOptions(createPolicy()), map[string]string{
		"name":    "Science",
		"deleted": "1",
	})
	ok, err := record.Prepare()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, record.Errors(), string(ErrDeletionNotAllowed))
	require.NotNil(t, store.byName("Science", 0))
}

func TestRecordRename(t *testing.T) {
	store := newFakeStore()
	existing := store.seed("Life Sciences", 0, "1005")

	policy := updatePolicy(models.UpdateDataOnly)
	policy.AllowRenames = true

	record := runRecord(t, store, defaultOptions(policy), map[string]string{
		"name":    "Biology",
		"oldname": "Life Sciences",
	})

	assert.Equal(t, OpUpdate, record.Operation())
	assert.Contains(t, record.Statuses(), string(StatusRenamed))

	renamed := store.categories[existing.ID]
	assert.Equal(t, "Biology", renamed.Name)
	assert.Equal(t, int64(0), renamed.ParentID)
	// A rename never loses the external key.
	assert.Equal(t, "1005", renamed.IDNumber)
}

func TestRecordRenameDoesNotRepeat(t *testing.T) {
	store := newFakeStore()
	existing := store.seed("Life Sciences", 0, "")

	policy := updatePolicy(models.UpdateDataOnly)
	policy.AllowRenames = true

	raw := map[string]string{"name": "Biology", "oldname": "Life Sciences"}
	runRecord(t, store, defaultOptions(policy), raw)

	// Replaying the same row fails instead of renaming again.
	second := NewCategoryRecord(store, defaultOptions(policy), raw)
	ok, err := second.Prepare()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, second.Errors(), string(ErrRenameNameAlreadyInUse))
	assert.Equal(t, "Biology", store.categories[existing.ID].Name)
}

func TestRecordRenameRejectsNameInUse(t *testing.T) {
	store := newFakeStore()
	store.seed("Life Sciences", 0, "")
	store.seed("Biology", 0, "")

	policy := updatePolicy(models.UpdateDataOnly)
	policy.AllowRenames = true

	record := NewCategoryRecord(store, defaultOptions(policy), map[string]string{
		"name":    "Biology",
		"oldname": "Life Sciences",
	})
	ok, err := record.Prepare()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, record.Errors(), string(ErrRenameNameAlreadyInUse))
}

func TestRecordRenameRejectsMissingOldHierarchy(t *testing.T) {
	store := newFakeStore()

	policy := updatePolicy(models.UpdateDataOnly)
	policy.AllowRenames = true

	record := NewCategoryRecord(store, defaultOptions(policy), map[string]string{
		"name":    "Biology",
		"oldname": "Faculty/Life Sciences",
	})
	ok, err := record.Prepare()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, record.Errors(), string(ErrOldHierarchyDoesNotExist))
}

func TestRecordRenameRequiresUpdateMode(t *testing.T) {
	store := newFakeStore()
	store.seed("Life Sciences", 0, "")

	policy := createPolicy()
	policy.AllowRenames = true

	record := NewCategoryRecord(store, defaultOptions(policy), map[string]string{
		"name":    "Biology",
		"oldname": "Life Sciences",
	})
	ok, err := record.Prepare()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, record.Errors(), string(ErrCanOnlyRenameInUpdateMode))
}

func TestRecordRenameRejectsMissingOldCategory(t *testing.T) {
	store := newFakeStore()

	policy := updatePolicy(models.UpdateDataOnly)
	policy.AllowRenames = true

	record := NewCategoryRecord(store, defaultOptions(policy), map[string]string{
		"name":    "Biology",
		"oldname": "Life Sciences",
	})
	ok, err := record.Prepare()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, record.Errors(), string(ErrRenameOldCategoryNotExist))
}

func TestRecordRenameRequiresPermission(t *testing.T) {
	store := newFakeStore()
	store.seed("Life Sciences", 0, "")

	record := NewCategoryRecord(store, defaultOptions(updatePolicy(models.UpdateDataOnly)), map[string]string{
		"name":    "Biology",
		"oldname": "Life Sciences",
	})
	ok, err := record.Prepare()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, record.Errors(), string(ErrRenamingNotAllowed))
}

func TestRecordRenameRejectsForeignIDNumber(t *testing.T) {
	store := newFakeStore()
	store.seed("Life Sciences", 0, "1005")
	store.seed("Chemistry", 0, "1006")

	policy := updatePolicy(models.UpdateDataOnly)
	policy.AllowRenames = true

	record := NewCategoryRecord(store, defaultOptions(policy), map[string]string{
		"name":     "Biology",
		"oldname":  "Life Sciences",
		"idnumber": "1006",
	})
	ok, err := record.Prepare()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, record.Errors(), string(ErrIDNumberAlreadyExists))
}

func TestRecordRenameAllowsKeepingOwnIDNumber(t *testing.T) {
	store := newFakeStore()
	existing := store.seed("Life Sciences", 0, "1005")

	policy := updatePolicy(models.UpdateDataOnly)
	policy.AllowRenames = true

	runRecord(t, store, defaultOptions(policy), map[string]string{
		"name":     "Biology",
		"oldname":  "Life Sciences",
		"idnumber": "1005",
	})

	assert.Equal(t, "Biology", store.categories[existing.ID].Name)
}

func TestRecordCreateRejectsDuplicateIDNumber(t *testing.T) {
	store := newFakeStore()
	store.seed("Science", 0, "1001")

	record := NewCategoryRecord(store, defaultOptions(createPolicy()), map[string]string{
		"name":     "Arts",
		"idnumber": "1001",
	})
	ok, err := record.Prepare()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, record.Errors(), string(ErrIDNumberNotUnique))
}

func TestRecordCreateAllIncrementsCollidingName(t *testing.T) {
	store := newFakeStore()
	store.seed("Science", 0, "1001")

	policy := createPolicy()
	policy.Mode = models.ModeCreateAll

	record := runRecord(t, store, defaultOptions(policy), map[string]string{
		"name":     "Science",
		"idnumber": "1001",
	})

	assert.Equal(t, OpCreate, record.Operation())
	assert.Contains(t, record.Statuses(), string(StatusRenamed))

	created := store.byName("Science_2", 0)
	require.NotNil(t, created)
	// The id number is bumped past the collision too.
	assert.Equal(t, "1002", created.IDNumber)
}

func TestRecordCreateAllIncrementsTrailingNumber(t *testing.T) {
	store := newFakeStore()
	store.seed("Cohort 2025", 0, "")
	store.seed("Cohort 2026", 0, "")

	policy := createPolicy()
	policy.Mode = models.ModeCreateAll

	runRecord(t, store, defaultOptions(policy), map[string]string{
		"name": "Cohort 2025",
	})

	require.NotNil(t, store.byName("Cohort 2027", 0))
}

func TestRecordProtectedCategoryCannotBeUpdated(t *testing.T) {
	store := newFakeStore()
	protected := store.seed("Miscellaneous", 0, "")

	opts := defaultOptions(updatePolicy(models.UpdateDataOnly))
	opts.ProtectedID = protected.ID

	record := NewCategoryRecord(store, opts, map[string]string{
		"name":        "Miscellaneous",
		"description": "nope",
	})
	ok, err := record.Prepare()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, record.Errors(), string(ErrCannotUpdateProtected))
}

func TestRecordStoreFailureIsRowError(t *testing.T) {
	store := newFakeStore()
	store.failCreate = true

	record := NewCategoryRecord(store, defaultOptions(createPolicy()), map[string]string{
		"name": "Science",
	})
	ok, err := record.Prepare()
	require.NoError(t, err)
	require.True(t, ok)

	// The store failing is a row outcome, not a run-fatal error.
	require.NoError(t, record.Proceed())
	assert.True(t, record.Failed())
	assert.Contains(t, record.Errors(), string(ErrStoreCreateFailed))
}

func TestRecordLookupFailureIsFatal(t *testing.T) {
	store := newFakeStore()
	store.lookupErr = errors.New("connection lost")

	record := NewCategoryRecord(store, defaultOptions(createPolicy()), map[string]string{
		"name": "Science",
	})
	_, err := record.Prepare()
	require.Error(t, err)
}

func TestRecordLifecycleContracts(t *testing.T) {
	t.Run("prepare twice", func(t *testing.T) {
		record := NewCategoryRecord(newFakeStore(), defaultOptions(createPolicy()), map[string]string{"name": "Science"})
		_, err := record.Prepare()
		require.NoError(t, err)
		_, err = record.Prepare()
		require.Error(t, err)
	})

	t.Run("proceed before prepare", func(t *testing.T) {
		record := NewCategoryRecord(newFakeStore(), defaultOptions(createPolicy()), map[string]string{"name": "Science"})
		require.Error(t, record.Proceed())
	})

	t.Run("proceed after failed prepare", func(t *testing.T) {
		record := NewCategoryRecord(newFakeStore(), defaultOptions(createPolicy()), map[string]string{})
		ok, err := record.Prepare()
		require.NoError(t, err)
		require.False(t, ok)
		require.Error(t, record.Proceed())
	})

	t.Run("proceed twice", func(t *testing.T) {
		record := NewCategoryRecord(newFakeStore(), defaultOptions(createPolicy()), map[string]string{"name": "Science"})
		ok, err := record.Prepare()
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, record.Proceed())
		require.Error(t, record.Proceed())
	})
}

func TestRecordReportDataFallsBackToRaw(t *testing.T) {
	raw := map[string]string{"idnumber": "abc"}
	record := NewCategoryRecord(newFakeStore(), defaultOptions(createPolicy()), raw)
	ok, err := record.Prepare()
	require.NoError(t, err)
	require.False(t, ok)
	assert.Equal(t, raw, record.ReportData())
}

func TestIsTruthy(t *testing.T) {
	for _, v := range []string{"1", "true", "YES", " y ", "On"} {
		assert.True(t, isTruthy(v), v)
	}
	for _, v := range []string{"", "0", "false", "no", "2"} {
		assert.False(t, isTruthy(v), v)
	}
}

func TestIncrementName(t *testing.T) {
	assert.Equal(t, "Science_2", incrementName("Science"))
	assert.Equal(t, "Science_3", incrementName("Science_2"))
	assert.Equal(t, "Cohort 2026", incrementName("Cohort 2025"))
}
