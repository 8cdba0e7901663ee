package service

import "fmt"

// ErrorCode identifies one class of row-level validation or store failure.
// The spellings are kept compatible with the legacy importer so existing
// consumers keying on them keep working (including the odd `...course`
// suffixes on the store-failure codes).
type ErrorCode string

const (
	ErrMissingMandatoryFields       ErrorCode = "missingmandatoryfields"
	ErrIDNumberNotANumber           ErrorCode = "idnumbernotanumber"
	ErrMissingCategoryParent        ErrorCode = "missingcategoryparent"
	ErrCannotDeleteNotExist         ErrorCode = "cannotdeletecategorynotexist"
	ErrDeletionNotAllowed           ErrorCode = "categorydeletionnotallowed"
	ErrExistsUploadNotAllowed       ErrorCode = "categoryexistsanduploadnotallowed"
	ErrNotExistCreateNotAllowed     ErrorCode = "categorydoesnotexistandcreatenotallowed"
	ErrRenameNameAlreadyInUse       ErrorCode = "cannotrenamenamealreadyinuse"
	ErrOldHierarchyDoesNotExist     ErrorCode = "oldcategoryhierarchydoesnotexist"
	ErrCanOnlyRenameInUpdateMode    ErrorCode = "canonlyrenameinupdatemode"
	ErrRenameOldCategoryNotExist    ErrorCode = "cannotrenameoldcategorynotexist"
	ErrRenamingNotAllowed           ErrorCode = "categoryrenamingnotallowed"
	ErrIDNumberAlreadyExists        ErrorCode = "idnumberalreadyexists"
	ErrIDNumberNotUnique            ErrorCode = "idnumbernotunique"
	ErrUpdateModeSetToNothing       ErrorCode = "updatemodedoessettonothing"
	ErrCannotUpdateProtected        ErrorCode = "cannotupdateprotectedcategory"
	ErrStoreDeleteFailed            ErrorCode = "errorwhiledeletingcourse"
	ErrStoreCreateFailed            ErrorCode = "errorwhilecreatingcourse"
	ErrStoreUpdateFailed            ErrorCode = "errorwhileupdatingcourse"
)

var errorMessages = map[ErrorCode]string{
	ErrMissingMandatoryFields:    "mandatory field 'name' is missing",
	ErrIDNumberNotANumber:        "id number %q is not a number",
	ErrMissingCategoryParent:     "parent category of %q does not exist",
	ErrCannotDeleteNotExist:      "cannot delete category %q, it does not exist",
	ErrDeletionNotAllowed:        "category deletion is not allowed by the import options",
	ErrExistsUploadNotAllowed:    "category %q already exists and the import mode does not allow updates",
	ErrNotExistCreateNotAllowed:  "category %q does not exist and the import mode does not allow creation",
	ErrRenameNameAlreadyInUse:    "cannot rename to %q, that name is already in use",
	ErrOldHierarchyDoesNotExist:  "hierarchy of the old name %q does not exist",
	ErrCanOnlyRenameInUpdateMode: "renaming is only possible in an update mode",
	ErrRenameOldCategoryNotExist: "cannot rename %q, the category does not exist",
	ErrRenamingNotAllowed:        "category renaming is not allowed by the import options",
	ErrIDNumberAlreadyExists:     "id number %q is already used by another category",
	ErrIDNumberNotUnique:         "id number %q is already in use",
	ErrUpdateModeSetToNothing:    "the update mode does not allow any data to be updated",
	ErrCannotUpdateProtected:     "the protected top category cannot be modified",
	ErrStoreDeleteFailed:         "error while deleting category %q",
	ErrStoreCreateFailed:         "error while creating category %q",
	ErrStoreUpdateFailed:         "error while updating category %q",
}

// StatusCode identifies one informational per-row outcome.
type StatusCode string

const (
	StatusCreated StatusCode = "coursecategoriescreated"
	StatusUpdated StatusCode = "coursecategoryupdated"
	StatusDeleted StatusCode = "coursecategorydeleted"
	StatusRenamed StatusCode = "coursecategoryrenamed"
)

var statusMessages = map[StatusCode]string{
	StatusCreated: "category created",
	StatusUpdated: "category updated",
	StatusDeleted: "category deleted",
	StatusRenamed: "category renamed from %q to %q",
}

func renderError(code ErrorCode, args ...interface{}) string {
	tmpl, ok := errorMessages[code]
	if !ok {
		return string(code)
	}
	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}

func renderStatus(code StatusCode, args ...interface{}) string {
	tmpl, ok := statusMessages[code]
	if !ok {
		return string(code)
	}
	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}
