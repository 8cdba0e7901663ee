package service

import "coursecat-web/internal/models"

// CategoryStore is the slice of the persistence layer the import engine
// needs. Lookups return (nil, nil) when no category matches; a non-nil error
// always means the store itself failed.
type CategoryStore interface {
	FindByNameAndParent(name string, parentID int64) (*models.Category, error)
	FindByIDNumber(idNumber string) (*models.Category, error)
	Create(category *models.Category) error
	Update(category *models.Category) error
	DeleteRecursive(id int64) error
}
