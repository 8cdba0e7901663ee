package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"coursecat-web/internal/models"

	"github.com/jmoiron/sqlx"
)

type CategoryRepository struct {
	db *sqlx.DB
}

func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

const categoryColumns = `
	id,
	name,
	parent_id,
	COALESCE(id_number, '') as id_number,
	COALESCE(description, '') as description,
	visible,
	COALESCE(theme, '') as theme,
	sort_order,
	created_at,
	updated_at`

// FindByNameAndParent looks a category up by its identity pair. Returns
// (nil, nil) when no sibling with that name exists.
func (r *CategoryRepository) FindByNameAndParent(name string, parentID int64) (*models.Category, error) {
	var category models.Category
	query := fmt.Sprintf(`SELECT %s FROM course_categories WHERE name = ? AND parent_id = ? LIMIT 1`, categoryColumns)
	err := r.db.Get(&category, query, name, parentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// FindByIDNumber looks a category up by its external key. Returns (nil, nil)
// when the id number is unused.
func (r *CategoryRepository) FindByIDNumber(idNumber string) (*models.Category, error) {
	var category models.Category
	query := fmt.Sprintf(`SELECT %s FROM course_categories WHERE id_number = ? LIMIT 1`, categoryColumns)
	err := r.db.Get(&category, query, idNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *CategoryRepository) FindByID(id int64) (*models.Category, error) {
	var category models.Category
	query := fmt.Sprintf(`SELECT %s FROM course_categories WHERE id = ? LIMIT 1`, categoryColumns)
	err := r.db.Get(&category, query, id)
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *CategoryRepository) FindAll(limit, offset int, search string, parentID *int64) ([]models.Category, int, error) {
	var categories []models.Category
	var total int

	whereClause := ""
	args := []interface{}{}

	if search != "" {
		whereClause = "WHERE (name LIKE ? OR id_number LIKE ?)"
		searchPattern := "%" + search + "%"
		args = append(args, searchPattern, searchPattern)
	}
	if parentID != nil {
		if whereClause == "" {
			whereClause = "WHERE parent_id = ?"
		} else {
			whereClause += " AND parent_id = ?"
		}
		args = append(args, *parentID)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM course_categories %s", whereClause)
	err := r.db.Get(&total, countQuery, args...)
	if err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM course_categories %s ORDER BY parent_id, sort_order, name LIMIT ? OFFSET ?`,
		categoryColumns, whereClause)
	args = append(args, limit, offset)
	err = r.db.Select(&categories, query, args...)
	if err != nil {
		return nil, 0, err
	}

	return categories, total, nil
}

func (r *CategoryRepository) Create(category *models.Category) error {
	query := `INSERT INTO course_categories (name, parent_id, id_number, description, visible, theme, sort_order)
	          VALUES (:name, :parent_id, NULLIF(:id_number, ''), :description, :visible, :theme, :sort_order)`
	result, err := r.db.NamedExec(query, category)
	if err != nil {
		return err
	}
	id, _ := result.LastInsertId()
	category.ID = id
	return nil
}

func (r *CategoryRepository) Update(category *models.Category) error {
	query := `UPDATE course_categories SET name = :name, id_number = NULLIF(:id_number, ''),
	          description = :description, visible = :visible, theme = :theme
	          WHERE id = :id`
	_, err := r.db.NamedExec(query, category)
	return err
}

// DeleteRecursive removes a category and its whole subtree. The subtree is
// collected level by level so the statement never references the table it
// deletes from.
func (r *CategoryRepository) DeleteRecursive(id int64) error {
	ids := []int64{id}
	frontier := []int64{id}

	for len(frontier) > 0 {
		query, args, err := sqlx.In("SELECT id FROM course_categories WHERE parent_id IN (?)", frontier)
		if err != nil {
			return err
		}
		var children []int64
		if err := r.db.Select(&children, r.db.Rebind(query), args...); err != nil {
			return err
		}
		ids = append(ids, children...)
		frontier = children
	}

	query, args, err := sqlx.In("DELETE FROM course_categories WHERE id IN (?)", ids)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(r.db.Rebind(query), args...)
	return err
}
