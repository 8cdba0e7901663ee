package handler

import (
	"fmt"
	"strconv"
	"time"

	"coursecat-web/internal/models"
	"coursecat-web/internal/repository"
	"coursecat-web/internal/service"
	"coursecat-web/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
)

type CategoryHandler struct {
	categoryRepo *repository.CategoryRepository
}

func NewCategoryHandler(db *sqlx.DB) *CategoryHandler {
	return &CategoryHandler{
		categoryRepo: repository.NewCategoryRepository(db),
	}
}

func (h *CategoryHandler) List(c *fiber.Ctx) error {
	params := utils.GetPaginationParams(c)

	var parentID *int64
	if raw := c.Query("parent_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid parent_id", err)
		}
		parentID = &id
	}

	categories, total, err := h.categoryRepo.FindAll(params.Limit, utils.GetOffset(params.Page, params.Limit), params.Search, parentID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve categories", err)
	}

	pagination := utils.CalculatePagination(params.Page, params.Limit, int64(total))
	return utils.PaginatedResponseBuilder(c, "Categories retrieved successfully", categories, pagination)
}

func (h *CategoryHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid category ID", err)
	}

	category, err := h.categoryRepo.FindByID(id)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Category not found", err)
	}

	return utils.SuccessResponse(c, "Category retrieved successfully", category)
}

func (h *CategoryHandler) Create(c *fiber.Ctx) error {
	var req models.CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	if req.Name == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Name is required", nil)
	}

	existing, err := h.categoryRepo.FindByNameAndParent(req.Name, req.ParentID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to check category", err)
	}
	if existing != nil {
		return utils.ErrorResponse(c, fiber.StatusConflict, "A sibling category with that name already exists", nil)
	}

	if req.IDNumber != "" {
		other, err := h.categoryRepo.FindByIDNumber(req.IDNumber)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to check id number", err)
		}
		if other != nil {
			return utils.ErrorResponse(c, fiber.StatusConflict, "ID number already in use", nil)
		}
	}

	category := &models.Category{
		Name:        req.Name,
		ParentID:    req.ParentID,
		IDNumber:    req.IDNumber,
		Description: req.Description,
		Visible:     req.Visible,
		Theme:       req.Theme,
	}
	if err := h.categoryRepo.Create(category); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create category", err)
	}

	return utils.SuccessResponse(c, "Category created successfully", category)
}

func (h *CategoryHandler) Update(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid category ID", err)
	}

	category, err := h.categoryRepo.FindByID(id)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Category not found", err)
	}

	var req models.CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	if req.Name != "" && req.Name != category.Name {
		sibling, err := h.categoryRepo.FindByNameAndParent(req.Name, category.ParentID)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to check category", err)
		}
		if sibling != nil && sibling.ID != category.ID {
			return utils.ErrorResponse(c, fiber.StatusConflict, "A sibling category with that name already exists", nil)
		}
		category.Name = req.Name
	}
	if req.IDNumber != "" && req.IDNumber != category.IDNumber {
		other, err := h.categoryRepo.FindByIDNumber(req.IDNumber)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to check id number", err)
		}
		if other != nil && other.ID != category.ID {
			return utils.ErrorResponse(c, fiber.StatusConflict, "ID number already in use", nil)
		}
		category.IDNumber = req.IDNumber
	}
	category.Description = req.Description
	category.Visible = req.Visible
	category.Theme = req.Theme

	if err := h.categoryRepo.Update(category); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update category", err)
	}

	return utils.SuccessResponse(c, "Category updated successfully", category)
}

func (h *CategoryHandler) Delete(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid category ID", err)
	}

	if _, err := h.categoryRepo.FindByID(id); err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Category not found", err)
	}

	if err := h.categoryRepo.DeleteRecursive(id); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete category", err)
	}

	return utils.SuccessResponse(c, "Category and its subtree deleted successfully", nil)
}

func (h *CategoryHandler) DownloadTemplate(c *fiber.Ctx) error {
	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", `attachment; filename="category_import_template.xlsx"`)

	if err := service.WriteCategoryTemplate(c.Response().BodyWriter()); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to generate template", err)
	}
	return nil
}

func (h *CategoryHandler) Export(c *fiber.Ctx) error {
	// Export is capped; large trees should be dumped from the database directly.
	categories, _, err := h.categoryRepo.FindAll(10000, 0, "", nil)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve categories", err)
	}

	filename := fmt.Sprintf("categories_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	if err := service.WriteCategoryExport(c.Response().BodyWriter(), categories); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to generate export", err)
	}
	return nil
}
