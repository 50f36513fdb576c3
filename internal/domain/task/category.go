package task

import "marketplace/catalog/internal/domain"

const (
	UpsertCategoryTaskType = "UpsertCategoryTask"
	RemoveCategoryTaskType = "RemoveCategoryTask"
	MoveCategoryTaskType   = "MoveCategoryTask"
)

// UpsertCategoryTask creates a category (with any children) or updates an existing one's fields
type UpsertCategoryTask struct {
	Category *domain.CategoryNode `json:"category"`
}

func (t *UpsertCategoryTask) TaskType() string {
	return UpsertCategoryTaskType
}

func (t *UpsertCategoryTask) TaskValue() ([]byte, error) {
	return DefaultTaskValue(t)
}

// RemoveCategoryTask deletes a category and its whole subtree
type RemoveCategoryTask struct {
	CategoryID string `json:"category_id"`
}

func (t *RemoveCategoryTask) TaskType() string {
	return RemoveCategoryTaskType
}

func (t *RemoveCategoryTask) TaskValue() ([]byte, error) {
	return DefaultTaskValue(t)
}

// MoveCategoryTask re-parents a category; an empty parent makes it a root
type MoveCategoryTask struct {
	CategoryID  string `json:"category_id"`
	NewParentID string `json:"new_parent_id,omitempty"`
}

func (t *MoveCategoryTask) TaskType() string {
	return MoveCategoryTaskType
}

func (t *MoveCategoryTask) TaskValue() ([]byte, error) {
	return DefaultTaskValue(t)
}
