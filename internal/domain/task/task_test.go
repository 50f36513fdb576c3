package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace/catalog/internal/domain"
)

func TestUnmarshalTask_Upsert(t *testing.T) {
	original := &UpsertCategoryTask{Category: &domain.CategoryNode{
		ID:       "lighting",
		ParentID: "smart-home",
		Name:     domain.LocalizedText{"en": "Lighting", "ar": "إضاءة"},
		Status:   domain.StatusActive,
	}}

	data, err := original.TaskValue()
	require.NoError(t, err)

	decoded, err := UnmarshalTask[*UpsertCategoryTask](data)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestTaskTypesAreDistinct(t *testing.T) {
	tasks := []Task{&ExpandTask{}, &UpsertCategoryTask{}, &RemoveCategoryTask{}, &MoveCategoryTask{}}

	seen := make(map[string]bool)
	for _, tk := range tasks {
		assert.False(t, seen[tk.TaskType()], tk.TaskType())
		seen[tk.TaskType()] = true
		assert.Contains(t, Types, tk.TaskType())
	}
}
