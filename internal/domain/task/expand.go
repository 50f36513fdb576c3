package task

const ExpandTaskType = "ExpandTask"

type ExpandAction string

const (
	ExpandActionToggle      ExpandAction = "toggle"
	ExpandActionExpandAll   ExpandAction = "expand_all"
	ExpandActionCollapseAll ExpandAction = "collapse_all"
)

// ExpandTask changes the expand state of a dashboard view
type ExpandTask struct {
	Action     ExpandAction `json:"action"`
	CategoryID string       `json:"category_id,omitempty"` // Only for toggle
}

func (t *ExpandTask) TaskType() string {
	return ExpandTaskType
}

func (t *ExpandTask) TaskValue() ([]byte, error) {
	return DefaultTaskValue(t)
}
