package domain

// Query is the free-text and status filter applied to a forest
type Query struct {
	Text   string       `json:"text"`
	Status StatusFilter `json:"status"`
}

// NewQuery builds a query, normalizing the status filter
func NewQuery(text, status string) Query {
	return Query{
		Text:   text,
		Status: ParseStatusFilter(status),
	}
}

// IsEmpty reports whether the query matches every node
func (q Query) IsEmpty() bool {
	return q.Text == "" && (q.Status == StatusAll || !Status(q.Status).IsValid())
}

// Stats are aggregate counts over a forest
type Stats struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	RootCount int `json:"root_count"`
	MaxDepth  int `json:"max_depth"`
}

// BranchRollup aggregates a single root's subtree
type BranchRollup struct {
	RootID   string `json:"root_id"`
	Nodes    int    `json:"nodes"`
	Active   int    `json:"active"`
	Products int    `json:"products"`
	Sellers  int    `json:"sellers"`
	Depth    int    `json:"depth"`
	Featured int    `json:"featured"`
}
