package domain

// Tab selects which completion state the task list shows.
type Tab string

const (
	TabAll       Tab = "all"
	TabActive    Tab = "active"
	TabCompleted Tab = "completed"
)

// SortKey selects the comparator of the task list.
type SortKey string

const (
	SortDueDate   SortKey = "due_date"
	SortPriority  SortKey = "priority"
	SortTitle     SortKey = "title"
	SortCreatedAt SortKey = "created_at"
)

// Filter constrains the task list. A nil matcher places no constraint on its dimension.
type Filter struct {
	Status   *Status   `json:"status,omitempty"`
	Priority *Priority `json:"priority,omitempty"`
	Category *string   `json:"category,omitempty"`
	Search   string    `json:"search,omitempty"`
}

// Criteria is everything the derived view is computed from besides the tasks themselves.
type Criteria struct {
	Filter Filter
	Tab    Tab
	Sort   SortKey
}

// DefaultCriteria returns the criteria of a fresh session.
func DefaultCriteria() Criteria {
	return Criteria{Tab: TabAll, Sort: SortDueDate}
}

// Clone deep-copies the matcher pointers.
func (f Filter) Clone() Filter {
	cp := f
	if f.Status != nil {
		s := *f.Status
		cp.Status = &s
	}
	if f.Priority != nil {
		p := *f.Priority
		cp.Priority = &p
	}
	if f.Category != nil {
		c := *f.Category
		cp.Category = &c
	}
	return cp
}

// Counts are the tab badge totals over the unfiltered collection.
type Counts struct {
	All       int `json:"all"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
}
