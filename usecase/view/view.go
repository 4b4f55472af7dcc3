// Package view derives the visible task list and tab counts from canonical state.
// Everything here is a pure function of its arguments; inputs are never mutated.
package view

import (
	"sort"
	"strings"
	"time"

	"github.com/fastygo/taskpulse/domain"
)

// Predicate reports whether a task belongs in the view.
type Predicate func(t *domain.Task) bool

// Comparator reports whether a sorts before b.
type Comparator func(a, b *domain.Task) bool

// Result is the derived view handed to renderers.
type Result struct {
	Tasks  []domain.Task `json:"tasks"`
	Counts domain.Counts `json:"counts"`
}

// Compute filters and sorts tasks by criteria and counts the unfiltered collection.
func Compute(tasks []domain.Task, criteria domain.Criteria) Result {
	return Result{
		Tasks:  Sort(Filter(tasks, criteria), criteria.Sort),
		Counts: Counts(tasks),
	}
}

// Filter returns copies of the tasks matching every predicate built from criteria, in input order.
func Filter(tasks []domain.Task, criteria domain.Criteria) []domain.Task {
	match := All(Predicates(criteria)...)
	out := make([]domain.Task, 0, len(tasks))
	for i := range tasks {
		if match(&tasks[i]) {
			out = append(out, tasks[i].Clone())
		}
	}
	return out
}

// Sort returns a stably sorted copy of tasks. Unknown keys keep input order.
func Sort(tasks []domain.Task, key domain.SortKey) []domain.Task {
	out := domain.CloneTasks(tasks)
	if out == nil {
		out = []domain.Task{}
	}
	less := ComparatorFor(key)
	if less == nil {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool { return less(&out[i], &out[j]) })
	return out
}

// Counts totals the collection regardless of any filter or tab.
func Counts(tasks []domain.Task) domain.Counts {
	c := domain.Counts{All: len(tasks)}
	for i := range tasks {
		if tasks[i].Completed {
			c.Completed++
		} else {
			c.Active++
		}
	}
	return c
}

// Predicates builds the active predicates for criteria. Unset dimensions contribute nothing.
func Predicates(criteria domain.Criteria) []Predicate {
	f := criteria.Filter
	var preds []Predicate
	if term := strings.TrimSpace(f.Search); term != "" {
		preds = append(preds, Search(term))
	}
	if f.Priority != nil {
		preds = append(preds, PriorityIs(*f.Priority))
	}
	if f.Category != nil {
		preds = append(preds, CategoryIs(*f.Category))
	}
	if f.Status != nil {
		preds = append(preds, StatusIs(*f.Status))
	}
	if p := TabIs(criteria.Tab); p != nil {
		preds = append(preds, p)
	}
	return preds
}

// All combines predicates conjunctively; no predicates matches everything.
func All(preds ...Predicate) Predicate {
	return func(t *domain.Task) bool {
		for _, p := range preds {
			if !p(t) {
				return false
			}
		}
		return true
	}
}

// Search matches the term case-insensitively against title or description.
func Search(term string) Predicate {
	needle := strings.ToLower(term)
	return func(t *domain.Task) bool {
		return strings.Contains(strings.ToLower(t.Title), needle) ||
			strings.Contains(strings.ToLower(t.Description), needle)
	}
}

func PriorityIs(p domain.Priority) Predicate {
	return func(t *domain.Task) bool { return t.Priority == p }
}

func CategoryIs(category string) Predicate {
	return func(t *domain.Task) bool { return t.Category == category }
}

func StatusIs(s domain.Status) Predicate {
	return func(t *domain.Task) bool { return t.Status == s }
}

// TabIs returns nil for the all tab and for unknown tabs.
func TabIs(tab domain.Tab) Predicate {
	switch tab {
	case domain.TabActive:
		return func(t *domain.Task) bool { return !t.Completed }
	case domain.TabCompleted:
		return func(t *domain.Task) bool { return t.Completed }
	default:
		return nil
	}
}

// ComparatorFor returns the fixed comparator of key, or nil for unknown keys.
func ComparatorFor(key domain.SortKey) Comparator {
	switch key {
	case domain.SortDueDate:
		return ByDueDate
	case domain.SortPriority:
		return ByPriority
	case domain.SortTitle:
		return ByTitle
	case domain.SortCreatedAt:
		return ByCreatedAt
	default:
		return nil
	}
}

// ByDueDate sorts ascending; a missing due date counts as the Unix epoch.
func ByDueDate(a, b *domain.Task) bool {
	return dueOrEpoch(a).Before(dueOrEpoch(b))
}

// ByPriority sorts high before low.
func ByPriority(a, b *domain.Task) bool {
	return a.Priority > b.Priority
}

// ByTitle sorts ascending ignoring case; exact-case order breaks ties.
func ByTitle(a, b *domain.Task) bool {
	la, lb := strings.ToLower(a.Title), strings.ToLower(b.Title)
	if la != lb {
		return la < lb
	}
	return a.Title < b.Title
}

// ByCreatedAt sorts newest first.
func ByCreatedAt(a, b *domain.Task) bool {
	return a.CreatedAt.After(b.CreatedAt)
}

var epoch = time.Unix(0, 0).UTC()

func dueOrEpoch(t *domain.Task) time.Time {
	if t.DueDate == nil {
		return epoch
	}
	return *t.DueDate
}
