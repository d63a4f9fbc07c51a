package models

import (
	"testing"
	"time"
)

func TestTaskListOptions_ApplyDefaults(t *testing.T) {
	tests := []struct {
		name     string
		input    *TaskListOptions
		expected *TaskListOptions
	}{
		{
			name:  "applies all defaults",
			input: &TaskListOptions{},
			expected: &TaskListOptions{
				SortBy:      "created_at",
				SortOrder:   "desc",
				PageOptions: PageOptions{Page: 1, PageSize: 20},
			},
		},
		{
			name: "preserves valid values",
			input: &TaskListOptions{
				SortBy:      "due_date",
				SortOrder:   "asc",
				PageOptions: PageOptions{Page: 3, PageSize: 50},
			},
			expected: &TaskListOptions{
				SortBy:      "due_date",
				SortOrder:   "asc",
				PageOptions: PageOptions{Page: 3, PageSize: 50},
			},
		},
		{
			name: "rejects unknown sort column",
			input: &TaskListOptions{
				SortBy:    "assigned_to; DROP TABLE tasks",
				SortOrder: "desc",
			},
			expected: &TaskListOptions{
				SortBy:      "created_at",
				SortOrder:   "desc",
				PageOptions: PageOptions{Page: 1, PageSize: 20},
			},
		},
		{
			name: "normalizes sort order",
			input: &TaskListOptions{
				SortBy:    "title",
				SortOrder: "sideways",
			},
			expected: &TaskListOptions{
				SortBy:      "title",
				SortOrder:   "desc",
				PageOptions: PageOptions{Page: 1, PageSize: 20},
			},
		},
		{
			name: "caps oversized page size",
			input: &TaskListOptions{
				PageOptions: PageOptions{Page: 1, PageSize: 10000},
			},
			expected: &TaskListOptions{
				SortBy:      "created_at",
				SortOrder:   "desc",
				PageOptions: PageOptions{Page: 1, PageSize: 100},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.input.ApplyDefaults()

			if tt.input.SortBy != tt.expected.SortBy {
				t.Errorf("SortBy = %s, want %s", tt.input.SortBy, tt.expected.SortBy)
			}
			if tt.input.SortOrder != tt.expected.SortOrder {
				t.Errorf("SortOrder = %s, want %s", tt.input.SortOrder, tt.expected.SortOrder)
			}
			if tt.input.Page != tt.expected.Page {
				t.Errorf("Page = %d, want %d", tt.input.Page, tt.expected.Page)
			}
			if tt.input.PageSize != tt.expected.PageSize {
				t.Errorf("PageSize = %d, want %d", tt.input.PageSize, tt.expected.PageSize)
			}
		})
	}
}

func TestTaskListOptions_SortColumn(t *testing.T) {
	opts := &TaskListOptions{SortBy: "priority"}
	if got := opts.SortColumn(); got != "priority" {
		t.Errorf("SortColumn() = %s, want priority", got)
	}

	opts.SortBy = "nonsense"
	if got := opts.SortColumn(); got != "created_at" {
		t.Errorf("SortColumn() = %s, want created_at fallback", got)
	}
}

func TestTaskListOptions_Validate(t *testing.T) {
	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	opts := &TaskListOptions{DueFrom: &from, DueTo: &to}
	if err := opts.Validate(); err == nil {
		t.Error("expected error for inverted due-date range")
	}

	opts = &TaskListOptions{DueFrom: &to, DueTo: &from}
	if err := opts.Validate(); err != nil {
		t.Errorf("unexpected error for valid range: %v", err)
	}
}

func TestPageOptions_Offset(t *testing.T) {
	page := PageOptions{Page: 3, PageSize: 25}
	if got := page.Offset(); got != 50 {
		t.Errorf("Offset() = %d, want 50", got)
	}
	if got := page.Limit(); got != 25 {
		t.Errorf("Limit() = %d, want 25", got)
	}
}
