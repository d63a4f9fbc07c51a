package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"registru/internal/domain"
)

func TestHandleError_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{
			name:   "validation maps to 400",
			err:    fmt.Errorf("%w: title is required", domain.ErrValidation),
			status: http.StatusBadRequest,
		},
		{
			name:   "not found maps to 404",
			err:    fmt.Errorf("task abc: %w", domain.ErrNotFound),
			status: http.StatusNotFound,
		},
		{
			name:   "unauthorized maps to 401",
			err:    domain.ErrUnauthorized,
			status: http.StatusUnauthorized,
		},
		{
			name:   "forbidden maps to 403",
			err:    domain.ErrForbidden,
			status: http.StatusForbidden,
		},
		{
			name:   "conflict error maps to 409",
			err:    &domain.ConflictError{Message: "document exists", ResourceType: "document", ResourceID: "d1"},
			status: http.StatusConflict,
		},
		{
			name:   "wrapped conflict still maps to 409",
			err:    fmt.Errorf("create: %w", &domain.ConflictError{Message: "dup"}),
			status: http.StatusConflict,
		},
		{
			name:   "unknown error maps to 500",
			err:    errors.New("pool exhausted"),
			status: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handleError(rec, tt.err)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
				t.Errorf("Content-Type = %s, want application/problem+json", ct)
			}
		})
	}
}

func TestPageFromQuery(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/tasks?page=3&page_size=40", nil)
	page := pageFromQuery(r)
	if page.Page != 3 || page.PageSize != 40 {
		t.Errorf("page = %d/%d, want 3/40", page.Page, page.PageSize)
	}

	r = httptest.NewRequest(http.MethodGet, "/api/tasks?page=abc", nil)
	page = pageFromQuery(r)
	if page.Page != 0 || page.PageSize != 0 {
		t.Errorf("page = %d/%d for garbage input, want zero values", page.Page, page.PageSize)
	}
}
