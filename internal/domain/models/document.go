package models

import (
	"time"
)

// Document is the parent record a chain of immutable versions hangs off.
// FilePath and OCRText come from the ingestion pipeline and may be absent.
type Document struct {
	ID        string    `json:"id" db:"id"`
	CompanyID string    `json:"company_id" db:"company_id"`
	Type      string    `json:"type" db:"type"`
	FilePath  *string   `json:"file_path,omitempty" db:"file_path"`
	OCRText   *string   `json:"ocr_text,omitempty" db:"ocr_text"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DocumentVersion is an immutable content snapshot. Version numbers are
// strictly increasing per document, starting at 1, with no gaps. Rollback
// appends a new version; existing rows are never mutated or deleted.
type DocumentVersion struct {
	ID                string    `json:"id" db:"id"`
	DocumentID        string    `json:"document_id" db:"document_id"`
	Content           string    `json:"content" db:"content"`
	Version           int       `json:"version" db:"version"`
	Tag               *string   `json:"tag,omitempty" db:"tag"`
	ChangeDescription *string   `json:"change_description,omitempty" db:"change_description"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

// VersionPage is a page of versions plus the unpaginated match count.
type VersionPage struct {
	Versions []DocumentVersion `json:"versions"`
	Total    int               `json:"total"`
}

// DocumentPage is a page of documents plus the unpaginated match count.
type DocumentPage struct {
	Documents []Document `json:"documents"`
	Total     int        `json:"total"`
}

// PageOptions carries page-number pagination shared by list endpoints.
type PageOptions struct {
	Page     int `json:"page,omitempty"`
	PageSize int `json:"page_size,omitempty"`
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ApplyDefaults normalizes out-of-range pagination values.
func (p *PageOptions) ApplyDefaults() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = defaultPageSize
	}
	if p.PageSize > maxPageSize {
		p.PageSize = maxPageSize
	}
}

// Limit returns the SQL LIMIT for the page.
func (p *PageOptions) Limit() int {
	return p.PageSize
}

// Offset returns the SQL OFFSET for the page.
func (p *PageOptions) Offset() int {
	return (p.Page - 1) * p.PageSize
}
