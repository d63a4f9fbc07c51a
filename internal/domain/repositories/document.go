package repositories

import (
	"context"
	"time"

	"registru/internal/domain/models"
)

// DocumentRepository persists documents and their version chains.
type DocumentRepository interface {
	// CreateDocument inserts a document row, filling the generated fields.
	CreateDocument(ctx context.Context, doc *models.Document) error

	// GetDocument retrieves a company-scoped document.
	GetDocument(ctx context.Context, id, companyID string) (*models.Document, error)

	// TouchDocument bumps the parent's updated_at after a version append.
	TouchDocument(ctx context.Context, id, companyID string, at time.Time) error

	// DeleteDocument removes the document row. Reports whether a row existed.
	DeleteDocument(ctx context.Context, id, companyID string) (bool, error)

	// DeleteVersionsByDocument removes all versions under a document.
	DeleteVersionsByDocument(ctx context.Context, documentID string) error

	// InsertNextVersion inserts a version row, computing the next version
	// number inside the INSERT itself so concurrent appends cannot assign
	// duplicates. Fills v.ID, v.Version and v.CreatedAt.
	InsertNextVersion(ctx context.Context, v *models.DocumentVersion) error

	// GetVersion retrieves one version by its number.
	GetVersion(ctx context.Context, documentID string, version int) (*models.DocumentVersion, error)

	// GetLatestVersion retrieves the highest-numbered version.
	GetLatestVersion(ctx context.Context, documentID string) (*models.DocumentVersion, error)

	// ListVersions lists versions newest-first with the total match count.
	ListVersions(ctx context.Context, documentID string, limit, offset int) ([]models.DocumentVersion, int, error)

	// ListVersionsByTag lists versions carrying a tag, with the total count.
	ListVersionsByTag(ctx context.Context, documentID, tag string, limit, offset int) ([]models.DocumentVersion, int, error)

	// SearchDocuments substring-matches type, OCR text and version content,
	// tag and change description; distinct documents, newest first.
	SearchDocuments(ctx context.Context, companyID, term string, limit, offset int) ([]models.Document, int, error)
}
