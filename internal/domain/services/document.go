package services

import (
	"context"

	"registru/internal/domain/models"
)

// DocumentService handles document version lifecycle business logic.
type DocumentService interface {
	// CreateDocument inserts the document and its version 1 in one
	// transaction. The initial tag defaults to DRAFT.
	CreateDocument(ctx context.Context, req *CreateDocumentRequest) (*models.Document, *models.DocumentVersion, error)

	// GetDocument retrieves a company-scoped document.
	GetDocument(ctx context.Context, documentID, companyID string) (*models.Document, error)

	// AddVersion appends an immutable snapshot, assigning max(version)+1
	// atomically and bumping the parent's updated_at.
	AddVersion(ctx context.Context, documentID, companyID string, req *AddVersionRequest) (*models.DocumentVersion, error)

	// GetVersion retrieves one version by number.
	GetVersion(ctx context.Context, documentID, companyID string, version int) (*models.DocumentVersion, error)

	// GetLatestVersion retrieves the highest-numbered version.
	GetLatestVersion(ctx context.Context, documentID, companyID string) (*models.DocumentVersion, error)

	// ListVersions pages the version chain newest-first.
	ListVersions(ctx context.Context, documentID, companyID string, page models.PageOptions) (*models.VersionPage, error)

	// ListVersionsByTag pages versions carrying a lifecycle tag.
	ListVersionsByTag(ctx context.Context, documentID, companyID, tag string, page models.PageOptions) (*models.VersionPage, error)

	// RollbackToVersion appends a new version copying the target's content,
	// tagged ROLLBACK. History only grows.
	RollbackToVersion(ctx context.Context, documentID, companyID string, targetVersion int, userID string) (*models.DocumentVersion, error)

	// SearchDocuments substring-matches across document metadata and the
	// joined version text.
	SearchDocuments(ctx context.Context, companyID, term string, page models.PageOptions) (*models.DocumentPage, error)

	// DeleteDocument removes the document and cascades to its versions.
	// Reports whether a document existed.
	DeleteDocument(ctx context.Context, documentID, companyID string) (bool, error)
}

// CreateDocumentRequest creates a document plus its initial version.
type CreateDocumentRequest struct {
	CompanyID string  `json:"-"` // Set by handler from auth context
	Type      string  `json:"type"`
	FilePath  *string `json:"file_path,omitempty"`
	OCRText   *string `json:"ocr_text,omitempty"`
	Content   string  `json:"content"`
	Tag       *string `json:"tag,omitempty"` // Defaults to DRAFT
}

// AddVersionRequest appends a new version to an existing document.
type AddVersionRequest struct {
	Content           string  `json:"content"`
	Tag               *string `json:"tag,omitempty"`
	ChangeDescription *string `json:"change_description,omitempty"`
}
