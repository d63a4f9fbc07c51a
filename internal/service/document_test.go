package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"registru/internal/domain"
	"registru/internal/domain/models"
	"registru/internal/domain/services"
	"registru/internal/vocab"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testVocab(t *testing.T) *vocab.Registry {
	t.Helper()
	r, err := vocab.NewRegistry()
	if err != nil {
		t.Fatalf("vocab.NewRegistry() error = %v", err)
	}
	return r
}

func newTestDocumentService(t *testing.T) (services.DocumentService, *fakeDocumentRepo) {
	t.Helper()
	repo := newFakeDocumentRepo()
	svc := NewDocumentService(repo, &fakeTxManager{}, testVocab(t), testLogger())
	return svc, repo
}

func TestDocumentService_CreateDocument(t *testing.T) {
	svc, _ := newTestDocumentService(t)
	ctx := context.Background()

	doc, version, err := svc.CreateDocument(ctx, &services.CreateDocumentRequest{
		CompanyID: "company-1",
		Type:      "invoice",
		Content:   "Invoice #42",
	})
	if err != nil {
		t.Fatalf("CreateDocument() error = %v", err)
	}

	if doc.CompanyID != "company-1" {
		t.Errorf("CompanyID = %s, want company-1", doc.CompanyID)
	}
	if version.Version != 1 {
		t.Errorf("initial version = %d, want 1", version.Version)
	}
	if version.Tag == nil || *version.Tag != "DRAFT" {
		t.Errorf("initial tag = %v, want DRAFT", version.Tag)
	}
}

func TestDocumentService_CreateDocument_ExplicitInitialTag(t *testing.T) {
	svc, _ := newTestDocumentService(t)
	ctx := context.Background()

	doc, version, err := svc.CreateDocument(ctx, &services.CreateDocumentRequest{
		CompanyID: "company-1",
		Type:      "contract",
		Content:   "signed text",
		Tag:       strPtr("APPROVED"),
	})
	if err != nil {
		t.Fatalf("CreateDocument() error = %v", err)
	}
	if version.Version != 1 {
		t.Errorf("initial version = %d, want 1", version.Version)
	}
	if version.Tag == nil || *version.Tag != "APPROVED" {
		t.Errorf("initial tag = %v, want APPROVED", version.Tag)
	}

	latest, err := svc.GetLatestVersion(ctx, doc.ID, "company-1")
	if err != nil {
		t.Fatalf("GetLatestVersion() error = %v", err)
	}
	if latest.Version != 1 || latest.Tag == nil || *latest.Tag != "APPROVED" {
		t.Errorf("latest = v%d/%v, want v1/APPROVED", latest.Version, latest.Tag)
	}

	if _, err := svc.AddVersion(ctx, doc.ID, "company-1", &services.AddVersionRequest{
		Content: "final text",
		Tag:     strPtr("FINAL"),
	}); err != nil {
		t.Fatalf("AddVersion() error = %v", err)
	}

	page, err := svc.ListVersionsByTag(ctx, doc.ID, "company-1", "APPROVED", pageOpts(1, 20))
	if err != nil {
		t.Fatalf("ListVersionsByTag() error = %v", err)
	}
	if page.Total != 1 || len(page.Versions) != 1 {
		t.Fatalf("got %d/%d APPROVED versions, want exactly 1", len(page.Versions), page.Total)
	}
	if page.Versions[0].Version != 1 {
		t.Errorf("APPROVED version = %d, want 1", page.Versions[0].Version)
	}
}

func TestDocumentService_CreateDocument_Validation(t *testing.T) {
	svc, _ := newTestDocumentService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  *services.CreateDocumentRequest
	}{
		{
			name: "missing type",
			req:  &services.CreateDocumentRequest{CompanyID: "company-1", Content: "x"},
		},
		{
			name: "missing content",
			req:  &services.CreateDocumentRequest{CompanyID: "company-1", Type: "invoice"},
		},
		{
			name: "unknown tag",
			req: &services.CreateDocumentRequest{
				CompanyID: "company-1",
				Type:      "invoice",
				Content:   "x",
				Tag:       strPtr("SHINY"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.CreateDocument(ctx, tt.req)
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestDocumentService_AddVersion_NumbersAreConsecutive(t *testing.T) {
	svc, _ := newTestDocumentService(t)
	ctx := context.Background()

	doc, _, err := svc.CreateDocument(ctx, &services.CreateDocumentRequest{
		CompanyID: "company-1",
		Type:      "contract",
		Content:   "v1",
	})
	if err != nil {
		t.Fatalf("CreateDocument() error = %v", err)
	}

	for i := 2; i <= 4; i++ {
		v, err := svc.AddVersion(ctx, doc.ID, "company-1", &services.AddVersionRequest{
			Content: "revision",
		})
		if err != nil {
			t.Fatalf("AddVersion() error = %v", err)
		}
		if v.Version != i {
			t.Errorf("version = %d, want %d", v.Version, i)
		}
	}

	latest, err := svc.GetLatestVersion(ctx, doc.ID, "company-1")
	if err != nil {
		t.Fatalf("GetLatestVersion() error = %v", err)
	}
	if latest.Version != 4 {
		t.Errorf("latest version = %d, want 4", latest.Version)
	}
}

// conflictingDocumentRepo fails InsertNextVersion with a version-number
// conflict a configured number of times before delegating.
type conflictingDocumentRepo struct {
	*fakeDocumentRepo
	conflicts int
}

func (r *conflictingDocumentRepo) InsertNextVersion(ctx context.Context, v *models.DocumentVersion) error {
	if r.conflicts > 0 {
		r.conflicts--
		return &domain.ConflictError{
			Message:      "version number conflict on document " + v.DocumentID,
			ResourceType: "document_version",
			ResourceID:   v.DocumentID,
		}
	}
	return r.fakeDocumentRepo.InsertNextVersion(ctx, v)
}

func TestDocumentService_AddVersion_RetriesLostRace(t *testing.T) {
	repo := &conflictingDocumentRepo{fakeDocumentRepo: newFakeDocumentRepo()}
	svc := NewDocumentService(repo, &fakeTxManager{}, testVocab(t), testLogger())
	ctx := context.Background()

	doc, _, err := svc.CreateDocument(ctx, &services.CreateDocumentRequest{
		CompanyID: "company-1",
		Type:      "contract",
		Content:   "v1",
	})
	if err != nil {
		t.Fatalf("CreateDocument() error = %v", err)
	}

	// One lost race is absorbed by the retry
	repo.conflicts = 1
	v, err := svc.AddVersion(ctx, doc.ID, "company-1", &services.AddVersionRequest{Content: "v2"})
	if err != nil {
		t.Fatalf("AddVersion() error = %v, want retry to succeed", err)
	}
	if v.Version != 2 {
		t.Errorf("version = %d, want 2", v.Version)
	}

	// Sustained conflicts surface after the single retry
	repo.conflicts = 2
	_, err = svc.AddVersion(ctx, doc.ID, "company-1", &services.AddVersionRequest{Content: "v3"})
	if !errors.Is(err, domain.ErrConflict) {
		t.Errorf("error = %v, want ErrConflict after retry budget", err)
	}
}

func TestDocumentService_AddVersion_WrongCompany(t *testing.T) {
	svc, _ := newTestDocumentService(t)
	ctx := context.Background()

	doc, _, err := svc.CreateDocument(ctx, &services.CreateDocumentRequest{
		CompanyID: "company-1",
		Type:      "contract",
		Content:   "v1",
	})
	if err != nil {
		t.Fatalf("CreateDocument() error = %v", err)
	}

	_, err = svc.AddVersion(ctx, doc.ID, "company-2", &services.AddVersionRequest{Content: "spy"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound for foreign tenant", err)
	}
}

func TestDocumentService_RollbackToVersion(t *testing.T) {
	svc, _ := newTestDocumentService(t)
	ctx := context.Background()

	doc, _, err := svc.CreateDocument(ctx, &services.CreateDocumentRequest{
		CompanyID: "company-1",
		Type:      "contract",
		Content:   "original",
	})
	if err != nil {
		t.Fatalf("CreateDocument() error = %v", err)
	}
	if _, err := svc.AddVersion(ctx, doc.ID, "company-1", &services.AddVersionRequest{Content: "edited"}); err != nil {
		t.Fatalf("AddVersion() error = %v", err)
	}

	rolled, err := svc.RollbackToVersion(ctx, doc.ID, "company-1", 1, "user-1")
	if err != nil {
		t.Fatalf("RollbackToVersion() error = %v", err)
	}

	if rolled.Version != 3 {
		t.Errorf("rollback version = %d, want 3 (history only grows)", rolled.Version)
	}
	if rolled.Content != "original" {
		t.Errorf("rollback content = %q, want content of version 1", rolled.Content)
	}
	if rolled.Tag == nil || *rolled.Tag != "ROLLBACK" {
		t.Errorf("rollback tag = %v, want ROLLBACK", rolled.Tag)
	}

	// Target version is untouched
	target, err := svc.GetVersion(ctx, doc.ID, "company-1", 1)
	if err != nil {
		t.Fatalf("GetVersion() error = %v", err)
	}
	if target.Content != "original" {
		t.Errorf("version 1 content mutated to %q", target.Content)
	}
}

func TestDocumentService_RollbackToVersion_MissingTarget(t *testing.T) {
	svc, _ := newTestDocumentService(t)
	ctx := context.Background()

	doc, _, err := svc.CreateDocument(ctx, &services.CreateDocumentRequest{
		CompanyID: "company-1",
		Type:      "contract",
		Content:   "v1",
	})
	if err != nil {
		t.Fatalf("CreateDocument() error = %v", err)
	}

	_, err = svc.RollbackToVersion(ctx, doc.ID, "company-1", 9, "user-1")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound for missing target", err)
	}
}

func TestDocumentService_ListVersionsByTag(t *testing.T) {
	svc, _ := newTestDocumentService(t)
	ctx := context.Background()

	doc, _, err := svc.CreateDocument(ctx, &services.CreateDocumentRequest{
		CompanyID: "company-1",
		Type:      "contract",
		Content:   "v1",
	})
	if err != nil {
		t.Fatalf("CreateDocument() error = %v", err)
	}
	if _, err := svc.AddVersion(ctx, doc.ID, "company-1", &services.AddVersionRequest{
		Content: "v2", Tag: strPtr("APPROVED"),
	}); err != nil {
		t.Fatalf("AddVersion() error = %v", err)
	}

	page, err := svc.ListVersionsByTag(ctx, doc.ID, "company-1", "APPROVED", pageOpts(1, 20))
	if err != nil {
		t.Fatalf("ListVersionsByTag() error = %v", err)
	}
	if page.Total != 1 || len(page.Versions) != 1 {
		t.Fatalf("got %d/%d versions, want 1/1", len(page.Versions), page.Total)
	}
	if page.Versions[0].Version != 2 {
		t.Errorf("tagged version = %d, want 2", page.Versions[0].Version)
	}

	_, err = svc.ListVersionsByTag(ctx, doc.ID, "company-1", "bogus", pageOpts(1, 20))
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation for unknown tag", err)
	}
}

func TestDocumentService_DeleteDocument(t *testing.T) {
	svc, repo := newTestDocumentService(t)
	ctx := context.Background()

	doc, _, err := svc.CreateDocument(ctx, &services.CreateDocumentRequest{
		CompanyID: "company-1",
		Type:      "contract",
		Content:   "v1",
	})
	if err != nil {
		t.Fatalf("CreateDocument() error = %v", err)
	}

	existed, err := svc.DeleteDocument(ctx, doc.ID, "company-1")
	if err != nil {
		t.Fatalf("DeleteDocument() error = %v", err)
	}
	if !existed {
		t.Error("DeleteDocument() = false, want true")
	}
	if len(repo.versions[doc.ID]) != 0 {
		t.Error("versions survived document deletion")
	}

	// Second delete reports nothing removed
	existed, err = svc.DeleteDocument(ctx, doc.ID, "company-1")
	if err != nil {
		t.Fatalf("DeleteDocument() error = %v", err)
	}
	if existed {
		t.Error("DeleteDocument() = true on second delete, want false")
	}
}

func TestDocumentService_SearchDocuments_RequiresTerm(t *testing.T) {
	svc, _ := newTestDocumentService(t)

	_, err := svc.SearchDocuments(context.Background(), "company-1", "", pageOpts(1, 20))
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation for empty term", err)
	}
}
