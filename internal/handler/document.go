package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"registru/internal/domain/models"
	"registru/internal/domain/services"
	"registru/internal/httputil"
)

// DocumentHandler handles HTTP requests for documents and their versions
type DocumentHandler struct {
	docService services.DocumentService
	logger     *slog.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(docService services.DocumentService, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{
		docService: docService,
		logger:     logger,
	}
}

// HealthCheck responds to health check requests
func (h *DocumentHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// createDocumentResponse bundles the new document with its initial version.
type createDocumentResponse struct {
	Document *models.Document        `json:"document"`
	Version  *models.DocumentVersion `json:"version"`
}

// CreateDocument creates a document together with version 1
func (h *DocumentHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var req services.CreateDocumentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.CompanyID = httputil.GetCompanyID(r)

	doc, version, err := h.docService.CreateDocument(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, createDocumentResponse{Document: doc, Version: version})
}

// GetDocument retrieves a single document
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.docService.GetDocument(r.Context(), r.PathValue("id"), httputil.GetCompanyID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// DeleteDocument removes a document and its version chain
func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	existed, err := h.docService.DeleteDocument(r.Context(), r.PathValue("id"), httputil.GetCompanyID(r))
	if err != nil {
		handleError(w, err)
		return
	}
	if !existed {
		httputil.RespondError(w, http.StatusNotFound, "document not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddVersion appends a new version to the document
func (h *DocumentHandler) AddVersion(w http.ResponseWriter, r *http.Request) {
	var req services.AddVersionRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	version, err := h.docService.AddVersion(r.Context(), r.PathValue("id"), httputil.GetCompanyID(r), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, version)
}

// ListVersions pages the version chain newest-first. With ?tag= only
// versions carrying that tag come back.
func (h *DocumentHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	documentID := r.PathValue("id")
	companyID := httputil.GetCompanyID(r)
	page := pageFromQuery(r)

	var (
		result *models.VersionPage
		err    error
	)
	if tag := r.URL.Query().Get("tag"); tag != "" {
		result, err = h.docService.ListVersionsByTag(r.Context(), documentID, companyID, tag, page)
	} else {
		result, err = h.docService.ListVersions(r.Context(), documentID, companyID, page)
	}
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// GetLatestVersion retrieves the highest-numbered version
func (h *DocumentHandler) GetLatestVersion(w http.ResponseWriter, r *http.Request) {
	version, err := h.docService.GetLatestVersion(r.Context(), r.PathValue("id"), httputil.GetCompanyID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, version)
}

// GetVersion retrieves one version by number
func (h *DocumentHandler) GetVersion(w http.ResponseWriter, r *http.Request) {
	versionNumber, err := strconv.Atoi(r.PathValue("version"))
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "version must be a number")
		return
	}

	version, err := h.docService.GetVersion(r.Context(), r.PathValue("id"), httputil.GetCompanyID(r), versionNumber)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, version)
}

type rollbackRequest struct {
	Version int `json:"version"`
}

// Rollback appends a new version copying the target version's content
func (h *DocumentHandler) Rollback(w http.ResponseWriter, r *http.Request) {
	var req rollbackRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	version, err := h.docService.RollbackToVersion(
		r.Context(),
		r.PathValue("id"),
		httputil.GetCompanyID(r),
		req.Version,
		httputil.GetUserID(r),
	)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, version)
}

// SearchDocuments substring-searches document metadata and version text
func (h *DocumentHandler) SearchDocuments(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")

	result, err := h.docService.SearchDocuments(r.Context(), httputil.GetCompanyID(r), term, pageFromQuery(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}
