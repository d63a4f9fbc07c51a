package handler

import (
	"log/slog"
	"net/http"

	"registru/internal/domain/services"
	"registru/internal/httputil"
)

// ContactHandler handles HTTP requests for contacts, threads and messages
type ContactHandler struct {
	contactService services.ContactService
	logger         *slog.Logger
}

// NewContactHandler creates a new contact handler
func NewContactHandler(contactService services.ContactService, logger *slog.Logger) *ContactHandler {
	return &ContactHandler{
		contactService: contactService,
		logger:         logger,
	}
}

// CreateContact creates a contact
func (h *ContactHandler) CreateContact(w http.ResponseWriter, r *http.Request) {
	var req services.CreateContactRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.CompanyID = httputil.GetCompanyID(r)

	contact, err := h.contactService.CreateContact(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, contact)
}

// GetContact retrieves a single contact
func (h *ContactHandler) GetContact(w http.ResponseWriter, r *http.Request) {
	contact, err := h.contactService.GetContact(r.Context(), r.PathValue("id"), httputil.GetCompanyID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, contact)
}

// UpdateContact applies partial updates to a contact
func (h *ContactHandler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	var req services.UpdateContactRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	contact, err := h.contactService.UpdateContact(r.Context(), r.PathValue("id"), httputil.GetCompanyID(r), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, contact)
}

// DeleteContact removes a contact
func (h *ContactHandler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	existed, err := h.contactService.DeleteContact(r.Context(), r.PathValue("id"), httputil.GetCompanyID(r))
	if err != nil {
		handleError(w, err)
		return
	}
	if !existed {
		httputil.RespondError(w, http.StatusNotFound, "contact not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListContacts pages contacts, optionally filtered by ?q=
func (h *ContactHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")

	result, err := h.contactService.ListContacts(r.Context(), httputil.GetCompanyID(r), term, pageFromQuery(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// CreateThread opens a message thread
func (h *ContactHandler) CreateThread(w http.ResponseWriter, r *http.Request) {
	var req services.CreateThreadRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.CompanyID = httputil.GetCompanyID(r)

	thread, err := h.contactService.CreateThread(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, thread)
}

// GetThread retrieves a single thread
func (h *ContactHandler) GetThread(w http.ResponseWriter, r *http.Request) {
	thread, err := h.contactService.GetThread(r.Context(), r.PathValue("id"), httputil.GetCompanyID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, thread)
}

// ListThreads lists threads, optionally filtered by ?contact_id=
func (h *ContactHandler) ListThreads(w http.ResponseWriter, r *http.Request) {
	var contactID *string
	if v := r.URL.Query().Get("contact_id"); v != "" {
		contactID = &v
	}

	threads, err := h.contactService.ListThreads(r.Context(), httputil.GetCompanyID(r), contactID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, threads)
}

// PostMessage appends a message to a thread
func (h *ContactHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	var req services.PostMessageRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	msg, err := h.contactService.PostMessage(
		r.Context(),
		r.PathValue("id"),
		httputil.GetCompanyID(r),
		&req,
		httputil.GetUserID(r),
	)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, msg)
}

// ListMessages pages a thread's messages oldest-first
func (h *ContactHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	result, err := h.contactService.ListMessages(r.Context(), r.PathValue("id"), httputil.GetCompanyID(r), pageFromQuery(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}
