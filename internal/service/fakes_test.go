package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"registru/internal/domain"
	"registru/internal/domain/models"
	"registru/internal/domain/repositories"
)

// fakeTxManager runs the function directly; the fakes below are not
// transactional, the tests only care about what got written.
type fakeTxManager struct{}

func (m *fakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}

// fakeDocumentRepo is an in-memory DocumentRepository.
type fakeDocumentRepo struct {
	docs     map[string]*models.Document
	versions map[string][]models.DocumentVersion
}

func newFakeDocumentRepo() *fakeDocumentRepo {
	return &fakeDocumentRepo{
		docs:     make(map[string]*models.Document),
		versions: make(map[string][]models.DocumentVersion),
	}
}

func (r *fakeDocumentRepo) CreateDocument(ctx context.Context, doc *models.Document) error {
	if _, ok := r.docs[doc.ID]; ok {
		return &domain.ConflictError{Message: "document exists", ResourceType: "document", ResourceID: doc.ID}
	}
	copied := *doc
	r.docs[doc.ID] = &copied
	return nil
}

func (r *fakeDocumentRepo) GetDocument(ctx context.Context, id, companyID string) (*models.Document, error) {
	doc, ok := r.docs[id]
	if !ok || doc.CompanyID != companyID {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	copied := *doc
	return &copied, nil
}

func (r *fakeDocumentRepo) TouchDocument(ctx context.Context, id, companyID string, at time.Time) error {
	doc, ok := r.docs[id]
	if !ok || doc.CompanyID != companyID {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	doc.UpdatedAt = at
	return nil
}

func (r *fakeDocumentRepo) DeleteDocument(ctx context.Context, id, companyID string) (bool, error) {
	doc, ok := r.docs[id]
	if !ok || doc.CompanyID != companyID {
		return false, nil
	}
	delete(r.docs, id)
	return true, nil
}

func (r *fakeDocumentRepo) DeleteVersionsByDocument(ctx context.Context, documentID string) error {
	delete(r.versions, documentID)
	return nil
}

func (r *fakeDocumentRepo) InsertNextVersion(ctx context.Context, v *models.DocumentVersion) error {
	next := 1
	for _, existing := range r.versions[v.DocumentID] {
		if existing.Version >= next {
			next = existing.Version + 1
		}
	}
	v.Version = next
	r.versions[v.DocumentID] = append(r.versions[v.DocumentID], *v)
	return nil
}

func (r *fakeDocumentRepo) GetVersion(ctx context.Context, documentID string, version int) (*models.DocumentVersion, error) {
	for _, v := range r.versions[documentID] {
		if v.Version == version {
			copied := v
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("version %d: %w", version, domain.ErrNotFound)
}

func (r *fakeDocumentRepo) GetLatestVersion(ctx context.Context, documentID string) (*models.DocumentVersion, error) {
	chain := r.versions[documentID]
	if len(chain) == 0 {
		return nil, fmt.Errorf("latest version: %w", domain.ErrNotFound)
	}
	latest := chain[0]
	for _, v := range chain[1:] {
		if v.Version > latest.Version {
			latest = v
		}
	}
	return &latest, nil
}

func (r *fakeDocumentRepo) ListVersions(ctx context.Context, documentID string, limit, offset int) ([]models.DocumentVersion, int, error) {
	chain := append([]models.DocumentVersion(nil), r.versions[documentID]...)
	sort.Slice(chain, func(i, j int) bool { return chain[i].Version > chain[j].Version })
	return paginateVersions(chain, limit, offset), len(chain), nil
}

func (r *fakeDocumentRepo) ListVersionsByTag(ctx context.Context, documentID, tag string, limit, offset int) ([]models.DocumentVersion, int, error) {
	var tagged []models.DocumentVersion
	for _, v := range r.versions[documentID] {
		if v.Tag != nil && *v.Tag == tag {
			tagged = append(tagged, v)
		}
	}
	sort.Slice(tagged, func(i, j int) bool { return tagged[i].Version > tagged[j].Version })
	return paginateVersions(tagged, limit, offset), len(tagged), nil
}

func (r *fakeDocumentRepo) SearchDocuments(ctx context.Context, companyID, term string, limit, offset int) ([]models.Document, int, error) {
	lower := strings.ToLower(term)
	var matches []models.Document
	for _, doc := range r.docs {
		if doc.CompanyID != companyID {
			continue
		}
		matched := strings.Contains(strings.ToLower(doc.Type), lower)
		for _, v := range r.versions[doc.ID] {
			if strings.Contains(strings.ToLower(v.Content), lower) {
				matched = true
			}
		}
		if matched {
			matches = append(matches, *doc)
		}
	}
	if matches == nil {
		matches = []models.Document{}
	}
	return matches, len(matches), nil
}

func paginateVersions(versions []models.DocumentVersion, limit, offset int) []models.DocumentVersion {
	if offset >= len(versions) {
		return []models.DocumentVersion{}
	}
	end := offset + limit
	if end > len(versions) {
		end = len(versions)
	}
	return versions[offset:end]
}

func strPtr(s string) *string { return &s }

func pageOpts(page, size int) models.PageOptions {
	return models.PageOptions{Page: page, PageSize: size}
}

// fakeTaskRepo is an in-memory TaskRepository.
type fakeTaskRepo struct {
	tasks             map[string]*models.Task
	statusHistory     []models.TaskStatusChange
	assignmentHistory []models.TaskAssignmentChange
	watchers          map[string]map[string]models.TaskWatcher
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{
		tasks:    make(map[string]*models.Task),
		watchers: make(map[string]map[string]models.TaskWatcher),
	}
}

func (r *fakeTaskRepo) CreateTask(ctx context.Context, task *models.Task) error {
	copied := *task
	r.tasks[task.ID] = &copied
	return nil
}

func (r *fakeTaskRepo) GetTask(ctx context.Context, id, companyID string) (*models.Task, error) {
	task, ok := r.tasks[id]
	if !ok || task.CompanyID != companyID {
		return nil, fmt.Errorf("task %s: %w", id, domain.ErrNotFound)
	}
	copied := *task
	return &copied, nil
}

func (r *fakeTaskRepo) UpdateTask(ctx context.Context, task *models.Task) error {
	existing, ok := r.tasks[task.ID]
	if !ok || existing.CompanyID != task.CompanyID {
		return fmt.Errorf("task %s: %w", task.ID, domain.ErrNotFound)
	}
	copied := *task
	r.tasks[task.ID] = &copied
	return nil
}

func (r *fakeTaskRepo) DeleteTask(ctx context.Context, id, companyID string) (bool, error) {
	task, ok := r.tasks[id]
	if !ok || task.CompanyID != companyID {
		return false, nil
	}
	delete(r.tasks, id)
	return true, nil
}

func (r *fakeTaskRepo) ListTasks(ctx context.Context, companyID string, opts *models.TaskListOptions) ([]models.Task, int, error) {
	var tasks []models.Task
	for _, task := range r.tasks {
		if task.CompanyID == companyID {
			tasks = append(tasks, *task)
		}
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return tasks, len(tasks), nil
}

func (r *fakeTaskRepo) InsertStatusChange(ctx context.Context, change *models.TaskStatusChange) error {
	r.statusHistory = append(r.statusHistory, *change)
	return nil
}

func (r *fakeTaskRepo) InsertAssignmentChange(ctx context.Context, change *models.TaskAssignmentChange) error {
	r.assignmentHistory = append(r.assignmentHistory, *change)
	return nil
}

func (r *fakeTaskRepo) InsertWatcher(ctx context.Context, watcher *models.TaskWatcher) error {
	if r.watchers[watcher.TaskID] == nil {
		r.watchers[watcher.TaskID] = make(map[string]models.TaskWatcher)
	}
	if _, ok := r.watchers[watcher.TaskID][watcher.UserID]; !ok {
		r.watchers[watcher.TaskID][watcher.UserID] = *watcher
	}
	return nil
}

func (r *fakeTaskRepo) DeleteWatcher(ctx context.Context, taskID, companyID, userID string) (bool, error) {
	if _, ok := r.watchers[taskID][userID]; !ok {
		return false, nil
	}
	delete(r.watchers[taskID], userID)
	return true, nil
}

func (r *fakeTaskRepo) ListStatusHistory(ctx context.Context, taskID, companyID string) ([]models.TaskStatusChange, error) {
	var history []models.TaskStatusChange
	for _, change := range r.statusHistory {
		if change.TaskID == taskID && change.CompanyID == companyID {
			history = append(history, change)
		}
	}
	if history == nil {
		history = []models.TaskStatusChange{}
	}
	return history, nil
}

func (r *fakeTaskRepo) ListAssignmentHistory(ctx context.Context, taskID, companyID string) ([]models.TaskAssignmentChange, error) {
	var history []models.TaskAssignmentChange
	for _, change := range r.assignmentHistory {
		if change.TaskID == taskID && change.CompanyID == companyID {
			history = append(history, change)
		}
	}
	if history == nil {
		history = []models.TaskAssignmentChange{}
	}
	return history, nil
}

func (r *fakeTaskRepo) ListWatchers(ctx context.Context, taskID, companyID string) ([]models.TaskWatcher, error) {
	var watchers []models.TaskWatcher
	for _, w := range r.watchers[taskID] {
		if w.CompanyID == companyID {
			watchers = append(watchers, w)
		}
	}
	if watchers == nil {
		watchers = []models.TaskWatcher{}
	}
	return watchers, nil
}

func (r *fakeTaskRepo) DeleteStatusHistoryByTask(ctx context.Context, taskID string) error {
	var kept []models.TaskStatusChange
	for _, change := range r.statusHistory {
		if change.TaskID != taskID {
			kept = append(kept, change)
		}
	}
	r.statusHistory = kept
	return nil
}

func (r *fakeTaskRepo) DeleteAssignmentHistoryByTask(ctx context.Context, taskID string) error {
	var kept []models.TaskAssignmentChange
	for _, change := range r.assignmentHistory {
		if change.TaskID != taskID {
			kept = append(kept, change)
		}
	}
	r.assignmentHistory = kept
	return nil
}

func (r *fakeTaskRepo) DeleteWatchersByTask(ctx context.Context, taskID string) error {
	delete(r.watchers, taskID)
	return nil
}

// fakeContactRepo is an in-memory ContactRepository.
type fakeContactRepo struct {
	contacts map[string]*models.Contact
	threads  map[string]*models.MessageThread
	messages map[string][]models.Message
}

func newFakeContactRepo() *fakeContactRepo {
	return &fakeContactRepo{
		contacts: make(map[string]*models.Contact),
		threads:  make(map[string]*models.MessageThread),
		messages: make(map[string][]models.Message),
	}
}

func (r *fakeContactRepo) CreateContact(ctx context.Context, contact *models.Contact) error {
	copied := *contact
	r.contacts[contact.ID] = &copied
	return nil
}

func (r *fakeContactRepo) GetContact(ctx context.Context, id, companyID string) (*models.Contact, error) {
	contact, ok := r.contacts[id]
	if !ok || contact.CompanyID != companyID {
		return nil, fmt.Errorf("contact %s: %w", id, domain.ErrNotFound)
	}
	copied := *contact
	return &copied, nil
}

func (r *fakeContactRepo) UpdateContact(ctx context.Context, contact *models.Contact) error {
	existing, ok := r.contacts[contact.ID]
	if !ok || existing.CompanyID != contact.CompanyID {
		return fmt.Errorf("contact %s: %w", contact.ID, domain.ErrNotFound)
	}
	copied := *contact
	r.contacts[contact.ID] = &copied
	return nil
}

func (r *fakeContactRepo) DeleteContact(ctx context.Context, id, companyID string) (bool, error) {
	contact, ok := r.contacts[id]
	if !ok || contact.CompanyID != companyID {
		return false, nil
	}
	delete(r.contacts, id)
	return true, nil
}

func (r *fakeContactRepo) ListContacts(ctx context.Context, companyID, term string, limit, offset int) ([]models.Contact, int, error) {
	lower := strings.ToLower(term)
	var contacts []models.Contact
	for _, contact := range r.contacts {
		if contact.CompanyID != companyID {
			continue
		}
		if term == "" || strings.Contains(strings.ToLower(contact.DisplayName), lower) {
			contacts = append(contacts, *contact)
		}
	}
	if contacts == nil {
		contacts = []models.Contact{}
	}
	return contacts, len(contacts), nil
}

func (r *fakeContactRepo) CreateThread(ctx context.Context, thread *models.MessageThread) error {
	copied := *thread
	r.threads[thread.ID] = &copied
	return nil
}

func (r *fakeContactRepo) GetThread(ctx context.Context, id, companyID string) (*models.MessageThread, error) {
	thread, ok := r.threads[id]
	if !ok || thread.CompanyID != companyID {
		return nil, fmt.Errorf("thread %s: %w", id, domain.ErrNotFound)
	}
	copied := *thread
	return &copied, nil
}

func (r *fakeContactRepo) ListThreads(ctx context.Context, companyID string, contactID *string) ([]models.MessageThread, error) {
	var threads []models.MessageThread
	for _, thread := range r.threads {
		if thread.CompanyID != companyID {
			continue
		}
		if contactID != nil && (thread.ContactID == nil || *thread.ContactID != *contactID) {
			continue
		}
		threads = append(threads, *thread)
	}
	if threads == nil {
		threads = []models.MessageThread{}
	}
	return threads, nil
}

func (r *fakeContactRepo) InsertMessage(ctx context.Context, msg *models.Message) error {
	r.messages[msg.ThreadID] = append(r.messages[msg.ThreadID], *msg)
	return nil
}

func (r *fakeContactRepo) BumpThreadActivity(ctx context.Context, threadID, companyID string, at time.Time) error {
	thread, ok := r.threads[threadID]
	if !ok || thread.CompanyID != companyID {
		return fmt.Errorf("thread %s: %w", threadID, domain.ErrNotFound)
	}
	thread.LastMessageAt = &at
	thread.UpdatedAt = at
	return nil
}

func (r *fakeContactRepo) ListMessages(ctx context.Context, threadID, companyID string, limit, offset int) ([]models.Message, int, error) {
	msgs := append([]models.Message(nil), r.messages[threadID]...)
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].SentAt.Before(msgs[j].SentAt) })
	if offset >= len(msgs) {
		return []models.Message{}, len(r.messages[threadID]), nil
	}
	end := offset + limit
	if end > len(msgs) {
		end = len(msgs)
	}
	return msgs[offset:end], len(r.messages[threadID]), nil
}
