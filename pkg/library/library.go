// Package library models the knowledge library settings screen: crop
// profiles, per-node crop assignments, document upload and search.
package library

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"sprouthub/pkg/backend"
	"sprouthub/pkg/domain"
	apperrors "sprouthub/pkg/errors"
	"sprouthub/pkg/logger"
	"sprouthub/pkg/validator"
)

type Backend interface {
	ListCropProfiles(ctx context.Context) ([]domain.CropProfile, error)
	AssignCrop(ctx context.Context, nodeID, cropType string) (domain.CropAssignment, error)
	GetAssignedCrop(ctx context.Context, nodeID string) (domain.CropAssignment, error)
	UploadDocument(ctx context.Context, req backend.UploadRequest) (domain.UploadResult, error)
	DeleteCropProfile(ctx context.Context, cropID string) (string, error)
	SearchKnowledge(ctx context.Context, query, cropType string, nResults int) ([]domain.SearchResult, error)
	GetCropProfile(ctx context.Context, cropID string) (domain.CropProfile, error)
	ListDocuments(ctx context.Context) ([]domain.KnowledgeDocument, error)
	DeleteDocument(ctx context.Context, name string) (domain.DocumentDeletion, error)
}

type Translator interface {
	T(key string) string
}

type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
)

type Notification struct {
	Type      NotificationType `json:"type"`
	Message   string           `json:"message"`
	ExpiresAt time.Time        `json:"expires_at"`
}

type State struct {
	Loaded       bool                             `json:"loaded"`
	Profiles     []domain.CropProfile             `json:"profiles"`
	Assignments  map[string]domain.CropAssignment `json:"assignments"`
	Results      []domain.SearchResult            `json:"results"`
	Notification *Notification                    `json:"notification,omitempty"`
}

// Library holds the settings screen state. A failed backend call only sets an
// error notification and leaves the rest of the state untouched.
type Library struct {
	mu           sync.Mutex
	backend      Backend
	tr           Translator
	now          func() time.Time
	ttl          time.Duration
	logger       zerolog.Logger
	loaded       bool
	profiles     []domain.CropProfile
	assignments  map[string]domain.CropAssignment
	results      []domain.SearchResult
	notification *Notification
}

func New(b Backend, tr Translator, ttl time.Duration) *Library {
	if ttl <= 0 {
		ttl = domain.DefaultNotificationTTL
	}
	return &Library{
		backend:     b,
		tr:          tr,
		now:         time.Now,
		ttl:         ttl,
		logger:      logger.ComponentLogger("library"),
		assignments: make(map[string]domain.CropAssignment),
	}
}

func (l *Library) Refresh(ctx context.Context) error {
	profiles, err := l.backend.ListCropProfiles(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()

	if err != nil {
		l.notifyLocked(NotificationError, l.tr.T("libraryLoadFailed"))
		return err
	}
	l.profiles = profiles
	l.loaded = true
	return nil
}

func (l *Library) Assign(ctx context.Context, nodeID, cropType string) (domain.CropAssignment, error) {
	assignment, err := l.backend.AssignCrop(ctx, nodeID, cropType)

	l.mu.Lock()
	defer l.mu.Unlock()

	if err != nil {
		l.notifyLocked(NotificationError, failureMessage(err, l.tr.T("assignmentFailed")))
		return assignment, err
	}

	if assignment.NodeID == "" {
		assignment.NodeID = nodeID
	}
	l.assignments[nodeID] = assignment
	l.notifyLocked(NotificationSuccess, fmt.Sprintf(l.tr.T("nodeSwitched"), cropType))

	l.logger.Info().
		Str("node_id", nodeID).
		Str("crop", assignment.ActiveCrop).
		Msg("Crop assigned")

	return assignment, nil
}

func (l *Library) AssignedCrop(ctx context.Context, nodeID string) (domain.CropAssignment, error) {
	assignment, err := l.backend.GetAssignedCrop(ctx, nodeID)
	if err != nil {
		return assignment, err
	}

	l.mu.Lock()
	l.assignments[nodeID] = assignment
	l.mu.Unlock()

	return assignment, nil
}

func (l *Library) Upload(ctx context.Context, req backend.UploadRequest) (domain.UploadResult, error) {
	req.CropType = strings.TrimSpace(req.CropType)
	req.Description = strings.TrimSpace(req.Description)

	if err := validator.ValidateUploadFileName(req.FileName); err != nil {
		l.notify(NotificationError, l.tr.T("invalidFileType"))
		return domain.UploadResult{}, apperrors.NewValidationError("invalid file type", err)
	}
	if req.CropType == "" {
		l.notify(NotificationError, l.tr.T("cropTypeRequired"))
		return domain.UploadResult{}, apperrors.NewValidationError("crop type is required", nil)
	}

	result, err := l.backend.UploadDocument(ctx, req)
	if err != nil {
		l.notify(NotificationError, failureMessage(err, l.tr.T("uploadFailed")))
		return result, err
	}

	profiles, listErr := l.backend.ListCropProfiles(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()

	if listErr == nil {
		l.profiles = profiles
		l.loaded = true
	}
	l.notifyLocked(NotificationSuccess, fmt.Sprintf(l.tr.T("profileUpdated"), capitalize(req.CropType), result.ChunksCreated))

	return result, nil
}

func (l *Library) Delete(ctx context.Context, cropID string) error {
	if _, err := l.backend.DeleteCropProfile(ctx, cropID); err != nil {
		l.notify(NotificationError, failureMessage(err, l.tr.T("deleteFailed")))
		return err
	}

	profiles, listErr := l.backend.ListCropProfiles(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()

	name := cropID
	kept := l.profiles[:0:0]
	for _, p := range l.profiles {
		if p.CropID == cropID {
			if p.CropName != "" {
				name = p.CropName
			}
			continue
		}
		kept = append(kept, p)
	}
	l.profiles = kept
	if listErr == nil {
		l.profiles = profiles
	}

	l.notifyLocked(NotificationSuccess, fmt.Sprintf(l.tr.T("profileDeleted"), name))
	return nil
}

func (l *Library) Profile(ctx context.Context, cropID string) (domain.CropProfile, error) {
	if strings.TrimSpace(cropID) == "" {
		return domain.CropProfile{}, apperrors.NewValidationError("crop_id is required", nil)
	}
	return l.backend.GetCropProfile(ctx, cropID)
}

func (l *Library) Documents(ctx context.Context) ([]domain.KnowledgeDocument, error) {
	docs, err := l.backend.ListDocuments(ctx)
	if err != nil {
		l.notify(NotificationError, l.tr.T("libraryLoadFailed"))
		return nil, err
	}
	if docs == nil {
		docs = []domain.KnowledgeDocument{}
	}
	return docs, nil
}

func (l *Library) DeleteDocument(ctx context.Context, name string) (domain.DocumentDeletion, error) {
	if strings.TrimSpace(name) == "" {
		return domain.DocumentDeletion{}, apperrors.NewValidationError("document name is required", nil)
	}

	deletion, err := l.backend.DeleteDocument(ctx, name)
	if err != nil {
		l.notify(NotificationError, failureMessage(err, l.tr.T("deleteFailed")))
		return deletion, err
	}

	l.notify(NotificationSuccess, fmt.Sprintf(l.tr.T("documentDeleted"), name, deletion.ChunksRemoved))
	l.logger.Info().Str("document", name).Int("chunks", deletion.ChunksRemoved).Msg("Document deleted")
	return deletion, nil
}

func (l *Library) Search(ctx context.Context, query, cropType string) ([]domain.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	results, err := l.backend.SearchKnowledge(ctx, query, cropType, domain.DefaultSearchResults)
	if err != nil {
		l.notify(NotificationError, l.tr.T("searchFailed"))
		return nil, err
	}

	l.mu.Lock()
	l.results = results
	l.mu.Unlock()

	return results, nil
}

func (l *Library) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()

	state := State{
		Loaded:      l.loaded,
		Profiles:    append([]domain.CropProfile{}, l.profiles...),
		Assignments: make(map[string]domain.CropAssignment, len(l.assignments)),
		Results:     append([]domain.SearchResult{}, l.results...),
	}
	for id, a := range l.assignments {
		state.Assignments[id] = a
	}
	if n := l.activeNotificationLocked(); n != nil {
		copied := *n
		state.Notification = &copied
	}
	return state
}

func (l *Library) Notification() *Notification {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := l.activeNotificationLocked()
	if n == nil {
		return nil
	}
	copied := *n
	return &copied
}

func (l *Library) notify(t NotificationType, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.notifyLocked(t, message)
}

func (l *Library) notifyLocked(t NotificationType, message string) {
	l.notification = &Notification{Type: t, Message: message, ExpiresAt: l.now().Add(l.ttl)}
}

func (l *Library) activeNotificationLocked() *Notification {
	if l.notification != nil && !l.now().Before(l.notification.ExpiresAt) {
		l.notification = nil
	}
	return l.notification
}

func failureMessage(err error, fallback string) string {
	if apperrors.IsType(err, apperrors.BackendError) {
		if msg := backend.Message(err); msg != "" {
			return msg
		}
	}
	return fallback
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
