package service

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"thus-sync-server/internal/domain"
	"thus-sync-server/internal/repository"
)

// ContentService manages thread content revisions. Revisions are append-only;
// each write becomes a new row with the next version number.
type ContentService struct {
	contentRepo repository.ContentRepository
	threadRepo  repository.ThreadRepository
	notifier    ChangeNotifier
}

func NewContentService(
	contentRepo repository.ContentRepository,
	threadRepo repository.ThreadRepository,
	notifier ChangeNotifier,
) *ContentService {
	return &ContentService{
		contentRepo: contentRepo,
		threadRepo:  threadRepo,
		notifier:    notifier,
	}
}

// CreateRevision appends a new content revision to a thread the user owns.
// Versions start at 1 and increase by one per revision.
func (s *ContentService) CreateRevision(userID, threadID string, blocks json.RawMessage, isEncrypted bool, encryptedData string) (*domain.Content, error) {
	thread, err := s.threadRepo.FindByID(threadID, userID)
	if err != nil {
		return nil, err
	}

	version := int64(1)
	if latest, err := s.contentRepo.ListByThread(thread.ID, userID, 1, 0); err == nil && len(latest) > 0 {
		version = latest[0].Version + 1
	}

	now := time.Now()
	content := &domain.Content{
		ID:            uuid.New().String(),
		ThreadID:      thread.ID,
		UserID:        userID,
		Version:       version,
		Blocks:        blocks,
		IsEncrypted:   isEncrypted,
		EncryptedData: encryptedData,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.contentRepo.Create(content); err != nil {
		return nil, err
	}

	// A new revision counts as an edit of the thread. The revision is already
	// persisted, so a failed touch does not fail the request.
	thread.UpdatedAt = now
	_ = s.threadRepo.Update(thread)

	if s.notifier != nil {
		_ = s.notifier.NotifySyncChange(userID, "CONTENT", content.ID, "post")
	}

	return content, nil
}

// Latest returns the newest revision of a thread the user owns.
func (s *ContentService) Latest(userID, threadID string) (*domain.Content, error) {
	if _, err := s.threadRepo.FindByID(threadID, userID); err != nil {
		return nil, err
	}

	contents, err := s.contentRepo.ListByThread(threadID, userID, 1, 0)
	if err != nil {
		return nil, err
	}
	if len(contents) == 0 {
		return nil, repository.ErrNotFound
	}

	return contents[0], nil
}

// ListByThread returns a thread's revisions newest version first.
func (s *ContentService) ListByThread(userID, threadID string, limit, skip int) ([]*domain.Content, error) {
	if _, err := s.threadRepo.FindByID(threadID, userID); err != nil {
		return nil, err
	}

	return s.contentRepo.ListByThread(threadID, userID, pageLimit(limit), pageSkip(skip))
}
