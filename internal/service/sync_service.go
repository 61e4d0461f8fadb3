package service

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"thus-sync-server/internal/domain"
	"thus-sync-server/internal/repository"
	"thus-sync-server/pkg/response"
)

// BatchMode selects how every atom in a batch is interpreted. The handler
// decides it once per request; atoms cannot mix modes.
type BatchMode int

const (
	BatchMutate BatchMode = iota + 1
	BatchQuery
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100

	threadDataContentLimit = 10
)

// ChangeNotifier pushes a change event to the owning user's other connected
// clients. Implementations must not block the sync loop.
type ChangeNotifier interface {
	NotifySyncChange(userID, infoType, id, operation string) error
}

type SyncService struct {
	threadRepo  repository.ThreadRepository
	commentRepo repository.CommentRepository
	contentRepo repository.ContentRepository
	spaces      *SpaceService
	notifier    ChangeNotifier
}

func NewSyncService(
	threadRepo repository.ThreadRepository,
	commentRepo repository.CommentRepository,
	contentRepo repository.ContentRepository,
	spaces *SpaceService,
	notifier ChangeNotifier,
) *SyncService {
	return &SyncService{
		threadRepo:  threadRepo,
		commentRepo: commentRepo,
		contentRepo: contentRepo,
		spaces:      spaces,
		notifier:    notifier,
	}
}

// Process runs a batch strictly sequentially in input order and returns one
// result per atom, in that order. Sequential execution is what lets a later
// atom reference an entity created by an earlier atom in the same batch
// through its first_id. One atom failing never aborts the rest.
func (s *SyncService) Process(userID string, mode BatchMode, atoms []domain.Atom) []domain.AtomResult {
	results := make([]domain.AtomResult, 0, len(atoms))
	for _, atom := range atoms {
		results = append(results, s.processAtom(userID, mode, atom))
	}
	return results
}

func (s *SyncService) processAtom(userID string, mode BatchMode, atom domain.Atom) (result domain.AtomResult) {
	defer func() {
		if r := recover(); r != nil {
			result = errResult(atom.TaskID, response.CodeInternal, fmt.Sprintf("internal error: %v", r))
		}
	}()

	switch mode {
	case BatchMutate:
		return s.applyMutation(userID, atom)
	case BatchQuery:
		return s.runQuery(userID, atom)
	default:
		return errResult(atom.TaskID, response.CodeInternal, "unknown batch mode")
	}
}

func (s *SyncService) applyMutation(userID string, atom domain.Atom) domain.AtomResult {
	switch atom.TaskType {
	case domain.TaskThreadPost:
		return s.postThread(userID, atom)
	case domain.TaskThreadEdit:
		return s.editThread(userID, atom)
	case domain.TaskThreadDelete:
		return s.deleteThread(userID, atom)
	case domain.TaskCommentPost:
		return s.postComment(userID, atom)
	case domain.TaskCommentEdit:
		return s.editComment(userID, atom)
	case domain.TaskCommentDelete:
		return s.deleteComment(userID, atom)
	default:
		return errResult(atom.TaskID, response.CodeInternal, fmt.Sprintf("unknown taskType %q", atom.TaskType))
	}
}

func (s *SyncService) runQuery(userID string, atom domain.Atom) domain.AtomResult {
	switch atom.TaskType {
	case domain.TaskThreadList:
		return s.listThreads(userID, atom)
	case domain.TaskContentList:
		return s.listContents(userID, atom)
	case domain.TaskThreadData:
		return s.threadData(userID, atom)
	case domain.TaskCommentList:
		return s.listComments(userID, atom)
	default:
		return errResult(atom.TaskID, response.CodeInternal, fmt.Sprintf("unknown taskType %q", atom.TaskType))
	}
}

func (s *SyncService) postThread(userID string, atom domain.Atom) domain.AtomResult {
	payload := atom.Thread
	if payload == nil {
		return errResult(atom.TaskID, response.CodeBadRequest, "thread is required")
	}
	if strOrEmpty(payload.Title) == "" && strOrEmpty(payload.Description) == "" && len(payload.ThusDesc) == 0 {
		return errResult(atom.TaskID, response.CodeBadRequest, "thread needs a title or description")
	}

	// A retried batch must not create the thread twice.
	if payload.FirstID != "" {
		if existing, err := s.threadRepo.FindByFirstID(payload.FirstID, userID); err == nil {
			return domain.AtomResult{
				TaskID:  atom.TaskID,
				Code:    response.CodeOK,
				FirstID: payload.FirstID,
				NewID:   existing.ID,
			}
		}
	}

	spaceID := payload.SpaceID
	if uuid.Validate(spaceID) != nil {
		spaceID = ""
	}
	if spaceID == "" {
		if id, err := s.spaces.DefaultSpaceID(userID); err == nil {
			spaceID = id
		}
	}

	now := time.Now()
	thread := &domain.Thread{
		ID:          uuid.New().String(),
		FirstID:     payload.FirstID,
		UserID:      userID,
		SpaceID:     spaceID,
		Title:       strOrEmpty(payload.Title),
		Description: strOrEmpty(payload.Description),
		ThusDesc:    payload.ThusDesc,
		Images:      payload.Images,
		Files:       payload.Files,
		Tags:        payload.Tags,
		TagIDs:      payload.TagIDs,
		TagSearched: payload.TagSearched,
		StateID:     payload.StateID,
		EmojiData:   payload.EmojiData,
		Config:      payload.Config,
		Status:      domain.ThreadStatusActive,
		OState:      domain.OStateOK,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if payload.OState != nil {
		thread.OState = *payload.OState
	}
	if thread.Description == "" && len(thread.ThusDesc) > 0 {
		thread.Description = extractPlainText(thread.ThusDesc)
	}
	thread.CreatedStamp = stampOr(payload.CreatedStamp, now)
	thread.EditedStamp = stampOr(payload.EditedStamp, now)
	thread.CalendarStamp = stampOr(payload.CalendarStamp, time.Time{})
	thread.RemindStamp = stampOr(payload.RemindStamp, time.Time{})
	thread.WhenStamp = stampOr(payload.WhenStamp, time.Time{})
	thread.PinStamp = stampOr(payload.PinStamp, time.Time{})
	thread.StateStamp = stampOr(payload.StateStamp, time.Time{})

	if err := s.threadRepo.Create(thread); err != nil {
		return errResult(atom.TaskID, response.CodeInternal, err.Error())
	}
	s.notify(userID, "THREAD", thread.ID, "post")

	firstID := payload.FirstID
	if firstID == "" {
		firstID = thread.ID
	}
	return domain.AtomResult{
		TaskID:  atom.TaskID,
		Code:    response.CodeOK,
		FirstID: firstID,
		NewID:   thread.ID,
	}
}

func (s *SyncService) editThread(userID string, atom domain.Atom) domain.AtomResult {
	payload := atom.Thread
	if payload == nil || (payload.ID == "" && payload.FirstID == "") {
		return errResult(atom.TaskID, response.CodeBadRequest, "thread id is required")
	}

	thread, err := s.resolveThread(userID, payload.ID, payload.FirstID)
	if err != nil {
		return failureResult(atom.TaskID, err)
	}

	if payload.Title != nil {
		thread.Title = *payload.Title
	}
	if payload.Description != nil {
		thread.Description = *payload.Description
	}
	if len(payload.ThusDesc) > 0 {
		thread.ThusDesc = payload.ThusDesc
		if payload.Description == nil {
			thread.Description = extractPlainText(payload.ThusDesc)
		}
	}
	if len(payload.Images) > 0 {
		thread.Images = payload.Images
	}
	if len(payload.Files) > 0 {
		thread.Files = payload.Files
	}
	if payload.Tags != nil {
		thread.Tags = payload.Tags
	}
	if payload.TagIDs != nil {
		thread.TagIDs = payload.TagIDs
	}
	if payload.TagSearched != nil {
		thread.TagSearched = payload.TagSearched
	}
	if payload.StateID != nil {
		thread.StateID = payload.StateID
	}
	if len(payload.EmojiData) > 0 {
		thread.EmojiData = payload.EmojiData
	}
	if len(payload.Config) > 0 {
		thread.Config = payload.Config
	}
	if payload.OState != nil {
		thread.OState = *payload.OState
	}
	if payload.CalendarStamp != nil {
		thread.CalendarStamp = *payload.CalendarStamp
	}
	if payload.RemindStamp != nil {
		thread.RemindStamp = *payload.RemindStamp
	}
	if payload.WhenStamp != nil {
		thread.WhenStamp = *payload.WhenStamp
	}
	if payload.PinStamp != nil {
		thread.PinStamp = *payload.PinStamp
	}
	if payload.StateStamp != nil {
		thread.StateStamp = *payload.StateStamp
	}

	now := time.Now()
	thread.EditedStamp = stampOr(payload.EditedStamp, now)
	thread.UpdatedAt = now

	if err := s.threadRepo.Update(thread); err != nil {
		return errResult(atom.TaskID, response.CodeInternal, err.Error())
	}
	s.notify(userID, "THREAD", thread.ID, "edit")

	return domain.AtomResult{TaskID: atom.TaskID, Code: response.CodeOK, NewID: thread.ID}
}

func (s *SyncService) deleteThread(userID string, atom domain.Atom) domain.AtomResult {
	payload := atom.Thread
	if payload == nil || (payload.ID == "" && payload.FirstID == "") {
		return errResult(atom.TaskID, response.CodeBadRequest, "thread id is required")
	}

	thread, err := s.resolveThread(userID, payload.ID, payload.FirstID)
	if err != nil {
		return failureResult(atom.TaskID, err)
	}

	now := time.Now()
	thread.Status = domain.ThreadStatusDeleted
	thread.OState = domain.OStateDeleted
	thread.RemovedStamp = stampOr(payload.RemovedStamp, now)
	thread.UpdatedAt = now

	if err := s.threadRepo.Update(thread); err != nil {
		return errResult(atom.TaskID, response.CodeInternal, err.Error())
	}
	s.notify(userID, "THREAD", thread.ID, "delete")

	return domain.AtomResult{TaskID: atom.TaskID, Code: response.CodeOK, NewID: thread.ID}
}

func (s *SyncService) postComment(userID string, atom domain.Atom) domain.AtomResult {
	payload := atom.Comment
	if payload == nil {
		return errResult(atom.TaskID, response.CodeBadRequest, "comment is required")
	}
	if payload.ThreadID == "" {
		return errResult(atom.TaskID, response.CodeBadRequest, "threadId is required")
	}

	// threadId may be a server id or the first_id of a thread created by an
	// earlier atom in this same batch.
	thread, err := s.resolveThread(userID, payload.ThreadID, payload.ThreadID)
	if err != nil {
		return failureResult(atom.TaskID, err)
	}

	if payload.FirstID != "" {
		if existing, err := s.commentRepo.FindByFirstID(payload.FirstID, userID); err == nil {
			return domain.AtomResult{
				TaskID:  atom.TaskID,
				Code:    response.CodeOK,
				FirstID: payload.FirstID,
				NewID:   existing.ID,
			}
		}
	}

	now := time.Now()
	comment := &domain.Comment{
		ID:           uuid.New().String(),
		FirstID:      payload.FirstID,
		UserID:       userID,
		ThreadID:     thread.ID,
		ParentID:     payload.ParentID,
		Content:      strOrEmpty(payload.Content),
		Status:       domain.CommentStatusActive,
		CreatedStamp: stampOr(payload.CreatedStamp, now),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.commentRepo.Create(comment); err != nil {
		return errResult(atom.TaskID, response.CodeInternal, err.Error())
	}
	s.notify(userID, "COMMENT", comment.ID, "post")

	firstID := payload.FirstID
	if firstID == "" {
		firstID = comment.ID
	}
	return domain.AtomResult{
		TaskID:  atom.TaskID,
		Code:    response.CodeOK,
		FirstID: firstID,
		NewID:   comment.ID,
	}
}

func (s *SyncService) editComment(userID string, atom domain.Atom) domain.AtomResult {
	payload := atom.Comment
	if payload == nil || (payload.ID == "" && payload.FirstID == "") {
		return errResult(atom.TaskID, response.CodeBadRequest, "comment id is required")
	}

	comment, err := s.resolveComment(userID, payload.ID, payload.FirstID)
	if err != nil {
		return failureResult(atom.TaskID, err)
	}

	if payload.Content != nil {
		comment.Content = *payload.Content
	}
	comment.UpdatedAt = time.Now()

	if err := s.commentRepo.Update(comment); err != nil {
		return errResult(atom.TaskID, response.CodeInternal, err.Error())
	}
	s.notify(userID, "COMMENT", comment.ID, "edit")

	return domain.AtomResult{TaskID: atom.TaskID, Code: response.CodeOK, NewID: comment.ID}
}

func (s *SyncService) deleteComment(userID string, atom domain.Atom) domain.AtomResult {
	payload := atom.Comment
	if payload == nil || (payload.ID == "" && payload.FirstID == "") {
		return errResult(atom.TaskID, response.CodeBadRequest, "comment id is required")
	}

	comment, err := s.resolveComment(userID, payload.ID, payload.FirstID)
	if err != nil {
		return failureResult(atom.TaskID, err)
	}

	now := time.Now()
	comment.Status = domain.CommentStatusDeleted
	comment.RemovedStamp = stampOr(payload.RemovedStamp, now)
	comment.UpdatedAt = now

	if err := s.commentRepo.Update(comment); err != nil {
		return errResult(atom.TaskID, response.CodeInternal, err.Error())
	}
	s.notify(userID, "COMMENT", comment.ID, "delete")

	return domain.AtomResult{TaskID: atom.TaskID, Code: response.CodeOK, NewID: comment.ID}
}

func (s *SyncService) listThreads(userID string, atom domain.Atom) domain.AtomResult {
	spaceID := atom.SpaceID
	if uuid.Validate(spaceID) != nil {
		spaceID = ""
	}

	filter := domain.ThreadFilter{
		SpaceID:  spaceID,
		ViewType: normalizeView(atom.ViewType),
		Limit:    pageLimit(atom.Limit),
		Skip:     pageSkip(atom.Skip),
	}

	threads, err := s.threadRepo.List(userID, filter)
	if err != nil {
		return errResult(atom.TaskID, response.CodeInternal, err.Error())
	}

	parcels := make([]domain.ThreadParcel, 0, len(threads))
	for _, t := range threads {
		parcels = append(parcels, buildThreadParcel(userID, t))
	}

	return domain.AtomResult{TaskID: atom.TaskID, Code: response.CodeOK, List: parcels}
}

func (s *SyncService) listContents(userID string, atom domain.Atom) domain.AtomResult {
	if atom.ThreadID == "" {
		return errResult(atom.TaskID, response.CodeBadRequest, "threadId is required")
	}

	contents, err := s.contentRepo.ListByThread(atom.ThreadID, userID, pageLimit(atom.Limit), pageSkip(atom.Skip))
	if err != nil {
		return errResult(atom.TaskID, response.CodeInternal, err.Error())
	}

	return domain.AtomResult{TaskID: atom.TaskID, Code: response.CodeOK, List: contents}
}

func (s *SyncService) threadData(userID string, atom domain.Atom) domain.AtomResult {
	if atom.ThreadID == "" {
		return errResult(atom.TaskID, response.CodeBadRequest, "threadId is required")
	}

	thread, err := s.threadRepo.FindByID(atom.ThreadID, userID)
	if err != nil {
		return failureResult(atom.TaskID, err)
	}

	contents, err := s.contentRepo.ListByThread(thread.ID, userID, threadDataContentLimit, 0)
	if err != nil {
		return errResult(atom.TaskID, response.CodeInternal, err.Error())
	}

	return domain.AtomResult{
		TaskID:   atom.TaskID,
		Code:     response.CodeOK,
		Thread:   thread,
		Contents: contents,
	}
}

func (s *SyncService) listComments(userID string, atom domain.Atom) domain.AtomResult {
	if atom.ThreadID == "" {
		return errResult(atom.TaskID, response.CodeBadRequest, "threadId is required")
	}

	comments, err := s.commentRepo.ListByThread(atom.ThreadID, userID, pageLimit(atom.Limit), pageSkip(atom.Skip))
	if err != nil {
		return errResult(atom.TaskID, response.CodeInternal, err.Error())
	}

	return domain.AtomResult{TaskID: atom.TaskID, Code: response.CodeOK, List: comments}
}

// resolveThread tries the server id first, then the client first_id. The two
// arguments may be the same string when the caller cannot tell which kind it
// holds.
func (s *SyncService) resolveThread(userID, id, firstID string) (*domain.Thread, error) {
	if id != "" {
		if thread, err := s.threadRepo.FindByID(id, userID); err == nil {
			return thread, nil
		}
	}
	if firstID != "" {
		return s.threadRepo.FindByFirstID(firstID, userID)
	}
	return nil, repository.ErrNotFound
}

func (s *SyncService) resolveComment(userID, id, firstID string) (*domain.Comment, error) {
	if id != "" {
		if comment, err := s.commentRepo.FindByID(id, userID); err == nil {
			return comment, nil
		}
	}
	if firstID != "" {
		return s.commentRepo.FindByFirstID(firstID, userID)
	}
	return nil, repository.ErrNotFound
}

func (s *SyncService) notify(userID, infoType, id, operation string) {
	if s.notifier == nil {
		return
	}
	// Push failures never fail the mutation: clients converge on next pull.
	_ = s.notifier.NotifySyncChange(userID, infoType, id, operation)
}

func buildThreadParcel(userID string, t *domain.Thread) domain.ThreadParcel {
	firstID := t.FirstID
	if firstID == "" {
		firstID = t.ID
	}

	oState := t.OState
	if oState == "" {
		oState = domain.OStateOK
	}

	createdStamp := t.CreatedStamp
	if createdStamp == 0 {
		createdStamp = t.CreatedAt.UnixMilli()
	}
	editedStamp := t.EditedStamp
	if editedStamp == 0 {
		editedStamp = t.UpdatedAt.UnixMilli()
	}

	return domain.ThreadParcel{
		ID:         t.ID,
		Status:     "has_data",
		ParcelType: "content",
		Content: domain.ParcelContent{
			ID:      t.ID,
			FirstID: firstID,
			IsMine:  true,
			Author: domain.ParcelAuthor{
				SpaceID: t.SpaceID,
				UserID:  t.UserID,
			},
			SpaceID:       t.SpaceID,
			SpaceType:     "ME",
			InfoType:      "THREAD",
			OState:        oState,
			VisScope:      "PUBLIC",
			StorageState:  "CLOUD",
			Title:         t.Title,
			ThusDesc:      t.ThusDesc,
			Images:        t.Images,
			Files:         t.Files,
			CalendarStamp: t.CalendarStamp,
			RemindStamp:   t.RemindStamp,
			WhenStamp:     t.WhenStamp,
			PinStamp:      t.PinStamp,
			CreatedStamp:  createdStamp,
			EditedStamp:   editedStamp,
			RemovedStamp:  t.RemovedStamp,
			TagIDs:        t.TagIDs,
			TagSearched:   t.TagSearched,
			StateID:       t.StateID,
			StateStamp:    t.StateStamp,
			EmojiData:     t.EmojiData,
			Config:        t.Config,
			SearchTitle:   t.Title,
			SearchOther:   t.Description,
		},
	}
}

func normalizeView(raw string) domain.ViewType {
	switch domain.ViewType(strings.ToLower(raw)) {
	case domain.ViewTrash:
		return domain.ViewTrash
	case domain.ViewArchived:
		return domain.ViewArchived
	default:
		return domain.ViewActive
	}
}

func pageLimit(limit int) int {
	if limit <= 0 {
		return defaultPageLimit
	}
	if limit > maxPageLimit {
		return maxPageLimit
	}
	return limit
}

func pageSkip(skip int) int {
	if skip < 0 {
		return 0
	}
	return skip
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func stampOr(v *int64, fallback time.Time) int64 {
	if v != nil {
		return *v
	}
	if fallback.IsZero() {
		return 0
	}
	return fallback.UnixMilli()
}

// extractPlainText flattens a block-structured rich description into the
// plain string stored for search. Unknown shapes flatten to "".
func extractPlainText(raw json.RawMessage) string {
	var blocks []struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
		Children []struct {
			Text string `json:"text"`
		} `json:"children"`
	}
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return ""
	}

	var sb strings.Builder
	for _, block := range blocks {
		for _, c := range block.Content {
			sb.WriteString(c.Text)
		}
		for _, c := range block.Children {
			sb.WriteString(c.Text)
		}
		sb.WriteString(" ")
	}
	return strings.TrimSpace(sb.String())
}
