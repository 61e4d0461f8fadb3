package service

import (
	"sort"
	"time"

	"thus-sync-server/internal/domain"
	"thus-sync-server/internal/repository"
)

type mockUserRepository struct {
	users map[string]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users: make(map[string]*domain.User),
	}
}

func (m *mockUserRepository) Create(user *domain.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepository) FindByEmail(email string) (*domain.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockUserRepository) FindByID(id string) (*domain.User, error) {
	if user, ok := m.users[id]; ok {
		return user, nil
	}
	return nil, repository.ErrNotFound
}

func (m *mockUserRepository) Update(user *domain.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepository) EmailExists(email string) (bool, error) {
	_, err := m.FindByEmail(email)
	return err == nil, nil
}

func (m *mockUserRepository) UsernameExists(username string) (bool, error) {
	for _, user := range m.users {
		if user.Username == username {
			return true, nil
		}
	}
	return false, nil
}

type mockThreadRepository struct {
	threads map[string]*domain.Thread
}

func newMockThreadRepository() *mockThreadRepository {
	return &mockThreadRepository{
		threads: make(map[string]*domain.Thread),
	}
}

func (m *mockThreadRepository) Create(thread *domain.Thread) error {
	m.threads[thread.ID] = thread
	return nil
}

func (m *mockThreadRepository) FindByID(id, userID string) (*domain.Thread, error) {
	thread, ok := m.threads[id]
	if !ok || thread.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return thread, nil
}

func (m *mockThreadRepository) FindByFirstID(firstID, userID string) (*domain.Thread, error) {
	for _, thread := range m.threads {
		if thread.FirstID == firstID && thread.UserID == userID {
			return thread, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockThreadRepository) List(userID string, filter domain.ThreadFilter) ([]*domain.Thread, error) {
	var out []*domain.Thread
	for _, thread := range m.threads {
		if thread.UserID != userID {
			continue
		}
		if filter.SpaceID != "" && thread.SpaceID != filter.SpaceID {
			continue
		}
		switch filter.ViewType {
		case domain.ViewTrash:
			if thread.OState != domain.OStateDeleted {
				continue
			}
		case domain.ViewArchived:
			if thread.Status != domain.ThreadStatusArchived {
				continue
			}
		default:
			if thread.Status != domain.ThreadStatusActive || thread.OState == domain.OStateDeleted {
				continue
			}
		}
		out = append(out, thread)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	if filter.Skip > 0 {
		if filter.Skip >= len(out) {
			return nil, nil
		}
		out = out[filter.Skip:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *mockThreadRepository) Update(thread *domain.Thread) error {
	if _, ok := m.threads[thread.ID]; !ok {
		return repository.ErrNotFound
	}
	m.threads[thread.ID] = thread
	return nil
}

type mockCommentRepository struct {
	comments map[string]*domain.Comment
}

func newMockCommentRepository() *mockCommentRepository {
	return &mockCommentRepository{
		comments: make(map[string]*domain.Comment),
	}
}

func (m *mockCommentRepository) Create(comment *domain.Comment) error {
	m.comments[comment.ID] = comment
	return nil
}

func (m *mockCommentRepository) FindByID(id, userID string) (*domain.Comment, error) {
	comment, ok := m.comments[id]
	if !ok || comment.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return comment, nil
}

func (m *mockCommentRepository) FindByFirstID(firstID, userID string) (*domain.Comment, error) {
	for _, comment := range m.comments {
		if comment.FirstID == firstID && comment.UserID == userID {
			return comment, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockCommentRepository) ListByThread(threadID, userID string, limit, skip int) ([]*domain.Comment, error) {
	var out []*domain.Comment
	for _, comment := range m.comments {
		if comment.ThreadID == threadID && comment.UserID == userID && comment.Status == domain.CommentStatusActive {
			out = append(out, comment)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if skip > 0 {
		if skip >= len(out) {
			return nil, nil
		}
		out = out[skip:]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockCommentRepository) Update(comment *domain.Comment) error {
	if _, ok := m.comments[comment.ID]; !ok {
		return repository.ErrNotFound
	}
	m.comments[comment.ID] = comment
	return nil
}

type mockContentRepository struct {
	contents map[string]*domain.Content
}

func newMockContentRepository() *mockContentRepository {
	return &mockContentRepository{
		contents: make(map[string]*domain.Content),
	}
}

func (m *mockContentRepository) Create(content *domain.Content) error {
	m.contents[content.ID] = content
	return nil
}

func (m *mockContentRepository) ListByThread(threadID, userID string, limit, skip int) ([]*domain.Content, error) {
	var out []*domain.Content
	for _, content := range m.contents {
		if content.ThreadID == threadID && content.UserID == userID {
			out = append(out, content)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Version > out[j].Version
	})
	if skip > 0 {
		if skip >= len(out) {
			return nil, nil
		}
		out = out[skip:]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type mockMemberRepository struct {
	members map[string]*domain.Member
}

func newMockMemberRepository() *mockMemberRepository {
	return &mockMemberRepository{
		members: make(map[string]*domain.Member),
	}
}

func (m *mockMemberRepository) Create(member *domain.Member) error {
	m.members[member.ID] = member
	return nil
}

func (m *mockMemberRepository) FindFirstByUser(userID string) (*domain.Member, error) {
	var found *domain.Member
	for _, member := range m.members {
		if member.UserID != userID || member.Status != domain.MemberStatusOK {
			continue
		}
		if found == nil || member.CreatedAt.Before(found.CreatedAt) {
			found = member
		}
	}
	if found == nil {
		return nil, repository.ErrNotFound
	}
	return found, nil
}

type mockSpaceRepository struct {
	spaces map[string]*domain.Space
}

func newMockSpaceRepository() *mockSpaceRepository {
	return &mockSpaceRepository{
		spaces: make(map[string]*domain.Space),
	}
}

func (m *mockSpaceRepository) Create(space *domain.Space) error {
	m.spaces[space.ID] = space
	return nil
}

func (m *mockSpaceRepository) FindByID(id string) (*domain.Space, error) {
	if space, ok := m.spaces[id]; ok {
		return space, nil
	}
	return nil, repository.ErrNotFound
}

type mockSessionKeyRepository struct {
	handshakeKeys map[string]*domain.SessionKeyRecord
	clientKeys    map[string]*domain.SessionKeyRecord
}

func newMockSessionKeyRepository() *mockSessionKeyRepository {
	return &mockSessionKeyRepository{
		handshakeKeys: make(map[string]*domain.SessionKeyRecord),
		clientKeys:    make(map[string]*domain.SessionKeyRecord),
	}
}

func (m *mockSessionKeyRepository) PutHandshakeKey(state, privateKeyPEM string, ttl time.Duration) error {
	m.handshakeKeys[state] = &domain.SessionKeyRecord{
		OwnerID:     state,
		KeyMaterial: privateKeyPEM,
		CreatedAt:   time.Now(),
		ExpiresAt:   time.Now().Add(ttl),
	}
	return nil
}

func (m *mockSessionKeyRepository) GetHandshakeKey(state string) (string, error) {
	record, ok := m.handshakeKeys[state]
	if !ok || record.Expired(time.Now()) {
		return "", repository.ErrNotFound
	}
	return record.KeyMaterial, nil
}

func (m *mockSessionKeyRepository) PutClientKey(userID, key string, ttl time.Duration) error {
	m.clientKeys[userID] = &domain.SessionKeyRecord{
		OwnerID:     userID,
		KeyMaterial: key,
		CreatedAt:   time.Now(),
		ExpiresAt:   time.Now().Add(ttl),
	}
	return nil
}

func (m *mockSessionKeyRepository) GetClientKey(userID string) (string, error) {
	record, ok := m.clientKeys[userID]
	if !ok || record.Expired(time.Now()) {
		return "", repository.ErrNotFound
	}
	return record.KeyMaterial, nil
}

type mockVerificationCodeRepository struct {
	codes map[string]*domain.VerificationCode
}

func newMockVerificationCodeRepository() *mockVerificationCodeRepository {
	return &mockVerificationCodeRepository{
		codes: make(map[string]*domain.VerificationCode),
	}
}

func (m *mockVerificationCodeRepository) Issue(email, code string, ttl time.Duration) error {
	m.codes[email] = &domain.VerificationCode{
		Email:     email,
		Code:      code,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (m *mockVerificationCodeRepository) Consume(email, code string) error {
	record, ok := m.codes[email]
	if !ok || record.Consumed || record.Code != code || time.Now().After(record.ExpiresAt) {
		return repository.ErrNotFound
	}
	record.Consumed = true
	return nil
}

type notifyEvent struct {
	UserID    string
	InfoType  string
	ID        string
	Operation string
}

type mockNotifier struct {
	events []notifyEvent
}

func (m *mockNotifier) NotifySyncChange(userID, infoType, id, operation string) error {
	m.events = append(m.events, notifyEvent{
		UserID:    userID,
		InfoType:  infoType,
		ID:        id,
		Operation: operation,
	})
	return nil
}
