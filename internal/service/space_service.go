package service

import (
	"time"

	"github.com/google/uuid"

	"thus-sync-server/internal/domain"
	"thus-sync-server/internal/repository"
)

type SpaceService struct {
	spaceRepo  repository.SpaceRepository
	memberRepo repository.MemberRepository
}

func NewSpaceService(spaceRepo repository.SpaceRepository, memberRepo repository.MemberRepository) *SpaceService {
	return &SpaceService{
		spaceRepo:  spaceRepo,
		memberRepo: memberRepo,
	}
}

// DefaultSpaceID resolves the space a user's data lands in when the client
// does not send a usable spaceId: the space of their oldest active membership.
func (s *SpaceService) DefaultSpaceID(userID string) (string, error) {
	member, err := s.memberRepo.FindFirstByUser(userID)
	if err != nil {
		return "", err
	}
	return member.SpaceID, nil
}

// CreatePersonalSpace provisions the personal space and membership a new
// account starts with.
func (s *SpaceService) CreatePersonalSpace(userID, name string) (*domain.Space, error) {
	now := time.Now()
	space := &domain.Space{
		ID:        uuid.New().String(),
		OwnerID:   userID,
		Name:      name,
		IsDefault: true,
		Status:    domain.SpaceStatusOK,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.spaceRepo.Create(space); err != nil {
		return nil, err
	}

	member := &domain.Member{
		ID:        uuid.New().String(),
		SpaceID:   space.ID,
		UserID:    userID,
		Status:    domain.MemberStatusOK,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.memberRepo.Create(member); err != nil {
		return nil, err
	}

	return space, nil
}
