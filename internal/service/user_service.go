package service

import (
	"fmt"
	"time"

	"thus-sync-server/internal/domain"
	"thus-sync-server/internal/repository"
)

type UserService struct {
	userRepo   repository.UserRepository
	memberRepo repository.MemberRepository
}

func NewUserService(userRepo repository.UserRepository, memberRepo repository.MemberRepository) *UserService {
	return &UserService{
		userRepo:   userRepo,
		memberRepo: memberRepo,
	}
}

// GetProfile returns the user together with their default space id, which
// clients cache for atoms that omit spaceId.
func (s *UserService) GetProfile(id string) (*domain.Profile, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		return nil, fmt.Errorf("user not found")
	}
	user.Password = ""

	profile := &domain.Profile{User: user}
	if member, err := s.memberRepo.FindFirstByUser(id); err == nil {
		profile.SpaceID = member.SpaceID
	}
	return profile, nil
}

func (s *UserService) UpdateUsername(userID, newUsername string) (*domain.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, fmt.Errorf("user not found")
	}

	usernameExists, err := s.userRepo.UsernameExists(newUsername)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if usernameExists && user.Username != newUsername {
		return nil, ErrUsernameTaken
	}

	user.Username = newUsername
	user.UpdatedAt = time.Now()

	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	user.Password = ""
	return user, nil
}
