package service

import (
	"errors"

	"thus-sync-server/internal/domain"
	"thus-sync-server/internal/repository"
	"thus-sync-server/pkg/response"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrSessionExpired     = errors.New("login session expired")
	ErrDecryptFailed      = errors.New("decryption failed")
	ErrInvalidCode        = errors.New("invalid or expired verification code")
)

func errResult(taskID, code, msg string) domain.AtomResult {
	return domain.AtomResult{TaskID: taskID, Code: code, ErrMsg: msg}
}

// failureResult maps a repository error onto an atom result. A lookup miss
// reports E4004 whether the entity is absent or owned by someone else; the
// caller cannot tell the two apart.
func failureResult(taskID string, err error) domain.AtomResult {
	if errors.Is(err, repository.ErrNotFound) {
		return errResult(taskID, response.CodeNotFound, "not found")
	}
	return errResult(taskID, response.CodeInternal, err.Error())
}
