package auth

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/reelhouse/reelhouse/internal/platform/db"
	"github.com/reelhouse/reelhouse/internal/shared"
)

// LoginRecorder appends a login-log row after a successful
// authentication.
type LoginRecorder interface {
	RecordAdminLogin(ctx context.Context, q db.Queryable, adminID int64, ip string) error
}

// Service wraps administrator authentication rules.
type Service struct {
	repo   Repository
	logins LoginRecorder
}

// NewService constructs a Service.
func NewService(repo Repository, logins LoginRecorder) *Service {
	return &Service{repo: repo, logins: logins}
}

// Authenticate verifies name/password credentials and records the
// login. It fails closed: an unknown name and a wrong password both
// return ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, name, password, ip string) (*Admin, error) {
	admin, err := s.repo.FindByName(ctx, name)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if err := s.logins.RecordAdminLogin(ctx, nil, admin.ID, ip); err != nil {
		return nil, err
	}
	return admin, nil
}

// ChangePassword verifies the old password and stores a new verifier.
func (s *Service) ChangePassword(ctx context.Context, adminID int64, oldPassword, newPassword string) error {
	admin, err := s.repo.FindByID(ctx, adminID)
	if err != nil {
		return shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(oldPassword)); err != nil {
		return shared.ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, adminID, string(hash))
}
