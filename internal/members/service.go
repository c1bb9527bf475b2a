package members

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/reelhouse/reelhouse/internal/platform/db"
	"github.com/reelhouse/reelhouse/internal/rbac"
	"github.com/reelhouse/reelhouse/internal/shared"
)

// LoginRecorder appends a login-log row after a successful member
// authentication.
type LoginRecorder interface {
	RecordMemberLogin(ctx context.Context, q db.Queryable, memberID int64, ip string) error
}

// FileSink stores uploaded avatars.
type FileSink interface {
	Save(subdir, suggestedName string, src io.Reader) (string, error)
	Remove(subdir, name string) error
}

// Upload carries avatar bytes into the sink.
type Upload struct {
	Name string
	Body io.Reader
}

// ProfileInput collects the member-editable profile fields.
type ProfileInput struct {
	Name  string
	Email string
	Phone string
	Info  string
	Face  *Upload
}

// Service manages member accounts, comments, and favorites. Admin
// moderation mutations commit with their audit entries as one
// transaction.
type Service struct {
	repo      Repository
	comments  CommentRepository
	favorites FavoriteRepository
	pool      *pgxpool.Pool
	audit     rbac.Recorder
	logins    LoginRecorder
	files     FileSink
}

// NewService constructs a Service.
func NewService(repo Repository, comments CommentRepository, favorites FavoriteRepository,
	pool *pgxpool.Pool, audit rbac.Recorder, logins LoginRecorder, files FileSink) *Service {
	return &Service{
		repo:      repo,
		comments:  comments,
		favorites: favorites,
		pool:      pool,
		audit:     audit,
		logins:    logins,
		files:     files,
	}
}

// Register creates a member account. Name, email, and phone are each
// unique.
func (s *Service) Register(ctx context.Context, name, email, phone, password string) (Member, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return Member{}, fmt.Errorf("members: name, email, and password required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Member{}, err
	}
	return s.repo.Create(ctx, Member{
		UUID:         uuid.NewString(),
		Name:         name,
		Email:        email,
		Phone:        strings.TrimSpace(phone),
		PasswordHash: string(hash),
	})
}

// Authenticate verifies name/password credentials and records the
// login. Unknown names and wrong passwords are indistinguishable.
func (s *Service) Authenticate(ctx context.Context, name, password, ip string) (Member, error) {
	m, err := s.repo.FindByName(ctx, name)
	if err != nil {
		return Member{}, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte(password)); err != nil {
		return Member{}, shared.ErrInvalidCredentials
	}
	if err := s.logins.RecordMemberLogin(ctx, nil, m.ID, ip); err != nil {
		return Member{}, err
	}
	return m, nil
}

// Get fetches one member.
func (s *Service) Get(ctx context.Context, id int64) (Member, error) {
	return s.repo.Get(ctx, id)
}

// UpdateProfile edits the member's own profile. An absent avatar
// upload keeps the stored one.
func (s *Service) UpdateProfile(ctx context.Context, id int64, in ProfileInput) (Member, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if in.Name == "" || in.Email == "" {
		return Member{}, fmt.Errorf("members: name and email required")
	}
	var face string
	if in.Face != nil && s.files != nil {
		var err error
		face, err = s.files.Save("faces", in.Face.Name, in.Face.Body)
		if err != nil {
			return Member{}, fmt.Errorf("members: store avatar: %w", err)
		}
	}
	return s.repo.UpdateProfile(ctx, Member{
		ID:    id,
		Name:  in.Name,
		Email: in.Email,
		Phone: strings.TrimSpace(in.Phone),
		Info:  in.Info,
		Face:  face,
	})
}

// ChangePassword verifies the old password and stores a new verifier.
func (s *Service) ChangePassword(ctx context.Context, id int64, oldPassword, newPassword string) error {
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte(oldPassword)); err != nil {
		return shared.ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, id, string(hash))
}

// List returns one page of members for the admin back office.
func (s *Service) List(ctx context.Context, page, pageSize int) ([]Member, shared.Pagination, error) {
	page, pageSize = clampPage(page, pageSize)
	out, total, err := s.repo.List(ctx, page, pageSize)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return out, shared.NewPagination(page, pageSize, total), nil
}

// Delete removes a member account. Admin moderation, audited.
func (s *Service) Delete(ctx context.Context, actor rbac.Actor, id int64) error {
	prev, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.inTx(ctx, func(q db.Queryable) error {
		if err := s.repo.Delete(ctx, q, id); err != nil {
			return err
		}
		return s.audit.Record(ctx, q, actor.AdminID, actor.IP,
			fmt.Sprintf("deleted member «%s»", prev.Name))
	})
}

// AddComment posts a comment; the comment row and the movie's counter
// bump commit together.
func (s *Service) AddComment(ctx context.Context, memberID, movieID int64, text string) (Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Comment{}, fmt.Errorf("members: comment text required")
	}
	var created Comment
	err := s.inTx(ctx, func(q db.Queryable) error {
		var err error
		created, err = s.comments.Add(ctx, q, movieID, memberID, text)
		return err
	})
	if err != nil {
		return Comment{}, err
	}
	return created, nil
}

// MovieComments returns one page of a movie's comments.
func (s *Service) MovieComments(ctx context.Context, movieID int64, page, pageSize int) ([]Comment, shared.Pagination, error) {
	page, pageSize = clampPage(page, pageSize)
	out, total, err := s.comments.ListByMovie(ctx, movieID, page, pageSize)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return out, shared.NewPagination(page, pageSize, total), nil
}

// MemberComments returns one page of the member's own comments.
func (s *Service) MemberComments(ctx context.Context, memberID int64, page, pageSize int) ([]Comment, shared.Pagination, error) {
	page, pageSize = clampPage(page, pageSize)
	out, total, err := s.comments.ListByMember(ctx, memberID, page, pageSize)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return out, shared.NewPagination(page, pageSize, total), nil
}

// AllComments returns one page of every comment for moderation.
func (s *Service) AllComments(ctx context.Context, page, pageSize int) ([]Comment, shared.Pagination, error) {
	page, pageSize = clampPage(page, pageSize)
	out, total, err := s.comments.ListAll(ctx, page, pageSize)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return out, shared.NewPagination(page, pageSize, total), nil
}

// DeleteComment removes a comment. Admin moderation, audited; the
// movie's counter decrements in the same transaction.
func (s *Service) DeleteComment(ctx context.Context, actor rbac.Actor, id int64) error {
	prev, err := s.comments.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.inTx(ctx, func(q db.Queryable) error {
		if err := s.comments.Delete(ctx, q, id); err != nil {
			return err
		}
		return s.audit.Record(ctx, q, actor.AdminID, actor.IP,
			fmt.Sprintf("deleted comment of member «%s» on movie «%s»", prev.MemberName, prev.MovieTitle))
	})
}

// AddFavorite marks a movie on the member's list. Repeating the mark
// returns the existing row.
func (s *Service) AddFavorite(ctx context.Context, memberID, movieID int64) (Favorite, bool, error) {
	return s.favorites.Add(ctx, memberID, movieID)
}

// Favorites returns one page of the member's list.
func (s *Service) Favorites(ctx context.Context, memberID int64, page, pageSize int) ([]Favorite, shared.Pagination, error) {
	page, pageSize = clampPage(page, pageSize)
	out, total, err := s.favorites.ListByMember(ctx, memberID, page, pageSize)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return out, shared.NewPagination(page, pageSize, total), nil
}

// AllFavorites returns one page of every favorite for moderation.
func (s *Service) AllFavorites(ctx context.Context, page, pageSize int) ([]Favorite, shared.Pagination, error) {
	page, pageSize = clampPage(page, pageSize)
	out, total, err := s.favorites.ListAll(ctx, page, pageSize)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return out, shared.NewPagination(page, pageSize, total), nil
}

// RemoveFavorite unmarks the member's favorite.
func (s *Service) RemoveFavorite(ctx context.Context, memberID, movieID int64) error {
	return s.favorites.Remove(ctx, memberID, movieID)
}

// DeleteFavorite removes a favorite row. Admin moderation, audited.
func (s *Service) DeleteFavorite(ctx context.Context, actor rbac.Actor, id int64) error {
	return s.inTx(ctx, func(q db.Queryable) error {
		if err := s.favorites.Delete(ctx, q, id); err != nil {
			return err
		}
		return s.audit.Record(ctx, q, actor.AdminID, actor.IP,
			fmt.Sprintf("deleted favorite %d", id))
	})
}

func (s *Service) inTx(ctx context.Context, fn func(db.Queryable) error) error {
	if s.pool == nil {
		return fn(nil)
	}
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(tx)
	})
}

func clampPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 50 {
		pageSize = 20
	}
	return page, pageSize
}
