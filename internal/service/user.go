package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"lingualearner-api/internal/model"
	"lingualearner-api/internal/repository"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// UserService handles registration, login and profile maintenance.
type UserService struct {
	repo repository.UserRepository
}

func NewUserService(repo repository.UserRepository) *UserService {
	return &UserService{repo: repo}
}

// normalizeEmail lowercases and trims; the normalized form is what the
// unique index sees, so "A@b.com" and "a@b.com" are the same account.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validNameLength bounds the name in characters, not bytes, so multibyte
// names are not penalized for their encoding.
func validNameLength(name string) bool {
	n := utf8.RuneCountInString(name)
	return n >= model.MinNameLength && n <= model.MaxNameLength
}

// Register creates a new account. The password hash is computed right here,
// immediately before the insert, so a record can never be written without it.
func (s *UserService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	name := strings.TrimSpace(req.Name)
	if !validNameLength(name) {
		return nil, model.ErrNameLength
	}

	email := normalizeEmail(req.Email)
	if !emailRegex.MatchString(email) {
		return nil, model.ErrInvalidEmail
	}

	if len(req.Password) < model.MinPasswordLength {
		return nil, model.ErrPasswordTooShort
	}

	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, model.ErrEmailExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Name:           name,
		Email:          email,
		PasswordHashed: string(hashedPassword),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Login authenticates by email and password. Unknown email and wrong
// password return the same error so the response leaks nothing about
// which one failed.
func (s *UserService) Login(ctx context.Context, req *model.LoginRequest) (*model.User, error) {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, model.ErrInvalidCredentials
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHashed), []byte(req.Password))
	if err != nil {
		return nil, model.ErrInvalidCredentials
	}

	return user, nil
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns all users. Password hashes never serialize.
func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	return s.repo.List(ctx)
}

// UpdateProfile applies a partial update: only fields that are present and
// non-empty are written. The non-empty check means a client cannot clear a
// field by sending ""; that request silently changes nothing. Known gap,
// kept intentionally until explicit-null update semantics are decided.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, req *model.UpdateProfileRequest) (*model.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != "" {
		name := strings.TrimSpace(*req.Name)
		if !validNameLength(name) {
			return nil, model.ErrNameLength
		}
		user.Name = name
	}

	if req.Email != nil && *req.Email != "" {
		email := normalizeEmail(*req.Email)
		if !emailRegex.MatchString(email) {
			return nil, model.ErrInvalidEmail
		}
		user.Email = email
	}

	if req.Password != nil && *req.Password != "" {
		if len(*req.Password) < model.MinPasswordLength {
			return nil, model.ErrPasswordTooShort
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHashed = string(hashed)
	}

	if req.Bio != nil && *req.Bio != "" {
		user.Bio = req.Bio
	}

	if req.ProfilePicture != nil && *req.ProfilePicture != "" {
		if !strings.HasPrefix(*req.ProfilePicture, "http://") && !strings.HasPrefix(*req.ProfilePicture, "https://") {
			return nil, model.ErrInvalidImageURL
		}
		user.ProfilePictureURL = req.ProfilePicture
	}

	if req.Facebook != nil && *req.Facebook != "" {
		user.Facebook = req.Facebook
	}
	if req.Twitter != nil && *req.Twitter != "" {
		user.Twitter = req.Twitter
	}
	if req.Instagram != nil && *req.Instagram != "" {
		user.Instagram = req.Instagram
	}
	if req.LinkedIn != nil && *req.LinkedIn != "" {
		user.LinkedIn = req.LinkedIn
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Delete hard-deletes the account. Posts keep their author snapshot; a
// token issued before deletion becomes useless the moment the auth gate
// fails to load the user.
func (s *UserService) Delete(ctx context.Context, userID int64) error {
	return s.repo.Delete(ctx, userID)
}
