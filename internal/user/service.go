package user

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/rogue-contacts/internal"
	"github.com/frahmantamala/rogue-contacts/internal/core/common/validation"
	"github.com/frahmantamala/rogue-contacts/internal/core/events"
	"github.com/frahmantamala/rogue-contacts/internal/hashing"
	"github.com/frahmantamala/rogue-contacts/internal/observability"
)

const (
	fieldUsername        = "username"
	fieldEmail           = "email"
	fieldUsernameOrEmail = "username_or_email"
	fieldPassword        = "password"
)

type Repository interface {
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// UpdatePasswordHash swaps the hash only if it still equals oldHash.
	UpdatePasswordHash(ctx context.Context, id int64, oldHash, newHash string) (bool, error)
}

type PasswordHasher interface {
	ComputeHash(ctx context.Context, plaintext string) (string, error)
	Verify(ctx context.Context, plaintext, hash string) (hashing.Result, error)
	Current() hashing.Algorithm
}

type TokenIssuer interface {
	IssueToken(userID int64) (string, error)
	IssueRefreshToken(userID int64) (string, error)
}

type ServiceAPI interface {
	Register(ctx context.Context, dto RegisterDTO) (*AuthResponse, error)
	Login(ctx context.Context, dto LoginDTO) (*AuthResponse, error)
	GetByID(ctx context.Context, id int64) (*UserDto, error)
}

type Service struct {
	repo    Repository
	hasher  PasswordHasher
	tokens  TokenIssuer
	events  events.Publisher
	metrics *observability.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(repo Repository, hasher PasswordHasher, tokens TokenIssuer, publisher events.Publisher, metrics *observability.Metrics, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		hasher:  hasher,
		tokens:  tokens,
		events:  publisher,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *Service) Register(ctx context.Context, dto RegisterDTO) (*AuthResponse, error) {
	if err := validation.Struct(dto); err != nil {
		return nil, err
	}

	if err := s.checkConflicts(ctx, dto.Username, dto.Email); err != nil {
		return nil, err
	}

	hash, err := s.hasher.ComputeHash(ctx, dto.Password)
	if err != nil {
		return nil, internal.ErrInternal(err)
	}

	u := &User{
		Username:     dto.Username,
		DisplayName:  dto.DisplayName,
		Email:        dto.Email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrDuplicate) {
			// lost a race against a concurrent registration
			if conflict := s.checkConflicts(ctx, dto.Username, dto.Email); conflict != nil {
				return nil, conflict
			}
			return nil, internal.NewConflictFieldErrors([]internal.ValidationError{usernameConflict()})
		}
		return nil, internal.ErrInternal(err)
	}

	s.logger.Info("user registered", "user_id", u.ID)
	s.publish(ctx, events.NewUserRegisteredEvent(u.ID, u.Username))

	return s.authResponse(u)
}

func (s *Service) Login(ctx context.Context, dto LoginDTO) (*AuthResponse, error) {
	v := validation.NewValidator()
	v.Field(fieldUsernameOrEmail, dto.UsernameOrEmail).Required()
	v.Field(fieldPassword, dto.Password).Required()
	if err := v.Validate(); err != nil {
		return nil, err
	}

	var (
		u   *User
		err error
	)
	if validation.IsEmail(dto.UsernameOrEmail) {
		u, err = s.repo.GetByEmail(ctx, dto.UsernameOrEmail)
	} else {
		u, err = s.repo.GetByUsername(ctx, dto.UsernameOrEmail)
	}
	if errors.Is(err, ErrNotFound) {
		s.metrics.ObserveLogin("unknown_account")
		return nil, internal.NewUnauthorizedFieldError(fieldUsernameOrEmail, "The account does not exist.", internal.ErrCodeAccountNotFound)
	}
	if err != nil {
		return nil, internal.ErrInternal(err)
	}

	res, err := s.hasher.Verify(ctx, dto.Password, u.PasswordHash)
	if errors.Is(err, hashing.ErrUnrecognizedHashFormat) {
		// the stored hash cannot be checked, so the account cannot log in
		s.logger.Error("stored password hash has an unusable format", "user_id", u.ID)
		s.metrics.ObserveLogin("unusable_hash")
		return nil, internal.NewUnauthorizedFieldError(fieldPassword, "Incorrect password.", internal.ErrCodeIncorrectPassword)
	}
	if err != nil {
		s.logger.Error("password verification failed", "user_id", u.ID, "error", err)
		return nil, internal.ErrInternal(err)
	}
	if !res.Match {
		s.metrics.ObserveLogin("incorrect_password")
		return nil, internal.NewUnauthorizedFieldError(fieldPassword, "Incorrect password.", internal.ErrCodeIncorrectPassword)
	}

	if res.Rehash != "" {
		if err := s.persistRehash(ctx, u, res.Rehash); err != nil {
			return nil, err
		}
	}

	s.metrics.ObserveLogin("success")
	return s.authResponse(u)
}

func (s *Service) GetByID(ctx context.Context, id int64) (*UserDto, error) {
	u, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, internal.NewNotFoundError("The user was not found.", internal.ErrCodeUserNotFound)
	}
	if err != nil {
		return nil, internal.ErrInternal(err)
	}
	dto := u.ToDto()
	return &dto, nil
}

func (s *Service) persistRehash(ctx context.Context, u *User, newHash string) error {
	swapped, err := s.repo.UpdatePasswordHash(ctx, u.ID, u.PasswordHash, newHash)
	if err != nil {
		s.logger.Error("failed to persist upgraded password hash", "user_id", u.ID, "error", err)
		return internal.ErrInternal(err)
	}
	if !swapped {
		s.logger.Warn("password hash changed concurrently, upgrade skipped", "user_id", u.ID)
		return nil
	}
	u.PasswordHash = newHash
	s.metrics.ObservePasswordRehash()
	s.publish(ctx, events.NewPasswordRehashedEvent(u.ID, s.hasher.Current().Name()))
	return nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish event", "event_type", event.EventType(), "event_id", event.EventID(), "error", err)
	}
}

// checkConflicts reports username and email conflicts together.
func (s *Service) checkConflicts(ctx context.Context, username, email string) error {
	var conflicts []internal.ValidationError

	taken, err := s.repo.UsernameExists(ctx, username)
	if err != nil {
		return internal.ErrInternal(err)
	}
	if taken {
		conflicts = append(conflicts, usernameConflict())
	}

	taken, err = s.repo.EmailExists(ctx, email)
	if err != nil {
		return internal.ErrInternal(err)
	}
	if taken {
		conflicts = append(conflicts, internal.ValidationError{
			Field:   fieldEmail,
			Message: "User with this email address already exists.",
			Code:    string(internal.ErrCodeEmailTaken),
		})
	}

	if len(conflicts) > 0 {
		return internal.NewConflictFieldErrors(conflicts)
	}
	return nil
}

func (s *Service) authResponse(u *User) (*AuthResponse, error) {
	token, err := s.tokens.IssueToken(u.ID)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.IssueRefreshToken(u.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: token, RefreshToken: refresh, User: u.ToDto()}, nil
}

func usernameConflict() internal.ValidationError {
	return internal.ValidationError{
		Field:   fieldUsername,
		Message: "User with this username already exists.",
		Code:    string(internal.ErrCodeUsernameTaken),
	}
}
