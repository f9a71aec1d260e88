package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"reddot/internal/auth"
	"reddot/internal/domain"
	"reddot/internal/logger"
	"reddot/internal/notify"
	"reddot/internal/store"
)

// AccountService orchestrates registration, confirmation, credential
// recovery and deletion. Every flow that sends mail does so after its
// own state change committed; delivery failure surfaces as a Warning on
// the result, never as a failed operation.
type AccountService struct {
	store    *store.Store
	tokens   *TokenService
	hasher   auth.Hasher
	mailer   *notify.Mailer
	logger   logger.Logger
	validate *validator.Validate
	baseURL  string
	now      func() time.Time
}

func NewAccounts(st *store.Store, tokens *TokenService, hasher auth.Hasher, mailer *notify.Mailer, log logger.Logger, baseURL string, now func() time.Time) *AccountService {
	if now == nil {
		now = time.Now
	}
	return &AccountService{
		store:    st,
		tokens:   tokens,
		hasher:   hasher,
		mailer:   mailer,
		logger:   log,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		baseURL:  strings.TrimRight(baseURL, "/"),
		now:      now,
	}
}

// RegisterInput carries the registration form.
type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=32,alphanum"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// RegisterResult reports the created account and any mail warning.
type RegisterResult struct {
	UserID  int64  `json:"user_id"`
	Warning string `json:"warning,omitempty"`
}

// Register creates a disabled, unverified account and mails a
// confirmation token. Format and uniqueness violations are collected
// together so the caller sees everything wrong with the form at once.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	violations := s.validateRegister(in)

	if _, err := s.store.Users.ByUsername(ctx, in.Username); err == nil {
		violations = append(violations, "username already taken")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if _, err := s.store.Users.ByEmail(ctx, in.Email); err == nil {
		violations = append(violations, "email already registered")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if err := domain.Violated(violations); err != nil {
		return nil, err
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: digest,
		Role:         domain.RoleUser,
		CreatedAt:    s.now(),
		UpdatedAt:    s.now(),
	}
	err = s.store.Tx.InTx(ctx, func(ctx context.Context) error {
		return s.store.Users.Create(ctx, u)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("account registered",
		logger.Int64("user_id", u.ID),
		logger.String("username", u.Username))

	warning := s.sendConfirm(ctx, u, notify.TemplateAccountConfirm)
	return &RegisterResult{UserID: u.ID, Warning: warning}, nil
}

func (s *AccountService) validateRegister(in RegisterInput) []string {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	violations := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		violations = append(violations, fieldViolation(fe))
	}
	return violations
}

func fieldViolation(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "alphanum":
		return field + " must contain only letters and digits"
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}

// sendConfirm issues a confirmation token and mails it. The returned
// warning is empty on success.
func (s *AccountService) sendConfirm(ctx context.Context, u *domain.User, template string) string {
	t, err := s.tokens.Issue(ctx, domain.TokenConfirm, u.ID)
	if err != nil {
		s.logger.Error("confirmation token issue failed",
			logger.Int64("user_id", u.ID), logger.Error(err))
		return "confirmation mail could not be prepared"
	}
	return s.mailer.Send(u.Email, template, map[string]string{
		"Username": u.Username,
		"BaseURL":  s.baseURL,
		"Token":    t.Token,
	})
}

// ConfirmAccount consumes a confirmation token, enables the account and
// marks the email verified. A token that was already used reports the
// account as already confirmed rather than a token failure, since that
// is what the click means to the person making it.
func (s *AccountService) ConfirmAccount(ctx context.Context, token string) (*domain.User, error) {
	ownerID, err := s.tokens.Consume(ctx, domain.TokenConfirm, token)
	if err != nil {
		if errors.Is(err, domain.ErrTokenUsed) {
			return nil, &domain.ConflictError{Reason: domain.ConflictEmailConfirmed}
		}
		return nil, err
	}

	var u *domain.User
	err = s.store.Tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		u, err = s.store.Users.Get(ctx, ownerID)
		if err != nil {
			return mapStoreErr(err, "user", ownerID)
		}
		u.Enabled = true
		u.EmailVerified = true
		if u.Profile == nil {
			u.Profile = &domain.Profile{DisplayName: u.Username}
		}
		u.UpdatedAt = s.now()
		return s.store.Users.Update(ctx, u)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("account confirmed", logger.Int64("user_id", u.ID))
	return u, nil
}

// ResendConfirmation issues a fresh confirmation token for a
// still-unverified account. Verified accounts get a conflict.
func (s *AccountService) ResendConfirmation(ctx context.Context, email string) (string, error) {
	u, err := s.store.Users.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", &domain.NotFoundError{Resource: "account", Key: email}
		}
		return "", err
	}
	if u.EmailVerified {
		return "", &domain.ConflictError{Reason: domain.ConflictEmailConfirmed}
	}
	return s.sendConfirm(ctx, u, notify.TemplateAccountConfirm), nil
}

// RequestEmailChange stages a new address and mails a confirmation
// token to it. The address must not belong to anyone, including an
// unverified pending change of the actor's own.
func (s *AccountService) RequestEmailChange(ctx context.Context, actor *domain.User, newEmail string) (string, error) {
	if actor == nil {
		return "", &domain.PermissionError{Action: "change email"}
	}
	if err := s.validate.Var(newEmail, "required,email"); err != nil {
		return "", domain.Violated([]string{"email must be a valid email address"})
	}

	existing, err := s.store.Users.ByEmail(ctx, newEmail)
	switch {
	case errors.Is(err, store.ErrNotFound):
		// Free to claim.
	case err != nil:
		return "", err
	case existing.ID == actor.ID && !existing.EmailVerified:
		return "", &domain.ConflictError{Reason: domain.ConflictEmailPending}
	default:
		return "", &domain.ConflictError{Reason: domain.ConflictEmailExists}
	}

	var u *domain.User
	err = s.store.Tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		u, err = s.store.Users.Get(ctx, actor.ID)
		if err != nil {
			return mapStoreErr(err, "user", actor.ID)
		}
		u.Email = newEmail
		u.EmailVerified = false
		u.UpdatedAt = s.now()
		return s.store.Users.Update(ctx, u)
	})
	if err != nil {
		return "", err
	}
	s.logger.Info("email change requested", logger.Int64("user_id", u.ID))
	return s.sendConfirm(ctx, u, notify.TemplateEmailConfirm), nil
}

// ConfirmEmail consumes the token from an email-change mail and marks
// the staged address verified.
func (s *AccountService) ConfirmEmail(ctx context.Context, token string) (*domain.User, error) {
	ownerID, err := s.tokens.Consume(ctx, domain.TokenConfirm, token)
	if err != nil {
		if errors.Is(err, domain.ErrTokenUsed) {
			return nil, &domain.ConflictError{Reason: domain.ConflictEmailConfirmed}
		}
		return nil, err
	}
	var u *domain.User
	err = s.store.Tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		u, err = s.store.Users.Get(ctx, ownerID)
		if err != nil {
			return mapStoreErr(err, "user", ownerID)
		}
		u.EmailVerified = true
		u.UpdatedAt = s.now()
		return s.store.Users.Update(ctx, u)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("email confirmed", logger.Int64("user_id", u.ID))
	return u, nil
}

// RequestPasswordReset issues a recovery token for the account behind
// the email and mails it. An unknown address reports not found.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	u, err := s.store.Users.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", &domain.NotFoundError{Resource: "account", Key: email}
		}
		return "", err
	}
	t, err := s.tokens.Issue(ctx, domain.TokenRecover, u.ID)
	if err != nil {
		return "", err
	}
	warning := s.mailer.Send(u.Email, notify.TemplatePasswordReset, map[string]string{
		"Username": u.Username,
		"BaseURL":  s.baseURL,
		"Token":    t.Token,
	})
	s.logger.Info("password reset requested", logger.Int64("user_id", u.ID))
	return warning, nil
}

// ResetPassword trades a recovery token for a new password. The new
// password must differ from the current one; that check runs before the
// token is consumed so a rejected attempt leaves the token usable.
func (s *AccountService) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	if err := s.validate.Var(newPassword, "required,min=8,max=72"); err != nil {
		return "", domain.Violated([]string{"password must be between 8 and 72 characters"})
	}

	t, err := s.tokens.Peek(ctx, domain.TokenRecover, token)
	if err != nil {
		return "", err
	}
	if err := t.Usable(s.now()); err != nil {
		return "", err
	}
	u, err := s.store.Users.Get(ctx, t.OwnerID)
	if err != nil {
		return "", mapStoreErr(err, "user", t.OwnerID)
	}
	if s.hasher.Matches(newPassword, u.PasswordHash) {
		return "", &domain.ConflictError{Reason: domain.ConflictSamePassword}
	}

	// The consume is the atomic gate; a concurrent reset with the same
	// token loses here and nothing below runs for it.
	if _, err := s.tokens.Consume(ctx, domain.TokenRecover, token); err != nil {
		return "", err
	}

	digest, err := s.hasher.Hash(newPassword)
	if err != nil {
		return "", err
	}
	err = s.store.Tx.InTx(ctx, func(ctx context.Context) error {
		cur, err := s.store.Users.Get(ctx, u.ID)
		if err != nil {
			return mapStoreErr(err, "user", u.ID)
		}
		cur.PasswordHash = digest
		cur.UpdatedAt = s.now()
		return s.store.Users.Update(ctx, cur)
	})
	if err != nil {
		return "", err
	}
	s.logger.Info("password reset", logger.Int64("user_id", u.ID))
	return s.mailer.Send(u.Email, notify.TemplatePasswordResetDone, map[string]string{
		"Username": u.Username,
		"BaseURL":  s.baseURL,
	}), nil
}

// RequestDeletion queues the account for deletion. At most one request
// exists per user; a second one conflicts.
func (s *AccountService) RequestDeletion(ctx context.Context, actor *domain.User) (string, error) {
	if actor == nil {
		return "", &domain.PermissionError{Action: "request account deletion"}
	}
	err := s.store.Tx.InTx(ctx, func(ctx context.Context) error {
		queued, err := s.store.Deletions.Exists(ctx, actor.ID)
		if err != nil {
			return err
		}
		if queued {
			return &domain.ConflictError{Reason: domain.ConflictAlreadyQueued}
		}
		return s.store.Deletions.Put(ctx, &domain.DeleteRequest{
			UserID:    actor.ID,
			CreatedAt: s.now(),
		})
	})
	if err != nil {
		return "", err
	}
	s.logger.Info("account deletion queued", logger.Int64("user_id", actor.ID))
	return s.mailer.Send(actor.Email, notify.TemplateDeleteRequestQueued, map[string]string{
		"Username": actor.Username,
		"BaseURL":  s.baseURL,
	}), nil
}

// Login checks the credentials and returns the account. A successful
// login stamps the last access time and revokes any pending deletion
// request: coming back means staying.
func (s *AccountService) Login(ctx context.Context, username, password string) (*domain.User, error) {
	u, err := s.store.Users.ByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.hasher.Matches(password, u.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	if !u.Enabled {
		return nil, domain.ErrInvalidCredentials
	}

	err = s.store.Tx.InTx(ctx, func(ctx context.Context) error {
		ts := s.now()
		u.LastAccessAt = &ts
		if err := s.store.Users.Update(ctx, u); err != nil {
			return err
		}
		queued, err := s.store.Deletions.Exists(ctx, u.ID)
		if err != nil {
			return err
		}
		if queued {
			if err := s.store.Deletions.Remove(ctx, u.ID); err != nil {
				return err
			}
			s.logger.Info("deletion request revoked by login",
				logger.Int64("user_id", u.ID))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Profile returns a user's account record.
func (s *AccountService) Profile(ctx context.Context, userID int64) (*domain.User, error) {
	u, err := s.store.Users.Get(ctx, userID)
	if err != nil {
		return nil, mapStoreErr(err, "user", userID)
	}
	return u, nil
}

// UpdateProfile replaces the public profile fields.
func (s *AccountService) UpdateProfile(ctx context.Context, actor *domain.User, p domain.Profile) (*domain.User, error) {
	if actor == nil {
		return nil, &domain.PermissionError{Action: "update profile"}
	}
	var u *domain.User
	err := s.store.Tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		u, err = s.store.Users.Get(ctx, actor.ID)
		if err != nil {
			return mapStoreErr(err, "user", actor.ID)
		}
		cp := p
		u.Profile = &cp
		u.UpdatedAt = s.now()
		return s.store.Users.Update(ctx, u)
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}
