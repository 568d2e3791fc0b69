package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Raymond16-cyber/aura-backend/internal/mailer"
	"github.com/Raymond16-cyber/aura-backend/internal/model"
	"github.com/Raymond16-cyber/aura-backend/internal/repository"
	"github.com/Raymond16-cyber/aura-backend/internal/token"
)

var (
	// ErrMissingFields means a required request field was absent.
	ErrMissingFields = errors.New("missing required fields")
	// ErrEmailTaken means a user with this email already exists.
	ErrEmailTaken = errors.New("user with this email already exists")
	// ErrInvalidCredentials covers both unknown email and wrong password, so
	// responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUserNotFound means no user matches the given email.
	ErrUserNotFound = errors.New("user with this email does not exist")
	// ErrResetNotAllowed covers both reset token mismatch and expiry; the two
	// are deliberately not distinguished to the caller.
	ErrResetNotAllowed = errors.New("unable to reset password")
)

// Token lifetimes. The reset token TTL matches the stored expiry on the user
// record; the record is the source of truth when accepting a reset.
const (
	verificationTokenTTL = 24 * time.Hour
	sessionTokenTTL      = 24 * time.Hour
	resetTokenTTL        = time.Hour
)

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type RegisterResult struct {
	User *model.User
	// EmailSent reports the verification delivery outcome; registration
	// commits either way.
	EmailSent bool
	VerifyURL string
}

type LoginResult struct {
	Token string
	User  *model.User
}

type ForgotPasswordResult struct {
	EmailSent bool
	ResetURL  string
}

// AuthService defines business logic for registration and authentication.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*RegisterResult, error)
	VerifyEmail(ctx context.Context, tokenStr string) error
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	ForgotPassword(ctx context.Context, email string) (*ForgotPasswordResult, error)
	ResetPassword(ctx context.Context, tokenStr, newPassword string) error
}

type authService struct {
	repo        repository.UserRepository
	tokens      *token.Service
	mail        mailer.Mailer
	frontendURL string
	logger      *zap.SugaredLogger
}

// NewAuthService constructs a new AuthService.
func NewAuthService(repo repository.UserRepository, tokens *token.Service, mail mailer.Mailer, frontendURL string, logger *zap.SugaredLogger) AuthService {
	return &authService{
		repo:        repo,
		tokens:      tokens,
		mail:        mail,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		logger:      logger,
	}
}

// Register creates an unverified user, persists a 24h verification token on
// the record, and asks the gateway to deliver the verification email. A
// delivery failure does not roll back the user; it is surfaced in the result.
func (s *authService) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return nil, ErrMissingFields
	}

	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("checking existing email: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	// The ID is assigned up front so the verification token can carry it and
	// be persisted in the same write as the user.
	id := primitive.NewObjectID()
	verifyToken, err := s.tokens.Issue(id.Hex(), name, email, verificationTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("issuing verification token: %w", err)
	}

	u := &model.User{
		ID:                id,
		Name:              name,
		Email:             email,
		PasswordHash:      string(hashed),
		IsEmailVerified:   false,
		VerificationToken: verifyToken,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	verifyLink := s.frontendURL + "/auth/verify-email/" + verifyToken
	emailSent := true
	if err := s.mail.SendVerificationEmail(ctx, email, name, verifyLink, verifyToken); err != nil {
		emailSent = false
		s.logger.Warnw("registration committed but verification email failed",
			"email", email, "error", err)
	}

	return &RegisterResult{
		User:      u,
		EmailSent: emailSent,
		VerifyURL: "/api/auth/verify-email/" + verifyToken,
	}, nil
}

// VerifyEmail validates the signed token and marks the holding user verified.
// The token must both verify cryptographically and match the value currently
// stored on a user record.
func (s *authService) VerifyEmail(ctx context.Context, tokenStr string) error {
	if tokenStr == "" {
		return ErrMissingFields
	}
	if _, err := s.tokens.Verify(tokenStr); err != nil {
		return token.ErrInvalidToken
	}

	u, err := s.repo.GetByVerificationToken(ctx, tokenStr)
	if err != nil {
		return fmt.Errorf("looking up verification token: %w", err)
	}
	if u == nil {
		return token.ErrInvalidToken
	}
	if err := s.repo.MarkVerified(ctx, u.ID); err != nil {
		return err
	}
	s.logger.Infow("email verified", "email", u.Email)
	return nil
}

// Login verifies credentials and issues a 24h session token.
func (s *authService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrMissingFields
	}

	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("selecting user: %w", err)
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	sessionToken, err := s.tokens.Issue(u.ID.Hex(), u.Name, u.Email, sessionTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("issuing session token: %w", err)
	}
	return &LoginResult{Token: sessionToken, User: u}, nil
}

// ForgotPassword issues a reset token, stores it with a 1-hour expiry, and
// requests delivery of the reset email.
func (s *authService) ForgotPassword(ctx context.Context, email string) (*ForgotPasswordResult, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrMissingFields
	}

	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("selecting user: %w", err)
	}
	if u == nil {
		return nil, ErrUserNotFound
	}

	resetToken, err := s.tokens.Issue(u.ID.Hex(), u.Name, u.Email, resetTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("issuing reset token: %w", err)
	}
	expires := time.Now().UTC().Add(resetTokenTTL)
	if err := s.repo.SetResetToken(ctx, u.ID, resetToken, expires); err != nil {
		return nil, err
	}

	resetLink := s.frontendURL + "/auth/reset-password/" + resetToken
	emailSent := true
	if err := s.mail.SendPasswordResetEmail(ctx, u.Email, resetLink); err != nil {
		emailSent = false
	}
	return &ForgotPasswordResult{
		EmailSent: emailSent,
		ResetURL:  "/api/auth/reset-password",
	}, nil
}

// ResetPassword accepts a reset token strictly before its stored expiry,
// stores the new password hash, and clears the reset state so the token
// cannot be reused.
func (s *authService) ResetPassword(ctx context.Context, tokenStr, newPassword string) error {
	if tokenStr == "" || newPassword == "" {
		return ErrMissingFields
	}

	u, err := s.repo.GetByResetToken(ctx, tokenStr, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("looking up reset token: %w", err)
	}
	if u == nil {
		return ErrResetNotAllowed
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, u.ID, string(hashed)); err != nil {
		return err
	}

	// Best effort; the reset itself already succeeded.
	loginLink := s.frontendURL + "/auth/login"
	if err := s.mail.SendPasswordResetSuccessEmail(ctx, u.Email, loginLink); err != nil {
		s.logger.Warnw("password reset success email failed", "email", u.Email, "error", err)
	}
	s.logger.Infow("password reset", "email", u.Email)
	return nil
}
