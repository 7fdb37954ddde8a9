// Package services contains server-side business logic. This file implements
// AuthService, which handles password registration and login, Google
// sign-in and resolution of the current user from an access token.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
)

const maxPasswordLen = 1024

// PasswordHasher produces and checks self-describing password digests.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) bool
}

// TokenIssuer mints and verifies access tokens.
type TokenIssuer interface {
	IssueDefault(userID, email string) (string, error)
	Verify(token string) (*auth.Claims, error)
}

// Token is what a successful authentication hands back to the client.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type RegisterInput struct {
	Email    string
	Password string
	FullName string
}

// OAuthProfile is the identity returned by the provider.
type OAuthProfile struct {
	ExternalID string
	Email      string
	FullName   string
	Picture    string
}

// AuthService composes the user store, password hasher and token issuer.
type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      TokenIssuer
	hasher      PasswordHasher
	logger      logging.Logger

	dummyOnce sync.Once
	dummy     string
}

// NewAuthService constructs an AuthService. db is used for reads and as the
// transaction root for updates.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, tokens TokenIssuer, hasher PasswordHasher, logger logging.Logger) *AuthService {
	return &AuthService{
		db:          db,
		repomanager: m,
		tokens:      tokens,
		hasher:      hasher,
		logger:      logger.With("module", "auth_service"),
	}
}

// Register creates a password account and returns it with a fresh token.
// A taken email yields common.ErrorConflict.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, *Token, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, nil, err
	}

	repo := s.repomanager.Users(s.db)

	_, err = repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, nil, common.ErrorConflict
	case !errors.Is(err, common.ErrorNotFound):
		s.logger.Error(ctx, "register: lookup failed", "error", err)
		return nil, nil, common.ErrorInternal
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		s.logger.Error(ctx, "register: hash failed", "error", err)
		return nil, nil, common.ErrorInternal
	}

	user, err := repo.Create(ctx, &models.User{
		Email:        email,
		FullName:     models.StringPtr(strings.TrimSpace(in.FullName)),
		PasswordHash: &hash,
	})
	if err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, common.ErrorConflict) {
			return nil, nil, common.ErrorConflict
		}
		s.logger.Error(ctx, "register: create failed", "error", err)
		return nil, nil, common.ErrorInternal
	}

	token, err := s.issue(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return user, token, nil
}

// Login checks email and password. Unknown email, OAuth-only account and
// wrong password all return common.ErrorUnauthorized.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, *Token, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, nil, err
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.burnVerify(password)
			return nil, nil, common.ErrorUnauthorized
		}
		s.logger.Error(ctx, "login: lookup failed", "error", err)
		return nil, nil, common.ErrorInternal
	}

	if !user.HasPassword() {
		s.burnVerify(password)
		return nil, nil, common.ErrorUnauthorized
	}
	if !s.hasher.Verify(password, *user.PasswordHash) {
		return nil, nil, common.ErrorUnauthorized
	}

	token, err := s.issue(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, token, nil
}

// AuthenticateOAuth finds or creates the account for a provider identity.
// A returning user is only written when the provider name or picture changed.
func (s *AuthService) AuthenticateOAuth(ctx context.Context, p OAuthProfile) (*models.User, *Token, error) {
	if strings.TrimSpace(p.ExternalID) == "" {
		return nil, nil, fmt.Errorf("%w: missing provider id", common.ErrorValidation)
	}
	email, err := normalizeEmail(p.Email)
	if err != nil {
		return nil, nil, err
	}

	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByExternalID(ctx, p.ExternalID)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		user, err = repo.Create(ctx, &models.User{
			Email:      email,
			FullName:   models.StringPtr(p.FullName),
			Picture:    models.StringPtr(p.Picture),
			ExternalID: &p.ExternalID,
		})
		if err != nil {
			if errors.Is(err, common.ErrorConflict) {
				return nil, nil, common.ErrorConflict
			}
			s.logger.Error(ctx, "oauth: create failed", "error", err)
			return nil, nil, common.ErrorInternal
		}
		s.logger.Info(ctx, "user created from oauth", "user_id", user.ID)

	case err != nil:
		s.logger.Error(ctx, "oauth: lookup failed", "error", err)
		return nil, nil, common.ErrorInternal

	default:
		patch := profileDiff(user, p)
		if !patch.IsEmpty() {
			id := user.ID
			user, err = dbx.InTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*models.User, error) {
				return s.repomanager.Users(tx).Update(ctx, id, patch)
			})
			if err != nil {
				s.logger.Error(ctx, "oauth: update failed", "error", err)
				return nil, nil, common.ErrorInternal
			}
			s.logger.Debug(ctx, "oauth profile refreshed", "user_id", user.ID)
		}
	}

	token, err := s.issue(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, token, nil
}

// CurrentUser resolves the account behind an access token. Invalid or
// expired tokens and unknown accounts give common.ErrorUnauthenticated;
// inactive accounts give common.ErrorForbidden.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		s.logger.Debug(ctx, "token rejected", "reason", err.Error())
		return nil, common.ErrorUnauthenticated
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthenticated
		}
		s.logger.Error(ctx, "current user: lookup failed", "error", err)
		return nil, common.ErrorInternal
	}

	if !user.IsActive {
		return nil, common.ErrorForbidden
	}
	return user, nil
}

// --- helpers below ---

func (s *AuthService) issue(ctx context.Context, user *models.User) (*Token, error) {
	access, err := s.tokens.IssueDefault(user.ID, user.Email)
	if err != nil {
		s.logger.Error(ctx, "token issue failed", "error", err)
		return nil, common.ErrorInternal
	}
	return &Token{AccessToken: access, TokenType: common.TokenTypeBearer}, nil
}

// burnVerify spends the same work as a real verification so a missing
// account does not answer faster than a wrong password.
func (s *AuthService) burnVerify(password string) {
	s.dummyOnce.Do(func() {
		seed, err := common.MakeRandHexString(16)
		if err != nil {
			return
		}
		s.dummy, _ = s.hasher.Hash(seed)
	})
	if s.dummy != "" {
		_ = s.hasher.Verify(password, s.dummy)
	}
}

// profileDiff keeps only non-empty provider values that differ from what
// is stored.
func profileDiff(u *models.User, p OAuthProfile) models.UserUpdate {
	var patch models.UserUpdate
	if p.FullName != "" && p.FullName != models.StringValue(u.FullName) {
		patch.FullName = models.StringPtr(p.FullName)
	}
	if p.Picture != "" && p.Picture != models.StringValue(u.Picture) {
		patch.Picture = models.StringPtr(p.Picture)
	}
	return patch
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", fmt.Errorf("%w: email is required", common.ErrorValidation)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return "", fmt.Errorf("%w: invalid email address", common.ErrorValidation)
	}
	return email, nil
}

func validatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("%w: password is required", common.ErrorValidation)
	}
	if len(password) > maxPasswordLen {
		return fmt.Errorf("%w: password is too long", common.ErrorValidation)
	}
	return nil
}
