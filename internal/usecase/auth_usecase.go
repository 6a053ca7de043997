package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"inventory/internal/domain/model"
	repo "inventory/internal/repository"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 14 * 24 * time.Hour
)

// bcrypt実装はinfra側
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

type PasswordVerifier interface {
	Verify(hash string, plain string) bool
}

// アクセストークン（JWT）の発行。実装はmainで組む。
type AccessTokenIssuer interface {
	Issue(user model.User, now time.Time, ttl time.Duration) (string, error)
}

type AuthUsecase struct {
	userRepo  repo.UserRepository
	tokenRepo repo.RefreshTokenRepository
	hasher    PasswordHasher
	verifier  PasswordVerifier
	issuer    AccessTokenIssuer
	idGen     IDGenerator
	clock     Clock
}

// DI
func NewAuthUsecase(
	userRepo repo.UserRepository,
	tokenRepo repo.RefreshTokenRepository,
	hasher PasswordHasher,
	verifier PasswordVerifier,
	issuer AccessTokenIssuer,
	idGen IDGenerator,
	clock Clock,
) *AuthUsecase {
	return &AuthUsecase{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		hasher:    hasher,
		verifier:  verifier,
		issuer:    issuer,
		idGen:     idGen,
		clock:     clock,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

func (u *AuthUsecase) Register(ctx context.Context, in RegisterInput) (model.User, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if name == "" {
		return model.User{}, NewHTTPError(http.StatusBadRequest, "name required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return model.User{}, NewHTTPError(http.StatusBadRequest, "invalid email")
	}
	if len(in.Password) < 8 {
		return model.User{}, NewHTTPError(http.StatusBadRequest, "password too short")
	}

	if _, err := u.userRepo.FindByEmail(ctx, email); err == nil {
		return model.User{}, NewHTTPError(http.StatusConflict, "email already registered")
	} else if err != repo.ErrNotFound {
		return model.User{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	hash, err := u.hasher.Hash(in.Password)
	if err != nil {
		return model.User{}, NewHTTPError(http.StatusInternalServerError, "hash error")
	}

	created, err := u.userRepo.Create(ctx, model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleStaff,
		IsActive:     true,
	})
	if err == repo.ErrDuplicate {
		return model.User{}, NewHTTPError(http.StatusConflict, "email already registered")
	}
	if err != nil {
		return model.User{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return created, nil
}

type LoginInput struct {
	Email    string
	Password string
}

type TokenPair struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	User         model.User `json:"user"`
}

func (u *AuthUsecase) Login(ctx context.Context, in LoginInput) (TokenPair, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	user, err := u.userRepo.FindByEmail(ctx, email)
	if err == repo.ErrNotFound {
		return TokenPair{}, NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	if err != nil {
		return TokenPair{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if !u.verifier.Verify(user.PasswordHash, in.Password) {
		return TokenPair{}, NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	if !user.IsActive {
		return TokenPair{}, NewHTTPError(http.StatusForbidden, "account disabled")
	}

	now := u.clock.Now()
	pair, err := u.issueTokens(ctx, user, now)
	if err != nil {
		return TokenPair{}, err
	}

	if err := u.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return TokenPair{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return pair, nil
}

// リフレッシュトークンはローテーションする。使用済み・失効済みは拒否。
func (u *AuthUsecase) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	if refreshToken == "" {
		return TokenPair{}, NewHTTPError(http.StatusBadRequest, "refresh token required")
	}

	now := u.clock.Now()

	stored, err := u.tokenRepo.FindByHash(ctx, hashToken(refreshToken))
	if err == repo.ErrNotFound {
		return TokenPair{}, NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
	}
	if err != nil {
		return TokenPair{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if stored.RevokedAt != nil || stored.UsedAt != nil || now.After(stored.ExpiresAt) {
		//使用済みトークンの再提示は盗難の疑い。全セッションを落とす。
		if stored.UsedAt != nil {
			_ = u.tokenRepo.RevokeAllForUser(ctx, stored.UserID, now)
		}
		return TokenPair{}, NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
	}

	user, err := u.userRepo.FindByID(ctx, stored.UserID)
	if err == repo.ErrNotFound {
		return TokenPair{}, NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
	}
	if err != nil {
		return TokenPair{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !user.IsActive {
		return TokenPair{}, NewHTTPError(http.StatusForbidden, "account disabled")
	}

	if err := u.tokenRepo.MarkUsed(ctx, stored.ID, now); err != nil {
		return TokenPair{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return u.issueTokens(ctx, user, now)
}

func (u *AuthUsecase) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return NewHTTPError(http.StatusBadRequest, "refresh token required")
	}

	stored, err := u.tokenRepo.FindByHash(ctx, hashToken(refreshToken))
	if err == repo.ErrNotFound {
		//すでに無効なら成功扱い（冪等）
		return nil
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.tokenRepo.Revoke(ctx, stored.ID, u.clock.Now()); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *AuthUsecase) Me(ctx context.Context, userID int64) (model.User, error) {
	user, err := u.userRepo.FindByID(ctx, userID)
	if err == repo.ErrNotFound {
		return model.User{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.User{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return user, nil
}

func (u *AuthUsecase) issueTokens(ctx context.Context, user model.User, now time.Time) (TokenPair, error) {
	access, err := u.issuer.Issue(user, now, accessTokenTTL)
	if err != nil {
		return TokenPair{}, NewHTTPError(http.StatusInternalServerError, "token error")
	}

	//平文はuuid2つの連結。DBにはsha256しか置かない。
	plain := u.idGen.NewID() + u.idGen.NewID()

	if err := u.tokenRepo.Create(ctx, model.RefreshToken{
		ID:        u.idGen.NewID(),
		UserID:    user.ID,
		TokenHash: hashToken(plain),
		ExpiresAt: now.Add(refreshTokenTTL),
	}); err != nil {
		return TokenPair{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return TokenPair{AccessToken: access, RefreshToken: plain, User: user}, nil
}

func hashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}
