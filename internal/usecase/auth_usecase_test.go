package usecase_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"inventory/internal/domain/model"
	repo "inventory/internal/repository"
	"inventory/internal/usecase"

	"github.com/stretchr/testify/assert"
)

// ---- auth用のfake ----

type fakeUserRepo struct {
	users  map[int64]model.User
	nextID int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[int64]model.User{}, nextID: 1}
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id int64) (model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return model.User{}, repo.ErrNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repo.ErrNotFound
}

func (r *fakeUserRepo) List(ctx context.Context, page int, limit int) ([]model.User, int64, error) {
	var out []model.User
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, int64(len(out)), nil
}

func (r *fakeUserRepo) Create(ctx context.Context, u model.User) (model.User, error) {
	if _, err := r.FindByEmail(ctx, u.Email); err == nil {
		return model.User{}, repo.ErrDuplicate
	}
	u.ID = r.nextID
	r.nextID++
	r.users[u.ID] = u
	return u, nil
}

func (r *fakeUserRepo) SetRole(ctx context.Context, id int64, role model.Role) error {
	u, ok := r.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.Role = role
	u.TokenVersion++
	r.users[id] = u
	return nil
}

func (r *fakeUserRepo) SetActive(ctx context.Context, id int64, isActive bool) error {
	u, ok := r.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.IsActive = isActive
	u.TokenVersion++
	r.users[id] = u
	return nil
}

func (r *fakeUserRepo) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	u, ok := r.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.LastLoginAt = &at
	r.users[id] = u
	return nil
}

type fakeRefreshTokenRepo struct {
	tokens map[string]model.RefreshToken // key: ID
}

func newFakeRefreshTokenRepo() *fakeRefreshTokenRepo {
	return &fakeRefreshTokenRepo{tokens: map[string]model.RefreshToken{}}
}

func (r *fakeRefreshTokenRepo) Create(ctx context.Context, t model.RefreshToken) error {
	r.tokens[t.ID] = t
	return nil
}

func (r *fakeRefreshTokenRepo) FindByHash(ctx context.Context, tokenHash string) (model.RefreshToken, error) {
	for _, t := range r.tokens {
		if t.TokenHash == tokenHash {
			return t, nil
		}
	}
	return model.RefreshToken{}, repo.ErrNotFound
}

func (r *fakeRefreshTokenRepo) MarkUsed(ctx context.Context, id string, at time.Time) error {
	t, ok := r.tokens[id]
	if !ok {
		return repo.ErrNotFound
	}
	t.UsedAt = &at
	r.tokens[id] = t
	return nil
}

func (r *fakeRefreshTokenRepo) Revoke(ctx context.Context, id string, at time.Time) error {
	t, ok := r.tokens[id]
	if !ok {
		return repo.ErrNotFound
	}
	t.RevokedAt = &at
	r.tokens[id] = t
	return nil
}

func (r *fakeRefreshTokenRepo) RevokeAllForUser(ctx context.Context, userID int64, at time.Time) error {
	for id, t := range r.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &at
			r.tokens[id] = t
		}
	}
	return nil
}

type fakeHasher struct{}

func (fakeHasher) Hash(plain string) (string, error) { return "h:" + plain, nil }

type fakeVerifier struct{}

func (fakeVerifier) Verify(hash string, plain string) bool { return hash == "h:"+plain }

type fakeIssuer struct{ n int }

func (i *fakeIssuer) Issue(user model.User, now time.Time, ttl time.Duration) (string, error) {
	i.n++
	return fmt.Sprintf("token-%d-%d", user.ID, i.n), nil
}

type authFixture struct {
	users  *fakeUserRepo
	tokens *fakeRefreshTokenRepo
	clock  *fixedClock
	uc     *usecase.AuthUsecase
}

func newAuthFixture() *authFixture {
	users := newFakeUserRepo()
	tokens := newFakeRefreshTokenRepo()
	clock := &fixedClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	uc := usecase.NewAuthUsecase(users, tokens, fakeHasher{}, fakeVerifier{}, &fakeIssuer{}, &seqIDGen{}, clock)
	return &authFixture{users: users, tokens: tokens, clock: clock, uc: uc}
}

// ---- tests ----

func TestAuthUsecase_Register_PasswordTooShort(t *testing.T) {
	f := newAuthFixture()

	_, err := f.uc.Register(context.Background(), usecase.RegisterInput{
		Name:     "Tanaka",
		Email:    "t@example.com",
		Password: "short",
	})
	assertErrContains(t, err, "password too short")
}

func TestAuthUsecase_Register_DuplicateEmail(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	_, err := f.uc.Register(ctx, usecase.RegisterInput{Name: "A", Email: "t@example.com", Password: "password1"})
	assert.NoError(t, err)

	_, err = f.uc.Register(ctx, usecase.RegisterInput{Name: "B", Email: "T@Example.com ", Password: "password1"})
	assertErrContains(t, err, "email already registered")
}

func TestAuthUsecase_Register_DefaultsToStaff(t *testing.T) {
	f := newAuthFixture()

	u, err := f.uc.Register(context.Background(), usecase.RegisterInput{
		Name:     "Tanaka",
		Email:    "t@example.com",
		Password: "password1",
	})
	assert.NoError(t, err)
	assert.Equal(t, model.RoleStaff, u.Role)
	assert.True(t, u.IsActive)
	assert.Equal(t, "h:password1", u.PasswordHash)
}

func TestAuthUsecase_Login(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	_, err := f.uc.Register(ctx, usecase.RegisterInput{Name: "A", Email: "t@example.com", Password: "password1"})
	assert.NoError(t, err)

	//間違ったパスワード
	_, err = f.uc.Login(ctx, usecase.LoginInput{Email: "t@example.com", Password: "wrong"})
	assertErrContains(t, err, "invalid credentials")

	//成功
	pair, err := f.uc.Login(ctx, usecase.LoginInput{Email: "t@example.com", Password: "password1"})
	assert.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.NotNil(t, f.users.users[pair.User.ID].LastLoginAt)
}

func TestAuthUsecase_Login_InactiveAccount(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	u, err := f.uc.Register(ctx, usecase.RegisterInput{Name: "A", Email: "t@example.com", Password: "password1"})
	assert.NoError(t, err)

	assert.NoError(t, f.users.SetActive(ctx, u.ID, false))

	_, err = f.uc.Login(ctx, usecase.LoginInput{Email: "t@example.com", Password: "password1"})
	assertErrContains(t, err, "account disabled")
}

// refreshはローテーション。使用済みの再提示で全セッション失効。
func TestAuthUsecase_Refresh_RotationAndReuseDetection(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	_, err := f.uc.Register(ctx, usecase.RegisterInput{Name: "A", Email: "t@example.com", Password: "password1"})
	assert.NoError(t, err)

	pair, err := f.uc.Login(ctx, usecase.LoginInput{Email: "t@example.com", Password: "password1"})
	assert.NoError(t, err)

	//1回目のrefreshは成功し、新しいトークンが返る
	pair2, err := f.uc.Refresh(ctx, pair.RefreshToken)
	assert.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, pair2.RefreshToken)

	//同じトークンの再利用は拒否され、全トークンが失効する
	_, err = f.uc.Refresh(ctx, pair.RefreshToken)
	assertErrContains(t, err, "invalid refresh token")

	_, err = f.uc.Refresh(ctx, pair2.RefreshToken)
	assertErrContains(t, err, "invalid refresh token")
}

func TestAuthUsecase_Refresh_Expired(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	_, err := f.uc.Register(ctx, usecase.RegisterInput{Name: "A", Email: "t@example.com", Password: "password1"})
	assert.NoError(t, err)

	pair, err := f.uc.Login(ctx, usecase.LoginInput{Email: "t@example.com", Password: "password1"})
	assert.NoError(t, err)

	//15日進める（TTLは14日）
	f.clock.t = f.clock.t.Add(15 * 24 * time.Hour)

	_, err = f.uc.Refresh(ctx, pair.RefreshToken)
	assertErrContains(t, err, "invalid refresh token")
}

func TestAuthUsecase_Logout_Idempotent(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	_, err := f.uc.Register(ctx, usecase.RegisterInput{Name: "A", Email: "t@example.com", Password: "password1"})
	assert.NoError(t, err)

	pair, err := f.uc.Login(ctx, usecase.LoginInput{Email: "t@example.com", Password: "password1"})
	assert.NoError(t, err)

	assert.NoError(t, f.uc.Logout(ctx, pair.RefreshToken))

	//失効済みトークンではrefreshできない
	_, err = f.uc.Refresh(ctx, pair.RefreshToken)
	assertErrContains(t, err, "invalid refresh token")

	//もう一度logoutしてもエラーにしない
	assert.NoError(t, f.uc.Logout(ctx, "unknown-token"))
}
