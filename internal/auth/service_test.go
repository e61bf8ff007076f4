package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/internal/users"
	pkgauth "github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/auth"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/config"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/enums"
	pkgerrors "github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/errors"
)

func setupAuthTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:auth_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'user',
  phone TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(ddl).Error)
	return db
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret-test-secret-test-secret!",
		Issuer:            "smartshop-test",
		ExpirationMinutes: 30,
	}
}

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8 * 1024,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func newAuthService(t *testing.T) (Service, *users.Repository) {
	t.Helper()

	repo := users.NewRepository(setupAuthTestDB(t))
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		JWTConfig:      testJWTConfig(),
		PasswordConfig: testPasswordConfig(),
	})
	require.NoError(t, err)
	return svc, repo
}

func TestRegisterAndLoginRoundTrip(t *testing.T) {
	t.Parallel()

	svc, _ := newAuthService(t)
	ctx := context.Background()

	session, err := svc.Register(ctx, RegisterRequest{
		Email:    "Dewi@Example.com",
		Name:     "Dewi Lestari",
		Password: "rahasia-123",
	})
	require.NoError(t, err)
	require.NotNil(t, session.User)
	assert.Equal(t, "dewi@example.com", session.User.Email)
	assert.Equal(t, enums.UserRoleBuyer, session.User.Role)
	require.NotEmpty(t, session.AccessToken)

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, claims.UserID)
	assert.Equal(t, enums.UserRoleBuyer, claims.Role)

	login, err := svc.Login(ctx, LoginRequest{Email: "dewi@example.com", Password: "rahasia-123"})
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, login.User.ID)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	t.Parallel()

	svc, _ := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Email: "eko@example.com", Name: "Eko", Password: "rahasia-123"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterRequest{Email: "EKO@example.com", Name: "Eko Dua", Password: "rahasia-456"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestRegisterValidatesInput(t *testing.T) {
	t.Parallel()

	svc, _ := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Email: "  ", Name: "X", Password: "rahasia-123"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	_, err = svc.Register(ctx, RegisterRequest{Email: "x@example.com", Name: "X", Password: "short"})
	require.Error(t, err)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	t.Parallel()

	svc, _ := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Email: "fitri@example.com", Name: "Fitri", Password: "rahasia-123"})
	require.NoError(t, err)

	// Wrong password and unknown email produce the same message.
	_, err = svc.Login(ctx, LoginRequest{Email: "fitri@example.com", Password: "salah-semua"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
	wrongPassword := typed.Message()

	_, err = svc.Login(ctx, LoginRequest{Email: "ghost@example.com", Password: "salah-semua"})
	require.Error(t, err)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, wrongPassword, typed.Message())
}

func TestMe(t *testing.T) {
	t.Parallel()

	svc, _ := newAuthService(t)
	ctx := context.Background()

	session, err := svc.Register(ctx, RegisterRequest{Email: "gita@example.com", Name: "Gita", Password: "rahasia-123"})
	require.NoError(t, err)

	me, err := svc.Me(ctx, session.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "gita@example.com", me.Email)

	_, err = svc.Me(ctx, uuid.Nil)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())

	_, err = svc.Me(ctx, uuid.New())
	require.Error(t, err)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}
