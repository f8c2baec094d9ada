package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mamadbah2/farmhub/internal/domain/models"
	"github.com/mamadbah2/farmhub/internal/repository"
)

type memUsers struct {
	mu    sync.Mutex
	users map[string]models.User
}

func (m *memUsers) InsertUser(_ context.Context, u models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	m.users[u.ID] = u
	return nil
}

func (m *memUsers) GetUser(_ context.Context, id string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return models.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) GetUserByEmail(_ context.Context, email string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, repository.ErrNotFound
}

func (m *memUsers) CountUsersByRole(_ context.Context, role models.Role) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, u := range m.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

type farmerMap map[string]models.Farmer

func (f farmerMap) GetFarmer(_ context.Context, id string) (models.Farmer, error) {
	farmer, ok := f[id]
	if !ok {
		return models.Farmer{}, repository.ErrNotFound
	}
	return farmer, nil
}

func newTestService() *Service {
	return NewService(
		&memUsers{users: map[string]models.User{}},
		farmerMap{"f1": {ID: "f1", Name: "Amina"}},
		NewTokens(testSecret, time.Hour),
		nil,
		WithHashCost(bcrypt.MinCost),
	)
}

func TestRegisterAdmin_OnlyOnce(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	admin, err := svc.RegisterAdmin(ctx, "Root", " Root@Example.com ", "s3cretpass")
	require.NoError(t, err)
	assert.Equal(t, "root@example.com", admin.Email)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.NotEqual(t, "s3cretpass", admin.PasswordHash)

	_, err = svc.RegisterAdmin(ctx, "Other", "other@example.com", "s3cretpass")
	assert.ErrorIs(t, err, ErrAdminExists)
}

func TestCreateUser_Validation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	cases := []struct {
		name string
		in   NewUser
		want error
	}{
		{"bad role", NewUser{Email: "a@b.co", Password: "longenough", Role: "root"}, ErrInvalidRole},
		{"farmer without id", NewUser{Email: "a@b.co", Password: "longenough", Role: models.RoleFarmer}, ErrFarmerRequired},
		{"unknown farmer", NewUser{Email: "a@b.co", Password: "longenough", Role: models.RoleFarmer, FarmerID: "ghost"}, ErrUnknownFarmer},
		{"short password", NewUser{Email: "a@b.co", Password: "short", Role: models.RoleManager}, ErrWeakPassword},
		{"bad email", NewUser{Email: "not-an-email", Password: "longenough", Role: models.RoleManager}, ErrInvalidEmail},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateUser(ctx, tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCreateUser_EmailTaken(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	in := NewUser{Name: "M", Email: "m@farm.co", Password: "longenough", Role: models.RoleManager}

	_, err := svc.CreateUser(ctx, in)
	require.NoError(t, err)

	in.Email = "M@FARM.CO"
	_, err = svc.CreateUser(ctx, in)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLogin(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, NewUser{Name: "A", Email: "amina@farm.co", Password: "longenough", Role: models.RoleFarmer, FarmerID: "f1"})
	require.NoError(t, err)

	session, err := svc.Login(ctx, "AMINA@farm.co", "longenough")
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.User.ID)

	claims, err := svc.Tokens().Parse(session.Token)
	require.NoError(t, err)
	assert.Equal(t, "f1", claims.FarmerID)

	me, err := svc.Me(ctx, claims.UserID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, me.Email)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	_, err := svc.CreateUser(ctx, NewUser{Email: "m@farm.co", Password: "longenough", Role: models.RoleManager})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "m@farm.co", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@farm.co", "longenough")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestMe_NotFound(t *testing.T) {
	_, err := newTestService().Me(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
