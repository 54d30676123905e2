package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/trove-market/trove/internal/roles"
	"github.com/trove-market/trove/internal/shared"
	"github.com/trove-market/trove/internal/users"
)

type memoryUsers struct {
	byID   map[int64]*users.User
	nextID int64
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byID: make(map[int64]*users.User)}
}

func (m *memoryUsers) Create(ctx context.Context, email, username, passwordHash string) (int64, error) {
	m.nextID++
	m.byID[m.nextID] = &users.User{
		ID:           m.nextID,
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		Role:         roles.RoleBasic,
	}
	return m.nextID, nil
}

func (m *memoryUsers) FindByID(ctx context.Context, id int64) (*users.User, error) {
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, shared.ErrNotFound
}

func (m *memoryUsers) FindByEmailOrUsername(ctx context.Context, email, username string) (*users.User, error) {
	for _, u := range m.byID {
		if u.Email == email || strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memoryUsers) CountWithRoleAmong(ctx context.Context, userID int64, gate roles.Gate) (int64, error) {
	u, ok := m.byID[userID]
	if !ok || !gate.Admits(u.Role) {
		return 0, nil
	}
	return 1, nil
}

func (m *memoryUsers) List(ctx context.Context, term string, page shared.Page) ([]users.Summary, int64, error) {
	return nil, 0, nil
}

func (m *memoryUsers) UpdatePassword(ctx context.Context, userID int64, passwordHash string) (int64, error) {
	u, ok := m.byID[userID]
	if !ok {
		return 0, nil
	}
	u.PasswordHash = passwordHash
	return 1, nil
}

func (m *memoryUsers) UpdateRole(ctx context.Context, userID int64, role roles.Role) error {
	u, ok := m.byID[userID]
	if !ok {
		return shared.ErrNotFound
	}
	u.Role = role
	return nil
}

func seedUser(t *testing.T, repo *memoryUsers, email, username, password string) int64 {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	id, err := repo.Create(context.Background(), email, username, string(hash))
	require.NoError(t, err)
	return id
}

func newTestTokens(t *testing.T) *TokenManager {
	t.Helper()
	tokens, err := NewTokenManager("test-secret", time.Minute, time.Minute)
	require.NoError(t, err)
	return tokens
}

func TestRegisterRejectsTakenUsernameCaseInsensitive(t *testing.T) {
	repo := newMemoryUsers()
	svc := NewService(repo, newTestTokens(t))
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "a@trove.local", "Maker", "secret"))
	err := svc.Register(ctx, "b@trove.local", "maker", "secret")
	require.ErrorIs(t, err, shared.ErrDuplicateName)
}

func TestSignInHidesWhichCredentialFailed(t *testing.T) {
	repo := newMemoryUsers()
	seedUser(t, repo, "a@trove.local", "maker", "secret")
	svc := NewService(repo, newTestTokens(t))
	ctx := context.Background()

	_, unknownErr := svc.SignIn(ctx, "nobody@trove.local", "", "secret")
	_, wrongPassErr := svc.SignIn(ctx, "a@trove.local", "", "wrong")
	require.ErrorIs(t, unknownErr, shared.ErrInvalidCredentials)
	require.ErrorIs(t, wrongPassErr, shared.ErrInvalidCredentials)
}

func TestSignInIssuesBothTokens(t *testing.T) {
	repo := newMemoryUsers()
	id := seedUser(t, repo, "a@trove.local", "maker", "secret")
	tokens := newTestTokens(t)
	svc := NewService(repo, tokens)

	result, err := svc.SignIn(context.Background(), "", "maker", "secret")
	require.NoError(t, err)
	require.Equal(t, "maker", result.Username)

	claims, err := tokens.Verify(result.Token, PurposeAccess)
	require.NoError(t, err)
	require.Equal(t, id, claims.UserID)
	require.Equal(t, roles.RoleBasic, claims.Role)

	_, err = tokens.Verify(result.Token, PurposePasswordUpdate)
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = tokens.Verify(result.UpdatePassToken, PurposePasswordUpdate)
	require.NoError(t, err)
}

func TestUpdatePasswordRejectsForeignToken(t *testing.T) {
	repo := newMemoryUsers()
	alice := seedUser(t, repo, "a@trove.local", "alice", "secret")
	bob := seedUser(t, repo, "b@trove.local", "bob", "secret")
	tokens := newTestTokens(t)
	svc := NewService(repo, tokens)
	ctx := context.Background()

	aliceToken, err := tokens.IssuePasswordUpdate(alice, "alice")
	require.NoError(t, err)

	err = svc.UpdatePassword(ctx, bob, aliceToken, "newpass")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	require.NoError(t, svc.UpdatePassword(ctx, alice, aliceToken, "newpass"))
	_, err = svc.SignIn(ctx, "a@trove.local", "", "newpass")
	require.NoError(t, err)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	tokens, err := NewTokenManager("test-secret", -time.Minute, time.Minute)
	require.NoError(t, err)
	// negative TTL falls back to the default, so sign one directly
	expired, err := tokens.sign(1, "maker", "basic", PurposeAccess, -time.Minute)
	require.NoError(t, err)

	_, err = tokens.Verify(expired, PurposeAccess)
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	tokens := newTestTokens(t)
	other, err := NewTokenManager("other-secret", time.Minute, time.Minute)
	require.NoError(t, err)

	token, err := other.IssueAccess(1, "maker", roles.RoleBasic)
	require.NoError(t, err)
	_, err = tokens.Verify(token, PurposeAccess)
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}
