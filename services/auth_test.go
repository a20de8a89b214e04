package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/phillip/college-events-go/models"
)

func newAuth(n Notifier) (*AuthService, *memUsers, *TokenIssuer) {
	users := newMemUsers()
	tokens := NewTokenIssuer("test-secret", "college-events", time.Hour)
	svc := NewAuthService(users, tokens, n)
	svc.cost = bcrypt.MinCost
	return svc, users, tokens
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	n := &recordingNotifier{}
	svc, users, tokens := newAuth(n)
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterInput{Username: " alice ", Email: "Alice@College.EDU", Password: "s3cret!"})
	require.NoError(t, err)
	assert.Equal(t, "alice", res.User.Username)
	assert.Equal(t, "alice@college.edu", res.User.Email)
	assert.Equal(t, models.RoleStudent, res.User.Role)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, []string{"alice@college.edu"}, n.to)

	stored := users.byID[res.User.ID]
	assert.NotEqual(t, "s3cret!", stored.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("s3cret!")))

	claims, err := tokens.Parse(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID.Hex(), claims.UserID)

	login, err := svc.Login(ctx, LoginInput{Email: "ALICE@college.edu ", Password: "s3cret!"})
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, login.User.ID)
}

func TestAuthService_RegisterDuplicate(t *testing.T) {
	svc, _, _ := newAuth(nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Username: "bob", Email: "bob@college.edu", Password: "password"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Username: "bobby", Email: "BOB@college.edu", Password: "password"})
	se := asError(t, err)
	assert.Equal(t, Conflict, se.Validation)
	assert.Equal(t, "User already exists", se.Message)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	svc, users, _ := newAuth(nil)

	_, err := svc.Register(context.Background(), RegisterInput{Username: "al", Email: "not-an-email", Password: "123"})
	se := asError(t, err)
	assert.Equal(t, KindValidation, se.Kind)
	assert.Equal(t, InvalidField, se.Validation)
	assert.Equal(t, "username", se.Field)
	assert.Equal(t, []string{
		"username must be at least 3 characters",
		"Invalid email address",
		"password must be at least 6 characters",
	}, se.Details)
	assert.Empty(t, users.byID)
}

func TestAuthService_WelcomeEmailFailureDoesNotFailRegister(t *testing.T) {
	svc, _, _ := newAuth(&recordingNotifier{err: errBoom})

	_, err := svc.Register(context.Background(), RegisterInput{Username: "carol", Email: "carol@college.edu", Password: "password"})
	assert.NoError(t, err)
}

func TestAuthService_LoginRejectsBadCredentials(t *testing.T) {
	svc, _, _ := newAuth(nil)
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterInput{Username: "dave", Email: "dave@college.edu", Password: "password"})
	require.NoError(t, err)

	for _, in := range []LoginInput{
		{Email: "dave@college.edu", Password: "wrong-password"},
		{Email: "nobody@college.edu", Password: "password"},
	} {
		_, err := svc.Login(ctx, in)
		se := asError(t, err)
		assert.Equal(t, KindUnauthenticated, se.Kind)
		assert.Equal(t, "Invalid credentials", se.Message)
	}

	_, err = svc.Login(ctx, LoginInput{Email: "dave@college.edu"})
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestAuthService_Me(t *testing.T) {
	svc, users, _ := newAuth(nil)
	u := users.add("erin", "erin@college.edu", models.RoleAdmin)

	acct, err := svc.Me(context.Background(), as(u))
	require.NoError(t, err)
	assert.Equal(t, "erin", acct.Username)
	assert.Equal(t, models.RoleAdmin, acct.Role)

	delete(users.byID, u.ID)
	_, err = svc.Me(context.Background(), as(u))
	assert.Equal(t, KindNotFound, KindOf(err))

	_, err = svc.Me(context.Background(), nil)
	assert.Equal(t, KindUnauthenticated, KindOf(err))
}
