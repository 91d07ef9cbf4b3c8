package service

import (
	"context"
	"testing"
	"time"

	"github.com/teamtodo/teamtodo/internal/apperror"
	"github.com/teamtodo/teamtodo/internal/auth"
	"github.com/teamtodo/teamtodo/internal/model"
	"github.com/teamtodo/teamtodo/internal/repository"
)

// plainHasher keeps tests fast; it is not a real password hash.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "plain:" + password, nil }
func (plainHasher) Verify(password, hash string) (bool, error) {
	return hash == "plain:"+password, nil
}

func newTestUserService(t *testing.T) (*UserService, *repository.Memory, *auth.TokenCodec) {
	t.Helper()
	codec, err := auth.NewTokenCodec("0123456789abcdef0123456789abcdef", time.Hour)
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	store := repository.NewMemory()
	return NewUserService(store, plainHasher{}, codec), store, codec
}

func TestUserService_Register(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestUserService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Email: " Alice@Example.com ", Password: "pw1234", Nickname: "alice"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}
	if user.APIKey == "" || user.PasswordHash == "pw1234" {
		t.Fatalf("expected api key and hashed password, got %+v", user)
	}

	_, err = svc.Register(ctx, RegisterInput{Email: "alice@example.com", Password: "other", Nickname: "alice2"})
	if !apperror.HasCode(err, apperror.CodeEmailExists) {
		t.Fatalf("expected %s, got %v", apperror.CodeEmailExists, err)
	}
}

func TestUserService_RegisterValidation(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestUserService(t)

	tests := []struct {
		name  string
		input RegisterInput
	}{
		{"missing_email", RegisterInput{Password: "pw", Nickname: "nick"}},
		{"bad_email", RegisterInput{Email: "not-an-email", Password: "pw", Nickname: "nick"}},
		{"short_password", RegisterInput{Email: "a@b.co", Password: "p", Nickname: "nick"}},
		{"long_nickname", RegisterInput{Email: "a@b.co", Password: "pw", Nickname: "abcdefghijklmnopqrstuvwxyz012345"}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), test.input)
			if !apperror.HasCode(err, apperror.CodeMalformed) {
				t.Fatalf("expected %s, got %v", apperror.CodeMalformed, err)
			}
		})
	}
}

func TestUserService_Login(t *testing.T) {
	t.Parallel()
	svc, _, codec := newTestUserService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Email: "bob@example.com", Password: "secret", Nickname: "bob"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	res, err := svc.Login(ctx, "BOB@example.com", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.APIKey != user.APIKey {
		t.Fatalf("expected stored api key")
	}
	principal, err := codec.Verify(res.AccessToken)
	if err != nil {
		t.Fatalf("verify issued token: %v", err)
	}
	if principal != (model.Principal{ID: user.ID, Email: user.Email}) {
		t.Fatalf("unexpected principal: %+v", principal)
	}

	if _, err := svc.Login(ctx, "bob@example.com", "wrong"); !apperror.HasCode(err, apperror.CodeMalformed) {
		t.Fatalf("expected wrong password to be %s, got %v", apperror.CodeMalformed, err)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "secret"); !apperror.HasCode(err, apperror.CodeUserNotFound) {
		t.Fatalf("expected %s, got %v", apperror.CodeUserNotFound, err)
	}
}

func TestUserService_UpdateProfile(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestUserService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Email: "carol@example.com", Password: "secret", Nickname: "carol"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	updated, err := svc.UpdateProfile(ctx, user.ID, UpdateProfileInput{Nickname: "caz", ProfileImageURL: "/uploads/c.png"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Nickname != "caz" || updated.ProfileImageURL != "/uploads/c.png" {
		t.Fatalf("unexpected profile: %+v", updated)
	}

	if _, err := svc.Me(ctx, "ghost"); !apperror.HasCode(err, apperror.CodeUserNotFound) {
		t.Fatalf("expected %s, got %v", apperror.CodeUserNotFound, err)
	}
}
