package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"rent-console/internal/ports/auth"
)

// -------------------------
// Test doubles
// -------------------------

var errRepoNotFound = errors.New("repo: not found")

type testRepo struct {
	nextID  int64
	byID    map[int64]User
	byEmail map[string]int64
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[int64]User{}, byEmail: map[string]int64{}}
}

func (r *testRepo) Create(ctx context.Context, u User) (User, error) {
	if _, ok := r.byEmail[u.Email]; ok {
		return User{}, ErrEmailTaken
	}
	r.nextID++
	u.ID = r.nextID
	r.byID[u.ID] = u
	r.byEmail[u.Email] = u.ID
	return u, nil
}

func (r *testRepo) Update(ctx context.Context, u User) error {
	if _, ok := r.byID[u.ID]; !ok {
		return errRepoNotFound
	}
	r.byID[u.ID] = u
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id int64) (User, error) {
	u, ok := r.byID[id]
	if !ok {
		return User{}, errRepoNotFound
	}
	return u, nil
}

func (r *testRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	id, ok := r.byEmail[email]
	if !ok {
		return User{}, errRepoNotFound
	}
	return r.byID[id], nil
}

type testIssuer struct{ issued int }

func (i *testIssuer) Issue(ctx context.Context, userID int64, email string, userType auth.UserType) (string, auth.Claims, error) {
	i.issued++
	return "tok", auth.Claims{UserID: userID, Email: email, UserType: userType, TokenID: "jti"}, nil
}

type testRevoker struct{ revoked []string }

func (r *testRevoker) Revoke(ctx context.Context, c auth.Claims) error {
	r.revoked = append(r.revoked, c.TokenID)
	return nil
}

func newTestService() (*Service, *testRepo, *testIssuer, *testRevoker) {
	repo := newTestRepo()
	iss := &testIssuer{}
	rev := &testRevoker{}
	svc := NewService(repo, iss, rev)
	svc.cost = bcrypt.MinCost
	svc.now = func() time.Time { return time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC) }
	return svc, repo, iss, rev
}

// -------------------------
// Tests
// -------------------------

func TestService_Signup_DefaultsToOwnerAndDoesNotIssueToken(t *testing.T) {
	svc, _, iss, _ := newTestService()

	u, err := svc.Signup(context.Background(), SignupInput{
		Email:    "  Ana@Example.com ",
		Password: "secret1",
		FullName: "Ana",
	})
	if err != nil {
		t.Fatalf("Signup error: %v", err)
	}
	if u.ID == 0 || u.Email != "ana@example.com" || u.UserType != auth.UserTypeOwner {
		t.Fatalf("unexpected user: %#v", u)
	}
	if u.PasswordHash == "secret1" || !u.HasPassword() {
		t.Fatalf("password must be hashed")
	}
	if iss.issued != 0 {
		t.Fatalf("signup must not issue a token")
	}
}

func TestService_Signup_ValidationFields(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.Signup(context.Background(), SignupInput{Email: "nope", Password: "1", UserType: "ADMIN"})

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	for _, f := range []string{"email", "password", "fullName", "userType"} {
		if _, ok := ve.Fields[f]; !ok {
			t.Fatalf("expected field %q in %v", f, ve.Fields)
		}
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("validation error must match ErrInvalidInput")
	}
}

func TestService_Signup_DuplicateEmail(t *testing.T) {
	svc, _, _, _ := newTestService()
	in := SignupInput{Email: "a@example.com", Password: "secret1", FullName: "A"}
	if _, err := svc.Signup(context.Background(), in); err != nil {
		t.Fatalf("Signup #1: %v", err)
	}
	if _, err := svc.Signup(context.Background(), in); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestService_Login(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()
	_, _ = svc.Signup(ctx, SignupInput{Email: "a@example.com", Password: "secret1", FullName: "A", UserType: "assistant"})

	s, err := svc.Login(ctx, "A@example.com", "secret1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if s.Token == "" || s.User.UserType != auth.UserTypeAssistant {
		t.Fatalf("unexpected session: %#v", s)
	}

	if _, err := svc.Login(ctx, "a@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "ghost@example.com", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email must look like bad credentials, got %v", err)
	}
}

func TestService_Logout_RevokesToken(t *testing.T) {
	svc, _, _, rev := newTestService()
	if err := svc.Logout(context.Background(), auth.Claims{UserID: 1, TokenID: "jti-9"}); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if len(rev.revoked) != 1 || rev.revoked[0] != "jti-9" {
		t.Fatalf("expected jti-9 revoked, got %v", rev.revoked)
	}
}

func TestService_UpdateProfile_PartialPatch(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()
	u, _ := svc.Signup(ctx, SignupInput{Email: "a@example.com", Password: "secret1", FullName: "A", Phone: "111"})

	phone := "222"
	got, err := svc.UpdateProfile(ctx, u.ID, UpdateInput{Phone: &phone})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if got.FullName != "A" || got.Phone != "222" {
		t.Fatalf("unexpected profile: %#v", got)
	}

	empty := "  "
	if _, err := svc.UpdateProfile(ctx, u.ID, UpdateInput{FullName: &empty}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestService_ChangePassword(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()
	u, _ := svc.Signup(ctx, SignupInput{Email: "a@example.com", Password: "secret1", FullName: "A"})

	if err := svc.ChangePassword(ctx, u.ID, "wrong", "secret2"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := svc.ChangePassword(ctx, u.ID, "secret1", "secret2"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := svc.Login(ctx, "a@example.com", "secret2"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestService_LoginOAuth_CreatesOnce(t *testing.T) {
	svc, repo, _, _ := newTestService()
	ctx := context.Background()

	s1, err := svc.LoginOAuth(ctx, "g@example.com", "Gee", ProviderGoogle)
	if err != nil {
		t.Fatalf("LoginOAuth #1: %v", err)
	}
	s2, err := svc.LoginOAuth(ctx, "G@example.com", "Gee", ProviderGoogle)
	if err != nil {
		t.Fatalf("LoginOAuth #2: %v", err)
	}
	if s1.User.ID != s2.User.ID || len(repo.byID) != 1 {
		t.Fatalf("expected a single account, got %d", len(repo.byID))
	}
	if s1.User.HasPassword() {
		t.Fatalf("oauth accounts start without password")
	}
}
