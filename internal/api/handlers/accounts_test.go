package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dohyunkim/moneytree/internal/auth"
	"github.com/dohyunkim/moneytree/internal/blob"
	"github.com/dohyunkim/moneytree/internal/cascade"
	"github.com/dohyunkim/moneytree/internal/domain"
)

type mockUserStore struct {
	nextID        int64
	users         map[int64]domain.User
	verifications map[string]domain.Verification
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{
		nextID:        1,
		users:         make(map[int64]domain.User),
		verifications: make(map[string]domain.Verification),
	}
}

func (m *mockUserStore) CreateUser(ctx context.Context, username, email, passwordHash string) (domain.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return domain.User{}, domain.Conflictf("email is already in use")
		}
	}
	u := domain.User{ID: m.nextID, Username: username, Email: email, Password: passwordHash}
	m.users[u.ID] = u
	m.nextID++
	return u, nil
}

func (m *mockUserStore) UserByEmail(ctx context.Context, email string) (domain.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, domain.NotFoundf("user not found - %s", email)
}

func (m *mockUserStore) UserByID(ctx context.Context, id int64) (domain.User, error) {
	u, ok := m.users[id]
	if !ok {
		return domain.User{}, domain.NotFoundf("user not found - %d", id)
	}
	return u, nil
}

func (m *mockUserStore) UpdateUsername(ctx context.Context, ownerID int64, username string) error {
	u, ok := m.users[ownerID]
	if !ok {
		return domain.NotFoundf("user not found - %d", ownerID)
	}
	u.Username = username
	m.users[ownerID] = u
	return nil
}

func (m *mockUserStore) UpdatePassword(ctx context.Context, ownerID int64, passwordHash string) error {
	u, ok := m.users[ownerID]
	if !ok {
		return domain.NotFoundf("user not found - %d", ownerID)
	}
	u.Password = passwordHash
	m.users[ownerID] = u
	return nil
}

func (m *mockUserStore) UpdatePasswordByEmail(ctx context.Context, email, passwordHash string) error {
	for id, u := range m.users {
		if u.Email == email {
			u.Password = passwordHash
			m.users[id] = u
			return nil
		}
	}
	return domain.NotFoundf("user not found - %s", email)
}

func (m *mockUserStore) DeleteUser(ctx context.Context, ownerID int64) error {
	if _, ok := m.users[ownerID]; !ok {
		return domain.NotFoundf("user not found - %d", ownerID)
	}
	delete(m.users, ownerID)
	return nil
}

func (m *mockUserStore) UpsertVerification(ctx context.Context, email, code string) error {
	m.verifications[email] = domain.Verification{Email: email, Code: code, CreatedAt: time.Now()}
	return nil
}

func (m *mockUserStore) Verification(ctx context.Context, email string) (domain.Verification, error) {
	v, ok := m.verifications[email]
	if !ok {
		return domain.Verification{}, domain.NotFoundf("no verification for %s", email)
	}
	return v, nil
}

func (m *mockUserStore) MarkVerified(ctx context.Context, email string) error {
	v, ok := m.verifications[email]
	if !ok {
		return domain.NotFoundf("no verification for %s", email)
	}
	v.VerifiedAt = time.Now()
	m.verifications[email] = v
	return nil
}

func (m *mockUserStore) DeleteVerification(ctx context.Context, email string) error {
	delete(m.verifications, email)
	return nil
}

type mockMailer struct {
	codes     map[string]string
	passwords map[string]string
}

func newMockMailer() *mockMailer {
	return &mockMailer{codes: make(map[string]string), passwords: make(map[string]string)}
}

func (m *mockMailer) SendVerificationCode(ctx context.Context, to, code string) error {
	m.codes[to] = code
	return nil
}

func (m *mockMailer) SendTemporaryPassword(ctx context.Context, to, password string) error {
	m.passwords[to] = password
	return nil
}

type accountsFixture struct {
	handler  *AccountsHandler
	users    *mockUserStore
	branches *mockBranchStore
	mailer   *mockMailer
	tokens   *auth.Tokens
}

func newAccountsFixture() *accountsFixture {
	users := newMockUserStore()
	branches := newMockBranchStore()
	mailer := newMockMailer()
	tokens := auth.NewTokens([]byte("test-signing-key"))
	c := cascade.New(branches, newMockTransactionStore(), blob.NewMemory(), zerolog.Nop())
	return &accountsFixture{
		handler:  NewAccountsHandler(users, branches, c, tokens, mailer, zerolog.Nop()),
		users:    users,
		branches: branches,
		mailer:   mailer,
		tokens:   tokens,
	}
}

func TestSignupFlow(t *testing.T) {
	f := newAccountsFixture()

	// Request a verification code.
	req := httptest.NewRequest(http.MethodPost, "/api/auth/verify-email",
		strings.NewReader(`{"email": "kim@example.com"}`))
	w := httptest.NewRecorder()
	f.handler.SendVerification(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("send verification status = %d: %s", w.Code, w.Body.String())
	}
	code, ok := f.mailer.codes["kim@example.com"]
	if !ok {
		t.Fatal("no verification code was mailed")
	}

	// Check the code.
	req = httptest.NewRequest(http.MethodGet, "/api/auth/verify-email?email=kim@example.com&code="+code, nil)
	w = httptest.NewRecorder()
	f.handler.CheckVerification(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("check verification status = %d: %s", w.Code, w.Body.String())
	}

	// Sign up.
	req = httptest.NewRequest(http.MethodPost, "/api/auth/signup",
		strings.NewReader(`{"email": "kim@example.com", "password": "hunter2!", "username": "kim"}`))
	w = httptest.NewRecorder()
	f.handler.Signup(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("signup status = %d: %s", w.Code, w.Body.String())
	}

	user, err := f.users.UserByEmail(context.Background(), "kim@example.com")
	if err != nil {
		t.Fatalf("account was not created: %v", err)
	}
	if user.Password == "hunter2!" {
		t.Error("password was stored in plaintext")
	}
	if ok, _ := f.branches.Exists(context.Background(), user.ID, domain.RootBranch); !ok {
		t.Error("root branch was not created at signup")
	}
	if _, err := f.users.Verification(context.Background(), "kim@example.com"); err == nil {
		t.Error("verification row was not cleared after signup")
	}
}

func TestSignupRequiresVerifiedEmail(t *testing.T) {
	f := newAccountsFixture()

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup",
		strings.NewReader(`{"email": "kim@example.com", "password": "hunter2!", "username": "kim"}`))
	w := httptest.NewRecorder()
	f.handler.Signup(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestSignupRejectsWeakPassword(t *testing.T) {
	f := newAccountsFixture()

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup",
		strings.NewReader(`{"email": "kim@example.com", "password": "short1!", "username": "kim"}`))
	w := httptest.NewRecorder()
	f.handler.Signup(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestCheckVerificationExpiredCode(t *testing.T) {
	f := newAccountsFixture()
	f.users.verifications["kim@example.com"] = domain.Verification{
		Email:     "kim@example.com",
		Code:      "abc123",
		CreatedAt: time.Now().Add(-16 * time.Minute),
	}

	req := httptest.NewRequest(http.MethodGet, "/api/auth/verify-email?email=kim@example.com&code=abc123", nil)
	w := httptest.NewRecorder()
	f.handler.CheckVerification(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if _, ok := f.users.verifications["kim@example.com"]; ok {
		t.Error("expired verification row was not discarded")
	}
}

func TestSigninIssuesTokens(t *testing.T) {
	f := newAccountsFixture()
	hash, _ := auth.HashPassword("hunter2!")
	f.users.CreateUser(context.Background(), "kim", "kim@example.com", hash)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signin",
		strings.NewReader(`{"email": "kim@example.com", "password": "hunter2!"}`))
	w := httptest.NewRecorder()
	f.handler.Signin(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "access_token") {
		t.Error("response carries no access token")
	}
}

func TestSigninWrongPassword(t *testing.T) {
	f := newAccountsFixture()
	hash, _ := auth.HashPassword("hunter2!")
	f.users.CreateUser(context.Background(), "kim", "kim@example.com", hash)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signin",
		strings.NewReader(`{"email": "kim@example.com", "password": "wrong-pass1!"}`))
	w := httptest.NewRecorder()
	f.handler.Signin(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestForgetPasswordMailsTemporary(t *testing.T) {
	f := newAccountsFixture()
	hash, _ := auth.HashPassword("hunter2!")
	f.users.CreateUser(context.Background(), "kim", "kim@example.com", hash)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/forget-password",
		strings.NewReader(`{"email": "kim@example.com"}`))
	w := httptest.NewRecorder()
	f.handler.ForgetPassword(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	temp, ok := f.mailer.passwords["kim@example.com"]
	if !ok {
		t.Fatal("no temporary password was mailed")
	}
	user, _ := f.users.UserByEmail(context.Background(), "kim@example.com")
	if !auth.VerifyPassword(temp, user.Password) {
		t.Error("stored hash does not match the mailed temporary password")
	}
}

func TestUpdateInfo(t *testing.T) {
	f := newAccountsFixture()
	hash, _ := auth.HashPassword("hunter2!")
	user, _ := f.users.CreateUser(context.Background(), "kim", "kim@example.com", hash)

	req := authed(httptest.NewRequest(http.MethodPut, "/api/auth/userinfo",
		strings.NewReader(`{"username": "kim2"}`)), user.ID)
	w := httptest.NewRecorder()
	f.handler.UpdateInfo(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	updated, _ := f.users.UserByID(context.Background(), user.ID)
	if updated.Username != "kim2" {
		t.Errorf("username = %q, want kim2", updated.Username)
	}
}

func TestUpdateInfoRequiresUsername(t *testing.T) {
	f := newAccountsFixture()

	req := authed(httptest.NewRequest(http.MethodPut, "/api/auth/userinfo",
		strings.NewReader(`{}`)), 1)
	w := httptest.NewRecorder()
	f.handler.UpdateInfo(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestSignout(t *testing.T) {
	f := newAccountsFixture()

	req := authed(httptest.NewRequest(http.MethodPost, "/api/auth/signout", nil), 1)
	w := httptest.NewRecorder()
	f.handler.Signout(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	// Without an authenticated owner the endpoint refuses.
	req = httptest.NewRequest(http.MethodPost, "/api/auth/signout", nil)
	w = httptest.NewRecorder()
	f.handler.Signout(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestDeleteAccountRemovesEverything(t *testing.T) {
	f := newAccountsFixture()
	hash, _ := auth.HashPassword("hunter2!")
	user, _ := f.users.CreateUser(context.Background(), "kim", "kim@example.com", hash)
	f.branches.Create(context.Background(), user.ID, domain.RootBranch)
	f.branches.Create(context.Background(), user.ID, "Home/Food")

	req := authed(httptest.NewRequest(http.MethodDelete, "/api/auth/account", nil), user.ID)
	w := httptest.NewRecorder()
	f.handler.DeleteAccount(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if _, err := f.users.UserByID(context.Background(), user.ID); err == nil {
		t.Error("account row still present")
	}
	if remaining, _ := f.branches.ListByOwner(context.Background(), user.ID); len(remaining) != 0 {
		t.Errorf("branches remaining = %d, want 0", len(remaining))
	}
}
