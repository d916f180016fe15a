package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/dohyunkim/moneytree/internal/api/middleware"
	"github.com/dohyunkim/moneytree/internal/auth"
	"github.com/dohyunkim/moneytree/internal/cascade"
	"github.com/dohyunkim/moneytree/internal/domain"
	"github.com/dohyunkim/moneytree/internal/mail"
	"github.com/dohyunkim/moneytree/internal/store"
)

// verificationTTL is how long an email verification code stays valid.
const verificationTTL = 15 * time.Minute

// tempPasswordLength is the length of generated temporary passwords.
const tempPasswordLength = 8

// AccountsHandler handles signup, signin, and account lifecycle.
type AccountsHandler struct {
	users       store.UserStore
	branches    store.BranchStore
	coordinator *cascade.Coordinator
	tokens      *auth.Tokens
	mailer      mail.Sender
	log         zerolog.Logger
}

// NewAccountsHandler creates a new accounts handler.
func NewAccountsHandler(users store.UserStore, branches store.BranchStore, coordinator *cascade.Coordinator, tokens *auth.Tokens, mailer mail.Sender, log zerolog.Logger) *AccountsHandler {
	return &AccountsHandler{
		users:       users,
		branches:    branches,
		coordinator: coordinator,
		tokens:      tokens,
		mailer:      mailer,
		log:         log,
	}
}

// SendVerification handles POST /api/auth/verify-email with an {email}
// body: stores a fresh code and mails it.
func (h *AccountsHandler) SendVerification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Email is required")
		return
	}

	if _, err := h.users.UserByEmail(ctx, req.Email); err == nil {
		middleware.WriteDomainError(w, domain.Conflictf("email is already in use"))
		return
	} else if !domain.IsKind(err, domain.KindNotFound) {
		middleware.WriteDomainError(w, err)
		return
	}

	code, err := auth.GenerateCode()
	if err != nil {
		middleware.WriteDomainError(w, domain.E(domain.KindDependency, "generate verification code", err))
		return
	}
	if err := h.users.UpsertVerification(ctx, req.Email, code); err != nil {
		middleware.WriteDomainError(w, err)
		return
	}
	if err := h.mailer.SendVerificationCode(ctx, req.Email, code); err != nil {
		h.log.Error().Err(err).Str("email", req.Email).Msg("failed to send verification email")
		middleware.WriteDomainError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"message": "Verification code sent"})
}

// CheckVerification handles GET /api/auth/verify-email?email=&code=.
func (h *AccountsHandler) CheckVerification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	email := r.URL.Query().Get("email")
	code := r.URL.Query().Get("code")
	if email == "" || code == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Email and verification code are required")
		return
	}

	v, err := h.users.Verification(ctx, email)
	if err != nil {
		middleware.WriteDomainError(w, err)
		return
	}
	if v.Code != code {
		middleware.WriteDomainError(w, domain.Unauthorizedf("verification code does not match"))
		return
	}
	if time.Since(v.CreatedAt) > verificationTTL {
		if err := h.users.DeleteVerification(ctx, email); err != nil {
			h.log.Error().Err(err).Str("email", email).Msg("failed to delete expired verification")
		}
		middleware.WriteDomainError(w, domain.Unauthorizedf("verification code has expired"))
		return
	}
	if err := h.users.MarkVerified(ctx, email); err != nil {
		middleware.WriteDomainError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"message": "Email verification successful"})
}

// Signup handles POST /api/auth/signup. A verified email is required;
// the account starts with its root branch.
func (h *AccountsHandler) Signup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" || req.Username == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Email, password, and username are required")
		return
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		middleware.WriteDomainError(w, err)
		return
	}

	if _, err := h.users.UserByEmail(ctx, req.Email); err == nil {
		middleware.WriteDomainError(w, domain.Conflictf("email is already in use"))
		return
	} else if !domain.IsKind(err, domain.KindNotFound) {
		middleware.WriteDomainError(w, err)
		return
	}

	v, err := h.users.Verification(ctx, req.Email)
	if err != nil || !v.Verified() {
		middleware.WriteDomainError(w, domain.Unauthorizedf("email verification is required"))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		middleware.WriteDomainError(w, domain.E(domain.KindDependency, "hash password", err))
		return
	}

	user, err := h.users.CreateUser(ctx, req.Username, req.Email, hash)
	if err != nil {
		middleware.WriteDomainError(w, err)
		return
	}
	if _, err := h.branches.Create(ctx, user.ID, domain.RootBranch); err != nil {
		h.log.Error().Err(err).Int64("uid", user.ID).Msg("failed to create root branch at signup")
		middleware.WriteDomainError(w, err)
		return
	}
	if err := h.users.DeleteVerification(ctx, req.Email); err != nil {
		h.log.Error().Err(err).Str("email", req.Email).Msg("failed to clear verification after signup")
	}

	middleware.WriteJSON(w, http.StatusCreated, map[string]string{"message": "Signup successful"})
}

// Signin handles POST /api/auth/signin and returns access and refresh
// tokens.
func (h *AccountsHandler) Signin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := h.users.UserByEmail(ctx, req.Email)
	if err != nil {
		middleware.WriteDomainError(w, err)
		return
	}
	if !auth.VerifyPassword(req.Password, user.Password) {
		middleware.WriteDomainError(w, domain.Unauthorizedf("incorrect password"))
		return
	}

	access, err := h.tokens.IssueAccess(user.ID)
	if err != nil {
		middleware.WriteDomainError(w, err)
		return
	}
	refresh, err := h.tokens.IssueRefresh(user.ID)
	if err != nil {
		middleware.WriteDomainError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"access_token":  access,
		"refresh_token": refresh,
		"token_type":    "bearer",
		"email":         user.Email,
		"username":      user.Username,
	})
}

// Me handles GET /api/auth/me for the authenticated account.
func (h *AccountsHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID, ok := middleware.OwnerID(ctx)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	user, err := h.users.UserByID(ctx, ownerID)
	if err != nil {
		middleware.WriteDomainError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"message": user})
}

// UpdateInfo handles PUT /api/auth/userinfo for the authenticated
// account.
func (h *AccountsHandler) UpdateInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID, ok := middleware.OwnerID(ctx)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Username is required")
		return
	}

	if err := h.users.UpdateUsername(ctx, ownerID, req.Username); err != nil {
		middleware.WriteDomainError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"message": "User information updated successfully"})
}

// Signout handles POST /api/auth/signout. Tokens are stateless, so there
// is nothing to invalidate server-side; the client discards its copies.
// The endpoint exists so clients have an explicit end-of-session call.
func (h *AccountsHandler) Signout(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.OwnerID(r.Context()); !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"message": "You have been signed out successfully"})
}

// ChangePassword handles PUT /api/auth/password for the authenticated
// account.
func (h *AccountsHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID, ok := middleware.OwnerID(ctx)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Password == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Password is required")
		return
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		middleware.WriteDomainError(w, err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		middleware.WriteDomainError(w, domain.E(domain.KindDependency, "hash password", err))
		return
	}
	if err := h.users.UpdatePassword(ctx, ownerID, hash); err != nil {
		middleware.WriteDomainError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"message": "Password updated successfully"})
}

// ForgetPassword handles POST /api/auth/forget-password: replaces the
// password with a mailed temporary one.
func (h *AccountsHandler) ForgetPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Email is required")
		return
	}

	tempPassword, err := auth.GeneratePassword(tempPasswordLength)
	if err != nil {
		middleware.WriteDomainError(w, domain.E(domain.KindDependency, "generate temporary password", err))
		return
	}
	hash, err := auth.HashPassword(tempPassword)
	if err != nil {
		middleware.WriteDomainError(w, domain.E(domain.KindDependency, "hash password", err))
		return
	}
	if err := h.users.UpdatePasswordByEmail(ctx, req.Email, hash); err != nil {
		middleware.WriteDomainError(w, err)
		return
	}
	if err := h.mailer.SendTemporaryPassword(ctx, req.Email, tempPassword); err != nil {
		h.log.Error().Err(err).Str("email", req.Email).Msg("failed to send temporary password email")
		middleware.WriteDomainError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"message": "Temporary password sent to your email"})
}

// DeleteAccount handles DELETE /api/auth/account: removes every
// transaction, receipt, and branch, then the account row.
func (h *AccountsHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID, ok := middleware.OwnerID(ctx)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	if _, err := h.coordinator.DeleteOwner(ctx, ownerID); err != nil {
		h.log.Error().Err(err).Int64("uid", ownerID).Msg("account data deletion failed")
		middleware.WriteDomainError(w, err)
		return
	}
	if err := h.users.DeleteUser(ctx, ownerID); err != nil {
		middleware.WriteDomainError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"message": "Your account and associated data have been deleted successfully"})
}
