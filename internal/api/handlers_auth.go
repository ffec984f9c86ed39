package api

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"courier/internal/mail"
	"courier/internal/models"
	"courier/internal/store"
	"courier/internal/token"
)

const (
	msgPasswordsDoNotMatch = "Passwords do not match."
	msgEmailNotAvailable   = "Email is not available."
	msgInvalidCredentials  = "Invalid credentials."
	msgInvalidToken        = "Invalid token."
	msgResetLinkSent       = "Password reset link has been sent to your email address. Please check your email (including your spam folder) for further instructions."
	msgPasswordReset       = "Your password has been successfully reset."
)

const bcryptCost = 10

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email           string `json:"email"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
		FirstName       string `json:"firstName"`
		LastName        string `json:"lastName"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var fields []FieldError
	if !validEmail(req.Email) {
		fields = append(fields, FieldError{Field: "email", Message: "must be a valid email address"})
	}
	if !validPassword(req.Password) {
		fields = append(fields, FieldError{Field: "password", Message: passwordPolicyMessage})
	}
	if req.ConfirmPassword == "" {
		fields = append(fields, FieldError{Field: "confirmPassword", Message: "is required"})
	}
	if !validName(req.FirstName) {
		fields = append(fields, FieldError{Field: "firstName", Message: "must be at least 2 characters"})
	}
	if !validName(req.LastName) {
		fields = append(fields, FieldError{Field: "lastName", Message: "must be at least 2 characters"})
	}
	if len(fields) > 0 {
		respondError(w, http.StatusBadRequest, "Validation failed.", fields...)
		return
	}

	if req.Password != req.ConfirmPassword {
		respondError(w, http.StatusBadRequest, msgPasswordsDoNotMatch)
		return
	}

	email := strings.ToLower(req.Email)

	_, err := a.deps.Users.FindByEmail(r.Context(), email)
	switch {
	case err == nil:
		respondError(w, http.StatusBadRequest, msgEmailNotAvailable)
		return
	case !errors.Is(err, store.ErrNotFound):
		respondInternalError(w)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		respondInternalError(w)
		return
	}

	user := models.User{
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
	}
	if err := a.deps.Users.Create(r.Context(), &user); err != nil {
		// A concurrent registration can win the unique email index between
		// the availability check and the insert.
		if errors.Is(err, store.ErrConflict) {
			respondError(w, http.StatusBadRequest, msgEmailNotAvailable)
			return
		}
		respondInternalError(w)
		return
	}

	a.deps.Audit.Record(r.Context(), &user.ID, "user.registered", map[string]any{"email": email})
	respondJSON(w, http.StatusNoContent, nil)
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var fields []FieldError
	if !validEmail(req.Email) {
		fields = append(fields, FieldError{Field: "email", Message: "must be a valid email address"})
	}
	if !validPassword(req.Password) {
		fields = append(fields, FieldError{Field: "password", Message: passwordPolicyMessage})
	}
	if len(fields) > 0 {
		respondError(w, http.StatusBadRequest, "Validation failed.", fields...)
		return
	}

	email := strings.ToLower(req.Email)

	user, err := a.deps.Users.FindByEmail(r.Context(), email)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusBadRequest, msgInvalidCredentials)
		return
	}
	if err != nil {
		respondInternalError(w)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		respondError(w, http.StatusBadRequest, msgInvalidCredentials)
		return
	}

	jwtToken, err := a.deps.Tokens.IssueSession(*user)
	if err != nil {
		respondInternalError(w)
		return
	}

	loginsTotal.Inc()
	a.deps.Audit.Record(r.Context(), &user.ID, "user.logged_in", map[string]any{"email": email})
	respondJSON(w, http.StatusOK, map[string]any{"jwt": jwtToken})
}

func (a *API) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !validEmail(req.Email) {
		respondError(w, http.StatusBadRequest, "Validation failed.",
			FieldError{Field: "email", Message: "must be a valid email address"})
		return
	}

	email := strings.ToLower(req.Email)

	user, err := a.deps.Users.FindByEmail(r.Context(), email)
	if errors.Is(err, store.ErrNotFound) {
		// Same response either way so the endpoint cannot be used to probe
		// which addresses have accounts.
		respondJSON(w, http.StatusOK, map[string]any{"message": msgResetLinkSent})
		return
	}
	if err != nil {
		respondInternalError(w)
		return
	}

	resetToken, err := a.deps.Tokens.IssueReset(*user)
	if err != nil {
		respondInternalError(w)
		return
	}

	resetLink := strings.TrimRight(a.cfg.PublicBaseURL, "/") + "/reset-password?token=" + url.QueryEscape(resetToken)
	if err := a.deps.Mailer.Send(user.Email, mail.TemplateForgotPassword, map[string]any{"ResetLink": resetLink}); err != nil {
		log.Error().Err(err).Str("email", user.Email).Msg("send forgot-password mail")
	}

	a.deps.Audit.Record(r.Context(), &user.ID, "user.reset_requested", map[string]any{"email": email})
	respondJSON(w, http.StatusOK, map[string]any{"message": msgResetLinkSent})
}

func (a *API) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token           string `json:"token"`
		NewPassword     string `json:"newPassword"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var fields []FieldError
	if req.Token == "" {
		fields = append(fields, FieldError{Field: "token", Message: "is required"})
	}
	if !validPassword(req.NewPassword) {
		fields = append(fields, FieldError{Field: "newPassword", Message: passwordPolicyMessage})
	}
	if len(fields) > 0 {
		respondError(w, http.StatusBadRequest, "Validation failed.", fields...)
		return
	}

	// Pure input validation happens before the token or any store is
	// touched: a mismatch has zero side effects.
	if req.NewPassword != req.ConfirmPassword {
		respondError(w, http.StatusBadRequest, msgPasswordsDoNotMatch)
		return
	}

	email, err := a.deps.Tokens.VerifyReset(r.Context(), req.Token)
	if errors.Is(err, token.ErrInvalidToken) {
		respondError(w, http.StatusBadRequest, msgInvalidToken)
		return
	}
	if err != nil {
		respondInternalError(w)
		return
	}

	user, err := a.deps.Users.FindByEmail(r.Context(), email)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusBadRequest, msgInvalidToken)
		return
	}
	if err != nil {
		respondInternalError(w)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcryptCost)
	if err != nil {
		respondInternalError(w)
		return
	}
	if err := a.deps.Users.UpdatePasswordByEmail(r.Context(), user.Email, string(hash)); err != nil {
		respondInternalError(w)
		return
	}

	if err := a.deps.Mailer.Send(user.Email, mail.TemplateResetPasswordSuccess, map[string]any{}); err != nil {
		log.Error().Err(err).Str("email", user.Email).Msg("send reset-success mail")
	}

	// Revocation happens after the password is durably updated: a crash
	// in between leaves a token that would only re-apply the same change.
	if err := a.deps.Tokens.Revoke(r.Context(), req.Token); err != nil {
		respondInternalError(w)
		return
	}

	passwordResetsTotal.Inc()
	a.deps.Audit.Record(r.Context(), &user.ID, "user.password_reset", map[string]any{"email": user.Email})
	respondJSON(w, http.StatusOK, map[string]any{"message": msgPasswordReset})
}
