package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/geocoder89/bidashboard/internal/domain/user"
	"github.com/geocoder89/bidashboard/internal/security"
	"github.com/gin-gonic/gin"
)

type TokenIssuer interface {
	Issue(userID int64, email string) (string, time.Time, error)
}

type AuthHandler struct {
	users      UserStore
	tokens     TokenIssuer
	bcryptCost int
	timeout    time.Duration
}

func NewAuthHandler(users UserStore, tokens TokenIssuer, bcryptCost int) *AuthHandler {
	return &AuthHandler{
		users:      users,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		timeout:    3 * time.Second,
	}
}

type registerResponse struct {
	UserID int64 `json:"userId"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// bindCredentials binds the body and applies the checks struct tags cannot express.
func bindCredentials(ctx *gin.Context) (user.CredentialsRequest, bool) {
	var req user.CredentialsRequest

	if !BindJSON(ctx, &req) {
		return req, false
	}

	req, err := req.Normalize()
	switch {
	case errors.Is(err, user.ErrEmailRequired):
		RespondBadRequest(ctx, "Invalid request body", gin.H{"fields": []FieldError{{
			Field:   "email",
			Rule:    "required",
			Message: validationMessage("required", ""),
		}}})
		return req, false
	case errors.Is(err, user.ErrPasswordTooLong):
		RespondBadRequest(ctx, "Invalid request body", gin.H{"fields": []FieldError{{
			Field:   "password",
			Rule:    "max",
			Param:   strconv.Itoa(user.MaxPasswordBytes),
			Message: "must be at most " + strconv.Itoa(user.MaxPasswordBytes) + " bytes",
		}}})
		return req, false
	}

	return req, true
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	req, ok := bindCredentials(ctx)
	if !ok {
		return
	}

	hash, err := security.HashPassword(req.Password, h.bcryptCost)
	if err != nil {
		RespondInternal(ctx, "Internal server error during registration.", err)
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	u, err := h.users.Create(cctx, req.Email, hash)
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			RespondConflict(ctx, "User already exists.")
			return
		}

		RespondInternal(ctx, "Internal server error during registration.", err)
		return
	}

	RespondOK(ctx, http.StatusCreated, "User registered successfully. Please log in.", registerResponse{UserID: u.ID})
}

// Login answers the same 401 for an unknown email and a wrong password.
func (h *AuthHandler) Login(ctx *gin.Context) {
	req, ok := bindCredentials(ctx)
	if !ok {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	u, err := h.verify(cctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			RespondUnauthorized(ctx, "Invalid credentials.")
			return
		}
		RespondInternal(ctx, "Internal server error during login.", err)
		return
	}

	token, expiresAt, err := h.tokens.Issue(u.ID, u.Email)
	if err != nil {
		RespondInternal(ctx, "Internal server error during login.", err)
		return
	}

	RespondOK(ctx, http.StatusOK, "Login successful.", loginResponse{Token: token, ExpiresAt: expiresAt})
}

func (h *AuthHandler) verify(ctx context.Context, email, password string) (user.User, error) {
	u, err := h.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, user.ErrInvalidCredentials
		}
		return user.User{}, err
	}

	if err := security.CheckPassword(u.PasswordHash, password); err != nil {
		if errors.Is(err, security.ErrPasswordMismatch) {
			return user.User{}, user.ErrInvalidCredentials
		}
		return user.User{}, err
	}

	return u, nil
}
