package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "vpe/internal/errors"
	"vpe/internal/middleware"
	"vpe/internal/models"
	"vpe/internal/services"
)

// AuthHandler handles registration, login, and session management.
type AuthHandler struct {
	userService  services.UserServicer
	emailService services.EmailServicer
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(userService services.UserServicer, emailService services.EmailServicer) *AuthHandler {
	return &AuthHandler{userService: userService, emailService: emailService}
}

// RegisterRequest represents the registration request payload.
type RegisterRequest struct {
	Name           string `json:"name" binding:"required,min=10,max=100,person_name"`
	Email          string `json:"email" binding:"required,email,max=255"`
	Senha          string `json:"senha" binding:"required,min=6,max=50,password"`
	DataNascimento string `json:"dataNascimento" binding:"required,birth_date"`
	CPFCNPJ        string `json:"cpfCnpj" binding:"omitempty,max=20"`
	TipoUsuario    string `json:"tipoUsuario" binding:"omitempty,user_role"`
	Telefone1      string `json:"telefone1" binding:"omitempty,max=20"`
	Telefone2      string `json:"telefone2" binding:"omitempty,max=20"`
}

// LoginRequest represents the login request payload.
type LoginRequest struct {
	Email string `json:"email" binding:"required,email"`
	Senha string `json:"senha" binding:"required"`
}

// AuthResponse represents the authentication response with token.
type AuthResponse struct {
	Usuario   models.PublicUser `json:"usuario"`
	Token     string            `json:"token"`
	EmailSent bool              `json:"emailSent,omitempty"`
}

// ErrorDetail represents the inner error object in an error response.
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Errors  []apperrors.FieldError `json:"errors,omitempty"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// Register handles user registration
// @Summary     Register a new user
// @Description Register a new user and issue a session token
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body RegisterRequest true "User registration data"
// @Success     201 {object} AuthResponse "User registered and token generated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Email already registered"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /usuarios [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	// Already shape-checked by the birth_date binding rule.
	birthDate, err := time.Parse("2006-01-02", req.DataNascimento)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid dataNascimento format"))
		return
	}

	user, err := h.userService.CreateUser(services.CreateUserInput{
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Senha,
		Role:      models.UserRole(req.TipoUsuario),
		CPFCNPJ:   req.CPFCNPJ,
		Telefone1: req.Telefone1,
		Telefone2: req.Telefone2,
		BirthDate: &birthDate,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	token, err := middleware.GenerateToken(user)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	// Best effort: a failed welcome email never fails the registration.
	emailSent := h.emailService.SendWelcomeEmail(user.Email, user.Name)

	c.JSON(http.StatusCreated, AuthResponse{
		Usuario:   user.Public(),
		Token:     token,
		EmailSent: emailSent,
	})
}

// Login handles user login
// @Summary     Login user
// @Description Authenticate a user and issue a session token
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body LoginRequest true "User login credentials"
// @Success     200 {object} AuthResponse "User authenticated and token generated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid credentials"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	user, err := h.userService.Authenticate(req.Email, req.Senha)
	if err != nil {
		respondWithError(c, err)
		return
	}

	token, err := middleware.GenerateToken(user)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	c.JSON(http.StatusOK, AuthResponse{Usuario: user.Public(), Token: token})
}

// VerifyToken reports whether the presented token still resolves to a
// live user.
// @Summary     Verify session token
// @Description Confirm the bearer token is valid and return its user
// @Tags        auth
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]interface{} "Token valid"
// @Failure     401 {object} ErrorResponse "Invalid or expired token"
// @Router      /verify-token [get]
func (h *AuthHandler) VerifyToken(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondWithError(c, apperrors.ErrUnauthorized)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true, "usuario": user.Public()})
}

// RefreshToken issues a fresh token for the authenticated user.
// @Summary     Refresh session token
// @Description Issue a new session token with a full validity window
// @Tags        auth
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} AuthResponse "New token issued"
// @Failure     401 {object} ErrorResponse "Invalid or expired token"
// @Router      /refresh-token [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondWithError(c, apperrors.ErrUnauthorized)
		return
	}

	token, err := middleware.GenerateToken(user)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	c.JSON(http.StatusOK, AuthResponse{Usuario: user.Public(), Token: token})
}

// Logout acknowledges a logout. Tokens are stateless, so the client
// discarding its copy is the actual invalidation.
// @Summary     Logout
// @Description Acknowledge logout of the current session
// @Tags        auth
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]string "Logged out"
// @Failure     401 {object} ErrorResponse "Invalid or expired token"
// @Router      /logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}
