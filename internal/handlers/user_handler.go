package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "vpe/internal/errors"
	"vpe/internal/middleware"
	"vpe/internal/models"
	"vpe/internal/pagination"
	"vpe/internal/services"
)

// UserHandler handles user profile endpoints.
type UserHandler struct {
	userService services.UserServicer
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService services.UserServicer) *UserHandler {
	return &UserHandler{userService: userService}
}

// UpdateUserRequest represents the user update request payload.
type UpdateUserRequest struct {
	Name           *string `json:"name" binding:"omitempty,min=10,max=100,person_name"`
	Email          *string `json:"email" binding:"omitempty,email,max=255"`
	Senha          *string `json:"senha" binding:"omitempty,min=6,max=50,password"`
	DataNascimento *string `json:"dataNascimento" binding:"omitempty,birth_date"`
	CPFCNPJ        *string `json:"cpfCnpj" binding:"omitempty,max=20"`
	Telefone1      *string `json:"telefone1" binding:"omitempty,max=20"`
	Telefone2      *string `json:"telefone2" binding:"omitempty,max=20"`
	AvatarURL      *string `json:"avatarUrl" binding:"omitempty,url,max=500"`
}

// canActOn reports whether the authenticated user may read or modify
// the target user's account.
func canActOn(c *gin.Context, targetID uint) bool {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return false
	}
	return user.ID == targetID || user.Role == models.RoleAdmin
}

// ListUsers handles listing users (admin only)
// @Summary     List users
// @Description Get a paginated list of registered users
// @Tags        users
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number" default(1)
// @Param       page_size query int false "Page size" default(20)
// @Success     200 {object} pagination.PageResponse[models.PublicUser]
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Router      /usuarios [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	result, err := h.userService.ListUsers(page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetUser handles fetching a single user
// @Summary     Get user
// @Description Get a user by ID (self or admin)
// @Tags        users
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "User ID"
// @Success     200 {object} models.PublicUser
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /usuarios/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if !canActOn(c, id) {
		respondWithError(c, apperrors.ErrForbidden)
		return
	}

	user, err := h.userService.GetUserByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, user.Public())
}

// UpdateUser handles updating a user profile
// @Summary     Update user
// @Description Update a user's profile (self or admin)
// @Tags        users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "User ID"
// @Param       request body UpdateUserRequest true "Fields to update"
// @Success     200 {object} models.PublicUser
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "User not found"
// @Failure     409 {object} ErrorResponse "Email already registered"
// @Router      /usuarios/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if !canActOn(c, id) {
		respondWithError(c, apperrors.ErrForbidden)
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	user, err := h.userService.UpdateUser(id, services.UpdateUserInput{
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Senha,
		BirthDate: req.DataNascimento,
		CPFCNPJ:   req.CPFCNPJ,
		Telefone1: req.Telefone1,
		Telefone2: req.Telefone2,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, user.Public())
}

// DeleteUser handles deleting a user account
// @Summary     Delete user
// @Description Delete a user account and its favorites (self or admin)
// @Tags        users
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "User ID"
// @Success     200 {object} map[string]string "User deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /usuarios/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if !canActOn(c, id) {
		respondWithError(c, apperrors.ErrForbidden)
		return
	}

	if err := h.userService.DeleteUser(id); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
