package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vpe/internal/models"
	"vpe/internal/services"
)

// FavoriteHandler handles the user-to-company favorite edges.
type FavoriteHandler struct {
	favoriteService services.FavoriteServicer
}

// NewFavoriteHandler creates a new FavoriteHandler.
func NewFavoriteHandler(favoriteService services.FavoriteServicer) *FavoriteHandler {
	return &FavoriteHandler{favoriteService: favoriteService}
}

// AddFavoriteRequest represents the favorite creation payload.
type AddFavoriteRequest struct {
	EmpresaID uint `json:"empresaId" binding:"required,gt=0"`
}

// AddFavorite handles bookmarking a company
// @Summary     Add favorite
// @Description Bookmark a company for the authenticated user
// @Tags        favorites
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body AddFavoriteRequest true "Company to bookmark"
// @Success     201 {object} models.Favorite
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Company not found"
// @Failure     409 {object} ErrorResponse "Already favorited"
// @Router      /favoritos [post]
func (h *FavoriteHandler) AddFavorite(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AddFavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	favorite, err := h.favoriteService.AddFavorite(userID, req.EmpresaID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, favorite)
}

// RemoveFavorite handles removing a bookmark
// @Summary     Remove favorite
// @Description Remove a company bookmark for the authenticated user
// @Tags        favorites
// @Produce     json
// @Security    BearerAuth
// @Param       empresaId path int true "Company ID"
// @Success     200 {object} map[string]string "Favorite removed"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Favorite not found"
// @Router      /favoritos/{empresaId} [delete]
func (h *FavoriteHandler) RemoveFavorite(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	companyID, err := parsePathID(c, "empresaId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.favoriteService.RemoveFavorite(userID, companyID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Favorite removed successfully"})
}

// ListFavorites handles listing the authenticated user's bookmarks
// @Summary     List favorites
// @Description List the authenticated user's bookmarked companies, newest first
// @Tags        favorites
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} models.Favorite
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /favoritos [get]
func (h *FavoriteHandler) ListFavorites(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	favorites, err := h.favoriteService.ListFavorites(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if favorites == nil {
		favorites = []models.Favorite{}
	}

	c.JSON(http.StatusOK, gin.H{"favoritos": favorites})
}
