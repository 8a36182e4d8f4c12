package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"vpe/internal/config"
	apperrors "vpe/internal/errors"
	"vpe/internal/middleware"
	"vpe/internal/models"
	"vpe/internal/pagination"
	"vpe/internal/services"
)

// maxImageSize caps company image uploads at 5 MB.
const maxImageSize = 5 << 20

// ImageRoutePrefix is the public route serving uploaded company images.
// Stored image URLs are built from it, not from the upload directory.
const ImageRoutePrefix = "/uploads/empresas"

var allowedImageExts = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// CompanyHandler handles company listing, registration, and the
// per-company financial records.
type CompanyHandler struct {
	companyService services.CompanyServicer
	emailService   services.EmailServicer
}

// NewCompanyHandler creates a new CompanyHandler.
func NewCompanyHandler(companyService services.CompanyServicer, emailService services.EmailServicer) *CompanyHandler {
	return &CompanyHandler{companyService: companyService, emailService: emailService}
}

// CreateCompanyRequest represents the company registration payload.
type CreateCompanyRequest struct {
	Name      string  `json:"name" binding:"required,min=2,max=100"`
	Descricao string  `json:"descricao" binding:"required,min=10,max=1000"`
	Preco     float64 `json:"preco" binding:"required,gte=1000,lte=100000000"`
	Setor     string  `json:"setor" binding:"omitempty,max=100"`
	Img       string  `json:"img" binding:"omitempty,url,max=500"`
}

// UpdateCompanyRequest represents the company update payload.
type UpdateCompanyRequest struct {
	Name      *string  `json:"name" binding:"omitempty,min=2,max=100"`
	Descricao *string  `json:"descricao" binding:"omitempty,min=10,max=1000"`
	Preco     *float64 `json:"preco" binding:"omitempty,gte=1000,lte=100000000"`
	Setor     *string  `json:"setor" binding:"omitempty,max=100"`
	Img       *string  `json:"img" binding:"omitempty,url,max=500"`
}

// FinancialEntryRequest is one month's figure in a batch submission.
// Valor is a pointer so that an omitted value fails validation instead
// of storing a zero.
type FinancialEntryRequest struct {
	Mes   string   `json:"mes" binding:"required,month_name"`
	Valor *float64 `json:"valor" binding:"required,gte=0"`
	Ano   int      `json:"ano" binding:"omitempty,gte=1900,lte=2200"`
}

// AddFinancialRecordsRequest represents the batch financial records payload.
type AddFinancialRecordsRequest struct {
	DadosFinanceiros []FinancialEntryRequest `json:"dadosFinanceiros" binding:"required,min=1,max=12,dive"`
}

// CreateCompanyResponse wraps a created company with the notification flag.
type CreateCompanyResponse struct {
	Empresa   models.Company `json:"empresa"`
	EmailSent bool           `json:"emailSent"`
}

// listCompaniesQuery holds the supported listing filters.
type listCompaniesQuery struct {
	Name     string   `form:"name"`
	Setor    string   `form:"setor"`
	MinPreco *float64 `form:"minPreco" binding:"omitempty,gte=0"`
	MaxPreco *float64 `form:"maxPreco" binding:"omitempty,gte=0"`
}

// canManageCompany reports whether the authenticated user may modify the
// company: its owner or an admin.
func canManageCompany(c *gin.Context, company *models.Company) bool {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return false
	}
	if user.Role == models.RoleAdmin {
		return true
	}
	return company.OwnerID != nil && *company.OwnerID == user.ID
}

// CreateCompany handles company registration
// @Summary     Register a company
// @Description Register a new company owned by the authenticated user
// @Tags        companies
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateCompanyRequest true "Company data"
// @Success     201 {object} CreateCompanyResponse
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /empresas [post]
func (h *CompanyHandler) CreateCompany(c *gin.Context) {
	var req CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondWithError(c, apperrors.ErrUnauthorized)
		return
	}

	company, err := h.companyService.CreateCompany(&user.ID, services.CompanyInput{
		Name:        req.Name,
		Description: req.Descricao,
		ImageURL:    req.Img,
		Price:       req.Preco,
		Sector:      req.Setor,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	// Best effort: the company exists whether or not the email lands.
	emailSent := h.emailService.SendNewCompanyEmail(user.Email, user.Name, company.Name)

	c.JSON(http.StatusCreated, CreateCompanyResponse{Empresa: *company, EmailSent: emailSent})
}

// ListCompanies handles the public company listing
// @Summary     List companies
// @Description Get a paginated list of companies, optionally filtered
// @Tags        companies
// @Produce     json
// @Param       name query string false "Filter by name substring"
// @Param       setor query string false "Filter by sector substring"
// @Param       minPreco query number false "Minimum price"
// @Param       maxPreco query number false "Maximum price"
// @Param       page query int false "Page number" default(1)
// @Param       page_size query int false "Page size" default(20)
// @Success     200 {object} pagination.PageResponse[models.Company]
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /empresas [get]
func (h *CompanyHandler) ListCompanies(c *gin.Context) {
	var query listCompaniesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	result, err := h.companyService.ListCompanies(services.CompanyFilter{
		Name:     query.Name,
		Sector:   query.Setor,
		MinPrice: query.MinPreco,
		MaxPrice: query.MaxPreco,
	}, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetCompany handles fetching a single company
// @Summary     Get company
// @Description Get a company by ID with its financial records
// @Tags        companies
// @Produce     json
// @Param       id path int true "Company ID"
// @Success     200 {object} models.Company
// @Failure     404 {object} ErrorResponse "Company not found"
// @Router      /empresas/{id} [get]
func (h *CompanyHandler) GetCompany(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	company, err := h.companyService.GetCompanyByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, company)
}

// UpdateCompany handles updating a company
// @Summary     Update company
// @Description Update a company (owner or admin)
// @Tags        companies
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Company ID"
// @Param       request body UpdateCompanyRequest true "Fields to update"
// @Success     200 {object} models.Company
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Company not found"
// @Router      /empresas/{id} [put]
func (h *CompanyHandler) UpdateCompany(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	company, err := h.companyService.GetCompanyByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if !canManageCompany(c, company) {
		respondWithError(c, apperrors.ErrForbidden)
		return
	}

	var req UpdateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	updated, err := h.companyService.UpdateCompany(id, services.CompanyUpdate{
		Name:        req.Name,
		Description: req.Descricao,
		ImageURL:    req.Img,
		Price:       req.Preco,
		Sector:      req.Setor,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteCompany handles deleting a company
// @Summary     Delete company
// @Description Delete a company with its financial records and favorites (owner or admin)
// @Tags        companies
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Company ID"
// @Success     200 {object} map[string]string "Company deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Company not found"
// @Router      /empresas/{id} [delete]
func (h *CompanyHandler) DeleteCompany(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	company, err := h.companyService.GetCompanyByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if !canManageCompany(c, company) {
		respondWithError(c, apperrors.ErrForbidden)
		return
	}

	if err := h.companyService.DeleteCompany(id); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Company deleted successfully"})
}

// AddFinancialRecords handles a batch submission of monthly figures
// @Summary     Add financial records
// @Description Submit a batch of monthly financial figures for a company (owner or admin)
// @Tags        companies
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Company ID"
// @Param       request body AddFinancialRecordsRequest true "Monthly figures"
// @Success     201 {object} models.Company
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Company not found"
// @Failure     409 {object} ErrorResponse "Month already recorded"
// @Router      /empresas/{id}/dados-financeiros [post]
func (h *CompanyHandler) AddFinancialRecords(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	company, err := h.companyService.GetCompanyByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if !canManageCompany(c, company) {
		respondWithError(c, apperrors.ErrForbidden)
		return
	}

	var req AddFinancialRecordsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	entries := make([]services.FinancialEntry, len(req.DadosFinanceiros))
	for i, e := range req.DadosFinanceiros {
		entries[i] = services.FinancialEntry{Month: e.Mes, Value: *e.Valor, Year: e.Ano}
	}

	updated, err := h.companyService.AddFinancialRecords(id, entries)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, updated)
}

// GetFinancialRecords handles fetching a company's financial records
// @Summary     Get financial records
// @Description Get a company's financial records, newest year first, months in calendar order
// @Tags        companies
// @Produce     json
// @Param       id path int true "Company ID"
// @Success     200 {array} models.FinancialRecord
// @Failure     404 {object} ErrorResponse "Company not found"
// @Router      /empresas/{id}/dados-financeiros [get]
func (h *CompanyHandler) GetFinancialRecords(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	records, err := h.companyService.GetFinancialRecords(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"dadosFinanceiros": records})
}

// UploadImage handles a company image upload
// @Summary     Upload company image
// @Description Upload a company image, max 5MB, jpeg/jpg/png/gif/webp (owner or admin)
// @Tags        companies
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Company ID"
// @Param       image formData file true "Image file"
// @Success     200 {object} models.Company
// @Failure     400 {object} ErrorResponse "Invalid file"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Company not found"
// @Router      /empresas/{id}/upload [post]
func (h *CompanyHandler) UploadImage(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	company, err := h.companyService.GetCompanyByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if !canManageCompany(c, company) {
		respondWithError(c, apperrors.ErrForbidden)
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "image file is required"))
		return
	}

	if file.Size > maxImageSize {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "image exceeds the 5MB limit"))
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedImageExts[ext] {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "unsupported image type, use jpeg, jpg, png, gif or webp"))
		return
	}

	cfg := config.Get()
	filename := fmt.Sprintf("%d-%s%s", id, uuid.New().String(), ext)
	if err := c.SaveUploadedFile(file, filepath.Join(cfg.UploadDir, filename)); err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	updated, err := h.companyService.SetCompanyImage(id, ImageRoutePrefix+"/"+filename)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}
