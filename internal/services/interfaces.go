package services

import (
	"context"
	"time"

	"vpe/internal/models"
	"vpe/internal/pagination"
)

// CreateUserInput holds the fields accepted at registration.
type CreateUserInput struct {
	Name      string
	Email     string
	Password  string
	Role      models.UserRole
	CPFCNPJ   string
	Telefone1 string
	Telefone2 string
	BirthDate *time.Time
}

// UpdateUserInput holds the fields a profile edit may change. Nil fields
// are left untouched.
type UpdateUserInput struct {
	Name      *string
	Email     *string
	Password  *string
	BirthDate *string
	CPFCNPJ   *string
	Telefone1 *string
	Telefone2 *string
	AvatarURL *string
}

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(input CreateUserInput) (*models.User, error)
	Authenticate(email, password string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	ListUsers(page pagination.PageRequest) (*pagination.PageResponse[models.PublicUser], error)
	UpdateUser(id uint, input UpdateUserInput) (*models.User, error)
	DeleteUser(id uint) error
}

// CompanyInput holds the fields accepted when creating a company.
type CompanyInput struct {
	Name        string
	Description string
	ImageURL    string
	Price       float64
	Sector      string
}

// CompanyUpdate holds the fields an update may change. Nil fields are
// left untouched.
type CompanyUpdate struct {
	Name        *string
	Description *string
	ImageURL    *string
	Price       *float64
	Sector      *string
}

// CompanyFilter holds optional filter parameters for listing companies.
type CompanyFilter struct {
	Name     string
	Sector   string
	MinPrice *float64
	MaxPrice *float64
}

// FinancialEntry is one month's figure in a batch submission.
type FinancialEntry struct {
	Month string
	Value float64
	Year  int
}

// CompanyServicer defines the contract for company-related business logic.
type CompanyServicer interface {
	CreateCompany(ownerID *uint, input CompanyInput) (*models.Company, error)
	ListCompanies(filter CompanyFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Company], error)
	GetCompanyByID(id uint) (*models.Company, error)
	UpdateCompany(id uint, update CompanyUpdate) (*models.Company, error)
	DeleteCompany(id uint) error
	SetCompanyImage(id uint, imageURL string) (*models.Company, error)
	AddFinancialRecords(companyID uint, entries []FinancialEntry) (*models.Company, error)
	GetFinancialRecords(companyID uint) ([]models.FinancialRecord, error)
}

// FavoriteServicer defines the contract for the favorites subsystem.
type FavoriteServicer interface {
	AddFavorite(userID, companyID uint) (*models.Favorite, error)
	RemoveFavorite(userID, companyID uint) error
	ListFavorites(userID uint) ([]models.Favorite, error)
}

// StatusCounts aggregates row counts for the public status endpoint.
type StatusCounts struct {
	Users            int64 `json:"usuarios"`
	Companies        int64 `json:"empresas"`
	Favorites        int64 `json:"favoritos"`
	FinancialRecords int64 `json:"dadosFinanceiros"`
}

// StatusServicer defines the contract for the status endpoint.
type StatusServicer interface {
	Counts(ctx context.Context) (*StatusCounts, error)
}

// EmailServicer defines the contract for best-effort outbound email.
// Implementations never return an error: failures are logged and surface
// only as a false sent flag.
type EmailServicer interface {
	SendWelcomeEmail(toEmail, toName string) bool
	SendNewCompanyEmail(toEmail, toName, companyName string) bool
}
