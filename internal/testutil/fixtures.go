package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"vpe/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// TestPassword is the plaintext behind every fixture user's hash.
const TestPassword = "senha123"

// CreateTestUser creates an adult investor with a hashed password and
// unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	birth := time.Date(1990, time.March, 15, 0, 0, 0, 0, time.UTC)
	user := &models.User{
		Name:         fmt.Sprintf("Usuario de Teste %d", nextID()),
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleInvestor,
		BirthDate:    &birth,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestAdmin creates a user with the admin role.
func CreateTestAdmin(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	user := CreateTestUser(t, db)
	if err := db.Model(user).Update("role", models.RoleAdmin).Error; err != nil {
		t.Fatalf("failed to promote test user: %v", err)
	}
	user.Role = models.RoleAdmin
	return user
}

// CreateTestCompany creates a company owned by the given user. Pass nil
// for an unowned listing.
func CreateTestCompany(t *testing.T, db *gorm.DB, ownerID *uint) *models.Company {
	t.Helper()

	company := &models.Company{
		Name:        fmt.Sprintf("Empresa Teste %d", nextID()),
		Description: "Uma empresa criada para os testes automatizados",
		Price:       50000,
		Sector:      "Tecnologia",
		OwnerID:     ownerID,
	}
	if err := db.Create(company).Error; err != nil {
		t.Fatalf("failed to create test company: %v", err)
	}
	return company
}

// CreateTestFinancialRecord creates one monthly figure for a company.
func CreateTestFinancialRecord(t *testing.T, db *gorm.DB, companyID uint, month string, year int, value float64) *models.FinancialRecord {
	t.Helper()

	record := &models.FinancialRecord{
		CompanyID: companyID,
		Month:     month,
		Year:      year,
		Value:     value,
	}
	if err := db.Create(record).Error; err != nil {
		t.Fatalf("failed to create test financial record: %v", err)
	}
	return record
}

// CreateTestFavorite bookmarks a company for a user.
func CreateTestFavorite(t *testing.T, db *gorm.DB, userID, companyID uint) *models.Favorite {
	t.Helper()

	favorite := &models.Favorite{
		UserID:      userID,
		CompanyID:   companyID,
		FavoritedAt: time.Now(),
	}
	if err := db.Create(favorite).Error; err != nil {
		t.Fatalf("failed to create test favorite: %v", err)
	}
	return favorite
}
