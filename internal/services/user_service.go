package services

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"vpe/internal/cache"
	apperrors "vpe/internal/errors"
	"vpe/internal/models"
	"vpe/internal/pagination"
)

// userService handles user-related business logic.
type userService struct {
	db    *gorm.DB
	cache *cache.Cache
}

// NewUserService creates a new UserServicer. Writes invalidate the
// status-count cache; a nil cache disables that.
func NewUserService(db *gorm.DB, c *cache.Cache) UserServicer {
	return &userService{db: db, cache: c}
}

// CreateUser registers a new user. Email uniqueness and the minimum-age
// rule are re-checked here even though the handler validates first.
func (s *userService) CreateUser(input CreateUserInput) (*models.User, error) {
	if input.Name == "" || input.Email == "" || input.Password == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name, email and password are required")
	}

	if input.BirthDate != nil && age(*input.BirthDate, time.Now()) < 18 {
		return nil, apperrors.ErrUnderage
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))

	var count int64
	s.db.Model(&models.User{}).Where("email = ?", email).Count(&count)
	if count > 0 {
		return nil, apperrors.ErrDuplicateEmail
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	role := input.Role
	if role == "" {
		role = models.RoleInvestor
	}

	user := &models.User{
		Name:         input.Name,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         role,
		CPFCNPJ:      input.CPFCNPJ,
		Telefone1:    input.Telefone1,
		Telefone2:    input.Telefone2,
		BirthDate:    input.BirthDate,
	}

	if err := s.db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrDuplicateEmail
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	invalidateStatusCounts(s.cache)

	return user, nil
}

// Authenticate verifies email and password. Unknown email and password
// mismatch produce the same error to avoid user enumeration.
func (s *userService) Authenticate(email, password string) (*models.User, error) {
	if email == "" || password == "" {
		return nil, apperrors.ErrInvalidCredentials
	}

	var user models.User
	if err := s.db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	return &user, nil
}

// GetUserByID retrieves a user by ID
func (s *userService) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// ListUsers returns a paginated list of users, newest first, with public
// fields only.
func (s *userService) ListUsers(page pagination.PageRequest) (*pagination.PageResponse[models.PublicUser], error) {
	page.Normalize()

	var totalItems int64
	if err := s.db.Model(&models.User{}).Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var users []models.User
	if err := s.db.Order("created_at DESC").Scopes(pagination.Scope(page)).Find(&users).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	public := make([]models.PublicUser, len(users))
	for i := range users {
		public[i] = users[i].Public()
	}

	result := pagination.NewPageResponse(public, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// UpdateUser applies a partial profile edit. A changed email is
// re-checked for uniqueness.
func (s *userService) UpdateUser(id uint, input UpdateUserInput) (*models.User, error) {
	user, err := s.GetUserByID(id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if input.Name != nil && *input.Name != "" {
		updates["name"] = *input.Name
	}
	if input.Email != nil && *input.Email != "" {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if email != user.Email {
			var count int64
			s.db.Model(&models.User{}).Where("email = ? AND id <> ?", email, id).Count(&count)
			if count > 0 {
				return nil, apperrors.ErrDuplicateEmail
			}
			updates["email"] = email
		}
	}
	if input.Password != nil && *input.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		updates["password_hash"] = string(hashed)
	}
	if input.BirthDate != nil && *input.BirthDate != "" {
		birth, err := time.Parse("2006-01-02", *input.BirthDate)
		if err != nil {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid dataNascimento format")
		}
		if age(birth, time.Now()) < 18 {
			return nil, apperrors.ErrUnderage
		}
		updates["birth_date"] = birth
	}
	if input.CPFCNPJ != nil {
		updates["cpf_cnpj"] = *input.CPFCNPJ
	}
	if input.Telefone1 != nil {
		updates["telefone1"] = *input.Telefone1
	}
	if input.Telefone2 != nil {
		updates["telefone2"] = *input.Telefone2
	}
	if input.AvatarURL != nil {
		updates["avatar_url"] = *input.AvatarURL
	}

	if len(updates) > 0 {
		if err := s.db.Model(user).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, apperrors.ErrDuplicateEmail
			}
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := s.db.First(user, id).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return user, nil
}

// DeleteUser removes a user. Favorite edges are removed in the same
// transaction so no dangling bookmarks survive.
func (s *userService) DeleteUser(id uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrUserNotFound
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Favorite{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	invalidateStatusCounts(s.cache)
	return nil
}

// age computes full years elapsed between birth and now.
func age(birth, now time.Time) int {
	years := now.Year() - birth.Year()
	if now.Month() < birth.Month() ||
		(now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	return years
}
