package models

import "time"

// UserRole governs route authorization.
type UserRole string

const (
	RoleInvestor UserRole = "investidor"
	RoleCompany  UserRole = "empresa"
	RoleAdmin    UserRole = "admin"
)

// User represents a registered user. The password hash never leaves the
// server; responses are built from PublicUser.
type User struct {
	Base
	Name         string     `gorm:"not null" json:"name"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"`
	Role         UserRole   `gorm:"not null;default:'investidor'" json:"tipoUsuario"`
	CPFCNPJ      string     `gorm:"size:20" json:"cpfCnpj,omitempty"`
	Telefone1    string     `gorm:"size:20" json:"telefone1,omitempty"`
	Telefone2    string     `gorm:"size:20" json:"telefone2,omitempty"`
	BirthDate    *time.Time `json:"dataNascimento,omitempty"`
	AvatarURL    string     `json:"avatarUrl,omitempty"`

	Favorites []Favorite `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// PublicUser is the user representation exposed by the API.
type PublicUser struct {
	ID        uint       `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      UserRole   `json:"tipoUsuario"`
	CPFCNPJ   string     `json:"cpfCnpj,omitempty"`
	Telefone1 string     `json:"telefone1,omitempty"`
	Telefone2 string     `json:"telefone2,omitempty"`
	BirthDate *time.Time `json:"dataNascimento,omitempty"`
	AvatarURL string     `json:"avatarUrl,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Public strips the credential fields from a user.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CPFCNPJ:   u.CPFCNPJ,
		Telefone1: u.Telefone1,
		Telefone2: u.Telefone2,
		BirthDate: u.BirthDate,
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt,
	}
}
