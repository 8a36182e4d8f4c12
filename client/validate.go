package client

import (
	"regexp"
	"time"

	apperrors "vpe/internal/errors"
	"vpe/internal/models"
)

// Local pre-checks mirror the server's rules so obviously bad input
// fails before the network hop. The server remains the authority.

var (
	personNameRegex = regexp.MustCompile(`^[a-zA-ZÀ-ÿ\s]+$`)
	hasLetterRegex  = regexp.MustCompile(`[a-zA-Z]`)
)

func validateRegister(input RegisterInput) error {
	var fields []apperrors.FieldError

	if len(input.Name) < 10 || len(input.Name) > 100 || !personNameRegex.MatchString(input.Name) {
		fields = append(fields, apperrors.FieldError{Field: "name", Message: "name must be 10-100 characters of letters and spaces"})
	}
	if input.Email == "" {
		fields = append(fields, apperrors.FieldError{Field: "email", Message: "email is required"})
	}
	if len(input.Senha) < 6 || len(input.Senha) > 50 || !hasLetterRegex.MatchString(input.Senha) {
		fields = append(fields, apperrors.FieldError{Field: "senha", Message: "senha must be 6-50 characters and contain a letter"})
	}
	if birth, err := time.Parse("2006-01-02", input.DataNascimento); err != nil {
		fields = append(fields, apperrors.FieldError{Field: "dataNascimento", Message: "dataNascimento must use the YYYY-MM-DD format"})
	} else if years := fullYears(birth, time.Now()); years < 18 || years > 120 {
		fields = append(fields, apperrors.FieldError{Field: "dataNascimento", Message: "age must be between 18 and 120"})
	}
	if input.TipoUsuario != "" {
		switch models.UserRole(input.TipoUsuario) {
		case models.RoleInvestor, models.RoleCompany, models.RoleAdmin:
		default:
			fields = append(fields, apperrors.FieldError{Field: "tipoUsuario", Message: "tipoUsuario must be investidor, empresa or admin"})
		}
	}

	if len(fields) > 0 {
		return apperrors.NewValidationError(fields)
	}
	return nil
}

func validateCompany(input CompanyInput) error {
	var fields []apperrors.FieldError

	if len(input.Name) < 2 || len(input.Name) > 100 {
		fields = append(fields, apperrors.FieldError{Field: "name", Message: "name must be 2-100 characters"})
	}
	if len(input.Descricao) < 10 || len(input.Descricao) > 1000 {
		fields = append(fields, apperrors.FieldError{Field: "descricao", Message: "descricao must be 10-1000 characters"})
	}
	if input.Preco < 1000 || input.Preco > 100000000 {
		fields = append(fields, apperrors.FieldError{Field: "preco", Message: "preco must be between 1000 and 100000000"})
	}

	if len(fields) > 0 {
		return apperrors.NewValidationError(fields)
	}
	return nil
}

func validateEntries(entries []FinancialEntry) error {
	var fields []apperrors.FieldError

	if len(entries) < 1 || len(entries) > 12 {
		fields = append(fields, apperrors.FieldError{Field: "dadosFinanceiros", Message: "between 1 and 12 monthly entries are required"})
	}
	for _, e := range entries {
		if models.MonthIndex(e.Mes) == 0 {
			fields = append(fields, apperrors.FieldError{Field: "mes", Message: "unrecognized month name: " + e.Mes})
		}
		if e.Valor < 0 {
			fields = append(fields, apperrors.FieldError{Field: "valor", Message: "valor must not be negative"})
		}
	}

	if len(fields) > 0 {
		return apperrors.NewValidationError(fields)
	}
	return nil
}

func fullYears(birth, now time.Time) int {
	years := now.Year() - birth.Year()
	if now.Month() < birth.Month() ||
		(now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	return years
}
