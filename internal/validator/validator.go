// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"vpe/internal/models"
)

var (
	personNameRegex = regexp.MustCompile(`^[a-zA-ZÀ-ÿ\s]+$`)
	hasLetterRegex  = regexp.MustCompile(`[a-zA-Z]`)
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		// Report wire field names, not Go struct field names.
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		_ = v.RegisterValidation("user_role", validateUserRole)
		_ = v.RegisterValidation("month_name", validateMonthName)
		_ = v.RegisterValidation("person_name", validatePersonName)
		_ = v.RegisterValidation("password", validatePassword)
		_ = v.RegisterValidation("birth_date", validateBirthDate)
	}
}

func validateUserRole(fl validator.FieldLevel) bool {
	switch models.UserRole(fl.Field().String()) {
	case models.RoleInvestor, models.RoleCompany, models.RoleAdmin:
		return true
	}
	return false
}

func validateMonthName(fl validator.FieldLevel) bool {
	return models.MonthIndex(fl.Field().String()) != 0
}

// Person names allow letters (including accented) and spaces only.
func validatePersonName(fl validator.FieldLevel) bool {
	return personNameRegex.MatchString(fl.Field().String())
}

// Passwords must contain at least one letter; length is checked by min/max tags.
func validatePassword(fl validator.FieldLevel) bool {
	return hasLetterRegex.MatchString(fl.Field().String())
}

// validateBirthDate accepts a YYYY-MM-DD date implying an age of 18 to 120.
func validateBirthDate(fl validator.FieldLevel) bool {
	birth, err := time.Parse("2006-01-02", fl.Field().String())
	if err != nil {
		return false
	}

	age := Age(birth, time.Now())
	return age >= 18 && age <= 120
}

// Age computes full years elapsed between birth and now.
func Age(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() ||
		(now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age
}
