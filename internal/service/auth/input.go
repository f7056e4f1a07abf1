package auth

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/heartmarshall/lexicon-backend/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoginInput holds credentials for password login.
type LoginInput struct {
	Email    string
	Password string
}

func (i *LoginInput) normalize() {
	i.Email = strings.ToLower(strings.TrimSpace(i.Email))
}

// Validate validates the login input.
func (i LoginInput) Validate() error {
	var errs domain.FieldErrors
	if i.Email == "" {
		errs.Add("email", "required")
	}
	if i.Password == "" {
		errs.Add("password", "required")
	} else if len(i.Password) > 72 {
		errs.Add("password", "too long")
	}
	return errs.Err()
}

// CreateUserInput holds parameters for creating an account.
type CreateUserInput struct {
	Email    string          `validate:"required,email,max=254"`
	Username string          `validate:"required,min=2,max=50"`
	Password string          `validate:"required,min=8,max=72"`
	Role     domain.UserRole `validate:"required"`
}

func (i *CreateUserInput) normalize() {
	i.Email = strings.ToLower(strings.TrimSpace(i.Email))
	i.Username = strings.TrimSpace(i.Username)
	if i.Role == "" {
		i.Role = domain.UserRoleViewer
	}
}

// Validate validates the create user input.
func (i CreateUserInput) Validate() error {
	var errs domain.FieldErrors
	if err := validate.Struct(i); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			errs.Add(strings.ToLower(fe.Field()), describe(fe))
		}
	}
	if i.Role != "" && !i.Role.IsValid() {
		errs.Add("role", "must be viewer, editor or admin")
	}
	return errs.Err()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "email":
		return "invalid email"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	}
	return "invalid"
}
