package auth

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/ayush/todo-api/internal/common"
	"github.com/ayush/todo-api/internal/models"
)

const (
	usernameMin = 3
	usernameMax = 30
	passwordMin = 8
	// bcrypt input limit
	passwordMaxBytes = 72
)

// normalizeSignup trims and lower-cases the input, then checks rules in field
// order, stopping at the first violation.
func normalizeSignup(req models.SignupRequest) (models.SignupRequest, error) {
	out := models.SignupRequest{
		FirstName:       strings.TrimSpace(req.FirstName),
		LastName:        strings.TrimSpace(req.LastName),
		Username:        strings.ToLower(strings.TrimSpace(req.Username)),
		Email:           strings.ToLower(strings.TrimSpace(req.Email)),
		Password:        strings.TrimSpace(req.Password),
		ConfirmPassword: strings.TrimSpace(req.ConfirmPassword),
	}

	if out.FirstName == "" {
		return out, required("firstName")
	}
	if out.LastName == "" {
		return out, required("lastName")
	}
	if err := checkUsername(out.Username); err != nil {
		return out, err
	}
	if err := checkEmail(out.Email); err != nil {
		return out, err
	}
	if out.Password == "" {
		return out, required("password")
	}
	if len([]rune(out.Password)) < passwordMin {
		return out, common.NewValidationError(fmt.Sprintf(`"password" length must be at least %d characters long`, passwordMin))
	}
	if len(out.Password) > passwordMaxBytes {
		return out, common.NewValidationError(fmt.Sprintf(`"password" length must be less than or equal to %d bytes long`, passwordMaxBytes))
	}
	if out.ConfirmPassword == "" {
		return out, required("confirmPassword")
	}
	if req.ConfirmPassword != req.Password {
		return out, common.NewValidationError(`"confirmPassword" must match "password"`)
	}

	return out, nil
}

func normalizeLogin(req models.LoginRequest) (models.LoginRequest, error) {
	out := models.LoginRequest{
		Username: strings.ToLower(strings.TrimSpace(req.Username)),
		Password: strings.TrimSpace(req.Password),
		ClientIP: req.ClientIP,
	}
	if out.Username == "" {
		return out, required("username")
	}
	if out.Password == "" {
		return out, required("password")
	}
	return out, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return email, checkEmail(email)
}

func checkUsername(username string) error {
	if username == "" {
		return required("username")
	}
	for _, r := range username {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			return common.NewValidationError(`"username" must only contain alpha-numeric characters`)
		}
	}
	if len(username) < usernameMin {
		return common.NewValidationError(fmt.Sprintf(`"username" length must be at least %d characters long`, usernameMin))
	}
	if len(username) > usernameMax {
		return common.NewValidationError(fmt.Sprintf(`"username" length must be less than or equal to %d characters long`, usernameMax))
	}
	return nil
}

func checkEmail(email string) error {
	if email == "" {
		return required("email")
	}
	if !validEmail(email) {
		return common.NewValidationError(`"email" must be a valid email`)
	}
	return nil
}

// validEmail accepts a bare addr-spec whose domain has at least two labels.
func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Name != "" || addr.Address != email {
		return false
	}
	at := strings.LastIndexByte(email, '@')
	if at <= 0 {
		return false
	}
	domain := email[at+1:]
	if strings.ContainsAny(email, " \t") || !strings.Contains(domain, ".") {
		return false
	}
	for _, label := range strings.Split(domain, ".") {
		if label == "" {
			return false
		}
	}
	return true
}

func required(field string) error {
	return common.NewValidationError(fmt.Sprintf("%q is required", field))
}
