package auth

import (
	"github.com/csamedu/portal/core"
)

// LoginCredentials is what a login form submits for any of the three roles.
type LoginCredentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (lc *LoginCredentials) Validate() error {
	lc.Email = core.CleanString(lc.Email, true /* lower */)
	return core.Validate.Struct(lc)
}

// TeacherRegistration creates a teacher account pending admin approval.
type TeacherRegistration struct {
	FullName        string `json:"full_name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Trade           string `json:"trade" validate:"required"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (tr *TeacherRegistration) Validate() error {
	tr.FullName = core.CleanString(tr.FullName)
	tr.Email = core.CleanString(tr.Email, true /* lower */)
	tr.Trade = core.CleanString(tr.Trade)
	return core.Validate.Struct(tr)
}

// AdminRegistration creates an admin account (active immediately, but the
// new admin still logs in explicitly).
type AdminRegistration struct {
	Username        string `json:"username" validate:"required,min=6"`
	FullName        string `json:"full_name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (ar *AdminRegistration) Validate() error {
	ar.Username = core.CleanString(ar.Username, true /* lower */)
	ar.FullName = core.CleanString(ar.FullName)
	ar.Email = core.CleanString(ar.Email, true /* lower */)
	return core.Validate.Struct(ar)
}
