// Package user provides account operations: signup, login and profile CRUD.
package user

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/zulandar/aegis/internal/apperr"
	"github.com/zulandar/aegis/internal/auth"
	"github.com/zulandar/aegis/internal/models"
	"gorm.io/gorm"
)

// MinPasswordLen is the shortest accepted password.
const MinPasswordLen = 6

// CreateOpts holds parameters for creating an account.
type CreateOpts struct {
	Name     string
	Email    string
	Password string
	Avatar   string
}

// UpdateOpts holds optional profile changes. Nil fields are left alone.
type UpdateOpts struct {
	Name     *string
	Email    *string
	Avatar   *string
	Password *string
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return apperr.Invalid("user", "email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return apperr.Invalid("user", "email %q is not valid", email)
	}
	return nil
}

func validatePassword(pw string) error {
	if len(pw) < MinPasswordLen {
		return apperr.Invalid("user", "password must be at least %d characters", MinPasswordLen)
	}
	return nil
}

// Create registers a new account with a hashed password.
// A duplicate email is a conflict.
func Create(db *gorm.DB, opts CreateOpts) (*models.User, error) {
	opts.Name = strings.TrimSpace(opts.Name)
	opts.Email = normalizeEmail(opts.Email)
	if opts.Name == "" {
		return nil, apperr.Invalid("user", "name is required")
	}
	if err := validateEmail(opts.Email); err != nil {
		return nil, err
	}
	if err := validatePassword(opts.Password); err != nil {
		return nil, err
	}

	taken, err := emailTaken(db, opts.Email, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.Conflict("user", "email %s is already registered", opts.Email)
	}

	hash, err := auth.HashPassword(opts.Password)
	if err != nil {
		return nil, fmt.Errorf("user: create: %w", err)
	}
	u := models.User{
		Name:         opts.Name,
		Email:        opts.Email,
		PasswordHash: hash,
		Avatar:       opts.Avatar,
	}
	if err := db.Create(&u).Error; err != nil {
		return nil, fmt.Errorf("user: create: %w", err)
	}
	return &u, nil
}

// Signup creates an account and returns it with a signed token.
func Signup(db *gorm.DB, issuer *auth.Issuer, opts CreateOpts) (*models.User, string, error) {
	u, err := Create(db, opts)
	if err != nil {
		return nil, "", err
	}
	token, err := issuer.Sign(u.ID)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Authenticate checks an email/password pair and returns the account with a
// signed token. Unknown email and wrong password fail the same way.
func Authenticate(db *gorm.DB, issuer *auth.Issuer, email, password string) (*models.User, string, error) {
	var u models.User
	err := db.Where("email = ?", normalizeEmail(email)).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", apperr.Unauthorized("invalid credentials")
	}
	if err != nil {
		return nil, "", fmt.Errorf("user: authenticate: %w", err)
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, "", apperr.Unauthorized("invalid credentials")
	}
	token, err := issuer.Sign(u.ID)
	if err != nil {
		return nil, "", err
	}
	return &u, token, nil
}

// Get retrieves an account by ID.
func Get(db *gorm.DB, id string) (*models.User, error) {
	var u models.User
	if err := db.Where("id = ?", id).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user", id)
		}
		return nil, fmt.Errorf("user: get %s: %w", id, err)
	}
	return &u, nil
}

// List returns all accounts ordered by name.
func List(db *gorm.DB) ([]models.User, error) {
	var users []models.User
	if err := db.Order("name ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("user: list: %w", err)
	}
	return users, nil
}

// Update applies profile changes and returns the updated account.
func Update(db *gorm.DB, id string, opts UpdateOpts) (*models.User, error) {
	u, err := Get(db, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if opts.Name != nil {
		name := strings.TrimSpace(*opts.Name)
		if name == "" {
			return nil, apperr.Invalid("user", "name cannot be empty")
		}
		updates["name"] = name
	}
	if opts.Email != nil {
		email := normalizeEmail(*opts.Email)
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		if email != u.Email {
			taken, err := emailTaken(db, email, id)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, apperr.Conflict("user", "email %s is already registered", email)
			}
		}
		updates["email"] = email
	}
	if opts.Avatar != nil {
		updates["avatar"] = *opts.Avatar
	}
	if opts.Password != nil {
		if err := validatePassword(*opts.Password); err != nil {
			return nil, err
		}
		hash, err := auth.HashPassword(*opts.Password)
		if err != nil {
			return nil, fmt.Errorf("user: update %s: %w", id, err)
		}
		updates["password_hash"] = hash
	}

	if len(updates) > 0 {
		if err := db.Model(u).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("user: update %s: %w", id, err)
		}
	}
	return Get(db, id)
}

// Delete removes an account. Projects and issues keep their dangling refs.
func Delete(db *gorm.DB, id string) error {
	res := db.Where("id = ?", id).Delete(&models.User{})
	if res.Error != nil {
		return fmt.Errorf("user: delete %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("user", id)
	}
	return nil
}

func emailTaken(db *gorm.DB, email, exceptID string) (bool, error) {
	q := db.Model(&models.User{}).Where("email = ?", email)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("user: check email: %w", err)
	}
	return count > 0, nil
}
