package services

import (
	"errors"
	"fmt"

	"github.com/velvetlabs/livepoll/pkg/internal/database"
	"github.com/velvetlabs/livepoll/pkg/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("incorrect username or password")
)

// SignupAccount registers a new account with a bcrypt-hashed password.
// Name matching is case-sensitive.
func SignupAccount(name, password string) (models.Account, error) {
	var account models.Account

	var existing models.Account
	if err := database.C.Where("name = ?", name).First(&existing).Error; err == nil {
		return account, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return account, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return account, fmt.Errorf("unable to hash password: %v", err)
	}

	account = models.Account{
		Name:         name,
		PasswordHash: string(hash),
	}

	if err := database.C.Create(&account).Error; err != nil {
		return account, err
	}

	return account, nil
}

// AuthAccount checks a name and password pair against the stored hash.
func AuthAccount(name, password string) (models.Account, error) {
	var account models.Account
	if err := database.C.Where("name = ?", name).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return account, ErrInvalidCredentials
		}
		return account, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return account, ErrInvalidCredentials
	}

	return account, nil
}

func GetAccount(id uint) (models.Account, error) {
	var account models.Account
	if err := database.C.Where("id = ?", id).First(&account).Error; err != nil {
		return account, fmt.Errorf("unable to get account by id: %v", err)
	}
	return account, nil
}
