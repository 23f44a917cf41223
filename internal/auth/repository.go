package auth

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)

type Repository interface {
	CreateUser(user *User) error
	GetUserByUsername(username string) (*User, error)
	GetUserByEmail(email string) (*User, error)
	ActivateUser(username string) error
	CreateOTP(otp *OTP) error
	// ConsumeOTP marks the newest unused, unexpired OTP matching the
	// username and code as used. It reports whether such a row existed.
	// A miss has no side effects on other rows.
	ConsumeOTP(username, code string, now time.Time) (bool, error)
	// InTx runs fn against a repository bound to a single transaction.
	// Any error from fn rolls the whole transaction back.
	InTx(fn func(Repository) error) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateUser(user *User) error {
	if err := r.db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrUserExists
		}
		return err
	}
	return nil
}

func (r *repository) GetUserByUsername(username string) (*User, error) {
	var user User
	if err := r.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *repository) GetUserByEmail(email string) (*User, error) {
	var user User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *repository) ActivateUser(username string) error {
	res := r.db.Model(&User{}).Where("username = ?", username).Update("is_active", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *repository) CreateOTP(otp *OTP) error {
	return r.db.Create(otp).Error
}

func (r *repository) ConsumeOTP(username, code string, now time.Time) (bool, error) {
	var otp OTP
	err := r.db.
		Where("username = ? AND code = ? AND is_used = ? AND expires_at > ?", username, code, false, now).
		Order("created_at DESC").
		First(&otp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	if err := r.db.Model(&otp).Update("is_used", true).Error; err != nil {
		return false, err
	}
	return true, nil
}

func (r *repository) InTx(fn func(Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&repository{db: tx})
	})
}
