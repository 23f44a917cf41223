package accesscode

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrCodeNotFound  = errors.New("access code not found")
	ErrDuplicateCode = errors.New("access code already exists")
)

type Repository interface {
	Exists(code string) (bool, error)
	FindByCode(code string) (*AccessCode, error)
	// CreateBatch inserts all rows in one transaction. A uniqueness
	// violation aborts the whole batch and surfaces as ErrDuplicateCode.
	CreateBatch(codes []*AccessCode) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Exists(code string) (bool, error) {
	var count int64
	if err := r.db.Model(&AccessCode{}).Where("code = ?", code).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) FindByCode(code string) (*AccessCode, error) {
	var row AccessCode
	if err := r.db.Where("code = ?", code).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCodeNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (r *repository) CreateBatch(codes []*AccessCode) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&codes).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateCode
		}
		return err
	}
	return nil
}
