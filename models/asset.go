package models

import (
	"time"

	"gorm.io/gorm"
)

// AssetStatus представляет состояние актива
type AssetStatus string

const (
	AssetStatusAvailable AssetStatus = "Available"
	AssetStatusInUse     AssetStatus = "InUse"
)

// Asset представляет учитываемую единицу оборудования
type Asset struct {
	ID           uint        `json:"id" gorm:"primaryKey"`
	Name         string      `json:"name" gorm:"size:100;not null"`
	Code         string      `json:"code" gorm:"size:50;not null;uniqueIndex"`
	Status       AssetStatus `json:"status" gorm:"size:20;not null;default:'Available';index"`
	CheckedOutBy *string     `json:"checkedOutBy" gorm:"size:100"` // Заполнено только в состоянии InUse
	Notes        *string     `json:"notes" gorm:"size:200"`
	CheckedOutAt *time.Time  `json:"checkedOutAt"`
	CreatedAt    time.Time   `json:"createdAt" gorm:"not null"`
	UpdatedAt    time.Time   `json:"updatedAt" gorm:"not null"`
}

// IsAvailable сообщает, можно ли выдать актив
func (a *Asset) IsAvailable() bool {
	return a.Status == AssetStatusAvailable
}

// BeforeCreate хук для установки значений по умолчанию
func (a *Asset) BeforeCreate(tx *gorm.DB) error {
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = a.CreatedAt
	}
	if a.Status == "" {
		a.Status = AssetStatusAvailable
	}
	return nil
}
