// internal/storage/models/base.go
package models

import "time"

// BaseModel заменяет gorm.Model: без soft delete, журнал только дописывается.
type BaseModel struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
