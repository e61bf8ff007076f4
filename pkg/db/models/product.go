package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/enums"
)

// Product is the canonical catalog listing. Stock is the only shared mutable
// resource in the system; it is only ever reduced through the atomic
// floor-checked decrement in the catalog repository.
type Product struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string                `gorm:"column:name;not null"`
	Description *string               `gorm:"column:description"`
	Category    enums.ProductCategory `gorm:"column:category;type:text;not null;default:'other'"`
	Price       int64                 `gorm:"column:price;not null"`
	Stock       int                   `gorm:"column:stock;not null;default:0"`
	ImageURL    *string               `gorm:"column:image_url"`
	Tags        pq.StringArray        `gorm:"column:tags;type:text[]"`
	IsActive    bool                  `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
