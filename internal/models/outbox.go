package models

import "time"

// PendingSync is a product whose forward to the secondary sink failed and is
// waiting to be retried.
type PendingSync struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ProductID string    `json:"product_id" gorm:"index;type:varchar(64)"`
	Sink      string    `json:"sink" gorm:"type:varchar(64)"` // name of the sink that rejected the product
	Payload   string    `json:"payload" gorm:"type:text"` // Product JSON at the time of the save
	Attempts  int       `json:"attempts"`
	LastError string    `json:"last_error" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName keeps the outbox table name stable across renames of the type.
func (PendingSync) TableName() string {
	return "sync_outbox"
}
