package indexer

import (
	"time"

	"gorm.io/gorm"
)

// ClaimRecord is the SQL row persisted for every recorded claim.
type ClaimRecord struct {
	ClaimID   uint64    `gorm:"primaryKey;autoIncrement:false" json:"claimId"`
	Recipient string    `gorm:"index;not null" json:"recipient"`
	ProgramID uint64    `gorm:"index;not null" json:"programId"`
	Amount    string    `gorm:"not null" json:"amount"`
	Period    uint64    `gorm:"not null" json:"period"`
	Height    uint64    `gorm:"index;not null" json:"height"`
	Hash      string    `gorm:"uniqueIndex;not null" json:"hash"`
	IndexedAt time.Time `json:"indexedAt"`
}

// TableName pins the table name independently of the struct name.
func (ClaimRecord) TableName() string { return "ubi_claims" }

// AutoMigrate creates or updates the indexer schema.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&ClaimRecord{})
}
