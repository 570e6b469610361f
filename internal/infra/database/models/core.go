package models

import (
	"time"
)

// Record is one row of the append-only record table. Seq is the insertion
// order and the pagination cursor.
type Record struct {
	Seq           int64     `json:"seq" gorm:"primaryKey;autoIncrement"`
	RecordID      string    `json:"id" gorm:"type:text;not null;uniqueIndex:uniq_record_id"`
	Name          string    `json:"name" gorm:"type:text;not null"`
	Description   string    `json:"description" gorm:"type:text"`
	Country       string    `json:"country" gorm:"type:text;not null;index"`
	State         string    `json:"state" gorm:"type:text;not null"`
	Tribe         string    `json:"tribe" gorm:"type:text;not null"`
	AssetHash     string    `json:"assetHash" gorm:"type:text;not null;index"`
	AssetLocation string    `json:"assetLocation" gorm:"type:text;not null"`
	CreatedAt     time.Time `json:"createdAt" gorm:"not null"`
}

// Asset maps a content hash to the location holding its bytes.
type Asset struct {
	ContentHash string    `json:"contentHash" gorm:"primaryKey;type:text"`
	Location    string    `json:"location" gorm:"type:text;not null"`
	ContentType string    `json:"contentType" gorm:"type:text"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"createdAt" gorm:"not null"`
}
