package models

import "time"

// Claim sources, one per reconciliation entry point.
const (
	ClaimSourceConfirm = "confirm"
	ClaimSourceVerify  = "verify"
	ClaimSourceWebhook = "webhook"
)

// PaymentClaim marks an external payment identifier as converted into a local
// record. The unique index on ExternalID is the claim itself.
type PaymentClaim struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	ExternalID    string     `gorm:"type:varchar(191);not null;uniqueIndex" json:"external_id"`
	Source        string     `gorm:"type:varchar(16);not null" json:"source"`
	RecordedAt    *time.Time `gorm:"type:timestamp;default:null" json:"recorded_at,omitempty"`
	FailureReason string     `gorm:"type:text" json:"failure_reason,omitempty"`
	MetadataJSON  string     `gorm:"type:text" json:"metadata_json,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
