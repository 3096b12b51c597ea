package models

// OtpRecord stores a hashed one-time code bound to an identifier (email).
// At most one live record exists per identifier; issuing a new code upserts
// the row and resets CreatedAt. The table additionally carries a storage-level
// TTL as defense in depth; application logic treats age beyond the configured
// TTL as expired regardless.
type OtpRecord struct {
	BaseModel
	Identifier string `gorm:"uniqueIndex" json:"identifier"`
	CodeHash   string `json:"-"`
	Purpose    string `json:"purpose"`
}
