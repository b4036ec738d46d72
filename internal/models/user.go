// internal/models/user.go
package models

import "time"

// User maps a wallet address to a claimed display name. The wallet address
// is the identity; it is normalized to lowercase at write time.
type User struct {
	WalletAddress string    `json:"wallet_address" gorm:"primaryKey;size:64"`
	DisplayName   *string   `json:"display_name" gorm:"size:50;uniqueIndex"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
