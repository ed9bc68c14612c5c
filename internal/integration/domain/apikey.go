package domain

import "time"

// API key lifecycle states. The state is never stored: it is derived from
// the is_active flag and the expiry timestamp at read time.
const (
	KeyStatusActive  = "active"
	KeyStatusExpired = "expired"
	KeyStatusRevoked = "revoked"
)

// APIKey is a credential issued against an integration. The secret is stored
// as issued; redacting it for display is the caller's concern. Revocation
// flips IsActive and retains the record for audit.
type APIKey struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	IntegrationID string     `json:"integration_id"`
	Name          string     `json:"name"`
	Secret        string     `json:"secret"`
	Permissions   []string   `json:"permissions"`
	IsActive      bool       `json:"is_active"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	LastUsed      *time.Time `json:"last_used,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// DerivedStatus computes the key's lifecycle state at the given instant.
// Revocation wins over expiry.
func (k *APIKey) DerivedStatus(now time.Time) string {
	if !k.IsActive {
		return KeyStatusRevoked
	}
	if k.ExpiresAt != nil && k.ExpiresAt.Before(now) {
		return KeyStatusExpired
	}
	return KeyStatusActive
}
