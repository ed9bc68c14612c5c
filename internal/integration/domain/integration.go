package domain

import "time"

// Integration category constants.
const (
	CategoryAPIMarketplace = "api_marketplace"
	CategoryWebhook        = "webhook"
	CategoryEnterprise     = "enterprise"
	CategoryPatentOffice   = "patent_office"
	CategoryThirdParty     = "third_party"
	CategoryFileStorage    = "file_storage"
	CategoryCommunication  = "communication"
	CategoryAutomation     = "automation"
)

// Integration status constants.
const (
	StatusActive     = "active"
	StatusInactive   = "inactive"
	StatusPending    = "pending"
	StatusError      = "error"
	StatusDeprecated = "deprecated"
	StatusBeta       = "beta"
)

// Integration is a registered connection between a user's account and an
// external capability: a marketplace API, a webhook target, an enterprise
// system or a patent office.
type Integration struct {
	ID               string     `json:"id"`
	UserID           string     `json:"user_id"`
	Name             string     `json:"name"`
	Description      string     `json:"description,omitempty"`
	Version          string     `json:"version,omitempty"`
	Category         string     `json:"category"`
	Status           string     `json:"status"`
	Provider         string     `json:"provider,omitempty"`
	IconURL          string     `json:"icon_url,omitempty"`
	DocumentationURL string     `json:"documentation_url,omitempty"`
	SupportURL       string     `json:"support_url,omitempty"`
	LastUsed         *time.Time `json:"last_used,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// ValidCategories returns all valid integration categories.
func ValidCategories() []string {
	return []string{
		CategoryAPIMarketplace, CategoryWebhook, CategoryEnterprise,
		CategoryPatentOffice, CategoryThirdParty, CategoryFileStorage,
		CategoryCommunication, CategoryAutomation,
	}
}

// IsValidCategory checks if a category string is valid.
func IsValidCategory(category string) bool {
	for _, c := range ValidCategories() {
		if c == category {
			return true
		}
	}
	return false
}

// ValidStatuses returns all valid integration statuses.
func ValidStatuses() []string {
	return []string{
		StatusActive, StatusInactive, StatusPending,
		StatusError, StatusDeprecated, StatusBeta,
	}
}

// IsValidStatus checks if a status string is valid.
func IsValidStatus(status string) bool {
	for _, s := range ValidStatuses() {
		if s == status {
			return true
		}
	}
	return false
}
