package domain

import "time"

// EnterpriseConnector links the account to an in-house enterprise system
// (document management, ERP, identity provider) through a stored config blob.
type EnterpriseConnector struct {
	ID         string         `json:"id"`
	UserID     string         `json:"user_id"`
	Name       string         `json:"name"`
	SystemType string         `json:"system_type"`
	Config     map[string]any `json:"config,omitempty"`
	Status     string         `json:"status"`
	LastSync   *time.Time     `json:"last_sync,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Patent office codes supported out of the box. Other codes are accepted;
// these are the offices the platform ships presets for.
const (
	OfficeEPO   = "EPO"
	OfficeUSPTO = "USPTO"
	OfficeWIPO  = "WIPO"
	OfficeJPO   = "JPO"
	OfficeKIPO  = "KIPO"
	OfficeCNIPA = "CNIPA"
)

// PatentOfficeIntegration is a connection to a national or regional patent
// office API used for status synchronization.
type PatentOfficeIntegration struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	OfficeCode  string     `json:"office_code"`
	APIEndpoint string     `json:"api_endpoint"`
	Status      string     `json:"status"`
	LastSync    *time.Time `json:"last_sync,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IntegrationError is a persisted audit entry for a failed integration
// operation.
type IntegrationError struct {
	ID            string         `json:"id"`
	IntegrationID string         `json:"integration_id"`
	Operation     string         `json:"operation"`
	Message       string         `json:"message"`
	Details       map[string]any `json:"details,omitempty"`
	Timestamp     time.Time      `json:"timestamp"`
}
