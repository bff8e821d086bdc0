package domain

import "time"

// Organization is a tenant. Its manager logs in with ManagerEmail.
type Organization struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Domain          string    `json:"domain"`
	Contact         string    `json:"contact"`
	Plan            string    `json:"plan"`
	Status          string    `json:"status"`
	Users           int       `json:"users"`
	Coaches         int       `json:"coaches"`
	Participants    int       `json:"participants"`
	ManagerName     string    `json:"managerName"`
	ManagerEmail    string    `json:"managerEmail"`
	ManagerPassword string    `json:"managerPassword,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// SubscriptionPlan is a priced tier offered to organizations.
type SubscriptionPlan struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	PriceMonthly float64   `json:"priceMonthly"`
	PriceYearly  float64   `json:"priceYearly"`
	Features     []string  `json:"features"`
	Popular      bool      `json:"popular"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Payment is a recorded invoice payment.
type Payment struct {
	ID               string    `json:"id"`
	OrganizationID   string    `json:"organizationId"`
	OrganizationName string    `json:"organizationName"`
	Amount           float64   `json:"amount"`
	Status           string    `json:"status"`
	Date             string    `json:"date"`
	Plan             string    `json:"plan"`
	CreatedAt        time.Time `json:"createdAt"`
}

// GlobalTheme is the platform-wide theme cloned into new organizations.
type GlobalTheme struct {
	ThemeSettings
	UpdatedAt time.Time `json:"updatedAt"`
}
