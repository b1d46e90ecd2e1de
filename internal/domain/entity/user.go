package entity

import "time"

// Tenant owns vouchers and parties
type Tenant struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// User is an operator account. TenantID is nil for users not yet attached to a tenant.
type User struct {
	ID           string    `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	TenantID     *string   `json:"tenant_id,omitempty" db:"tenant_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Principal is the authenticated caller of an operation
type Principal struct {
	UserID   string
	Username string
	TenantID string
}

// HasTenant reports whether the caller belongs to a tenant
func (p Principal) HasTenant() bool {
	return p.TenantID != ""
}

// Owns reports whether the caller's tenant owns a record of the given tenant
func (p Principal) Owns(tenantID string) bool {
	return p.HasTenant() && p.TenantID == tenantID
}

// PrincipalFor builds the principal of a stored user
func PrincipalFor(u *User) Principal {
	p := Principal{UserID: u.ID, Username: u.Username}
	if u.TenantID != nil {
		p.TenantID = *u.TenantID
	}
	return p
}
