package entity

import "time"

// PartyKind distinguishes the reference entities a voucher points at
type PartyKind string

const (
	PartyClient  PartyKind = "client"
	PartyDriver  PartyKind = "driver"
	PartyCarrier PartyKind = "carrier"
)

// IsValid returns true for known party kinds
func (k PartyKind) IsValid() bool {
	return k == PartyClient || k == PartyDriver || k == PartyCarrier
}

// DocumentIsCPF reports whether the kind is identified by a CPF (person) rather than a CNPJ
func (k PartyKind) DocumentIsCPF() bool {
	return k == PartyDriver
}

// EmailRequired reports whether the kind must carry an e-mail address
func (k PartyKind) EmailRequired() bool {
	return k != PartyDriver
}

// Party is a client (cliente), driver (motorista) or carrier (transportadora).
// Document holds the CNPJ for clients and carriers and the CPF for drivers.
type Party struct {
	ID        string    `json:"id" db:"id"`
	Kind      PartyKind `json:"kind" db:"-"`
	TenantID  string    `json:"tenant_id" db:"tenant_id"`
	Name      string    `json:"name" db:"name"`
	Document  string    `json:"document" db:"document"`
	Phone     string    `json:"phone" db:"phone"`
	Email     string    `json:"email,omitempty" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
