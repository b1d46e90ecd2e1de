package entity

import (
	"time"

	"github.com/valepallet/vpallet/internal/domain/workflow"
)

// Quantities is a pair of pallet counters, one per pool
type Quantities struct {
	PBR  int `json:"pbr"`
	CHEP int `json:"chep"`
}

// IsZero reports whether both counters are zero
func (q Quantities) IsZero() bool {
	return q.PBR == 0 && q.CHEP == 0
}

// Negative reports whether either counter is below zero
func (q Quantities) Negative() bool {
	return q.PBR < 0 || q.CHEP < 0
}

// Voucher is a pallet voucher (vale-pallet)
type Voucher struct {
	ID            string         `json:"id" db:"id"`
	Number        string         `json:"numero_vale" db:"number"`
	TenantID      string         `json:"tenant_id" db:"tenant_id"`
	ClientID      string         `json:"client_id" db:"client_id"`
	CarrierID     string         `json:"carrier_id" db:"carrier_id"`
	DriverID      string         `json:"driver_id" db:"driver_id"`
	IssuedAt      time.Time      `json:"issued_at" db:"issued_at"`
	ValidUntil    time.Time      `json:"valid_until" db:"valid_until"`
	RequestedPBR  int            `json:"requested_pbr" db:"requested_pbr"`
	RequestedCHEP int            `json:"requested_chep" db:"requested_chep"`
	BalancePBR    int            `json:"balance_pbr" db:"balance_pbr"`
	BalanceCHEP   int            `json:"balance_chep" db:"balance_chep"`
	Status        workflow.State `json:"status" db:"status"`
	SecurityToken string         `json:"-" db:"security_token"`
	QRCodePath    string         `json:"qrcode_path,omitempty" db:"qrcode_path"`
	Notes         string         `json:"notes,omitempty" db:"notes"`
	CreatedBy     string         `json:"created_by" db:"created_by"`
	ExitedAt      *time.Time     `json:"exited_at,omitempty" db:"exited_at"`
	ExitedBy      *string        `json:"exited_by,omitempty" db:"exited_by"`
	ReturnedAt    *time.Time     `json:"returned_at,omitempty" db:"returned_at"`
	ReturnedBy    *string        `json:"returned_by,omitempty" db:"returned_by"`
	CancelledAt   *time.Time     `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CancelledBy   *string        `json:"cancelled_by,omitempty" db:"cancelled_by"`
	Version       int64          `json:"version" db:"version"`
	UpdatedAt     time.Time      `json:"updated_at" db:"updated_at"`
	DeletedAt     *time.Time     `json:"-" db:"deleted_at"`
}

// Requested returns the quantities authorised at issuance
func (v *Voucher) Requested() Quantities {
	return Quantities{PBR: v.RequestedPBR, CHEP: v.RequestedCHEP}
}

// Balance returns the units still owed back
func (v *Voucher) Balance() Quantities {
	return Quantities{PBR: v.BalancePBR, CHEP: v.BalanceCHEP}
}

// SetBalance overwrites both ledger counters
func (v *Voucher) SetBalance(q Quantities) {
	v.BalancePBR = q.PBR
	v.BalanceCHEP = q.CHEP
}

// SetRequested overwrites the requested quantities
func (v *Voucher) SetRequested(q Quantities) {
	v.RequestedPBR = q.PBR
	v.RequestedCHEP = q.CHEP
}

// IsExpired compares full timestamps: a voucher is valid up to and including ValidUntil.
func (v *Voucher) IsExpired(now time.Time) bool {
	return now.After(v.ValidUntil)
}

// IsDeleted reports whether the voucher was soft-deleted
func (v *Voucher) IsDeleted() bool {
	return v.DeletedAt != nil
}

// Editable reports whether quantities, parties and number may still change
func (v *Voucher) Editable() bool {
	return v.Status == workflow.StateIssued
}

// VoucherFilter narrows voucher listings
type VoucherFilter struct {
	Status workflow.State
	Limit  int
	Offset int
}
