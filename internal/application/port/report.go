package port

import "github.com/valepallet/vpallet/internal/domain/entity"

// VoucherReportRow is one voucher in an export together with its movements and party names
type VoucherReportRow struct {
	Voucher     *entity.Voucher
	ClientName  string
	CarrierName string
	DriverName  string
	Expired     bool
	Movements   []*entity.Movement
}

// ReportRenderer turns report rows into a downloadable document
type ReportRenderer interface {
	Render(rows []VoucherReportRow) ([]byte, error)
	ContentType() string
	Extension() string
}
