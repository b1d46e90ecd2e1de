package report

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/valepallet/vpallet/internal/application/port"
)

const (
	SheetVouchers  = "Vales"
	SheetMovements = "Movimentacoes"

	timeLayout = "02/01/2006 15:04"
)

var (
	voucherHeader = []interface{}{
		"Número", "Status", "Cliente", "Transportadora", "Motorista", "Emissão", "Validade",
		"PBR solicitado", "CHEP solicitado", "Saldo PBR", "Saldo CHEP", "Vencido",
	}
	movementHeader = []interface{}{
		"Número", "Seq", "Tipo", "Data", "PBR", "CHEP", "Usuário", "Observações",
	}
)

// ExcelRenderer writes voucher reports as XLSX workbooks
type ExcelRenderer struct {
	location *time.Location
	logger   *zap.Logger
}

// NewExcelRenderer creates a renderer that prints timestamps in loc
func NewExcelRenderer(loc *time.Location, logger *zap.Logger) *ExcelRenderer {
	if loc == nil {
		loc = time.UTC
	}
	return &ExcelRenderer{location: loc, logger: logger}
}

// Render builds a workbook with one sheet of vouchers and one of their movements
func (r *ExcelRenderer) Render(rows []port.VoucherReportRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetVouchers); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetMovements); err != nil {
		return nil, fmt.Errorf("failed to add sheet: %w", err)
	}

	if err := r.writeRow(f, SheetVouchers, 1, voucherHeader); err != nil {
		return nil, err
	}
	if err := r.writeRow(f, SheetMovements, 1, movementHeader); err != nil {
		return nil, err
	}

	movementRow := 2
	for i, row := range rows {
		v := row.Voucher
		expired := "Não"
		if row.Expired {
			expired = "Sim"
		}
		err := r.writeRow(f, SheetVouchers, i+2, []interface{}{
			v.Number, string(v.Status), row.ClientName, row.CarrierName, row.DriverName,
			r.format(v.IssuedAt), r.format(v.ValidUntil),
			v.RequestedPBR, v.RequestedCHEP, v.BalancePBR, v.BalanceCHEP, expired,
		})
		if err != nil {
			return nil, err
		}

		for _, m := range row.Movements {
			actor := ""
			if m.Actor != nil {
				actor = *m.Actor
			}
			err := r.writeRow(f, SheetMovements, movementRow, []interface{}{
				v.Number, m.Seq, string(m.Kind), r.format(m.CreatedAt), m.PBR, m.CHEP, actor, m.Notes,
			})
			if err != nil {
				return nil, err
			}
			movementRow++
		}
	}

	for _, sheet := range []string{SheetVouchers, SheetMovements} {
		if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
			r.logger.Warn("Failed to freeze header row", zap.String("sheet", sheet), zap.Error(err))
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	r.logger.Debug("Voucher report rendered",
		zap.Int("vouchers", len(rows)),
		zap.Int("movements", movementRow-2))
	return buf.Bytes(), nil
}

// ContentType is the XLSX media type
func (r *ExcelRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Extension is the file suffix of rendered reports
func (r *ExcelRenderer) Extension() string {
	return ".xlsx"
}

func (r *ExcelRenderer) writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func (r *ExcelRenderer) format(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(r.location).Format(timeLayout)
}

var _ port.ReportRenderer = (*ExcelRenderer)(nil)
