package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/valepallet/vpallet/internal/application/port"
	"github.com/valepallet/vpallet/internal/domain/entity"
	"github.com/valepallet/vpallet/internal/domain/workflow"
)

func TestExcelRenderer_Render(t *testing.T) {
	saoPaulo := time.FixedZone("BRT", -3*60*60)
	issued := time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC)
	actor := "operador"

	rows := []port.VoucherReportRow{
		{
			Voucher: &entity.Voucher{
				Number: "V001", Status: workflow.StateExited,
				IssuedAt: issued, ValidUntil: issued.Add(7 * 24 * time.Hour),
				RequestedPBR: 10, RequestedCHEP: 5, BalancePBR: 10, BalanceCHEP: 5,
			},
			ClientName: "Atacadão", CarrierName: "Transportes Rápidos", DriverName: "João",
			Movements: []*entity.Movement{
				{Seq: 1, Kind: entity.MovementIssued, CreatedAt: issued, PBR: 10, CHEP: 5, Actor: &actor},
				{Seq: 2, Kind: entity.MovementExit, CreatedAt: issued.Add(24 * time.Hour), PBR: 10, CHEP: 5, Notes: "doca 3"},
			},
		},
		{
			Voucher:    &entity.Voucher{Number: "V002", Status: workflow.StateIssued, IssuedAt: issued, ValidUntil: issued},
			ClientName: "Atacadão",
			Expired:    true,
		},
	}

	r := NewExcelRenderer(saoPaulo, zap.NewNop())
	out, err := r.Render(rows)
	require.NoError(t, err)
	assert.Equal(t, ".xlsx", r.Extension())

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetVouchers, SheetMovements}, f.GetSheetList())

	vouchers, err := f.GetRows(SheetVouchers)
	require.NoError(t, err)
	require.Len(t, vouchers, 3)
	assert.Equal(t, "Número", vouchers[0][0])
	assert.Equal(t, []string{"V001", "SAIDA", "Atacadão", "Transportes Rápidos", "João",
		"10/03/2025 08:00", "17/03/2025 08:00", "10", "5", "10", "5", "Não"}, vouchers[1])
	assert.Equal(t, "Sim", vouchers[2][11])

	movements, err := f.GetRows(SheetMovements)
	require.NoError(t, err)
	require.Len(t, movements, 3)
	assert.Equal(t, []string{"V001", "1", "EMITIDO", "10/03/2025 08:00", "10", "5", "operador"}, movements[1])
	assert.Equal(t, "doca 3", movements[2][7])
	assert.Equal(t, "", movements[2][6])
}

func TestExcelRenderer_Empty(t *testing.T) {
	out, err := NewExcelRenderer(nil, zap.NewNop()).Render(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetVouchers)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "header only")
}
