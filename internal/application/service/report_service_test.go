package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valepallet/vpallet/internal/application/port"
	"github.com/valepallet/vpallet/internal/application/port/porttest"
	"github.com/valepallet/vpallet/internal/domain/entity"
	domainwf "github.com/valepallet/vpallet/internal/domain/workflow"
)

type mockRenderer struct {
	rows []port.VoucherReportRow
	err  error
}

func (m *mockRenderer) Render(rows []port.VoucherReportRow) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.rows = rows
	return []byte(fmt.Sprintf("%d rows", len(rows))), nil
}

func (m *mockRenderer) ContentType() string { return "text/plain" }
func (m *mockRenderer) Extension() string   { return ".txt" }

func TestReportService_Export(t *testing.T) {
	h := newHarness(tokenA, tokenB, tokenC, tokenD)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := h.vouchers.Issue(ctx, h.owner, issueInput(fmt.Sprintf("R%03d", i), 10, i))
		require.NoError(t, err)
	}
	other, err := h.vouchers.Issue(ctx, porttest.Principal("u-2", "t-2"), IssueInput{
		Number: "OUTRO", ClientID: "client-t-2", CarrierID: "carrier-t-2", DriverID: "driver-t-2", PBR: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, tokenD, other.Voucher.SecurityToken)

	renderer := &mockRenderer{}
	svc := NewReportService(h.store.Vouchers(), h.store.Movements(), h.store.Parties(), renderer, h.clock, nil)

	report, err := svc.Export(ctx, h.owner, entity.VoucherFilter{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Rows, "exports ignore paging")
	assert.Equal(t, "vales_20250310_080000.txt", report.Filename)
	assert.Equal(t, "text/plain", report.ContentType)
	assert.Equal(t, []byte("3 rows"), report.Content)

	require.Len(t, renderer.rows, 3)
	row := renderer.rows[0]
	assert.Equal(t, "Atacadão", row.ClientName)
	assert.Equal(t, "Transportes Rápidos", row.CarrierName)
	assert.Equal(t, "João", row.DriverName)
	assert.False(t, row.Expired)
	assert.Len(t, row.Movements, 1)
}

func TestReportService_Export_StatusFilter(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	issued, err := h.vouchers.Issue(ctx, h.owner, issueInput("A", 1, 1))
	require.NoError(t, err)
	_, err = h.vouchers.Issue(ctx, h.owner, issueInput("B", 1, 1))
	require.NoError(t, err)
	_, err = h.scans.ScanToken(ctx, h.owner, issued.Voucher.ID, tokenA)
	require.NoError(t, err)

	renderer := &mockRenderer{}
	svc := NewReportService(h.store.Vouchers(), h.store.Movements(), h.store.Parties(), renderer, h.clock, nil)

	report, err := svc.Export(ctx, h.owner, entity.VoucherFilter{Status: domainwf.StateExited})
	require.NoError(t, err)
	require.Equal(t, 1, report.Rows)
	assert.Equal(t, "A", renderer.rows[0].Voucher.Number)
	assert.Len(t, renderer.rows[0].Movements, 2)
}

func TestReportService_Export_Errors(t *testing.T) {
	h := newHarness()
	svc := NewReportService(h.store.Vouchers(), h.store.Movements(), h.store.Parties(),
		&mockRenderer{err: errors.New("sheet limit")}, h.clock, nil)

	_, err := svc.Export(context.Background(), porttest.Principal("u-9", ""), entity.VoucherFilter{})
	assert.ErrorIs(t, err, ErrNoTenant)

	_, err = svc.Export(context.Background(), h.owner, entity.VoucherFilter{Status: "PERDIDO"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Export(context.Background(), h.owner, entity.VoucherFilter{})
	assert.ErrorContains(t, err, "sheet limit")
}
