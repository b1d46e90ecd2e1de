package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valepallet/vpallet/internal/application/port/porttest"
	"github.com/valepallet/vpallet/internal/domain/credential"
	"github.com/valepallet/vpallet/internal/domain/entity"
	"github.com/valepallet/vpallet/internal/domain/event"
	"github.com/valepallet/vpallet/internal/domain/ledger"
	domainwf "github.com/valepallet/vpallet/internal/domain/workflow"
)

func TestScanService_FullCycle(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	issued, err := h.vouchers.Issue(ctx, h.owner, issueInput("V001", 10, 5))
	require.NoError(t, err)
	qr := string(issued.QRCode)

	// the carrier scanning at the gate belongs to another tenant
	carrier := porttest.Principal("u-gate", "t-2")

	h.clock.Set(t0.Add(24 * time.Hour))
	res, err := h.scans.Scan(ctx, carrier, qr)
	require.NoError(t, err)
	assert.Equal(t, OutcomeTransitioned, res.Outcome)
	assert.Equal(t, domainwf.StateExited, res.Voucher.Status)
	assert.Equal(t, entity.MovementExit, res.Movement.Kind)
	assert.Equal(t, entity.Quantities{PBR: 10, CHEP: 5}, res.Movement.Quantities())
	assert.Equal(t, entity.Quantities{PBR: 10, CHEP: 5}, res.Voucher.Balance())

	h.clock.Set(t0.Add(48 * time.Hour))
	res, err = h.scans.Scan(ctx, h.owner, issued.Payload.Legacy())
	require.NoError(t, err)
	assert.Equal(t, OutcomeTransitioned, res.Outcome)
	assert.Equal(t, domainwf.StateReturned, res.Voucher.Status)
	assert.Equal(t, entity.MovementReturn, res.Movement.Kind)
	assert.Equal(t, entity.Quantities{PBR: 10, CHEP: 5}, res.Movement.Quantities())
	assert.True(t, res.Voucher.Balance().IsZero())

	h.clock.Set(t0.Add(72 * time.Hour))
	res, err = h.scans.Scan(ctx, h.owner, qr)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCycleComplete, res.Outcome)
	assert.Nil(t, res.Movement)
	assert.Equal(t, domainwf.StateReturned, res.Voucher.Status)

	movements, err := h.vouchers.Movements(ctx, h.owner, issued.Voucher.ID)
	require.NoError(t, err)
	kinds := make([]entity.MovementKind, len(movements))
	for i, m := range movements {
		kinds[i] = m.Kind
		assert.Equal(t, i+1, m.Seq)
	}
	assert.Equal(t, []entity.MovementKind{entity.MovementIssued, entity.MovementExit, entity.MovementReturn}, kinds)

	balance, err := ledger.Replay(movements)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())

	assert.Equal(t, []event.Type{
		event.TypeVoucherIssued, event.TypeVoucherExited, event.TypeVoucherReturned,
	}, h.events.types())
}

func TestScanService_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(t *testing.T, h *harness, id string)
		raw     func(id string) string
		wantErr error
	}{
		{
			name:    "wrong token",
			raw:     func(id string) string { return "vpallet:" + id + ":" + tokenC },
			wantErr: ErrIntegrityViolation,
		},
		{
			name:    "unknown voucher",
			raw:     func(string) string { return "vpallet:nope:" + tokenA },
			wantErr: ErrNotFound,
		},
		{
			name:    "malformed payload",
			raw:     func(id string) string { return "vpallet:" + id },
			wantErr: ErrInvalidInput,
		},
		{
			name:    "expired",
			prepare: func(t *testing.T, h *harness, id string) { h.clock.Set(t0.Add(7*24*time.Hour + time.Second)) },
			raw:     func(id string) string { return "vpallet:" + id + ":" + tokenA },
			wantErr: ErrExpired,
		},
		{
			name: "cancelled",
			prepare: func(t *testing.T, h *harness, id string) {
				_, err := h.vouchers.Cancel(context.Background(), h.owner, id, "")
				require.NoError(t, err)
			},
			raw:     func(id string) string { return "vpallet:" + id + ":" + tokenA },
			wantErr: ErrInvalidStateTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			issued, err := h.vouchers.Issue(context.Background(), h.owner, issueInput("V001", 10, 5))
			require.NoError(t, err)
			id := issued.Voucher.ID
			if tt.prepare != nil {
				tt.prepare(t, h, id)
			}
			before, _ := h.store.Voucher(id)
			movementsBefore := h.store.MovementCount(id)

			_, err = h.scans.Scan(context.Background(), h.owner, tt.raw(id))
			assert.ErrorIs(t, err, tt.wantErr)

			after, _ := h.store.Voucher(id)
			assert.Equal(t, before, after, "a rejected scan must not touch the voucher")
			assert.Equal(t, movementsBefore, h.store.MovementCount(id))
		})
	}
}

func TestScanService_ExpiryBoundary(t *testing.T) {
	h := newHarness()
	issued, err := h.vouchers.Issue(context.Background(), h.owner, issueInput("V001", 10, 5))
	require.NoError(t, err)

	h.clock.Set(issued.Voucher.ValidUntil)
	res, err := h.scans.ScanToken(context.Background(), h.owner, issued.Voucher.ID, tokenA)
	require.NoError(t, err, "a voucher is still valid at its deadline")
	assert.Equal(t, domainwf.StateExited, res.Voucher.Status)
}

func TestScanService_RequiresAuthentication(t *testing.T) {
	h := newHarness()
	issued, err := h.vouchers.Issue(context.Background(), h.owner, issueInput("V001", 10, 5))
	require.NoError(t, err)

	_, err = h.scans.ScanToken(context.Background(), entity.Principal{}, issued.Voucher.ID, tokenA)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, 1, h.store.MovementCount(issued.Voucher.ID))
}

func TestScanService_ConcurrentScansAdvanceOnce(t *testing.T) {
	h := newHarness()
	issued, err := h.vouchers.Issue(context.Background(), h.owner, issueInput("V001", 10, 5))
	require.NoError(t, err)
	raw, err := credential.NewPayload(issued.Voucher.ID, tokenA, "V001", "").JSON()
	require.NoError(t, err)

	const scanners = 8
	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		transitioned int
		complete     int
		refused      int
	)
	for i := 0; i < scanners; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := h.scans.Scan(context.Background(), h.owner, raw)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil && res.Outcome == OutcomeTransitioned:
				transitioned++
			case err == nil:
				complete++
			case assert.ErrorIs(t, err, ErrConcurrentModification):
				refused++
			}
		}()
	}
	wg.Wait()

	// at most the exit and the return can win, each exactly once
	assert.Equal(t, scanners, transitioned+complete+refused)
	assert.GreaterOrEqual(t, transitioned, 1)
	assert.LessOrEqual(t, transitioned, 2)
	assert.Equal(t, 1+transitioned, h.store.MovementCount(issued.Voucher.ID))

	stored, _ := h.store.Voucher(issued.Voucher.ID)
	want := domainwf.StateExited
	if transitioned == 2 {
		want = domainwf.StateReturned
	}
	assert.Equal(t, want, stored.Status)
}
