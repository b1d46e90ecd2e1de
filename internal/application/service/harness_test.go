package service

import (
	"context"
	"sync"
	"time"

	"github.com/valepallet/vpallet/internal/application/dispatcher"
	"github.com/valepallet/vpallet/internal/application/port/porttest"
	appwf "github.com/valepallet/vpallet/internal/application/workflow"
	"github.com/valepallet/vpallet/internal/domain/entity"
	"github.com/valepallet/vpallet/internal/domain/event"
)

const (
	tokenA = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	tokenB = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	tokenC = "cccccccccccccccccccccccccccccccc"
	tokenD = "dddddddddddddddddddddddddddddddd"
)

var t0 = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

type mockDispatcher struct {
	mu     sync.Mutex
	events []*event.Event
}

func (m *mockDispatcher) Subscribe(event.Type, string, dispatcher.Handler) {}
func (m *mockDispatcher) Unsubscribe(event.Type, string)                   {}
func (m *mockDispatcher) ListHandlers(event.Type) []dispatcher.HandlerInfo { return nil }
func (m *mockDispatcher) Close() error                                     { return nil }

func (m *mockDispatcher) Dispatch(ctx context.Context, evt *event.Event) error {
	m.DispatchAsync(ctx, evt)
	return nil
}

func (m *mockDispatcher) DispatchAsync(ctx context.Context, evt *event.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
}

func (m *mockDispatcher) types() []event.Type {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]event.Type, len(m.events))
	for i, e := range m.events {
		out[i] = e.Type
	}
	return out
}

type harness struct {
	store    *porttest.Store
	clock    *porttest.Clock
	tokens   *porttest.Tokens
	storage  *porttest.Storage
	events   *mockDispatcher
	vouchers VoucherService
	scans    ScanService
	parties  PartyService
	owner    entity.Principal
}

func newHarness(tokens ...string) *harness {
	if len(tokens) == 0 {
		tokens = []string{tokenA, tokenB, tokenC, tokenD}
	}
	h := &harness{
		store:   porttest.NewStore(),
		clock:   porttest.NewClock(t0),
		tokens:  porttest.NewTokens(tokens...),
		storage: porttest.NewStorage(),
		events:  &mockDispatcher{},
		owner:   porttest.Principal("u-1", "t-1"),
	}

	engine := appwf.NewEngine(h.store.Vouchers(), h.store.Movements(), h.store.TxManager(), appwf.WithDispatcher(h.events))
	h.vouchers = NewVoucherService(VoucherServiceDeps{
		Vouchers:     h.store.Vouchers(),
		MovementRepo: h.store.Movements(),
		Parties:      h.store.Parties(),
		TxManager:    h.store.TxManager(),
		Engine:       engine,
		Tokens:       h.tokens,
		QR:           porttest.QREncoder{},
		Storage:      h.storage,
		Clock:        h.clock,
		Dispatcher:   h.events,
	}, VoucherConfig{PublicBaseURL: "https://vales.example.com", Location: time.UTC})
	h.scans = NewScanService(h.store.Vouchers(), engine, h.clock, nil)
	h.parties = NewPartyService(h.store.Parties(), h.store.Vouchers(), h.clock, nil)

	for _, tenant := range []string{"t-1", "t-2"} {
		h.store.PutParty(entity.Party{ID: "client-" + tenant, Kind: entity.PartyClient, TenantID: tenant, Name: "Atacadão"})
		h.store.PutParty(entity.Party{ID: "carrier-" + tenant, Kind: entity.PartyCarrier, TenantID: tenant, Name: "Transportes Rápidos"})
		h.store.PutParty(entity.Party{ID: "driver-" + tenant, Kind: entity.PartyDriver, TenantID: tenant, Name: "João"})
	}
	return h
}

func issueInput(number string, pbr, chep int) IssueInput {
	return IssueInput{
		Number:     number,
		ClientID:   "client-t-1",
		CarrierID:  "carrier-t-1",
		DriverID:   "driver-t-1",
		ValidUntil: t0.Add(7 * 24 * time.Hour).Format(time.RFC3339),
		PBR:        pbr,
		CHEP:       chep,
	}
}
