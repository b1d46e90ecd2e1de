package http

import (
	"context"
	"errors"

	"github.com/valepallet/vpallet/internal/application/service"
	"github.com/valepallet/vpallet/internal/domain/entity"
)

var errNotMocked = errors.New("not mocked")

type mockVoucherService struct {
	IssueFunc            func(ctx context.Context, p entity.Principal, in service.IssueInput) (*service.IssuedVoucher, error)
	GetFunc              func(ctx context.Context, p entity.Principal, id string) (*entity.Voucher, error)
	GetByNumberFunc      func(ctx context.Context, p entity.Principal, number string) (*entity.Voucher, error)
	ListFunc             func(ctx context.Context, p entity.Principal, filter entity.VoucherFilter) ([]*entity.Voucher, error)
	UpdateFunc           func(ctx context.Context, p entity.Principal, id string, in service.UpdateInput) (*entity.Voucher, error)
	DeleteFunc           func(ctx context.Context, p entity.Principal, id string) error
	CancelFunc           func(ctx context.Context, p entity.Principal, id, reason string) (*entity.Voucher, error)
	MovementsFunc        func(ctx context.Context, p entity.Principal, id string) ([]*entity.Movement, error)
	MovementLogFunc      func(ctx context.Context, p entity.Principal, filter entity.MovementFilter) ([]*entity.Movement, error)
	RegisterMovementFunc func(ctx context.Context, p entity.Principal, id string, in service.RegisterInput) (*entity.Movement, error)
	QRCodeFunc           func(ctx context.Context, p entity.Principal, id string) ([]byte, error)
	VerifyFunc           func(ctx context.Context, id, token string) (*service.Verification, error)
}

func (m *mockVoucherService) Issue(ctx context.Context, p entity.Principal, in service.IssueInput) (*service.IssuedVoucher, error) {
	if m.IssueFunc != nil {
		return m.IssueFunc(ctx, p, in)
	}
	return nil, errNotMocked
}

func (m *mockVoucherService) Get(ctx context.Context, p entity.Principal, id string) (*entity.Voucher, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, p, id)
	}
	return nil, errNotMocked
}

func (m *mockVoucherService) GetByNumber(ctx context.Context, p entity.Principal, number string) (*entity.Voucher, error) {
	if m.GetByNumberFunc != nil {
		return m.GetByNumberFunc(ctx, p, number)
	}
	return nil, errNotMocked
}

func (m *mockVoucherService) List(ctx context.Context, p entity.Principal, filter entity.VoucherFilter) ([]*entity.Voucher, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, p, filter)
	}
	return nil, errNotMocked
}

func (m *mockVoucherService) Update(ctx context.Context, p entity.Principal, id string, in service.UpdateInput) (*entity.Voucher, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, p, id, in)
	}
	return nil, errNotMocked
}

func (m *mockVoucherService) Delete(ctx context.Context, p entity.Principal, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, p, id)
	}
	return errNotMocked
}

func (m *mockVoucherService) Cancel(ctx context.Context, p entity.Principal, id, reason string) (*entity.Voucher, error) {
	if m.CancelFunc != nil {
		return m.CancelFunc(ctx, p, id, reason)
	}
	return nil, errNotMocked
}

func (m *mockVoucherService) Movements(ctx context.Context, p entity.Principal, id string) ([]*entity.Movement, error) {
	if m.MovementsFunc != nil {
		return m.MovementsFunc(ctx, p, id)
	}
	return nil, errNotMocked
}

func (m *mockVoucherService) MovementLog(ctx context.Context, p entity.Principal, filter entity.MovementFilter) ([]*entity.Movement, error) {
	if m.MovementLogFunc != nil {
		return m.MovementLogFunc(ctx, p, filter)
	}
	return nil, errNotMocked
}

func (m *mockVoucherService) RegisterMovement(ctx context.Context, p entity.Principal, id string, in service.RegisterInput) (*entity.Movement, error) {
	if m.RegisterMovementFunc != nil {
		return m.RegisterMovementFunc(ctx, p, id, in)
	}
	return nil, errNotMocked
}

func (m *mockVoucherService) QRCode(ctx context.Context, p entity.Principal, id string) ([]byte, error) {
	if m.QRCodeFunc != nil {
		return m.QRCodeFunc(ctx, p, id)
	}
	return nil, errNotMocked
}

func (m *mockVoucherService) Verify(ctx context.Context, id, token string) (*service.Verification, error) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, id, token)
	}
	return nil, errNotMocked
}

type mockScanService struct {
	ScanFunc      func(ctx context.Context, p entity.Principal, raw string) (*service.ScanResult, error)
	ScanTokenFunc func(ctx context.Context, p entity.Principal, id, token string) (*service.ScanResult, error)
}

func (m *mockScanService) Scan(ctx context.Context, p entity.Principal, raw string) (*service.ScanResult, error) {
	if m.ScanFunc != nil {
		return m.ScanFunc(ctx, p, raw)
	}
	return nil, errNotMocked
}

func (m *mockScanService) ScanToken(ctx context.Context, p entity.Principal, id, token string) (*service.ScanResult, error) {
	if m.ScanTokenFunc != nil {
		return m.ScanTokenFunc(ctx, p, id, token)
	}
	return nil, errNotMocked
}

type mockPartyService struct {
	CreateFunc func(ctx context.Context, p entity.Principal, kind entity.PartyKind, in service.PartyInput) (*entity.Party, error)
	GetFunc    func(ctx context.Context, p entity.Principal, kind entity.PartyKind, id string) (*entity.Party, error)
	ListFunc   func(ctx context.Context, p entity.Principal, kind entity.PartyKind) ([]*entity.Party, error)
	UpdateFunc func(ctx context.Context, p entity.Principal, kind entity.PartyKind, id string, in service.PartyInput) (*entity.Party, error)
	DeleteFunc func(ctx context.Context, p entity.Principal, kind entity.PartyKind, id string) error
}

func (m *mockPartyService) Create(ctx context.Context, p entity.Principal, kind entity.PartyKind, in service.PartyInput) (*entity.Party, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, p, kind, in)
	}
	return nil, errNotMocked
}

func (m *mockPartyService) Get(ctx context.Context, p entity.Principal, kind entity.PartyKind, id string) (*entity.Party, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, p, kind, id)
	}
	return nil, errNotMocked
}

func (m *mockPartyService) List(ctx context.Context, p entity.Principal, kind entity.PartyKind) ([]*entity.Party, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, p, kind)
	}
	return nil, errNotMocked
}

func (m *mockPartyService) Update(ctx context.Context, p entity.Principal, kind entity.PartyKind, id string, in service.PartyInput) (*entity.Party, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, p, kind, id, in)
	}
	return nil, errNotMocked
}

func (m *mockPartyService) Delete(ctx context.Context, p entity.Principal, kind entity.PartyKind, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, p, kind, id)
	}
	return errNotMocked
}

// mockAuthService accepts the bearer token "valid" as operatorPrincipal
type mockAuthService struct {
	LoginFunc func(ctx context.Context, username, password string) (*service.LoginResult, error)
}

func (m *mockAuthService) Login(ctx context.Context, username, password string) (*service.LoginResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, username, password)
	}
	return nil, errNotMocked
}

func (m *mockAuthService) Authenticate(ctx context.Context, token string) (entity.Principal, error) {
	if token == "valid" {
		return operatorPrincipal, nil
	}
	return entity.Principal{}, service.ErrInvalidCredentials
}

func (m *mockAuthService) CreateUser(ctx context.Context, username, password, tenantName string) (*entity.User, error) {
	return nil, errNotMocked
}

func (m *mockAuthService) EnsureUser(ctx context.Context, username, password, tenantName string) (*entity.User, error) {
	return nil, errNotMocked
}

type mockReportService struct {
	ExportFunc func(ctx context.Context, p entity.Principal, filter entity.VoucherFilter) (*service.Report, error)
}

func (m *mockReportService) Export(ctx context.Context, p entity.Principal, filter entity.VoucherFilter) (*service.Report, error) {
	if m.ExportFunc != nil {
		return m.ExportFunc(ctx, p, filter)
	}
	return nil, errNotMocked
}
