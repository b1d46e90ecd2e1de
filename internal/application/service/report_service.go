package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/valepallet/vpallet/internal/application/port"
	"github.com/valepallet/vpallet/internal/domain/entity"
	"github.com/valepallet/vpallet/pkg/utils"
)

const reportPageSize = 200

// Report is a rendered export ready to be downloaded
type Report struct {
	Filename    string
	ContentType string
	Content     []byte
	Rows        int
}

// ReportService exports a tenant's vouchers
type ReportService interface {
	Export(ctx context.Context, p entity.Principal, filter entity.VoucherFilter) (*Report, error)
}

type reportServiceImpl struct {
	vouchers  port.VoucherRepository
	movements port.MovementRepository
	parties   port.PartyRepository
	renderer  port.ReportRenderer
	clock     port.Clock
	logger    *zap.Logger
}

// NewReportService creates a ReportService
func NewReportService(
	vouchers port.VoucherRepository,
	movements port.MovementRepository,
	parties port.PartyRepository,
	renderer port.ReportRenderer,
	clock port.Clock,
	logger *zap.Logger,
) ReportService {
	if clock == nil {
		clock = port.SystemClock
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &reportServiceImpl{
		vouchers:  vouchers,
		movements: movements,
		parties:   parties,
		renderer:  renderer,
		clock:     clock,
		logger:    logger,
	}
}

// Export renders every voucher matching the status filter; Limit and Offset are ignored.
func (s *reportServiceImpl) Export(ctx context.Context, p entity.Principal, filter entity.VoucherFilter) (*Report, error) {
	if !p.HasTenant() {
		return nil, ErrNoTenant
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, invalid("unknown status %q", filter.Status)
	}

	now := s.clock.Now()
	names := newPartyNames(s.parties)
	var rows []port.VoucherReportRow

	page := entity.VoucherFilter{Status: filter.Status, Limit: reportPageSize}
	for {
		vouchers, err := s.vouchers.List(ctx, p.TenantID, page)
		if err != nil {
			return nil, fmt.Errorf("list vouchers: %w", err)
		}
		for _, v := range vouchers {
			movements, err := s.movements.ListByVoucher(ctx, v.ID)
			if err != nil {
				return nil, fmt.Errorf("list movements of %s: %w", v.ID, err)
			}
			rows = append(rows, port.VoucherReportRow{
				Voucher:     v,
				ClientName:  names.lookup(ctx, entity.PartyClient, v.ClientID),
				CarrierName: names.lookup(ctx, entity.PartyCarrier, v.CarrierID),
				DriverName:  names.lookup(ctx, entity.PartyDriver, v.DriverID),
				Expired:     v.IsExpired(now),
				Movements:   movements,
			})
		}
		if len(vouchers) < reportPageSize {
			break
		}
		page.Offset += reportPageSize
	}

	content, err := s.renderer.Render(rows)
	if err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}

	utils.LoggerFrom(ctx, s.logger).Info("Voucher report exported",
		zap.Int("rows", len(rows)), zap.String("status", string(filter.Status)))
	return &Report{
		Filename:    fmt.Sprintf("vales_%s%s", now.Format("20060102_150405"), s.renderer.Extension()),
		ContentType: s.renderer.ContentType(),
		Content:     content,
		Rows:        len(rows),
	}, nil
}

type partyNames struct {
	repo  port.PartyRepository
	cache map[entity.PartyKind]map[string]string
}

func newPartyNames(repo port.PartyRepository) *partyNames {
	return &partyNames{repo: repo, cache: make(map[entity.PartyKind]map[string]string)}
}

// lookup leaves the name blank when the party is gone
func (n *partyNames) lookup(ctx context.Context, kind entity.PartyKind, id string) string {
	if id == "" {
		return ""
	}
	byID, ok := n.cache[kind]
	if !ok {
		byID = make(map[string]string)
		n.cache[kind] = byID
	}
	if name, ok := byID[id]; ok {
		return name
	}
	party, err := n.repo.GetByID(ctx, kind, id)
	if err != nil && !errors.Is(err, port.ErrNotFound) {
		return ""
	}
	name := ""
	if party != nil {
		name = party.Name
	}
	byID[id] = name
	return name
}
