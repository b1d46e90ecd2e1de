package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/valepallet/vpallet/internal/application/service"
	"github.com/valepallet/vpallet/internal/domain/entity"
	"github.com/valepallet/vpallet/internal/domain/workflow"
)

// ListVouchersRequest represents query parameters for listing vouchers
type ListVouchersRequest struct {
	Status string `form:"status"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

// ListMovementLogRequest represents query parameters of the tenant movement log
type ListMovementLogRequest struct {
	Kind   string `form:"kind"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

// IssuedVoucherResponse is the answer to a successful issuance
type IssuedVoucherResponse struct {
	Voucher   *entity.Voucher `json:"voucher"`
	QRPayload string          `json:"qr_payload"`
	QRLegacy  string          `json:"qr_legacy"`
	VerifyURL string          `json:"verify_url"`
	QRCodePNG []byte          `json:"qrcode_png"`
}

// CancelRequest is the body of POST /vouchers/:id/cancel
type CancelRequest struct {
	Reason string `json:"reason"`
}

// ScanRequest carries either raw QR content or an id and token pair
type ScanRequest struct {
	QRData string `json:"qr_data"`
	ID     string `json:"id"`
	Hash   string `json:"hash"`
}

// ScanResponse reports the outcome of a scan
type ScanResponse struct {
	Outcome  service.ScanOutcome `json:"outcome"`
	Status   workflow.State      `json:"status"`
	From     workflow.State      `json:"from,omitempty"`
	Voucher  *entity.Voucher     `json:"voucher"`
	Movement *entity.Movement    `json:"movement,omitempty"`
}

func (r ListVouchersRequest) filter() entity.VoucherFilter {
	return entity.VoucherFilter{Status: workflow.State(r.Status), Limit: r.Limit, Offset: r.Offset}
}

// ListVouchers handles GET /api/v1/vouchers
func (h *Handlers) ListVouchers(c *gin.Context) {
	var req ListVouchersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.writeError(c, fmt.Errorf("%w: parâmetros de consulta inválidos", service.ErrInvalidInput))
		return
	}

	vouchers, err := h.services.Vouchers.List(c.Request.Context(), principal(c), req.filter())
	if err != nil {
		h.writeError(c, err)
		return
	}
	if vouchers == nil {
		vouchers = []*entity.Voucher{}
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: vouchers})
}

// IssueVoucher handles POST /api/v1/vouchers
func (h *Handlers) IssueVoucher(c *gin.Context) {
	var in service.IssueInput
	if !h.bindJSON(c, &in) {
		return
	}

	issued, err := h.services.Vouchers.Issue(c.Request.Context(), principal(c), in)
	if err != nil {
		h.writeError(c, err)
		return
	}

	payload, err := issued.Payload.JSON()
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: IssuedVoucherResponse{
		Voucher:   issued.Voucher,
		QRPayload: payload,
		QRLegacy:  issued.Payload.Legacy(),
		VerifyURL: issued.Payload.URL,
		QRCodePNG: issued.QRCode,
	}})
}

// GetVoucher handles GET /api/v1/vouchers/:id
func (h *Handlers) GetVoucher(c *gin.Context) {
	v, err := h.services.Vouchers.Get(c.Request.Context(), principal(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: v})
}

// GetVoucherByNumber handles GET /api/v1/vouchers/lookup?numero_vale=
// The number travels in the query since typed numbers may contain slashes.
func (h *Handlers) GetVoucherByNumber(c *gin.Context) {
	v, err := h.services.Vouchers.GetByNumber(c.Request.Context(), principal(c), c.Query("numero_vale"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: v})
}

// UpdateVoucher handles PUT /api/v1/vouchers/:id
func (h *Handlers) UpdateVoucher(c *gin.Context) {
	var in service.UpdateInput
	if !h.bindJSON(c, &in) {
		return
	}

	v, err := h.services.Vouchers.Update(c.Request.Context(), principal(c), c.Param("id"), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: v})
}

// DeleteVoucher handles DELETE /api/v1/vouchers/:id
func (h *Handlers) DeleteVoucher(c *gin.Context) {
	if err := h.services.Vouchers.Delete(c.Request.Context(), principal(c), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// CancelVoucher handles POST /api/v1/vouchers/:id/cancel
func (h *Handlers) CancelVoucher(c *gin.Context) {
	var req CancelRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}

	v, err := h.services.Vouchers.Cancel(c.Request.Context(), principal(c), c.Param("id"), req.Reason)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: v})
}

// ListMovements handles GET /api/v1/vouchers/:id/movements
func (h *Handlers) ListMovements(c *gin.Context) {
	movements, err := h.services.Vouchers.Movements(c.Request.Context(), principal(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	if movements == nil {
		movements = []*entity.Movement{}
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: movements})
}

// ListMovementLog handles GET /api/v1/movements
func (h *Handlers) ListMovementLog(c *gin.Context) {
	var req ListMovementLogRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.writeError(c, fmt.Errorf("%w: parâmetros de consulta inválidos", service.ErrInvalidInput))
		return
	}

	movements, err := h.services.Vouchers.MovementLog(c.Request.Context(), principal(c), entity.MovementFilter{
		Kind:   entity.MovementKind(req.Kind),
		Limit:  req.Limit,
		Offset: req.Offset,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	if movements == nil {
		movements = []*entity.Movement{}
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: movements})
}

// RegisterMovement handles POST /api/v1/vouchers/:id/movements
func (h *Handlers) RegisterMovement(c *gin.Context) {
	var in service.RegisterInput
	if !h.bindJSON(c, &in) {
		return
	}

	m, err := h.services.Vouchers.RegisterMovement(c.Request.Context(), principal(c), c.Param("id"), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: m})
}

// VoucherQRCode handles GET /api/v1/vouchers/:id/qrcode
func (h *Handlers) VoucherQRCode(c *gin.Context) {
	png, err := h.services.Vouchers.QRCode(c.Request.Context(), principal(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// ExportVouchers handles GET /api/v1/vouchers/export
func (h *Handlers) ExportVouchers(c *gin.Context) {
	var req ListVouchersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.writeError(c, fmt.Errorf("%w: parâmetros de consulta inválidos", service.ErrInvalidInput))
		return
	}

	report, err := h.services.Reports.Export(c.Request.Context(), principal(c), req.filter())
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, report.Filename))
	c.Data(http.StatusOK, report.ContentType, report.Content)
}

// VerifyVoucher handles GET /api/v1/verify/:id?hash=
func (h *Handlers) VerifyVoucher(c *gin.Context) {
	result, err := h.services.Vouchers.Verify(c.Request.Context(), c.Param("id"), c.Query("hash"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// Scan handles POST /api/v1/scan
func (h *Handlers) Scan(c *gin.Context) {
	var req ScanRequest
	if !h.bindJSON(c, &req) {
		return
	}

	var (
		result *service.ScanResult
		err    error
	)
	switch {
	case req.QRData != "":
		result, err = h.services.Scans.Scan(c.Request.Context(), principal(c), req.QRData)
	case req.ID != "" && req.Hash != "":
		result, err = h.services.Scans.ScanToken(c.Request.Context(), principal(c), req.ID, req.Hash)
	default:
		err = fmt.Errorf("%w: informe qr_data ou id e hash", service.ErrInvalidInput)
	}
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := ScanResponse{
		Outcome:  result.Outcome,
		Status:   result.Voucher.Status,
		Voucher:  result.Voucher,
		Movement: result.Movement,
	}
	if result.Outcome == service.OutcomeTransitioned {
		resp.From = result.Transition.From
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: resp})
}
