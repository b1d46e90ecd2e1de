package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/valepallet/vpallet/internal/application/service"
	"github.com/valepallet/vpallet/internal/domain/credential"
)

const msgInternal = "Erro interno, tente novamente mais tarde"

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// Order matters: a malformed QR payload also wraps ErrInvalidInput.
var errorMappings = []errorMapping{
	{credential.ErrMalformedPayload, http.StatusBadRequest, "invalid_payload", "Conteúdo do QR code inválido"},
	{service.ErrNotFound, http.StatusNotFound, "not_found", "Registro não encontrado"},
	{service.ErrIntegrityViolation, http.StatusForbidden, "integrity_violation", "Código de segurança não confere"},
	{service.ErrExpired, http.StatusGone, "expired", "Vale vencido"},
	{service.ErrInvalidStateTransition, http.StatusConflict, "invalid_state_transition", "Operação não permitida no status atual do vale"},
	{service.ErrConcurrentModification, http.StatusConflict, "concurrent_modification", "O vale foi alterado por outra operação, tente novamente"},
	{service.ErrLedgerUnderflow, http.StatusUnprocessableEntity, "ledger_underflow", "Quantidade devolvida maior que o saldo"},
	{service.ErrDuplicateKey, http.StatusConflict, "duplicate_key", "Registro já existe"},
	{service.ErrInUse, http.StatusConflict, "in_use", "Registro em uso por algum vale"},
	{service.ErrNoTenant, http.StatusForbidden, "no_tenant", "Usuário sem empresa vinculada"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials", "Usuário ou senha inválidos"},
	{service.ErrInvalidInput, http.StatusBadRequest, "invalid_input", ""},
}

// writeError answers with the mapped status, or a detail-free 500 for anything unmapped
func (h *Handlers) writeError(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		msg := m.message
		if msg == "" {
			// ErrInvalidInput carries its own detail
			msg = err.Error()
		}
		requestLogger(c, h.logger).Info("Request rejected",
			zap.String("error_code", m.code),
			zap.Error(err))
		c.JSON(m.status, errorResponse(m.code, msg))
		return
	}

	requestLogger(c, h.logger).Error("Request failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, errorResponse("internal_error", msgInternal))
}

func errorResponse(code, message string) Response {
	return Response{Success: false, Error: code, Message: message}
}
