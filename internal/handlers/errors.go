package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/barber-manager/internal/billing"
	"github.com/BruksfildServices01/barber-manager/internal/bizid"
	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/imaging"
	"github.com/BruksfildServices01/barber-manager/internal/lock"
	"github.com/BruksfildServices01/barber-manager/internal/notify"
	"github.com/BruksfildServices01/barber-manager/internal/storage"
	"github.com/BruksfildServices01/barber-manager/internal/validators"
)

type businessReply struct {
	status  int
	message string
}

var businessReplies = map[string]businessReply{
	"barbershop_not_found":  {http.StatusNotFound, "Barbearia não encontrada."},
	"barber_not_found":      {http.StatusNotFound, "Barbeiro não encontrado."},
	"employee_not_found":    {http.StatusNotFound, "Funcionário não encontrado."},
	"item_not_found":        {http.StatusNotFound, "Item não encontrado."},
	"subscriber_not_found":  {http.StatusNotFound, "Assinante não encontrado."},
	"payroll_not_found":     {http.StatusNotFound, "Folha de pagamento não encontrada."},
	"appointment_not_found": {http.StatusNotFound, "Agendamento não encontrado."},

	"time_conflict":      {http.StatusConflict, "Conflito de horário."},
	"invalid_state":      {http.StatusConflict, "Operação não permitida no status atual."},
	"already_paid":       {http.StatusConflict, "Pagamento já realizado."},
	"insufficient_stock": {http.StatusConflict, "Estoque insuficiente."},

	"invalid_date_or_time": {http.StatusBadRequest, "Data ou hora inválida."},
	"invalid_duration":     {http.StatusBadRequest, "Duração inválida."},
	"too_soon":             {http.StatusBadRequest, "Horário inválido."},
	"invalid_status":       {http.StatusBadRequest, "Status inválido."},
	"invalid_period":       {http.StatusBadRequest, "Período inválido."},
	"negative_net_pay":     {http.StatusBadRequest, "O valor líquido não pode ser negativo."},
	"invalid_delta":        {http.StatusBadRequest, "Quantidade deve ser diferente de zero."},
}

// respondError maps errors coming from use cases and repositories onto
// the error envelope. Anything unknown is logged and reported as fallback.
func respondError(c *gin.Context, err error, fallbackCode, fallbackMsg string) {
	var verrs validators.Errors
	if errors.As(err, &verrs) {
		httperr.Validation(c, verrs)
		return
	}

	if code, ok := httperr.BusinessCode(err); ok {
		if r, known := businessReplies[code]; known {
			httperr.Write(c, r.status, code, r.message)
			return
		}
		httperr.BadRequest(c, code, "Operação inválida.")
		return
	}

	switch {
	case httperr.IsExclusionConflict(err):
		httperr.Conflict(c, "time_conflict", "Conflito de horário.")
	case httperr.IsUniqueViolation(err):
		httperr.Conflict(c, "already_exists", "Registro já cadastrado.")
	case errors.Is(err, bizid.ErrExhausted):
		httperr.Conflict(c, "id_allocation_failed", "Não foi possível gerar o código. Tente novamente.")
	case errors.Is(err, lock.ErrTimeout):
		httperr.Unavailable(c, "busy", "Servidor ocupado. Tente novamente.")
	case errors.Is(err, imaging.ErrUnsupported):
		httperr.BadRequest(c, "unsupported_image", "Formato de imagem não suportado.")
	case errors.Is(err, imaging.ErrTooLarge):
		httperr.Write(c, http.StatusRequestEntityTooLarge, "image_too_large", "Imagem muito grande.")
	case errors.Is(err, notify.ErrInvalidMessage):
		httperr.BadRequest(c, "invalid_notification", "Token, título e mensagem são obrigatórios.")
	case errors.Is(err, notify.ErrDisabled):
		httperr.Unavailable(c, "notifications_disabled", "Notificações não configuradas.")
	case errors.Is(err, storage.ErrNotConfigured):
		httperr.Unavailable(c, "storage_disabled", "Armazenamento não configurado.")
	case errors.Is(err, billing.ErrDisabled):
		httperr.Unavailable(c, "billing_disabled", "Cobrança recorrente não configurada.")
	default:
		log.Printf("%s: %v", fallbackCode, err)
		httperr.Internal(c, fallbackCode, fallbackMsg)
	}
}
