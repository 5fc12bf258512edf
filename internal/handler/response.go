package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"flowfix/internal/service"
)

const (
	msgInternal      = "Erro interno do servidor."
	msgInvalidAction = "Ação inválida."
	msgResetSent     = "Se o email estiver cadastrado, enviaremos um link para redefinir a senha."
	msgResetDone     = "Senha redefinida com sucesso."
)

// MessageResponse is the envelope of every response without payload.
type MessageResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
}

func respondOK(c *gin.Context, message string) {
	c.JSON(http.StatusOK, MessageResponse{Status: true, Message: message})
}

func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, service.ErrDelivery):
		status = http.StatusBadGateway
	}

	message := msgInternal
	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		message = svcErr.Message
	}
	c.JSON(status, MessageResponse{Status: false, Message: message})
}

// respondBindError reports the first failing field of a request body.
func respondBindError(c *gin.Context, err error) {
	message := "Requisição inválida."
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		message = fieldMessage(verrs[0])
	}
	c.JSON(http.StatusBadRequest, MessageResponse{Status: false, Message: message})
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("O campo %s é obrigatório.", fe.Field())
	case "stage":
		return "Etapa inválida. Use todo, in-progress ou completed."
	case "priority":
		return "Prioridade inválida. Use low, normal, medium ou high."
	case "email":
		return "Email inválido."
	case "min":
		return fmt.Sprintf("O campo %s deve ter pelo menos %s caracteres.", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("O campo %s é inválido.", fe.Field())
	}
}

// paramID reads a uuid path parameter, answering 400 when it is malformed.
func paramID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, MessageResponse{Status: false, Message: "Identificador inválido."})
		return uuid.Nil, false
	}
	return id, true
}

func parseIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
