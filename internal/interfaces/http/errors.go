package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/backoffice-api/internal/application/dto"
	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/pkg/logger"
)

// writeError traduce errores de dominio al sobre JSON. Los inesperados se registran y
// responden 500 con un mensaje genérico.
func writeError(c *fiber.Ctx, log *logger.Logger, resource string, err error) error {
	var verr *domain.ValidationError
	var conflict *domain.ConflictError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
			Code:    "VALIDATION",
			Message: "Los datos proporcionados no son válidos.",
			Errors:  verr.Fields,
		})
	case errors.Is(err, domain.ErrMalformed):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Message: "Registro no encontrado"})
	case errors.As(err, &conflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code:    "CONFLICT",
			Message: "No se puede eliminar: existen registros asociados en " + conflict.Dependent,
		})
	default:
		log.Error().Err(err).
			Str("resource", resource).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Msg("error inesperado")
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "Error interno del servidor"})
	}
}

// ErrorHandler para fiber.Config: rutas inexistentes, 405 y panics recuperados.
func ErrorHandler(log *logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(dto.ErrorResponse{Message: fe.Message})
		}
		return writeError(c, log, "", err)
	}
}
