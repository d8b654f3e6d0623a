package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/backoffice-api/internal/application/sales"
	"github.com/jhoicas/backoffice-api/pkg/logger"
)

// ReceiptHandler descarga el recibo PDF de una venta.
type ReceiptHandler struct {
	uc  *sales.ReceiptUseCase
	log *logger.Logger
}

// NewReceiptHandler construye el handler.
func NewReceiptHandler(uc *sales.ReceiptUseCase, log *logger.Logger) *ReceiptHandler {
	return &ReceiptHandler{uc: uc, log: log}
}

// Download godoc
// @Summary      Descargar recibo de venta en PDF
// @Tags         sales
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la venta"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/receipt [get]
func (h *ReceiptHandler) Download(c *fiber.Ctx) error {
	pdfBytes, filename, err := h.uc.Download(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, "sales", err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(pdfBytes)
}
