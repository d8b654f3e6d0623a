package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/backoffice-api/internal/application/dto"
	"github.com/jhoicas/backoffice-api/internal/application/resource"
	"github.com/jhoicas/backoffice-api/pkg/logger"
)

// ResourceHandler maneja el CRUD de cualquier recurso registrado. Una instancia por recurso.
type ResourceHandler struct {
	ep  resource.Endpoint
	log *logger.Logger
}

// NewResourceHandler construye el handler.
func NewResourceHandler(ep resource.Endpoint, log *logger.Logger) *ResourceHandler {
	return &ResourceHandler{ep: ep, log: log}
}

// List godoc
// @Summary      Listar registros (paginado, búsqueda y filtros)
// @Tags         resources
// @Security     Bearer
// @Produce      json
// @Param        resource  path   string  true   "Nombre del recurso (customers, tax-rates, ...)"
// @Param        keyword   query  string  false  "Búsqueda parcial, insensible a mayúsculas"
// @Param        limit     query  int     false  "Tamaño de página; vacío o 0 devuelve todo"
// @Param        page      query  int     false  "Página (desde 1)"
// @Success      200  {object}  dto.ListResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/{resource} [get]
func (h *ResourceHandler) List(c *fiber.Ctx) error {
	params := resource.ParseListParams(c.Query("keyword"), c.Query("limit"), c.Query("page"), c.Queries())
	page, err := h.ep.List(c.UserContext(), params)
	if err != nil {
		return writeError(c, h.log, h.ep.Name(), err)
	}
	return c.JSON(dto.ListResponse{
		Message:    "Listado de " + h.ep.Label() + " obtenido correctamente",
		Pagination: *page,
	})
}

// Show godoc
// @Summary      Obtener registro por ID (con relaciones)
// @Tags         resources
// @Security     Bearer
// @Produce      json
// @Param        resource  path  string  true  "Nombre del recurso"
// @Param        id        path  string  true  "ID del registro"
// @Success      200  {object}  dto.ItemResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/{resource}/{id} [get]
func (h *ResourceHandler) Show(c *fiber.Ctx) error {
	item, err := h.ep.Show(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, h.ep.Name(), err)
	}
	return c.JSON(dto.ItemResponse{Success: true, Message: "Registro obtenido correctamente", Data: item})
}

// Create godoc
// @Summary      Crear registro
// @Tags         resources
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        resource  path  string  true  "Nombre del recurso"
// @Param        body      body  object  true  "Campos del registro"
// @Success      201  {object}  dto.ItemResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/{resource} [post]
func (h *ResourceHandler) Create(c *fiber.Ctx) error {
	item, err := h.ep.Create(c.UserContext(), c.Body())
	if err != nil {
		return writeError(c, h.log, h.ep.Name(), err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ItemResponse{Success: true, Message: "Registro creado correctamente", Data: item})
}

// Update godoc
// @Summary      Actualizar registro (solo las claves enviadas)
// @Tags         resources
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        resource  path  string  true  "Nombre del recurso"
// @Param        id        path  string  true  "ID del registro"
// @Param        body      body  object  true  "Campos a modificar"
// @Success      200  {object}  dto.ItemResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/{resource}/{id} [put]
func (h *ResourceHandler) Update(c *fiber.Ctx) error {
	item, err := h.ep.Update(c.UserContext(), c.Params("id"), c.Body())
	if err != nil {
		return writeError(c, h.log, h.ep.Name(), err)
	}
	return c.JSON(dto.ItemResponse{Success: true, Message: "Registro actualizado correctamente", Data: item})
}

// Delete godoc
// @Summary      Eliminar registro
// @Tags         resources
// @Security     Bearer
// @Produce      json
// @Param        resource  path  string  true  "Nombre del recurso"
// @Param        id        path  string  true  "ID del registro"
// @Success      200  {object}  dto.ItemResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/{resource}/{id} [delete]
func (h *ResourceHandler) Delete(c *fiber.Ctx) error {
	if err := h.ep.Delete(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, h.log, h.ep.Name(), err)
	}
	return c.JSON(dto.ItemResponse{Success: true, Message: "Registro eliminado correctamente"})
}
