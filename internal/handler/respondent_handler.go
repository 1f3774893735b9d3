package handler

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/respondent-registry-api/internal/browser"
	"github.com/noah-isme/respondent-registry-api/internal/dto"
	"github.com/noah-isme/respondent-registry-api/internal/export"
	"github.com/noah-isme/respondent-registry-api/internal/observability"
	"github.com/noah-isme/respondent-registry-api/internal/service"
	"github.com/noah-isme/respondent-registry-api/internal/utils"
)

// RespondentHandler exposes respondent CRUD, listing and export.
type RespondentHandler struct {
	service service.RespondentService
	logger  zerolog.Logger
	now     func() time.Time
}

// NewRespondentHandler constructs a respondent handler.
func NewRespondentHandler(service service.RespondentService, logger zerolog.Logger) *RespondentHandler {
	return &RespondentHandler{
		service: service,
		logger:  logger.With().Str("component", "respondent_handler").Logger(),
		now:     time.Now,
	}
}

// Register wires respondent routes. writeGuards run before every mutating route.
func (h *RespondentHandler) Register(router fiber.Router, writeGuards ...fiber.Handler) {
	router.Get("", h.list)
	router.Get("/export", h.export)
	router.Get("/:id", h.get)
	router.Post("", guarded(writeGuards, h.create)...)
	router.Put("/:id", guarded(writeGuards, h.update)...)
	router.Delete("/:id", guarded(writeGuards, h.delete)...)
}

func guarded(guards []fiber.Handler, handler fiber.Handler) []fiber.Handler {
	chain := make([]fiber.Handler, 0, len(guards)+1)
	chain = append(chain, guards...)
	return append(chain, handler)
}

func (h *RespondentHandler) list(c *fiber.Ctx) error {
	rows, query, failure := h.view(c)
	if failure != nil {
		return utils.SendError(c, failure.Code, failure.Message)
	}

	return utils.SendSuccess(c, "respondents retrieved", dto.RespondentListResponse{
		Items: rows,
		Total: len(rows),
		Sort:  string(query.Sort),
		Order: string(query.Direction),
	})
}

func (h *RespondentHandler) export(c *fiber.Ctx) error {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	rows, _, failure := h.view(c)
	if failure != nil {
		return utils.SendError(c, failure.Code, failure.Message)
	}

	data, err := export.Render(format, browser.ExportTable(rows, h.service.Variant()))
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Str("format", string(format)).Msg("failed to render export")
		return utils.SendError(c, fiber.StatusInternalServerError, service.MessageUnexpected)
	}

	observability.RespondentExports().WithLabelValues(string(format)).Inc()
	c.Attachment(export.Filename(format, h.now()))
	c.Set(fiber.HeaderContentType, format.ContentType())
	return c.Send(data)
}

// view loads the record set and applies the request's filter and sort.
func (h *RespondentHandler) view(c *fiber.Ctx) ([]dto.RespondentResponse, browser.Query, *fiber.Error) {
	request := dto.RespondentListRequest{
		Search: c.Query("search"),
		Sort:   c.Query("sort"),
		Order:  c.Query("order"),
	}

	query, err := browser.ParseQuery(request, h.service.Variant())
	if err != nil {
		return nil, browser.Query{}, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	records, err := h.service.List(requestContext(c))
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list respondents")
		return nil, browser.Query{}, fiber.NewError(fiber.StatusServiceUnavailable, "respondents are temporarily unavailable")
	}

	return browser.Apply(records, query), query, nil
}

func (h *RespondentHandler) get(c *fiber.Ctx) error {
	record, err := h.service.Get(requestContext(c), strings.TrimSpace(c.Params("id")))
	if err != nil {
		if errors.Is(err, service.ErrRespondentNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, service.MessageNotFound)
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to load respondent")
		return utils.SendError(c, fiber.StatusInternalServerError, service.MessageUnexpected)
	}

	return utils.SendSuccess(c, "respondent retrieved", record)
}

func (h *RespondentHandler) create(c *fiber.Ctx) error {
	var payload dto.RespondentInput
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	record, err := h.service.Create(requestContext(c), payload)
	if err != nil {
		return sendWriteError(c, h.logger, service.OperationCreate, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, service.MessageCreated, record)
}

func (h *RespondentHandler) update(c *fiber.Ctx) error {
	var payload dto.RespondentInput
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	record, err := h.service.Update(requestContext(c), strings.TrimSpace(c.Params("id")), payload)
	if err != nil {
		return sendWriteError(c, h.logger, service.OperationUpdate, err)
	}

	return utils.SendSuccess(c, service.MessageUpdated, record)
}

func (h *RespondentHandler) delete(c *fiber.Ctx) error {
	if err := h.service.Delete(requestContext(c), strings.TrimSpace(c.Params("id"))); err != nil {
		return sendWriteError(c, h.logger, service.OperationDelete, err)
	}

	return utils.SendSuccess(c, service.MessageDeleted, nil)
}
