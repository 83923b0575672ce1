package classifierHandler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"

	"LedgerBot/internal/api/classifier"
	"LedgerBot/internal/entity"
	contextPkg "LedgerBot/pkg/context"
	"LedgerBot/pkg/handlerUtil"
	"LedgerBot/pkg/log"
)

// HandleMessage runs the full inbound pipeline for webhook transports: the
// response carries the routed decision plus the reply text the transport
// should deliver to the user.
func (h *ClassifierHandler) HandleMessage(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 30*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing inbound message")

	var req classifier.ClassifyRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "parse_request_body")
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	msg := entity.InboundMessage{
		MessageID: req.MessageID,
		Text:      req.Text,
		UserID:    req.UserID,
		ChatID:    req.ChatID,
		IsGroup:   req.IsGroup,
		Timestamp: time.Now(),
	}

	reply, err := h.classifierService.HandleInbound(c, msg)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "handle_inbound")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, fiber.Map{
			"reply": reply,
		})
	}
}

// Classify exposes the routed decision without dialog side effects: no
// pending session is created and nothing is committed. Useful for tuning
// the keyword index and thresholds against live phrasings.
func (h *ClassifierHandler) Classify(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 30*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var req classifier.ClassifyRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "parse_request_body")
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	decision, signals := h.classifierService.ClassifyText(c, req.Text, req.UserID)

	response := classifier.ClassifyResponse{
		Action:     string(decision.Action),
		Scope:      string(decision.Scope),
		Confidence: decision.Confidence,
		Prompt:     decision.Prompt,
		Signals:    &signals,
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, response)
	}
}

// HandleReceipt accepts a receipt photo either as a multipart "image" file
// or as a JSON body with a base64 payload, then runs it through the same
// pipeline as a photo received over chat. Receipts always stop at a
// confirmation, never an automatic commit.
func (h *ClassifierHandler) HandleReceipt(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 60*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing receipt upload")

	var msg entity.InboundMessage

	file, err := ctx.FormFile("image")
	if err == nil {
		h.log.WithFields(log.Fields{
			"request_id": requestID,
			"path":       ctx.Path(),
			"file_name":  file.Filename,
			"file_size":  file.Size,
		}).Debug("Processing file upload")

		if err := h.utils.ValidateImageFile(file); err != nil {
			return errHandler.Handle(ctx, requestID, err, ctx.Path(), "validate_image_file")
		}

		fileContent, err := file.Open()
		if err != nil {
			return errHandler.Handle(ctx, requestID, err, ctx.Path(), "open_file")
		}
		defer fileContent.Close()

		base64Image, err := h.utils.ConvertFileToBase64(fileContent)
		if err != nil {
			return errHandler.Handle(ctx, requestID, err, ctx.Path(), "convert_to_base64")
		}

		msg = entity.InboundMessage{
			MessageID:   ctx.FormValue("message_id"),
			UserID:      ctx.FormValue("user_id"),
			ChatID:      ctx.FormValue("chat_id"),
			ImageBase64: base64Image,
		}
		if msg.UserID == "" {
			return errHandler.Handle(ctx, requestID, classifier.ErrMissingUser, ctx.Path(), "validate_form_fields")
		}
	} else {
		h.log.WithFields(log.Fields{
			"request_id": requestID,
			"path":       ctx.Path(),
		}).Debug("Processing JSON request")

		var req classifier.ReceiptRequest
		if err := ctx.BodyParser(&req); err != nil {
			return errHandler.Handle(ctx, requestID, err, ctx.Path(), "parse_request_body")
		}

		if err := h.validator.Struct(req); err != nil {
			return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
		}

		msg = entity.InboundMessage{
			MessageID:   req.MessageID,
			UserID:      req.UserID,
			ChatID:      req.ChatID,
			ImageBase64: req.ImageBase64,
		}
	}

	msg.Timestamp = time.Now()

	reply, err := h.classifierService.HandleInbound(c, msg)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "handle_receipt")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, fiber.Map{
			"reply": reply,
		})
	}
}

func (h *ClassifierHandler) GetPatterns(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	patterns, err := h.classifierService.ListPatterns(c)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "list_patterns")
	}

	response := make([]classifier.PatternResponse, 0, len(patterns))
	for _, pattern := range patterns {
		response = append(response, classifier.PatternResponse{
			Template:          pattern.Template,
			Scope:             string(pattern.Scope),
			ConfirmationCount: pattern.ConfirmationCount,
			Examples:          pattern.Examples,
			LastUpdated:       pattern.LastUpdated.Format(time.RFC3339),
		})
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, fiber.Map{
			"patterns": response,
		})
	}
}

func (h *ClassifierHandler) PurgePatterns(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Warn("Purging all learned patterns")

	if err := h.classifierService.PurgePatterns(c); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "purge_patterns")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, fiber.Map{
			"message": "Learned patterns purged",
		})
	}
}

func (h *ClassifierHandler) GetStats(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	stats, err := h.classifierService.GetStats(c)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_stats")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, stats)
	}
}
