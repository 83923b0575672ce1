package handlerUtil

import (
	"LedgerBot/internal/api/classifier"
	"LedgerBot/internal/api/ledger"
	"LedgerBot/pkg/log"
	"LedgerBot/pkg/response"
	"errors"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/sirupsen/logrus"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

type ErrorHandler struct {
	logger *logrus.Logger
}

func New(logger *logrus.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger: logger,
	}
}

func (h *ErrorHandler) Handle(c *fiber.Ctx, requestID string, err error, path string, operation string) error {
	// Ledger domain errors
	if errors.Is(err, ledger.ErrMissingWallet) {
		h.logger.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"path":       path,
			"operation":  operation,
		}).Warn("No wallet configured for scope")
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "No wallet configured for this scope",
			"code":  "MISSING_WALLET",
		})
	}

	if errors.Is(err, ledger.ErrMissingProject) {
		h.logger.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"path":       path,
			"operation":  operation,
		}).Warn("Project transaction without project name")
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "Project transactions require a project name",
			"code":  "MISSING_PROJECT",
		})
	}

	if errors.Is(err, ledger.ErrInvalidScope) {
		h.logger.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"path":       path,
			"operation":  operation,
		}).Warn("Invalid accounting scope")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid accounting scope",
			"code":  "INVALID_SCOPE",
		})
	}

	if errors.Is(err, ledger.ErrInvalidAmount) {
		h.logger.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"path":       path,
			"operation":  operation,
		}).Warn("Invalid transaction amount")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid transaction amount",
			"code":  "INVALID_AMOUNT",
		})
	}

	if errors.Is(err, ledger.ErrTransactionNotFound) {
		h.logger.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"path":       path,
			"operation":  operation,
		}).Warn("Transaction not found")
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Transaction not found",
			"code":  "TRANSACTION_NOT_FOUND",
		})
	}

	if errors.Is(err, ledger.ErrCreateTransaction) {
		h.logger.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"path":       path,
			"operation":  operation,
		}).Error("Failed to record transaction")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to record transaction",
			"code":  "CREATE_TRANSACTION_FAILED",
		})
	}

	// Classifier domain errors
	if errors.Is(err, classifier.ErrEmptyMessage) {
		h.logger.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"path":       path,
			"operation":  operation,
		}).Warn("Empty message")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Message carries no text or image",
			"code":  "EMPTY_MESSAGE",
		})
	}

	if errors.Is(err, classifier.ErrReceiptUnreadable) {
		h.logger.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"path":       path,
			"operation":  operation,
		}).Warn("Receipt image unreadable")
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "Could not read receipt image",
			"code":  "RECEIPT_UNREADABLE",
		})
	}

	if errors.Is(err, classifier.ErrSessionNotFound) {
		h.logger.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"path":       path,
			"operation":  operation,
		}).Warn("No pending session")
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No pending session",
			"code":  "SESSION_NOT_FOUND",
		})
	}

	if errors.Is(err, classifier.ErrPatternNotFound) {
		h.logger.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"path":       path,
			"operation":  operation,
		}).Warn("Pattern not found")
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No learned pattern for template",
			"code":  "PATTERN_NOT_FOUND",
		})
	}

	if errors.Is(err, classifier.ErrStorePattern) || errors.Is(err, classifier.ErrStoreSession) {
		h.logger.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"path":       path,
			"operation":  operation,
		}).Error("Classifier storage failure")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Storage failure",
			"code":  "STORAGE_FAILURE",
		})
	}

	var respErr *response.Error
	if errors.As(err, &respErr) {
		h.logger.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"code":       respErr.Code,
			"path":       path,
			"operation":  operation,
		}).Warn("Operation failed with error response")
		return c.Status(respErr.Code).JSON(fiber.Map{"error": err.Error()})
	}

	h.logger.WithFields(log.Fields{
		"request_id": requestID,
		"error":      err.Error(),
		"path":       path,
		"operation":  operation,
	}).Error("Unexpected error")

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "An unexpected error occurred",
	})
}

func (h *ErrorHandler) HandleValidationError(c *fiber.Ctx, requestID string, err error, path string) error {
	h.logger.WithFields(log.Fields{
		"request_id": requestID,
		"error":      err.Error(),
		"path":       path,
	}).Warn("Validation failed")

	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "Validation failed: " + err.Error(),
		"code":  "VALIDATION_ERROR",
	})
}

func (h *ErrorHandler) HandleRequestTimeout(c *fiber.Ctx) error {
	return c.Status(fiber.StatusRequestTimeout).JSON(utils.StatusMessage(fiber.StatusRequestTimeout))
}

func (h *ErrorHandler) HandleSuccess(c *fiber.Ctx, statusCode int, data interface{}) error {
	if data == nil {
		return c.SendStatus(statusCode)
	}
	return c.Status(statusCode).JSON(data)
}
