package common

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details,omitempty"`
	} `json:"error"`
}

// CreateErrorResponse creates a standardized error response
func CreateErrorResponse(code string, message string, details map[string]string) *ErrorResponse {
	var resp ErrorResponse
	resp.Error.Code = code
	resp.Error.Message = message
	resp.Error.Details = details
	return &resp
}

// SendValidationError sends a validation error response
func SendValidationError(c echo.Context, field, message string) error {
	details := map[string]string{
		field: message,
	}
	return c.JSON(http.StatusBadRequest, CreateErrorResponse("VALIDATION_ERROR", "Validation failed", details))
}

// SendClientError sends a client error response
func SendClientError(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, CreateErrorResponse("CLIENT_ERROR", message, nil))
}

// SendServerError sends a server error response
func SendServerError(c echo.Context, message string) error {
	return c.JSON(http.StatusInternalServerError, CreateErrorResponse("SERVER_ERROR", message, nil))
}

// SendNotFoundError sends a not found error response
func SendNotFoundError(c echo.Context, resource string) error {
	return c.JSON(http.StatusNotFound, CreateErrorResponse("NOT_FOUND", fmt.Sprintf("%s not found", resource), nil))
}

// SendConflictError sends a conflict response for business rejections
// (out of stock, rolled-back invoices, exhausted retries).
func SendConflictError(c echo.Context, code, message string) error {
	return c.JSON(http.StatusConflict, CreateErrorResponse(code, message, nil))
}

// SendDomainError maps a core error to its HTTP response. Every failure
// kind the engine can return resolves here; unknown errors fall through as
// server errors.
func SendDomainError(c echo.Context, err error) error {
	var (
		outOfStock   *OutOfStockError
		insufficient *InsufficientStockError
		rolledBack   *RolledBackError
		persistence  *PersistenceError
	)
	switch {
	case errors.As(err, &persistence):
		// Stock is already decremented; the operator must reconcile by hand.
		return c.JSON(http.StatusInternalServerError,
			CreateErrorResponse("RECONCILIATION_REQUIRED", persistence.Error(), map[string]string{
				"invoice_number": persistence.InvoiceNumber,
			}))
	case errors.As(err, &rolledBack):
		return SendConflictError(c, "ROLLED_BACK", rolledBack.Error())
	case errors.As(err, &outOfStock):
		return SendConflictError(c, "OUT_OF_STOCK", outOfStock.Error())
	case errors.As(err, &insufficient):
		return SendConflictError(c, "INSUFFICIENT_STOCK", insufficient.Error())
	case errors.Is(err, ErrConflict):
		return SendConflictError(c, "CONFLICT", "concurrent update, please retry")
	case errors.Is(err, ErrNotFound):
		return SendNotFoundError(c, "product")
	case errors.Is(err, ErrInvalidInvoice), errors.Is(err, ErrInvalidQuantity):
		return SendClientError(c, err.Error())
	default:
		return SendServerError(c, err.Error())
	}
}

// ValidateRequiredString validates that a string field is non-empty after trimming
func ValidateRequiredString(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	return nil
}

// ValidatePositiveInteger validates positive integer values with upper bounds
func ValidatePositiveInteger(value int, fieldName string, maxValue int) error {
	if value <= 0 {
		return fmt.Errorf("%s must be positive", fieldName)
	}
	if value > maxValue {
		return fmt.Errorf("%s cannot exceed %d", fieldName, maxValue)
	}
	return nil
}

// ValidateNonNegativeFloat validates non-negative float values with upper bounds
func ValidateNonNegativeFloat(value float64, fieldName string, maxValue float64) error {
	if value < 0 {
		return fmt.Errorf("%s cannot be negative", fieldName)
	}
	if value > maxValue {
		return fmt.Errorf("%s cannot exceed %.2f", fieldName, maxValue)
	}
	return nil
}
