// Package validation provides input validation middleware for the aid ledger API.
package validation

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
)

// MaxRequestSize is the maximum request body size (1MB)
const MaxRequestSize = 1 << 20 // 1MB

var (
	// accountRegex validates account identifiers: lowercase alphanumeric
	// with hyphens and underscores, 3-64 chars.
	accountRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{2,63}$`)
	// categoryRegex validates spending category names
	categoryRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{1,63}$`)
)

// RequestSizeMiddleware limits request body size
func RequestSizeMiddleware(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}

// IsValidAddress checks if a string is a valid account identifier
func IsValidAddress(addr string) bool {
	return accountRegex.MatchString(addr)
}

// IsValidCategory checks if a string is a valid spending category name
func IsValidCategory(cat string) bool {
	return categoryRegex.MatchString(cat)
}

// SanitizeAddress normalizes an account identifier
func SanitizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	return e[0].Field + ": " + e[0].Message
}

// Validate validates a request and returns errors
func Validate(validators ...func() *ValidationError) ValidationErrors {
	var errors ValidationErrors
	for _, v := range validators {
		if err := v(); err != nil {
			errors = append(errors, *err)
		}
	}
	return errors
}

// Required checks if a field is non-empty
func Required(field, value string) func() *ValidationError {
	return func() *ValidationError {
		if strings.TrimSpace(value) == "" {
			return &ValidationError{Field: field, Message: "is required"}
		}
		return nil
	}
}

// ValidAddress checks if a field is a valid account identifier
func ValidAddress(field, value string) func() *ValidationError {
	return func() *ValidationError {
		if value == "" {
			return nil // Use Required for required fields
		}
		if !IsValidAddress(SanitizeAddress(value)) {
			return &ValidationError{Field: field, Message: "must be a valid account identifier"}
		}
		return nil
	}
}

// ValidCategory checks if a field is a valid spending category name
func ValidCategory(field, value string) func() *ValidationError {
	return func() *ValidationError {
		if value == "" {
			return nil
		}
		if !IsValidCategory(SanitizeAddress(value)) {
			return &ValidationError{Field: field, Message: "must be a valid category name"}
		}
		return nil
	}
}

// AddressParamMiddleware validates the named URL parameter as an account
// identifier on routes that use it, rejecting malformed values early.
func AddressParamMiddleware(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		addr := c.Param(param)
		if addr != "" && !IsValidAddress(SanitizeAddress(addr)) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_address",
				"message": param + " must be a valid account identifier",
			})
			return
		}
		c.Next()
	}
}

// ValidAmount checks if a value is a valid token amount (must be positive)
func ValidAmount(field, value string) func() *ValidationError {
	return func() *ValidationError {
		if value == "" {
			return nil
		}
		// Should be a positive decimal number with at most one decimal point
		decimalCount := 0
		hasNonZero := false
		for i, c := range value {
			if c == '.' {
				decimalCount++
				if decimalCount > 1 {
					return &ValidationError{Field: field, Message: "invalid amount format"}
				}
				if i == 0 || i == len(value)-1 {
					return &ValidationError{Field: field, Message: "invalid amount format"}
				}
				continue
			}
			if c < '0' || c > '9' {
				return &ValidationError{Field: field, Message: "invalid amount format"}
			}
			if c != '0' {
				hasNonZero = true
			}
		}
		if !hasNonZero {
			return &ValidationError{Field: field, Message: "amount must be greater than zero"}
		}
		return nil
	}
}
