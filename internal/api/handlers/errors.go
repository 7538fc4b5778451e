package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/gutterguard/inventory/internal/domain"
	"github.com/gutterguard/inventory/internal/orders"
)

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrInsufficientMaterial),
		errors.Is(err, domain.ErrInvalidStatus):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidCut),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrUnknownCategory):
		return http.StatusBadRequest
	case errors.Is(err, orders.ErrNoSource):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error, message string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg(message)
	}
	c.JSON(status, gin.H{"error": message, "details": err.Error()})
}

func badRequest(c *gin.Context, message string, err error) {
	body := gin.H{"error": message}
	if err != nil {
		body["details"] = err.Error()
	}
	c.JSON(http.StatusBadRequest, body)
}

// queryInt reads a positive integer parameter, falling back to def.
func queryInt(c *gin.Context, name string, def int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(c.Query(name))); err == nil && v > 0 {
		return v
	}
	return def
}

func queryBool(c *gin.Context, name string) bool {
	v, _ := strconv.ParseBool(strings.TrimSpace(c.Query(name)))
	return v
}

func queryFloat(c *gin.Context, name string) float64 {
	v, _ := strconv.ParseFloat(strings.TrimSpace(c.Query(name)), 64)
	return v
}
