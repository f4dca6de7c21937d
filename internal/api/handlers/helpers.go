package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/tablesim/internal/game"
)

// statusForError maps domain errors to HTTP status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, game.ErrTableNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrShotInProgress):
		return http.StatusConflict
	case errors.Is(err, game.ErrBallNotFound),
		errors.Is(err, game.ErrBallPocketed),
		errors.Is(err, game.ErrZeroShot),
		errors.Is(err, game.ErrInvalidDimensions),
		errors.Is(err, game.ErrNegativeDecay):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusForError(err), gin.H{"error": err.Error()})
}

// queryFloat parses a float query param, returning def when absent
func queryFloat(c *gin.Context, key string, def float64) (float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	return strconv.ParseFloat(raw, 64)
}

// queryInt parses an int query param clamped to [1, max]
func queryInt(c *gin.Context, key string, def, max int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v < 1 {
		return def
	}
	if v > max {
		return max
	}
	return v
}
