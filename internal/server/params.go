package server

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/klaud-0x/klaud-api/internal/apierr"
)

// intParam coerces an optional integer query parameter: missing or
// unparseable falls back to def, and the value is capped at max.
func intParam(c *gin.Context, name string, def, max int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

// requireParam returns the named query parameter, or a BadRequest error
// carrying a working example.
func requireParam(c *gin.Context, name, example string) (string, error) {
	v := c.Query(name)
	if v == "" {
		return "", apierr.BadRequestf(example, "Missing ?%s= parameter", name)
	}
	return v, nil
}

// enumParam returns the parameter when it is one of allowed, else def.
func enumParam(c *gin.Context, name, def string, allowed ...string) string {
	v := c.Query(name)
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	return def
}
