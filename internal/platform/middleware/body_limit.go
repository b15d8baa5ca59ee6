package middleware

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// BodyLimit rejects request bodies larger than limit with a 413, checking
// Content-Length up front and the bytes actually read. Limits are sizes such
// as "512K" or "1M"; a bare number is bytes.
func BodyLimit(limit string) echo.MiddlewareFunc {
	return echomw.BodyLimitWithConfig(echomw.BodyLimitConfig{
		Limit: formatLimit(parseLimit(limit)),
	})
}

const defaultLimit = 1 << 20

var units = []struct {
	suffix string
	size   int64
}{
	{"GB", 1 << 30}, {"G", 1 << 30},
	{"MB", 1 << 20}, {"M", 1 << 20},
	{"KB", 1 << 10}, {"K", 1 << 10},
	{"B", 1},
}

// parseLimit falls back to 1 MB when s is empty or malformed, so a bad
// BODY_LIMIT never takes the server down.
func parseLimit(s string) int64 {
	s = strings.ToUpper(strings.TrimSpace(s))
	size := int64(1)
	for _, u := range units {
		if strings.HasSuffix(s, u.suffix) {
			s, size = strings.TrimSuffix(s, u.suffix), u.size
			break
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return defaultLimit
	}
	return n * size
}

// formatLimit renders n in the largest whole unit echo understands.
func formatLimit(n int64) string {
	switch {
	case n%(1<<20) == 0:
		return fmt.Sprintf("%dM", n>>20)
	case n%(1<<10) == 0:
		return fmt.Sprintf("%dK", n>>10)
	}
	return fmt.Sprintf("%dB", n)
}
