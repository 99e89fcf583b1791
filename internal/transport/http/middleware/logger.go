package middleware

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// AccessLog is gin's request logger with the access token masked in the
// logged query string. A nil out writes to gin.DefaultWriter.
func AccessLog(out io.Writer) gin.HandlerFunc {
	if out == nil {
		out = gin.DefaultWriter
	}
	return gin.LoggerWithConfig(gin.LoggerConfig{
		Output:    out,
		Formatter: accessLogLine,
	})
}

func accessLogLine(p gin.LogFormatterParams) string {
	if p.Latency > time.Minute {
		p.Latency = p.Latency.Truncate(time.Second)
	}
	return fmt.Sprintf("[GIN] %v | %3d | %13v | %15s | %-7s %#v\n%s",
		p.TimeStamp.Format("2006/01/02 - 15:04:05"),
		p.StatusCode,
		p.Latency,
		p.ClientIP,
		p.Method,
		redactToken(p.Path),
		p.ErrorMessage,
	)
}

func redactToken(path string) string {
	base, rawQuery, ok := strings.Cut(path, "?")
	if !ok || !strings.Contains(rawQuery, QueryTokenKey) {
		return path
	}
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return base
	}
	if query.Has(QueryTokenKey) {
		query.Set(QueryTokenKey, "REDACTED")
	}
	return base + "?" + query.Encode()
}
