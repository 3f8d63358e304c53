package ginserver

import (
	"strconv"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"

	"rentdesk/internal/app/dto"
	"rentdesk/internal/domain/shared/apperr"
)

const idempotencyHeader = "Idempotency-Key"

func idempotencyKey(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader(idempotencyHeader))
}

// pageParams reads limit and offset; absent or malformed values are left at zero so
// handlers apply their defaults.
func pageParams(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.Query("limit"))
	offset, _ = strconv.Atoi(c.Query("offset"))
	return limit, offset
}

func parseDate(field, raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, apperr.New(apperr.ErrValidation, field+" is required")
	}
	t, err := time.Parse(dto.DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, apperr.New(apperr.ErrValidation, field+" must use YYYY-MM-DD")
	}
	return t, nil
}

func optionalBool(raw string) *bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes":
		v := true
		return &v
	case "false", "0", "no":
		v := false
		return &v
	}
	return nil
}

// splitList accepts repeated parameters as well as comma separated values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
