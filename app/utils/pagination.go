package utils

import (
	"strings"

	"campus-management/app/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// Page is the requested window of a listing.
type Page struct {
	Page   int
	Limit  int
	Offset int
}

// ParsePage reads ?page and ?limit, clamping them to sane bounds.
func ParsePage(c *fiber.Ctx) Page {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := c.QueryInt("limit", DefaultPageSize)
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return Page{Page: page, Limit: limit, Offset: (page - 1) * limit}
}

func (p Page) Paginate(total int) *Pagination {
	pages := 0
	if total > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}
	return &Pagination{Page: p.Page, Limit: p.Limit, Total: total, Pages: pages}
}

// QueryDate parses an optional YYYY-MM-DD query parameter.
func QueryDate(c *fiber.Ctx, key string) (*models.Date, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		return nil, Invalid(key, key+" must be a date in YYYY-MM-DD format")
	}
	return &d, nil
}

// QueryID reads an optional id filter and rejects values that are not UUIDs.
func QueryID(c *fiber.Ctx, key string) (string, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return "", nil
	}
	if _, err := uuid.Parse(raw); err != nil {
		return "", Invalid(key, key+" must be a valid UUID")
	}
	return raw, nil
}

// QueryBool parses an optional true/false query parameter.
func QueryBool(c *fiber.Ctx, key string) *bool {
	switch strings.ToLower(c.Query(key)) {
	case "true", "1", "yes":
		v := true
		return &v
	case "false", "0", "no":
		v := false
		return &v
	}
	return nil
}

// OptionalString turns "" into nil.
func OptionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
