package http

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/chtimi59/getmaptiles/internal/core/domain"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// SetPage is one page of set summaries.
type SetPage struct {
	Data       []domain.SetSummary `json:"data"`
	Pagination Pagination          `json:"pagination"`
}

// Pagination contains offset-based pagination info.
type Pagination struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
	Total  int `json:"total"`
}

// pageParams reads offset and limit, falling back to the first page of
// defaultPageSize when either is out of range.
func pageParams(c *fiber.Ctx) (offset, limit int) {
	offset = c.QueryInt("offset", 0)
	limit = c.QueryInt("limit", defaultPageSize)
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}
	return offset, limit
}

// pageLink formats one RFC 8288 link on the current path.
func pageLink(base, rel string, offset, limit int) string {
	return fmt.Sprintf(`<%s?offset=%d&limit=%d>; rel="%s"`, base, offset, limit, rel)
}

// SetLinkHeaders adds first, prev, next and last links for p.
func SetLinkHeaders(c *fiber.Ctx, p Pagination) {
	base := c.Path()
	links := []string{pageLink(base, "first", 0, p.Limit)}

	if p.Offset > 0 {
		links = append(links, pageLink(base, "prev", max(p.Offset-p.Limit, 0), p.Limit))
	}
	if p.Offset+p.Limit < p.Total {
		links = append(links, pageLink(base, "next", p.Offset+p.Limit, p.Limit))
	}
	links = append(links, pageLink(base, "last", max(p.Total-p.Limit, 0), p.Limit))

	c.Set(fiber.HeaderLink, strings.Join(links, ", "))
}
