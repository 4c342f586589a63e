package http

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultPageLimit = 100
	maxPageLimit     = 500
)

// Pagination contains offset-based pagination info.
type Pagination struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
	Total  int `json:"total"`
}

// pageParams reads offset/limit. ok is false when neither is present, in
// which case the full collection is returned.
func pageParams(c *fiber.Ctx) (p Pagination, ok bool) {
	if c.Query("offset") == "" && c.Query("limit") == "" {
		return Pagination{}, false
	}
	p.Offset = c.QueryInt("offset", 0)
	p.Limit = c.QueryInt("limit", defaultPageLimit)
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 || p.Limit > maxPageLimit {
		p.Limit = defaultPageLimit
	}
	return p, true
}

// paginate slices items to the page and fills in p.Total.
func paginate[T any](items []T, p *Pagination) []T {
	p.Total = len(items)
	if p.Offset >= p.Total {
		return []T{}
	}
	end := p.Offset + p.Limit
	if end > p.Total {
		end = p.Total
	}
	return items[p.Offset:end]
}

// SetPageHeaders adds X-Total-Count and RFC 8288 Link headers.
// Other query parameters (such as a nearby filter) are carried into each link.
func SetPageHeaders(c *fiber.Ctx, p Pagination) {
	c.Set("X-Total-Count", strconv.Itoa(p.Total))

	base := c.Path()
	extra := ""
	for _, key := range []string{"lat", "lon", "radius"} {
		if v := c.Query(key); v != "" {
			extra += "&" + key + "=" + v
		}
	}
	link := func(offset int, rel string) string {
		return fmt.Sprintf(`<%s?offset=%d&limit=%d%s>; rel="%s"`, base, offset, p.Limit, extra, rel)
	}

	links := []string{link(0, "first")}
	if p.Offset > 0 {
		prev := p.Offset - p.Limit
		if prev < 0 {
			prev = 0
		}
		links = append(links, link(prev, "prev"))
	}
	if p.Offset+p.Limit < p.Total {
		links = append(links, link(p.Offset+p.Limit, "next"))
	}
	lastOffset := p.Total - p.Limit
	if lastOffset < 0 {
		lastOffset = 0
	}
	links = append(links, link(lastOffset, "last"))

	c.Set("Link", strings.Join(links, ", "))
}
