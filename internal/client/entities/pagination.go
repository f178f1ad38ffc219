package entities

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/iudanet/ngsiadmin/pkg/ngsi"
)

// PageLimit is the page size requested from the broker.
const PageLimit = 1000

// Filter ограничивает выборку GetAllEntities. Пустые поля не применяются.
type Filter struct {
	Type  string   // фильтр по типу сущности
	Attrs []string // список атрибутов, передается через запятую
}

// PageCursor is the limit/offset pair of a paginated retrieval.
type PageCursor struct {
	Limit  int
	Offset int
}

// NewPageCursor returns a cursor positioned at the first page.
func NewPageCursor() *PageCursor {
	return &PageCursor{Limit: PageLimit}
}

// Advance returns the offset of the page to request and moves the cursor
// to the next page. The cursor moves before the page is interpreted.
func (c *PageCursor) Advance() int {
	offset := c.Offset
	c.Offset += c.Limit
	return offset
}

// GetAllEntities fetches every entity matching filter page by page until the
// broker returns an empty page.
//
// Any failure (transport, status, undecodable or non-array body) is logged and
// ends the loop: the entities accumulated so far are returned. The result is
// best effort and may be incomplete.
func (s *Service) GetAllEntities(ctx context.Context, filter Filter) []ngsi.Entity {
	entities, _ := s.fetchPages(ctx, filter)
	return entities
}

// fetchPages drives the pagination loop and also returns the final cursor.
func (s *Service) fetchPages(ctx context.Context, filter Filter) ([]ngsi.Entity, *PageCursor) {
	cursor := NewPageCursor()

	var result []ngsi.Entity
	for {
		offset := cursor.Advance()

		resp, err := s.apiClient.Get(ctx, pathEntities, pageParams(filter, cursor.Limit, offset))
		if err != nil {
			s.logger.Error("Failed to get entities", "offset", offset, "error", err)
			break
		}

		var page []ngsi.Entity
		if err := json.Unmarshal(resp.Body, &page); err != nil {
			s.logger.Error("Unexpected response format",
				"offset", offset,
				"error", err,
				"body", truncateBody(resp.Body),
			)
			break
		}

		if len(page) == 0 {
			break
		}

		s.logger.Debug("Fetched page", "offset", offset, "count", len(page))
		result = append(result, page...)
	}

	s.logger.Debug("Fetched entities", "count", len(result), "type", filter.Type)
	return result, cursor
}

// pageParams собирает параметры запроса одной страницы.
// Каждый вызов возвращает новый url.Values.
func pageParams(filter Filter, limit, offset int) url.Values {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))
	if filter.Type != "" {
		params.Set("type", filter.Type)
	}
	if len(filter.Attrs) > 0 {
		params.Set("attrs", strings.Join(filter.Attrs, ","))
	}
	return params
}
