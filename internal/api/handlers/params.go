package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/amiyamandal-dev/contentdesk/internal/domain"
)

// PaginationParams holds parsed pagination parameters
type PaginationParams struct {
	Page  int
	Limit int
}

// QueryParamParser provides helpers for parsing and validating query parameters
type QueryParamParser struct {
	c   *gin.Context
	err error
}

// NewQueryParamParser creates a new query parameter parser
func NewQueryParamParser(c *gin.Context) *QueryParamParser {
	return &QueryParamParser{c: c}
}

// Error returns any parsing error that occurred
func (p *QueryParamParser) Error() error {
	return p.err
}

// Pagination parses and validates pagination parameters
func (p *QueryParamParser) Pagination(defaultLimit int) PaginationParams {
	if p.err != nil {
		return PaginationParams{Page: 1, Limit: defaultLimit}
	}

	page := 1
	limit := defaultLimit

	if pageStr := p.c.Query("page"); pageStr != "" {
		parsed, err := strconv.Atoi(pageStr)
		if err != nil {
			p.err = fmt.Errorf("invalid 'page' parameter: must be a number")
			return PaginationParams{Page: 1, Limit: defaultLimit}
		}
		page = parsed
	}

	if limitStr := p.c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil {
			p.err = fmt.Errorf("invalid 'limit' parameter: must be a number")
			return PaginationParams{Page: 1, Limit: defaultLimit}
		}
		limit = parsed
	}

	// Enforce bounds
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > 100 {
		limit = 100
	}

	return PaginationParams{Page: page, Limit: limit}
}

// Tags parses a comma-separated tags parameter
func (p *QueryParamParser) Tags(key string) []string {
	if p.err != nil {
		return nil
	}

	tagsStr := p.c.Query(key)
	if tagsStr == "" {
		return nil
	}
	return domain.ParseTags(tagsStr)
}

// ContentType parses a content type parameter. Matching is case insensitive.
func (p *QueryParamParser) ContentType(key string) domain.ContentType {
	if p.err != nil {
		return ""
	}

	raw := strings.TrimSpace(p.c.Query(key))
	if raw == "" {
		return ""
	}
	for _, t := range []domain.ContentType{domain.TypeArticle, domain.TypeVideo, domain.TypeProject, domain.TypeRepository} {
		if strings.EqualFold(raw, string(t)) {
			return t
		}
	}
	p.err = fmt.Errorf("invalid '%s' parameter: unknown content type %q", key, raw)
	return ""
}

// String gets a string parameter with optional default
func (p *QueryParamParser) String(key, defaultValue string) string {
	if p.err != nil {
		return defaultValue
	}

	value := p.c.Query(key)
	if value == "" {
		return defaultValue
	}
	return strings.TrimSpace(value)
}
