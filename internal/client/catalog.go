package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"marketplace/catalog/internal/config"
	"marketplace/catalog/internal/domain"

	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

// CatalogClient imports the category forest from a remote catalog service
type CatalogClient interface {
	LoadForest(ctx context.Context) ([]*domain.CategoryNode, error)
}

type catalogClient struct {
	rl         ratelimit.Limiter
	baseURL    string
	format     string
	httpClient *resty.Client
	parser     *categoryPageParser
}

func NewCatalogClient(cfg config.CatalogConfig) CatalogClient {
	client := resty.New().
		SetTimeout(time.Duration(cfg.Timeout)*time.Second).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(1*time.Second).
		SetRetryMaxWaitTime(10*time.Second).
		SetHeader("Accept", "application/json, text/html;q=0.9")

	rl := ratelimit.NewUnlimited()
	if cfg.MaxRequestsPerSecond > 0 {
		rl = ratelimit.New(cfg.MaxRequestsPerSecond)
	}

	return &catalogClient{
		rl:         rl,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		format:     cfg.Format,
		httpClient: client,
		parser:     newCategoryPageParser(),
	}
}

func (c *catalogClient) LoadForest(ctx context.Context) ([]*domain.CategoryNode, error) {
	if c.format == "html" {
		return c.loadHTML(ctx)
	}
	return c.loadJSON(ctx)
}

type categoriesResponse struct {
	Categories []*domain.CategoryNode `json:"categories"`
}

func (c *catalogClient) loadJSON(ctx context.Context) ([]*domain.CategoryNode, error) {
	c.rl.Take()

	var out categoriesResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&out).
		Get(c.baseURL + "/api/categories")
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode(), resp.Status())
	}

	log.Debugf("Fetched %d root categories from %s", len(out.Categories), c.baseURL)
	return out.Categories, nil
}

func (c *catalogClient) loadHTML(ctx context.Context) ([]*domain.CategoryNode, error) {
	c.rl.Take()

	resp, err := c.httpClient.R().
		SetContext(ctx).
		Get(c.baseURL + "/categories")
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("failed to fetch category page: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode(), resp.Status())
	}

	forest, err := c.parser.ParseCategoryPage(resp.String())
	if err != nil {
		return nil, fmt.Errorf("failed to parse category page: %w", err)
	}
	return forest, nil
}
