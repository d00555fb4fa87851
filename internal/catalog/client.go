// Package catalog is a read-only client for the public product catalog.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/atinyakov/GophShop/internal/metrics"
	"github.com/atinyakov/GophShop/internal/models"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultCacheSize = 256
	defaultTimeout   = 10 * time.Second
	maxBodyBytes     = 4 << 20
)

// StatusError is returned when the catalog answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("catalog: status %d: %s", e.Code, e.Body)
}

// Client fetches products and categories.
type Client struct {
	baseURL string
	http    *http.Client
	cache   *expirable.LRU[string, []byte]
	log     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithCache keeps up to size responses for ttl. size <= 0 disables caching.
func WithCache(size int, ttl time.Duration) Option {
	return func(c *Client) {
		if size <= 0 {
			c.cache = nil
			return
		}
		c.cache = expirable.NewLRU[string, []byte](size, nil, ttl)
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New returns a client for the catalog at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		cache:   expirable.NewLRU[string, []byte](defaultCacheSize, nil, 5*time.Minute),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type productList struct {
	Products []models.Product `json:"products"`
	Total    int              `json:"total"`
}

// Categories lists every catalog category.
func (c *Client) Categories(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	if err := c.get(ctx, "categories", "/products/categories", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ByCategory lists the products of one category.
func (c *Client) ByCategory(ctx context.Context, slug string) ([]models.Product, error) {
	var out productList
	if err := c.get(ctx, "category", "/products/category/"+url.PathEscape(slug), &out); err != nil {
		return nil, err
	}
	return out.Products, nil
}

// Product fetches a single product.
func (c *Client) Product(ctx context.Context, id int) (models.Product, error) {
	var out models.Product
	if err := c.get(ctx, "product", "/products/"+strconv.Itoa(id), &out); err != nil {
		return models.Product{}, err
	}
	return out, nil
}

// Search runs a free-text product search.
func (c *Client) Search(ctx context.Context, query string) ([]models.Product, error) {
	var out productList
	if err := c.get(ctx, "search", "/products/search?q="+url.QueryEscape(query), &out); err != nil {
		return nil, err
	}
	return out.Products, nil
}

// ByCategories fetches several categories in parallel. Results follow the
// order of slugs. The first failure cancels the remaining requests.
func (c *Client) ByCategories(ctx context.Context, slugs ...string) ([][]models.Product, error) {
	results := make([][]models.Product, len(slugs))
	g, gctx := errgroup.WithContext(ctx)
	for i, slug := range slugs {
		g.Go(func() error {
			products, err := c.ByCategory(gctx, slug)
			if err != nil {
				return fmt.Errorf("category %q: %w", slug, err)
			}
			results[i] = products
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Client) get(ctx context.Context, endpoint, path string, dst any) error {
	if c.cache != nil {
		if body, ok := c.cache.Get(path); ok {
			metrics.CatalogRequests.WithLabelValues(endpoint, "hit").Inc()
			return json.Unmarshal(body, dst)
		}
	}

	body, err := c.fetch(ctx, path)
	if err != nil {
		metrics.CatalogRequests.WithLabelValues(endpoint, "error").Inc()
		c.log.Warn("catalog request failed", zap.String("path", path), zap.Error(err))
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		metrics.CatalogRequests.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("catalog: invalid response for %s: %w", path, err)
	}
	metrics.CatalogRequests.WithLabelValues(endpoint, "ok").Inc()
	if c.cache != nil {
		c.cache.Add(path, body)
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("catalog: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("catalog: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}
