package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalogServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/products/categories", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, `[{"slug":"beauty","name":"Beauty","url":"https://dummyjson.com/products/category/beauty"}]`)
	})
	mux.HandleFunc("/products/category/", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		slug := strings.TrimPrefix(r.URL.Path, "/products/category/")
		if slug == "missing" {
			http.Error(w, `{"message":"not found"}`, http.StatusNotFound)
			return
		}
		fmt.Fprintf(w, `{"products":[{"id":1,"title":"%s item","price":9.5,"category":"%s"}],"total":1}`, slug, slug)
	})
	mux.HandleFunc("/products/search", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprintf(w, `{"products":[{"id":2,"title":"%s"}],"total":1}`, r.URL.Query().Get("q"))
	})
	mux.HandleFunc("/products/", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path == "/products/13" {
			fmt.Fprint(w, `not-json`)
			return
		}
		fmt.Fprint(w, `{"id":5,"title":"Lamp","price":20,"discountPercentage":5.5,"rating":4.2,"stock":3,"category":"home","thumbnail":"t.png","images":["a.png"]}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Categories(t *testing.T) {
	var hits atomic.Int32
	c := New(newCatalogServer(t, &hits).URL)

	cats, err := c.Categories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "beauty", cats[0].Slug)
}

func TestClient_Product(t *testing.T) {
	var hits atomic.Int32
	c := New(newCatalogServer(t, &hits).URL)

	p, err := c.Product(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "Lamp", p.Title)
	assert.Equal(t, 4.2, p.Rating)
	assert.Equal(t, []string{"a.png"}, p.Images)

	li := p.LineItem()
	assert.Equal(t, 5, li.ID)
	assert.Equal(t, 20.0, li.Price)
	assert.Nil(t, li.Quantity)
}

func TestClient_SearchEscapesQuery(t *testing.T) {
	var hits atomic.Int32
	c := New(newCatalogServer(t, &hits).URL)

	got, err := c.Search(context.Background(), "red & blue")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "red & blue", got[0].Title)
}

func TestClient_StatusError(t *testing.T) {
	var hits atomic.Int32
	c := New(newCatalogServer(t, &hits).URL)

	_, err := c.ByCategory(context.Background(), "missing")
	var se *StatusError
	require.True(t, errors.As(err, &se), "got %v", err)
	assert.Equal(t, http.StatusNotFound, se.Code)
}

func TestClient_InvalidJSON(t *testing.T) {
	var hits atomic.Int32
	c := New(newCatalogServer(t, &hits).URL)

	_, err := c.Product(context.Background(), 13)
	assert.ErrorContains(t, err, "invalid response")
}

func TestClient_Cache(t *testing.T) {
	var hits atomic.Int32
	c := New(newCatalogServer(t, &hits).URL, WithCache(8, time.Minute))

	for i := 0; i < 3; i++ {
		_, err := c.Categories(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), hits.Load())

	uncached := New(c.baseURL, WithCache(0, 0))
	for i := 0; i < 2; i++ {
		_, err := uncached.Categories(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), hits.Load())
}

func TestClient_ByCategories(t *testing.T) {
	var hits atomic.Int32
	c := New(newCatalogServer(t, &hits).URL)

	got, err := c.ByCategories(context.Background(), "beauty", "laptops", "groceries")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "beauty item", got[0][0].Title)
	assert.Equal(t, "laptops item", got[1][0].Title)
	assert.Equal(t, "groceries item", got[2][0].Title)

	_, err = c.ByCategories(context.Background(), "beauty", "missing")
	assert.ErrorContains(t, err, `category "missing"`)
}

func TestClient_NetworkError(t *testing.T) {
	c := New("http://127.0.0.1:1", WithHTTPClient(&http.Client{Timeout: time.Second}))

	_, err := c.Categories(context.Background())
	assert.Error(t, err)
}
