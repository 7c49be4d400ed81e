// Package stubserver serves a fixed catalog on the routes the cart's catalog
// client calls, so the cart service can run without the storefront API.
package stubserver

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/rocketshoes/internal/domain"
	"github.com/utafrali/rocketshoes/pkg/httputil"
)

//go:embed seed.json
var seedJSON []byte

type document struct {
	Products []domain.Product `json:"products"`
	Stock    []domain.Stock   `json:"stock"`
}

// Catalog is an in-memory product and stock table.
type Catalog struct {
	mu       sync.RWMutex
	products map[int64]domain.Product
	stock    map[int64]int
}

// Seed returns the embedded demo catalog.
func Seed() *Catalog {
	c, err := Parse(seedJSON)
	if err != nil {
		panic(fmt.Sprintf("stubserver: embedded seed: %v", err))
	}
	return c
}

// Load reads a catalog document from r. The layout is
// {"products": [...], "stock": [{"id": 1, "amount": 3}, ...]}.
func Load(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	c := &Catalog{
		products: make(map[int64]domain.Product, len(doc.Products)),
		stock:    make(map[int64]int, len(doc.Stock)),
	}
	for _, p := range doc.Products {
		if p.ID <= 0 {
			return nil, fmt.Errorf("decode catalog: product id %d is not positive", p.ID)
		}
		c.products[p.ID] = p
	}
	for _, s := range doc.Stock {
		if s.Amount < 0 {
			return nil, fmt.Errorf("decode catalog: stock for %d is negative", s.ID)
		}
		c.stock[s.ID] = s.Amount
	}
	return c, nil
}

// SetStock overrides the stock count of id.
func (c *Catalog) SetStock(id int64, amount int) {
	c.mu.Lock()
	c.stock[id] = amount
	c.mu.Unlock()
}

// Products returns every product ordered by id.
func (c *Catalog) Products() []domain.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Product, 0, len(c.products))
	for _, p := range c.products {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Handler exposes GET /products, GET /products/{id} and GET /stock/{id}.
// Bodies are bare JSON, not the cart API envelope.
func (c *Catalog) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/products", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, c.Products())
	})
	r.Get("/products/{id}", c.product)
	r.Get("/stock/{id}", c.stockFor)
	return r
}

func (c *Catalog) product(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	c.mu.RLock()
	p, found := c.products[id]
	c.mu.RUnlock()
	if !found {
		writeNotFound(w)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (c *Catalog) stockFor(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	c.mu.RLock()
	amount, found := c.stock[id]
	c.mu.RUnlock()
	if !found {
		writeNotFound(w)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, domain.Stock{ID: id, Amount: amount})
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeNotFound(w)
		return 0, false
	}
	return id, true
}

// Unknown records answer 404 with an empty object.
func writeNotFound(w http.ResponseWriter) {
	httputil.WriteJSON(w, http.StatusNotFound, struct{}{})
}
