package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokobuah/storefront/internal/domain"
	"github.com/tokobuah/storefront/internal/repository"
)

type stubProductRepo struct {
	products map[string]*domain.Product
	lastList string
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{products: map[string]*domain.Product{}}
}

func (s *stubProductRepo) ListProducts(_ context.Context, category string) ([]*domain.Product, error) {
	s.lastList = category
	var out []*domain.Product
	for _, p := range s.products {
		if category == "" || p.Category == category {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubProductRepo) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}

func (s *stubProductRepo) CreateProduct(_ context.Context, p *domain.Product) error {
	if p.ID == "" {
		p.ID = "generated-id"
	}
	s.products[p.ID] = p
	return nil
}

func (s *stubProductRepo) UpdateProduct(_ context.Context, p *domain.Product) error {
	if _, ok := s.products[p.ID]; !ok {
		return repository.ErrProductNotFound
	}
	s.products[p.ID] = p
	return nil
}

func (s *stubProductRepo) DeleteProduct(_ context.Context, id string) error {
	if _, ok := s.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(s.products, id)
	return nil
}

func productTestRouter(h *ProductHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/products", h.List)
	r.Get("/products/{id}", h.Get)
	r.Post("/products", h.Create)
	r.Put("/products/{id}", h.Update)
	r.Delete("/products/{id}", h.Delete)
	return r
}

func TestProducts_List(t *testing.T) {
	repo := newStubProductRepo()
	repo.products["p1"] = &domain.Product{ID: "p1", Name: "Apel Fuji", Category: "buah", Price: 25000}
	repo.products["p2"] = &domain.Product{ID: "p2", Name: "Bayam", Category: "sayur", Price: 5000}
	router := productTestRouter(NewProductHandler(repo, time.Second))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products?category=buah", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "buah", repo.lastList)

	var resp ProductsResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Products, 1)
	assert.Equal(t, "Apel Fuji", resp.Products[0].Name)
}

func TestProducts_List_EmptyIsArray(t *testing.T) {
	router := productTestRouter(NewProductHandler(newStubProductRepo(), time.Second))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"products":[]}`, rec.Body.String())
}

func TestProducts_Get_NotFound(t *testing.T) {
	router := productTestRouter(NewProductHandler(newStubProductRepo(), time.Second))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/ghost", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProducts_Create(t *testing.T) {
	repo := newStubProductRepo()
	router := productTestRouter(NewProductHandler(repo, time.Second))

	body := `{"name":"Apel Fuji","category":"buah","price":25000,"stock":40}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/products", []byte(body)))

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, repo.products, 1)

	var created domain.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, int64(25000), created.Price)
}

func TestProducts_Create_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"category":"buah","price":25000}`},
		{"missing category", `{"name":"Apel","price":25000}`},
		{"zero price", `{"name":"Apel","category":"buah","price":0}`},
		{"negative stock", `{"name":"Apel","category":"buah","price":25000,"stock":-1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newStubProductRepo()
			router := productTestRouter(NewProductHandler(repo, time.Second))

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, authedRequest(http.MethodPost, "/products", []byte(tt.body)))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, repo.products)
		})
	}
}

func TestProducts_Update(t *testing.T) {
	repo := newStubProductRepo()
	repo.products["p1"] = &domain.Product{ID: "p1", Name: "Apel", Category: "buah", Price: 25000}
	router := productTestRouter(NewProductHandler(repo, time.Second))

	body := `{"name":"Apel Fuji","category":"buah","price":27000,"stock":35}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPut, "/products/p1", []byte(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(27000), repo.products["p1"].Price)
}

func TestProducts_Delete(t *testing.T) {
	repo := newStubProductRepo()
	repo.products["p1"] = &domain.Product{ID: "p1"}
	router := productTestRouter(NewProductHandler(repo, time.Second))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodDelete, "/products/p1", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, repo.products)
}
