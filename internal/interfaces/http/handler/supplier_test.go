package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	procurementapp "github.com/chemstock/backend/internal/application/procurement"
	"github.com/chemstock/backend/internal/domain/procurement"
	"github.com/chemstock/backend/internal/domain/shared"
	"github.com/chemstock/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockSupplierRepository struct {
	suppliers map[uuid.UUID]*procurement.Supplier
	byCode    map[string]*procurement.Supplier
}

func newMockSupplierRepository() *mockSupplierRepository {
	return &mockSupplierRepository{
		suppliers: make(map[uuid.UUID]*procurement.Supplier),
		byCode:    make(map[string]*procurement.Supplier),
	}
}

func (m *mockSupplierRepository) add(s *procurement.Supplier) {
	m.suppliers[s.ID] = s
	m.byCode[s.Code] = s
}

func (m *mockSupplierRepository) FindByID(ctx context.Context, id uuid.UUID) (*procurement.Supplier, error) {
	if s, ok := m.suppliers[id]; ok {
		return s, nil
	}
	return nil, shared.ErrNotFound
}

func (m *mockSupplierRepository) FindByCode(ctx context.Context, code string) (*procurement.Supplier, error) {
	if s, ok := m.byCode[code]; ok {
		return s, nil
	}
	return nil, shared.ErrNotFound
}

func (m *mockSupplierRepository) FindAll(ctx context.Context, filter shared.Filter) ([]procurement.Supplier, error) {
	result := make([]procurement.Supplier, 0, len(m.suppliers))
	for _, s := range m.suppliers {
		result = append(result, *s)
	}
	return result, nil
}

func (m *mockSupplierRepository) Save(ctx context.Context, supplier *procurement.Supplier) error {
	m.add(supplier)
	return nil
}

func (m *mockSupplierRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if s, ok := m.suppliers[id]; ok {
		delete(m.byCode, s.Code)
		delete(m.suppliers, id)
	}
	return nil
}

func (m *mockSupplierRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	return int64(len(m.suppliers)), nil
}

func setupSupplierRouter(repo *mockSupplierRepository) *gin.Engine {
	service := procurementapp.NewSupplierService(repo)
	h := NewSupplierHandler(service)

	router := gin.New()
	api := router.Group("/api/v1")
	h.RegisterRoutes(api)
	return router
}

func TestSupplierHandlerCreate(t *testing.T) {
	t.Run("creates supplier", func(t *testing.T) {
		router := setupSupplierRouter(newMockSupplierRepository())

		body, _ := json.Marshal(gin.H{
			"code": "SUP-001",
			"name": "Acme Chemicals",
		})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/suppliers", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
	})

	t.Run("duplicate code returns 409", func(t *testing.T) {
		repo := newMockSupplierRepository()
		existing, err := procurement.NewSupplier("SUP-001", "Acme Chemicals")
		require.NoError(t, err)
		repo.add(existing)
		router := setupSupplierRouter(repo)

		body, _ := json.Marshal(gin.H{"code": "SUP-001", "name": "Other"})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/suppliers", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusConflict, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.Equal(t, dto.ErrCodeAlreadyExists, resp.Error.Code)
	})

	t.Run("missing name returns 400", func(t *testing.T) {
		router := setupSupplierRouter(newMockSupplierRepository())

		body, _ := json.Marshal(gin.H{"code": "SUP-001"})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/suppliers", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSupplierHandlerGetByID(t *testing.T) {
	t.Run("returns supplier", func(t *testing.T) {
		repo := newMockSupplierRepository()
		supplier, err := procurement.NewSupplier("SUP-001", "Acme Chemicals")
		require.NoError(t, err)
		repo.add(supplier)
		router := setupSupplierRouter(repo)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/suppliers/"+supplier.ID.String(), nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("unknown id returns 404", func(t *testing.T) {
		router := setupSupplierRouter(newMockSupplierRepository())

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/suppliers/"+uuid.NewString(), nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed id returns 400", func(t *testing.T) {
		router := setupSupplierRouter(newMockSupplierRepository())

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/suppliers/not-a-uuid", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSupplierHandlerDeactivate(t *testing.T) {
	repo := newMockSupplierRepository()
	supplier, err := procurement.NewSupplier("SUP-001", "Acme Chemicals")
	require.NoError(t, err)
	repo.add(supplier)
	router := setupSupplierRouter(repo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/suppliers/"+supplier.ID.String()+"/deactivate", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, supplier.Active)
}
