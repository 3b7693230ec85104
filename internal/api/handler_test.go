package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"

	"sales-service/internal/models"
	"sales-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStorage mirrors the Postgres store semantics for handler tests: the
// sale transaction runs under a single lock so stock can never go negative.
type memStorage struct {
	mu         sync.Mutex
	users      map[int64]*models.User
	products   map[int64]*models.Product
	sales      []models.Sale
	productSeq int64
	saleSeq    int64
}

func newMemStorage() *memStorage {
	return &memStorage{
		users:    map[int64]*models.User{1: {ID: 1, Username: "alice"}},
		products: map[int64]*models.Product{},
	}
}

func (m *memStorage) CreateProduct(ctx context.Context, product *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.productSeq++
	product.ID = m.productSeq
	p := *product
	m.products[product.ID] = &p
	return nil
}

func (m *memStorage) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, models.ErrProductNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *memStorage) GetProducts(ctx context.Context) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	products := make([]models.Product, 0, len(m.products))
	for _, p := range m.products {
		products = append(products, *p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

func (m *memStorage) DeleteProduct(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return models.ErrProductNotFound
	}
	for _, s := range m.sales {
		if s.ProductID == id {
			return models.ErrProductHasSales
		}
	}
	delete(m.products, id)
	return nil
}

func (m *memStorage) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *memStorage) CreateSale(ctx context.Context, sale *models.Sale) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	product, ok := m.products[sale.ProductID]
	if !ok {
		return 0, models.ErrProductNotFound
	}
	if product.Stock < sale.Quantity {
		return 0, models.ErrInsufficientStock
	}

	sale.Price = product.Price.Mul(decimal.NewFromInt(int64(sale.Quantity)))
	m.saleSeq++
	sale.ID = m.saleSeq
	product.Stock -= sale.Quantity
	m.sales = append(m.sales, *sale)

	return product.Stock, nil
}

func (m *memStorage) GetSales(ctx context.Context) ([]models.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sales := make([]models.Sale, len(m.sales))
	copy(sales, m.sales)
	return sales, nil
}

func newTestRouter(storage *memStorage) *gin.Engine {
	gin.SetMode(gin.TestMode)

	catalogService := service.NewCatalogService(storage, nil, nil)
	salesService := service.NewSalesService(storage, nil, nil)

	router := gin.New()
	handler := NewHandler(catalogService, salesService)
	handler.SetupRoutes(router)
	return router
}

func doJSON(router *gin.Engine, method, path string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestTestEndpoint(t *testing.T) {
	router := newTestRouter(newMemStorage())

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		rec := doJSON(router, method, "/test", "")
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "test OK", resp["message"])
	}
}

func TestCreateProductEndpoint(t *testing.T) {
	router := newTestRouter(newMemStorage())

	rec := doJSON(router, http.MethodPost, "/product",
		`{"name":"Widget","stock":10,"price":"2.50"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Message   string `json:"message"`
		ProductID int64  `json:"product_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.ProductID)

	list := doJSON(router, http.MethodGet, "/product", "")
	require.Equal(t, http.StatusOK, list.Code)

	var products []models.Product
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &products))
	require.Len(t, products, 1)
	assert.Equal(t, "Widget", products[0].Name)
	assert.Equal(t, 10, products[0].Stock)
	assert.Equal(t, "2.50", products[0].Price.StringFixed(2))
}

func TestCreateProductMissingFields(t *testing.T) {
	router := newTestRouter(newMemStorage())

	cases := []string{
		`{"stock":10,"price":"2.50"}`,
		`{"name":"Widget","price":"2.50"}`,
		`{"name":"Widget","stock":10}`,
		`{}`,
	}
	for _, body := range cases {
		rec := doJSON(router, http.MethodPost, "/product", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body=%s", body)
	}
}

func TestCreateProductZeroValuesAccepted(t *testing.T) {
	router := newTestRouter(newMemStorage())

	rec := doJSON(router, http.MethodPost, "/product",
		`{"name":"Freebie","stock":0,"price":0}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestDeleteProductEndpoint(t *testing.T) {
	storage := newMemStorage()
	router := newTestRouter(storage)

	rec := doJSON(router, http.MethodPost, "/product",
		`{"name":"Widget","stock":10,"price":"2.50"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	assert.Equal(t, http.StatusOK, doJSON(router, http.MethodDelete, "/product/1", "").Code)
	assert.Equal(t, http.StatusNotFound, doJSON(router, http.MethodDelete, "/product/1", "").Code)
	assert.Equal(t, http.StatusNotFound, doJSON(router, http.MethodDelete, "/product/42", "").Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(router, http.MethodDelete, "/product/abc", "").Code)
}

func TestDeleteProductWithSalesReturnsConflict(t *testing.T) {
	router := newTestRouter(newMemStorage())

	require.Equal(t, http.StatusCreated, doJSON(router, http.MethodPost, "/product",
		`{"name":"Widget","stock":10,"price":"2.50"}`).Code)
	require.Equal(t, http.StatusCreated, doJSON(router, http.MethodPost, "/sale",
		`{"user_id":1,"product_id":1,"quantity":2}`).Code)

	rec := doJSON(router, http.MethodDelete, "/product/1", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateSaleEndpoint(t *testing.T) {
	storage := newMemStorage()
	router := newTestRouter(storage)

	require.Equal(t, http.StatusCreated, doJSON(router, http.MethodPost, "/product",
		`{"name":"Widget","stock":10,"price":"2.50"}`).Code)

	rec := doJSON(router, http.MethodPost, "/sale",
		`{"user_id":1,"product_id":1,"quantity":3}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Message string          `json:"message"`
		SaleID  int64           `json:"sale_id"`
		Price   decimal.Decimal `json:"price"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.SaleID)
	assert.Equal(t, "7.50", resp.Price.StringFixed(2))

	product, err := storage.GetProductByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 7, product.Stock)
}

func TestCreateSaleInsufficientStockReturns400(t *testing.T) {
	storage := newMemStorage()
	router := newTestRouter(storage)

	require.Equal(t, http.StatusCreated, doJSON(router, http.MethodPost, "/product",
		`{"name":"Widget","stock":7,"price":"2.50"}`).Code)

	rec := doJSON(router, http.MethodPost, "/sale",
		`{"user_id":1,"product_id":1,"quantity":100}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	product, err := storage.GetProductByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 7, product.Stock, "stock must be unchanged after a rejected sale")
}

func TestCreateSaleUnknownProductReturns404(t *testing.T) {
	storage := newMemStorage()
	router := newTestRouter(storage)

	rec := doJSON(router, http.MethodPost, "/sale",
		`{"user_id":1,"product_id":42,"quantity":1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	sales, err := storage.GetSales(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sales)
}

func TestCreateSaleUnknownUserReturns404(t *testing.T) {
	router := newTestRouter(newMemStorage())

	require.Equal(t, http.StatusCreated, doJSON(router, http.MethodPost, "/product",
		`{"name":"Widget","stock":10,"price":"2.50"}`).Code)

	rec := doJSON(router, http.MethodPost, "/sale",
		`{"user_id":42,"product_id":1,"quantity":1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateSaleNonPositiveQuantityReturns400(t *testing.T) {
	router := newTestRouter(newMemStorage())

	require.Equal(t, http.StatusCreated, doJSON(router, http.MethodPost, "/product",
		`{"name":"Widget","stock":10,"price":"2.50"}`).Code)

	for _, quantity := range []int{0, -3} {
		rec := doJSON(router, http.MethodPost, "/sale",
			fmt.Sprintf(`{"user_id":1,"product_id":1,"quantity":%d}`, quantity))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "quantity=%d", quantity)
	}
}

func TestListSalesEndpoint(t *testing.T) {
	router := newTestRouter(newMemStorage())

	require.Equal(t, http.StatusCreated, doJSON(router, http.MethodPost, "/product",
		`{"name":"Widget","stock":10,"price":"2.50"}`).Code)
	require.Equal(t, http.StatusCreated, doJSON(router, http.MethodPost, "/sale",
		`{"user_id":1,"product_id":1,"quantity":3}`).Code)

	rec := doJSON(router, http.MethodGet, "/sale", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var sales []models.Sale
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sales))
	require.Len(t, sales, 1)
	assert.Equal(t, int64(1), sales[0].UserID)
	assert.Equal(t, int64(1), sales[0].ProductID)
	assert.Equal(t, 3, sales[0].Quantity)
	assert.Equal(t, "7.50", sales[0].Price.StringFixed(2))
}
