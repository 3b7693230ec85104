package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"sales-service/internal/models"
	"sales-service/internal/service"
	"sales-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	catalogService *service.CatalogService
	salesService   *service.SalesService
}

// NewHandler creates a new HTTP handler
func NewHandler(catalogService *service.CatalogService, salesService *service.SalesService) *Handler {
	return &Handler{
		catalogService: catalogService,
		salesService:   salesService,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/test", h.test)
	router.POST("/test", h.test)

	router.GET("/product", h.listProducts)
	router.POST("/product", h.createProduct)
	router.DELETE("/product/:id", h.deleteProduct)

	router.GET("/sale", h.listSales)
	router.POST("/sale", h.createSale)
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// test is the liveness probe carried over from the original API surface
func (h *Handler) test(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "test OK",
	})
}

// listProducts handles GET /product
func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.catalogService.ListProducts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to list products",
		})
		return
	}

	c.JSON(http.StatusOK, products)
}

// createProduct handles POST /product
func (h *Handler) createProduct(c *gin.Context) {
	var req service.CreateProductRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "name, stock and price are required",
			"details": err.Error(),
		})
		return
	}

	product, err := h.catalogService.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		status, msg := statusFromError(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":    "product created",
		"product_id": product.ID,
	})
}

// deleteProduct handles DELETE /product/:id
func (h *Handler) deleteProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid product ID",
		})
		return
	}

	if err := h.catalogService.DeleteProduct(c.Request.Context(), id); err != nil {
		status, msg := statusFromError(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "product deleted",
		"product_id": id,
	})
}

// listSales handles GET /sale
func (h *Handler) listSales(c *gin.Context) {
	sales, err := h.salesService.ListSales(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to list sales",
		})
		return
	}

	c.JSON(http.StatusOK, sales)
}

// createSale handles POST /sale
func (h *Handler) createSale(c *gin.Context) {
	var req service.CreateSaleRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "user_id and product_id are required",
			"details": err.Error(),
		})
		return
	}

	resp, err := h.salesService.CreateSale(c.Request.Context(), &req)
	if err != nil {
		status, msg := statusFromError(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "sale recorded",
		"sale_id": resp.SaleID,
		"price":   resp.Price,
	})
}

// statusFromError maps business-rule rejections to HTTP status codes.
// Anything unrecognized is a persistence failure and surfaces as a 500.
func statusFromError(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrProductNotFound):
		return http.StatusNotFound, models.ErrProductNotFound.Error()
	case errors.Is(err, models.ErrUserNotFound):
		return http.StatusNotFound, models.ErrUserNotFound.Error()
	case errors.Is(err, models.ErrInsufficientStock):
		return http.StatusBadRequest, models.ErrInsufficientStock.Error()
	case errors.Is(err, models.ErrInvalidQuantity):
		return http.StatusBadRequest, models.ErrInvalidQuantity.Error()
	case errors.Is(err, models.ErrInvalidProduct):
		return http.StatusBadRequest, models.ErrInvalidProduct.Error()
	case errors.Is(err, models.ErrProductHasSales):
		return http.StatusConflict, models.ErrProductHasSales.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
