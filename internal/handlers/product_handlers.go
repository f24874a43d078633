package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"nihaarpos/internal/common"
	"nihaarpos/internal/models"
	"nihaarpos/internal/services"
)

// ProductHandlers handles HTTP requests for the catalog
type ProductHandlers struct {
	productService services.ProductService
}

// NewProductHandlers creates a new product handlers instance
func NewProductHandlers(productService services.ProductService) *ProductHandlers {
	return &ProductHandlers{productService: productService}
}

// ListProducts handles GET /products
func (h *ProductHandlers) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()
	includeRetired := c.QueryParam("include_retired") == "true"

	products, err := h.productService.ListProducts(ctx, includeRetired)
	if err != nil {
		return common.SendServerError(c, "Failed to list products")
	}
	if products == nil {
		products = []*models.Product{}
	}
	return c.JSON(http.StatusOK, products)
}

// GetProduct handles GET /products/:id. The :id path segment is the raw QR
// payload handed over by the scanner; an unresolvable payload is a 404.
func (h *ProductHandlers) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	if id == "" {
		return common.SendClientError(c, "product id is required")
	}

	product, err := h.productService.GetProduct(ctx, id)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusOK, product)
}

// CreateProduct handles POST /products
func (h *ProductHandlers) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		Name        string  `json:"name"`
		Description string  `json:"description"`
		UnitPrice   float64 `json:"unit_price"`
		Commission  float64 `json:"commission"`
		Quantity    int     `json:"quantity"`
		Supplier    string  `json:"supplier"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	product := &models.Product{
		Name:        req.Name,
		Description: req.Description,
		UnitPrice:   req.UnitPrice,
		Commission:  req.Commission,
		Quantity:    req.Quantity,
		Supplier:    req.Supplier,
	}
	if err := h.productService.CreateProduct(ctx, product); err != nil {
		return common.SendClientError(c, err.Error())
	}
	return c.JSON(http.StatusCreated, product)
}

// UpdateProduct handles PUT /products/:id
func (h *ProductHandlers) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	var update services.ProductUpdate
	if err := c.Bind(&update); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	product, err := h.productService.UpdateProduct(ctx, id, update)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusOK, product)
}

// DeleteProduct handles DELETE /products/:id. Products are retired, never
// hard-deleted, so historical sales records keep resolving.
func (h *ProductHandlers) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	if err := h.productService.RetireProduct(ctx, id); err != nil {
		return common.SendDomainError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UploadProductImage handles POST /products/:id/image
func (h *ProductHandlers) UploadProductImage(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	file, err := c.FormFile("image")
	if err != nil {
		return common.SendClientError(c, "image file is required")
	}

	src, err := file.Open()
	if err != nil {
		return common.SendServerError(c, "Failed to read uploaded image")
	}
	defer src.Close()

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	url, err := h.productService.AttachImage(ctx, id, src, file.Size, contentType)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"image_url": url})
}
