package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/labstack/echo/v4"

	"nihaarpos/internal/common"
	"nihaarpos/internal/models"
	"nihaarpos/internal/services"
)

const (
	invoiceBucket     = "invoices"
	invoicePDFExpiry  = 24 * time.Hour
	defaultSalesLimit = 50
	maxSalesPageLimit = 200
)

// InvoiceHandlers handles invoice generation and retrieval
type InvoiceHandlers struct {
	invoiceService services.InvoiceServiceInterface
	minioService   services.MinioService
}

func NewInvoiceHandlers(invoiceService services.InvoiceServiceInterface, minioService services.MinioService) *InvoiceHandlers {
	return &InvoiceHandlers{
		invoiceService: invoiceService,
		minioService:   minioService,
	}
}

type createInvoiceRequest struct {
	CustomerName    string `json:"customer_name"`
	CustomerMobile  string `json:"customer_mobile"`
	CustomerAddress string `json:"customer_address"`
	Items           []struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	} `json:"items"`
}

// CreateInvoice handles POST /invoices. The request carries the finalized
// draft; all stock checks happen server-side against current quantities,
// never against whatever the terminal last displayed.
func (h *InvoiceHandlers) CreateInvoice(c echo.Context) error {
	ctx := c.Request().Context()

	var req createInvoiceRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	draft := models.InvoiceDraft{
		CustomerName:    req.CustomerName,
		CustomerMobile:  req.CustomerMobile,
		CustomerAddress: req.CustomerAddress,
	}
	for _, item := range req.Items {
		draft.Items = append(draft.Items, models.LineItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	record, err := h.invoiceService.GenerateInvoice(ctx, draft)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, record)
}

// GetInvoice handles GET /invoices/:invoiceNumber
func (h *InvoiceHandlers) GetInvoice(c echo.Context) error {
	ctx := c.Request().Context()
	invoiceNumber := c.Param("invoiceNumber")

	record, err := h.invoiceService.GetByInvoiceNumber(ctx, invoiceNumber)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusOK, record)
}

// ListInvoices handles GET /invoices
func (h *InvoiceHandlers) ListInvoices(c echo.Context) error {
	ctx := c.Request().Context()

	limit := defaultSalesLimit
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return common.SendClientError(c, "limit must be a positive integer")
		}
		if parsed > maxSalesPageLimit {
			parsed = maxSalesPageLimit
		}
		limit = parsed
	}
	offset := 0
	if raw := c.QueryParam("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return common.SendClientError(c, "offset must be a non-negative integer")
		}
		offset = parsed
	}

	records, err := h.invoiceService.ListSales(ctx, limit, offset)
	if err != nil {
		return common.SendServerError(c, "Failed to list invoices")
	}
	if records == nil {
		records = []*models.SalesRecord{}
	}
	return c.JSON(http.StatusOK, records)
}

// GenerateInvoicePDF handles POST /invoices/:invoiceNumber/pdf. The PDF is
// rendered from the persisted sales record, uploaded to object storage and
// returned as a presigned URL, so reprints are always byte-faithful to the
// sale as it was recorded.
func (h *InvoiceHandlers) GenerateInvoicePDF(c echo.Context) error {
	ctx := c.Request().Context()
	invoiceNumber := c.Param("invoiceNumber")

	record, err := h.invoiceService.GetByInvoiceNumber(ctx, invoiceNumber)
	if err != nil {
		return common.SendDomainError(c, err)
	}

	pdfBytes, err := renderInvoicePDF(record)
	if err != nil {
		return common.SendServerError(c, "Failed to render invoice PDF")
	}

	if err := h.minioService.EnsureBucketExists(ctx, invoiceBucket); err != nil {
		return common.SendServerError(c, "Failed to prepare invoice storage")
	}

	objectName := fmt.Sprintf("%s.pdf", record.InvoiceNumber)
	if err := h.minioService.Upload(ctx, invoiceBucket, objectName, "application/pdf", bytes.NewReader(pdfBytes), int64(len(pdfBytes))); err != nil {
		return common.SendServerError(c, "Failed to store invoice PDF")
	}

	url, err := h.minioService.GetPresignedURL(invoiceBucket, objectName, invoicePDFExpiry)
	if err != nil {
		return common.SendServerError(c, "Failed to generate invoice download link")
	}

	return c.JSON(http.StatusOK, map[string]string{
		"invoice_number": record.InvoiceNumber,
		"pdf_url":        url,
	})
}

func renderInvoicePDF(record *models.SalesRecord) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(0, 10, "Invoice")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 6, fmt.Sprintf("Invoice No: %s", record.InvoiceNumber))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Date: %s", record.RecordedAt.Format("02 Jan 2006 15:04")))
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 6, "Billed To")
	pdf.Ln(6)
	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 6, record.CustomerName)
	pdf.Ln(6)
	if record.CustomerMobile != "" {
		pdf.Cell(0, 6, record.CustomerMobile)
		pdf.Ln(6)
	}
	if record.CustomerAddress != "" {
		pdf.MultiCell(0, 6, record.CustomerAddress, "", "L", false)
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(90, 8, "Product", "1", 0, "L", true, 0, "")
	pdf.CellFormat(30, 8, "Unit Price", "1", 0, "R", true, 0, "")
	pdf.CellFormat(20, 8, "Qty", "1", 0, "R", true, 0, "")
	pdf.CellFormat(40, 8, "Amount", "1", 1, "R", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	for _, item := range record.Items {
		pdf.CellFormat(90, 8, item.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 8, fmt.Sprintf("%.2f", item.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(20, 8, fmt.Sprintf("%d", item.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 8, fmt.Sprintf("%.2f", item.UnitPrice*float64(item.Quantity)), "1", 1, "R", false, 0, "")
	}

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(140, 8, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(40, 8, fmt.Sprintf("%.2f", record.TotalAmount), "1", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
