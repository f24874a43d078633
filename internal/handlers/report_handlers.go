package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"nihaarpos/internal/common"
	"nihaarpos/internal/services"
)

// ReportHandlers serves the sales report, as JSON for dashboards and as a
// CSV download for the back office.
type ReportHandlers struct {
	reportService services.ReportService
}

func NewReportHandlers(reportService services.ReportService) *ReportHandlers {
	return &ReportHandlers{reportService: reportService}
}

// GetSalesReport handles GET /reports/sales
func (h *ReportHandlers) GetSalesReport(c echo.Context) error {
	ctx := c.Request().Context()

	report, err := h.reportService.BuildSalesReport(ctx, time.Now())
	if err != nil {
		return common.SendServerError(c, "Failed to build sales report")
	}
	return c.JSON(http.StatusOK, report)
}

// DownloadSalesReportCSV handles GET /reports/sales/csv
func (h *ReportHandlers) DownloadSalesReportCSV(c echo.Context) error {
	ctx := c.Request().Context()
	now := time.Now()

	report, err := h.reportService.BuildSalesReport(ctx, now)
	if err != nil {
		return common.SendServerError(c, "Failed to build sales report")
	}

	var buf bytes.Buffer
	if err := h.reportService.WriteCSV(&buf, report); err != nil {
		return common.SendServerError(c, "Failed to render sales report")
	}

	filename := fmt.Sprintf("sales-report-%s.csv", now.Format("2006-01-02"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, "text/csv", buf.Bytes())
}
