package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"kasirstok/backend/internal/apperr"
	"kasirstok/backend/internal/display"
	"kasirstok/backend/internal/domain"
)

func (a *API) handleDraftSale(c echo.Context) error {
	var req domain.SaleRequest
	if err := decodeJSON(c, &req); err != nil {
		return err
	}
	draft, err := a.service.DraftSale(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"draft": draft,
		"display": map[string]string{
			"total_amount": a.format.Currency(draft.TotalAmount),
			"change":       a.format.Currency(decimal.Max(draft.Change, decimal.Zero)),
		},
	})
}

func (a *API) handleCreateSale(c echo.Context) error {
	var req domain.SaleRequest
	if err := decodeJSON(c, &req); err != nil {
		return err
	}
	sale, err := a.service.CreateSale(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]any{"sale": sale})
}

func (a *API) handleListSales(c echo.Context) error {
	filter := domain.SaleFilter{
		Status: domain.SaleStatus(strings.ToLower(strings.TrimSpace(c.QueryParam("status")))),
	}
	var err error
	if filter.From, err = parseDay(c.QueryParam("from"), "from"); err != nil {
		return err
	}
	if filter.To, err = parseDay(c.QueryParam("to"), "to"); err != nil {
		return err
	}
	if !filter.To.IsZero() {
		filter.To = filter.To.AddDate(0, 0, 1)
	}

	sales, err := a.service.ListSales(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"sales": sales})
}

func (a *API) handleGetSale(c echo.Context) error {
	sale, err := a.service.GetSale(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"sale": sale})
}

func (a *API) handleSaleStatus(c echo.Context) error {
	var req domain.StatusUpdateRequest
	if err := decodeJSON(c, &req); err != nil {
		return err
	}
	sale, err := a.service.UpdateSaleStatus(c.Request().Context(), c.Param("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"sale": sale})
}

func (a *API) handleDeleteSale(c echo.Context) error {
	if err := a.service.DeleteSale(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (a *API) handleCreatePurchase(c echo.Context) error {
	var req domain.PurchaseRequest
	if err := decodeJSON(c, &req); err != nil {
		return err
	}
	purchase, err := a.service.CreatePurchase(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]any{"purchase": purchase})
}

func (a *API) handleListPurchases(c echo.Context) error {
	purchases, err := a.service.ListPurchases(c.Request().Context(), domain.PurchaseFilter{
		Status:       domain.PurchaseStatus(strings.ToLower(strings.TrimSpace(c.QueryParam("status")))),
		Counterparty: strings.TrimSpace(c.QueryParam("counterparty")),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"purchases": purchases})
}

func (a *API) handleGetPurchase(c echo.Context) error {
	purchase, err := a.service.GetPurchase(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"purchase": purchase})
}

func (a *API) handlePurchaseStatus(c echo.Context) error {
	var req domain.StatusUpdateRequest
	if err := decodeJSON(c, &req); err != nil {
		return err
	}
	purchase, err := a.service.UpdatePurchaseStatus(c.Request().Context(), c.Param("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"purchase": purchase})
}

func (a *API) handleDeletePurchase(c echo.Context) error {
	if err := a.service.DeletePurchase(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type bucketDisplay struct {
	Label  string `json:"label"`
	Start  string `json:"start"`
	Sales  string `json:"sales"`
	Margin string `json:"margin"`
}

type chartDisplay struct {
	TotalSales  string          `json:"total_sales"`
	TotalMargin string          `json:"total_margin"`
	Buckets     []bucketDisplay `json:"buckets"`
}

func (a *API) handleSalesChart(c echo.Context) error {
	chart, err := a.service.SalesChart(c.Request().Context(), c.QueryParam("period"), c.QueryParam("range"))
	if err != nil {
		return err
	}

	view := chartDisplay{
		TotalSales:  a.format.Currency(chart.TotalSales),
		TotalMargin: a.format.Currency(chart.TotalMargin),
		Buckets:     make([]bucketDisplay, 0, len(chart.Buckets)),
	}
	for _, b := range chart.Buckets {
		view.Buckets = append(view.Buckets, bucketDisplay{
			Label:  b.Label,
			Start:  display.Date(b.PeriodStart),
			Sales:  a.format.Currency(b.SalesSum),
			Margin: a.format.Currency(b.MarginSum),
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"chart": chart, "display": view})
}

func parseDay(raw string, field string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	day, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, apperr.Invalid(field, "must be a date like 2006-01-02")
	}
	return day, nil
}
