package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"kasirstok/backend/internal/apperr"
	"kasirstok/backend/internal/domain"
	"kasirstok/backend/internal/service"
)

func (a *API) handleLogin(c echo.Context) error {
	if !a.loginLimiter.Allow(c.RealIP()) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "too many login attempts")
	}

	var req domain.LoginRequest
	if err := decodeJSON(c, &req); err != nil {
		return err
	}

	resp, err := a.auth.Login(c.Request().Context(), req)
	if errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrInactiveAccount) {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func (a *API) handleMe(c echo.Context) error {
	session, _ := service.SessionFromContext(c.Request().Context())
	return c.JSON(http.StatusOK, map[string]any{
		"username": session.Username,
		"role":     session.Role,
		"profile":  session.Profile,
	})
}

func (a *API) handleListCashiers(c echo.Context) error {
	if err := adminOnly(c, "list cashiers"); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"cashiers": a.auth.ListCashiers(c.Request().Context())})
}

func (a *API) handleCreateCashier(c echo.Context) error {
	if err := adminOnly(c, "create cashiers"); err != nil {
		return err
	}
	var req domain.CashierCreateRequest
	if err := decodeJSON(c, &req); err != nil {
		return err
	}
	cashier, err := a.auth.CreateCashier(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]any{"cashier": cashier})
}

func adminOnly(c echo.Context, action string) error {
	session, _ := service.SessionFromContext(c.Request().Context())
	if session.Role != domain.RoleAdmin {
		return &apperr.ForbiddenError{Action: action, Role: session.Role}
	}
	return nil
}

func (a *API) handleListProducts(c echo.Context) error {
	filter := domain.ProductFilter{
		Query:      strings.TrimSpace(c.QueryParam("q")),
		CategoryID: strings.TrimSpace(c.QueryParam("category_id")),
		Status:     domain.StockStatus(strings.ToLower(strings.TrimSpace(c.QueryParam("status")))),
		SortBy:     strings.ToLower(strings.TrimSpace(c.QueryParam("sort"))),
	}
	if raw := c.QueryParam("desc"); raw != "" {
		desc, err := strconv.ParseBool(raw)
		if err != nil {
			return apperr.Invalid("desc", "must be a boolean")
		}
		filter.Desc = desc
	}

	products, err := a.service.ListProducts(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"products": products})
}

func (a *API) handleGetProduct(c echo.Context) error {
	product, err := a.service.GetProduct(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"product": product})
}

func (a *API) handleCreateProduct(c echo.Context) error {
	var req domain.ProductCreateRequest
	if err := decodeJSON(c, &req); err != nil {
		return err
	}
	product, err := a.service.CreateProduct(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]any{"product": product})
}

func (a *API) handleUpdateProduct(c echo.Context) error {
	var req domain.ProductUpdateRequest
	if err := decodeJSON(c, &req); err != nil {
		return err
	}
	product, err := a.service.UpdateProduct(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"product": product})
}

func (a *API) handleDeleteProduct(c echo.Context) error {
	if err := a.service.DeleteProduct(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (a *API) handleInventorySummary(c echo.Context) error {
	summary, err := a.service.InventorySummary(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summary)
}

func (a *API) handleListCategories(c echo.Context) error {
	categories, err := a.service.ListCategories(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"categories": categories})
}

func (a *API) handleCreateCategory(c echo.Context) error {
	var req domain.CategoryRequest
	if err := decodeJSON(c, &req); err != nil {
		return err
	}
	category, err := a.service.CreateCategory(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]any{"category": category})
}

func (a *API) handleUpdateCategory(c echo.Context) error {
	var req domain.CategoryRequest
	if err := decodeJSON(c, &req); err != nil {
		return err
	}
	category, err := a.service.UpdateCategory(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"category": category})
}

func (a *API) handleDeleteCategory(c echo.Context) error {
	if err := a.service.DeleteCategory(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (a *API) handleListSuppliers(c echo.Context) error {
	suppliers, err := a.service.ListSuppliers(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"suppliers": suppliers})
}

func (a *API) handleCreateSupplier(c echo.Context) error {
	var req domain.SupplierRequest
	if err := decodeJSON(c, &req); err != nil {
		return err
	}
	supplier, err := a.service.CreateSupplier(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]any{"supplier": supplier})
}

func (a *API) handleDeleteSupplier(c echo.Context) error {
	if err := a.service.DeleteSupplier(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (a *API) handleListSupplierAccounts(c echo.Context) error {
	accounts, err := a.service.ListSupplierAccounts(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"accounts": accounts})
}

func (a *API) handleCreateSupplierAccount(c echo.Context) error {
	var req domain.SupplierAccountRequest
	if err := decodeJSON(c, &req); err != nil {
		return err
	}
	account, err := a.service.CreateSupplierAccount(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]any{"account": account})
}

func (a *API) handleDeleteSupplierAccount(c echo.Context) error {
	if err := a.service.DeleteSupplierAccount(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
