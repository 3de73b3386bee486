package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/msvcdojo/accounts-service/internal/core/domain"
	"github.com/msvcdojo/accounts-service/internal/core/ports"
)

// AccountHandler exposes the account façade over HTTP. Service errors are
// returned unchanged so the central error handler can map them.
type AccountHandler struct {
	service ports.AccountService
}

func NewAccountHandler(service ports.AccountService) *AccountHandler {
	return &AccountHandler{service: service}
}

// List handles GET /accounts.
//
// @Summary      List all accounts
// @Tags         accounts
// @Produce      json
// @Success      200  {object}  accountCollectionResponse
// @Failure      502  {object}  errorResponse
// @Router       /accounts [get]
func (h *AccountHandler) List(c echo.Context) error {
	accts, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCollectionResponse(accts, accountsPath))
}

// Get handles GET /accounts/:id.
//
// @Summary      Get an account by id
// @Tags         accounts
// @Produce      json
// @Param        id   path      int  true  "Account id"
// @Success      200  {object}  accountResponse
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      502  {object}  errorResponse
// @Router       /accounts/{id} [get]
func (h *AccountHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	acct, found, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("account %d: %w", id, domain.ErrNotFound)
	}
	return c.JSON(http.StatusOK, toAccountResponse(acct))
}

// Create handles POST /accounts.
//
// @Summary      Create an account
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      accountRequest  true  "Account"
// @Success      201   {object}  accountResponse
// @Header       201   {string}  Location  "URI of the new account"
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      502   {object}  errorResponse
// @Router       /accounts [post]
func (h *AccountHandler) Create(c echo.Context) error {
	var req accountRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	acct, err := h.service.Create(c.Request().Context(), req.Username, req.Role)
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderLocation, accountHref(acct.ID()))
	return c.JSON(http.StatusCreated, toAccountResponse(acct))
}

// Update handles PUT /accounts/:id.
//
// @Summary      Replace an account
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int             true  "Account id"
// @Param        body  body      accountRequest  true  "Account"
// @Success      200   {object}  accountResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      502   {object}  errorResponse
// @Router       /accounts/{id} [put]
func (h *AccountHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req accountRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	acct, err := h.service.Update(c.Request().Context(), id, req.Username, req.Role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAccountResponse(acct))
}

// Patch handles PATCH /accounts/:id.
//
// @Summary      Partially update an account
// @Description  Absent fields are left untouched; "role": null clears the role.
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                  true  "Account id"
// @Param        body  body      patchAccountRequest  true  "Fields to change"
// @Success      200   {object}  accountResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      502   {object}  errorResponse
// @Router       /accounts/{id} [patch]
func (h *AccountHandler) Patch(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req patchAccountRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	acct, err := h.service.Patch(c.Request().Context(), id, toPatch(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAccountResponse(acct))
}

// Delete handles DELETE /accounts/:id. Deleting an absent account succeeds,
// including ids no account could ever hold.
//
// @Summary      Delete an account
// @Tags         accounts
// @Security     BearerAuth
// @Param        id   path  int  true  "Account id"
// @Success      204
// @Failure      400  {object}  errorResponse
// @Failure      502  {object}  errorResponse
// @Router       /accounts/{id} [delete]
func (h *AccountHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid account id")
	}
	// No account can hold a non-positive id, so there is nothing to delete.
	if id <= 0 {
		return c.NoContent(http.StatusNoContent)
	}
	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// SearchIndex handles GET /accounts/search.
//
// @Summary      List the available account queries
// @Tags         accounts
// @Produce      json
// @Success      200  {object}  searchIndexResponse
// @Router       /accounts/search [get]
func (h *AccountHandler) SearchIndex(c echo.Context) error {
	return c.JSON(http.StatusOK, newSearchIndex())
}

// FindByUsername handles GET /accounts/search/findByUsername.
//
// @Summary      Find accounts by exact username
// @Tags         accounts
// @Produce      json
// @Param        username  query     string  true  "Username"
// @Success      200       {object}  accountCollectionResponse
// @Failure      400       {object}  errorResponse
// @Failure      502       {object}  errorResponse
// @Router       /accounts/search/findByUsername [get]
func (h *AccountHandler) FindByUsername(c echo.Context) error {
	username := c.QueryParam("username")
	accts, err := h.service.ListByUsername(c.Request().Context(), username)
	if err != nil {
		return err
	}
	self := searchPath + "/findByUsername?username=" + url.QueryEscape(username)
	return c.JSON(http.StatusOK, toCollectionResponse(accts, self))
}

// FindByRole handles GET /accounts/search/findByRole.
//
// @Summary      Find accounts by exact role
// @Tags         accounts
// @Produce      json
// @Param        role  query     string  true  "Role"
// @Success      200   {object}  accountCollectionResponse
// @Failure      400   {object}  errorResponse
// @Failure      502   {object}  errorResponse
// @Router       /accounts/search/findByRole [get]
func (h *AccountHandler) FindByRole(c echo.Context) error {
	role := c.QueryParam("role")
	accts, err := h.service.ListByRole(c.Request().Context(), role)
	if err != nil {
		return err
	}
	self := searchPath + "/findByRole?role=" + url.QueryEscape(role)
	return c.JSON(http.StatusOK, toCollectionResponse(accts, self))
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid account id")
	}
	return id, nil
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
