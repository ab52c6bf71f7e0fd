package main

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"checkoutcore/internal/domain/invoice"
	"checkoutcore/internal/domain/sale"
)

type checkoutPayload struct {
	CartID            int64 `json:"cart_id" validate:"required,gt=0"`
	DeliveryAddressID int64 `json:"delivery_address_id" validate:"required,gt=0"`
	CreateInvoice     bool  `json:"create_invoice"`
}

type checkoutResponse struct {
	Sale          sale.Sale        `json:"sale"`
	Lines         []sale.Line      `json:"lines"`
	ReferenceCode string           `json:"reference_code"`
	Invoice       *invoice.Invoice `json:"invoice,omitempty"`
	Warnings      []string         `json:"warnings,omitempty"`
}

func (app *application) checkoutHandler(w http.ResponseWriter, r *http.Request) {
	var payload checkoutPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	principal, _ := getPrincipal(r)
	result, err := app.sales.CreateSaleFromCart(r.Context(), principal.UserID, payload.CartID, payload.DeliveryAddressID)
	if err != nil {
		app.writeError(w, r, err)
		return
	}

	resp := checkoutResponse{
		Sale:          result.Summary.Sale,
		Lines:         result.Summary.Lines,
		ReferenceCode: result.ReferenceCode,
	}

	// The sale is already committed; a failed invoice must not undo it.
	if payload.CreateInvoice {
		inv, err := app.invoices.CreateInvoice(r.Context(), resp.Sale.ID, payload.DeliveryAddressID, principal.UserID, principal.IsAdmin())
		if err != nil {
			app.logger.Warnw("invoice creation after checkout failed", "sale_id", resp.Sale.ID, "error", err)
			resp.Warnings = append(resp.Warnings, "sale completed but invoice creation failed")
		} else {
			resp.Invoice = inv
		}
	}

	if err := app.jsonResponse(w, http.StatusCreated, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

func saleIDFromPath(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func (app *application) getSaleHandler(w http.ResponseWriter, r *http.Request) {
	id, err := saleIDFromPath(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	principal, _ := getPrincipal(r)

	summary, err := app.sales.GetForBuyer(r.Context(), id, principal.UserID, principal.IsAdmin())
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	if err := app.jsonResponse(w, http.StatusOK, summary); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) listSalesHandler(w http.ResponseWriter, r *http.Request) {
	principal, _ := getPrincipal(r)

	sales, err := app.sales.ListForBuyer(r.Context(), principal.UserID)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	if err := app.jsonResponse(w, http.StatusOK, sales); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) adminListSalesHandler(w http.ResponseWriter, r *http.Request) {
	sales, err := app.sales.ListAll(r.Context())
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	if err := app.jsonResponse(w, http.StatusOK, sales); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) adminGetSaleHandler(w http.ResponseWriter, r *http.Request) {
	id, err := saleIDFromPath(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	summary, err := app.sales.GetForBuyer(r.Context(), id, 0, true)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	if err := app.jsonResponse(w, http.StatusOK, summary); err != nil {
		app.internalServerError(w, r, err)
	}
}

type adjustSaleTotalPayload struct {
	Total string `json:"total" validate:"required"`
}

func (app *application) adminAdjustSaleTotalHandler(w http.ResponseWriter, r *http.Request) {
	id, err := saleIDFromPath(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	var payload adjustSaleTotalPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	total, err := decimal.NewFromString(payload.Total)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	updated, err := app.sales.AdjustTotal(r.Context(), id, total)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	if err := app.jsonResponse(w, http.StatusOK, updated); err != nil {
		app.internalServerError(w, r, err)
	}
}
