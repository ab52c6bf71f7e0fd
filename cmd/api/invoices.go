package main

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

type createInvoicePayload struct {
	SaleID            int64 `json:"sale_id" validate:"required,gt=0"`
	DeliveryAddressID int64 `json:"delivery_address_id" validate:"required,gt=0"`
}

func invoiceIDFromPath(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func (app *application) createInvoiceHandler(w http.ResponseWriter, r *http.Request) {
	var payload createInvoicePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	principal, _ := getPrincipal(r)
	inv, err := app.invoices.CreateInvoice(r.Context(), payload.SaleID, payload.DeliveryAddressID, principal.UserID, principal.IsAdmin())
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	if err := app.jsonResponse(w, http.StatusCreated, inv); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) getInvoiceHandler(w http.ResponseWriter, r *http.Request) {
	id, err := invoiceIDFromPath(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	principal, _ := getPrincipal(r)

	inv, err := app.invoices.GetInvoice(r.Context(), id, principal.UserID, principal.IsAdmin())
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	if err := app.jsonResponse(w, http.StatusOK, inv); err != nil {
		app.internalServerError(w, r, err)
	}
}

type updateInvoicePayload struct {
	DeliveryAddressID int64 `json:"delivery_address_id" validate:"required,gt=0"`
}

func (app *application) updateInvoiceHandler(w http.ResponseWriter, r *http.Request) {
	id, err := invoiceIDFromPath(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	var payload updateInvoicePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	principal, _ := getPrincipal(r)

	inv, err := app.invoices.UpdateInvoice(r.Context(), id, payload.DeliveryAddressID, principal.UserID, principal.IsAdmin())
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	if err := app.jsonResponse(w, http.StatusOK, inv); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) deleteInvoiceHandler(w http.ResponseWriter, r *http.Request) {
	id, err := invoiceIDFromPath(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	principal, _ := getPrincipal(r)

	if err := app.invoices.DeleteInvoice(r.Context(), id, principal.UserID, principal.IsAdmin()); err != nil {
		app.writeError(w, r, err)
		return
	}
	_ = app.jsonResponse(w, http.StatusOK, map[string]string{"message": "invoice deleted"})
}
