package main

import (
	"net/http"
)

type addCartLinePayload struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

type updateCartLinePayload struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

func (app *application) getCartHandler(w http.ResponseWriter, r *http.Request) {
	principal, _ := getPrincipal(r)

	c, err := app.carts.GetOrCreateActiveCart(r.Context(), principal.UserID)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	if err := app.jsonResponse(w, http.StatusOK, c); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) addCartLineHandler(w http.ResponseWriter, r *http.Request) {
	var payload addCartLinePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	principal, _ := getPrincipal(r)
	c, err := app.carts.AddLine(r.Context(), principal.UserID, payload.ProductID, payload.Quantity)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	if err := app.jsonResponse(w, http.StatusOK, c); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) updateCartLineHandler(w http.ResponseWriter, r *http.Request) {
	productID, err := productIDFromPath(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	var payload updateCartLinePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	principal, _ := getPrincipal(r)
	c, err := app.carts.UpdateLineQty(r.Context(), principal.UserID, productID, payload.Quantity)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	if err := app.jsonResponse(w, http.StatusOK, c); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) removeCartLineHandler(w http.ResponseWriter, r *http.Request) {
	productID, err := productIDFromPath(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	principal, _ := getPrincipal(r)

	if err := app.carts.RemoveLine(r.Context(), principal.UserID, productID); err != nil {
		app.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (app *application) clearCartHandler(w http.ResponseWriter, r *http.Request) {
	principal, _ := getPrincipal(r)
	if err := app.carts.Clear(r.Context(), principal.UserID); err != nil {
		app.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (app *application) cartTotalHandler(w http.ResponseWriter, r *http.Request) {
	principal, _ := getPrincipal(r)
	totals, err := app.carts.ComputeTotal(r.Context(), principal.UserID)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	if err := app.jsonResponse(w, http.StatusOK, totals); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) validateCartHandler(w http.ResponseWriter, r *http.Request) {
	principal, _ := getPrincipal(r)

	c, err := app.carts.GetOrCreateActiveCart(r.Context(), principal.UserID)
	if err != nil {
		app.writeError(w, r, err)
		return
	}

	report, err := app.carts.ValidateForCheckout(r.Context(), c.ID)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	if err := app.jsonResponse(w, http.StatusOK, report); err != nil {
		app.internalServerError(w, r, err)
	}
}
