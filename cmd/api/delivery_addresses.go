package main

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"checkoutcore/internal/domain/deliveryaddress"
)

type createDeliveryAddressPayload struct {
	Street     string `json:"street" validate:"required,max=200"`
	City       string `json:"city" validate:"required,max=100"`
	PostalCode string `json:"postal_code" validate:"required,max=20"`
	Country    string `json:"country" validate:"required,max=60"`
}

func addressIDFromPath(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "aid"), 10, 64)
}

func (app *application) createDeliveryAddressHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, err := userIDFromPath(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	principal, _ := getPrincipal(r)
	if !principal.IsAdmin() && principal.UserID != ownerID {
		app.forbiddenResponse(w, r)
		return
	}

	var payload createDeliveryAddressPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	a := &deliveryaddress.DeliveryAddress{
		Street:     payload.Street,
		City:       payload.City,
		PostalCode: payload.PostalCode,
		Country:    payload.Country,
	}

	created, err := app.addresses.Create(r.Context(), ownerID, a)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	if err := app.jsonResponse(w, http.StatusCreated, created); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) listDeliveryAddressesHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, err := userIDFromPath(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	principal, _ := getPrincipal(r)
	if !principal.IsAdmin() && principal.UserID != ownerID {
		app.forbiddenResponse(w, r)
		return
	}

	addrs, err := app.addresses.ListForUser(r.Context(), ownerID)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	if err := app.jsonResponse(w, http.StatusOK, addrs); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) getDeliveryAddressHandler(w http.ResponseWriter, r *http.Request) {
	id, err := addressIDFromPath(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	principal, _ := getPrincipal(r)

	a, err := app.addresses.Get(r.Context(), id, principal.UserID, principal.IsAdmin())
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	if err := app.jsonResponse(w, http.StatusOK, a); err != nil {
		app.internalServerError(w, r, err)
	}
}

type updateDeliveryAddressPayload struct {
	Street     *string `json:"street" validate:"omitempty,max=200"`
	City       *string `json:"city" validate:"omitempty,max=100"`
	PostalCode *string `json:"postal_code" validate:"omitempty,max=20"`
	Country    *string `json:"country" validate:"omitempty,max=60"`
}

func (app *application) updateDeliveryAddressHandler(w http.ResponseWriter, r *http.Request) {
	id, err := addressIDFromPath(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	var payload updateDeliveryAddressPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	principal, _ := getPrincipal(r)

	patch := deliveryaddress.Patch{
		Street:     payload.Street,
		City:       payload.City,
		PostalCode: payload.PostalCode,
		Country:    payload.Country,
	}
	updated, err := app.addresses.Update(r.Context(), id, patch, principal.UserID, principal.IsAdmin())
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	if err := app.jsonResponse(w, http.StatusOK, updated); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) deleteDeliveryAddressHandler(w http.ResponseWriter, r *http.Request) {
	id, err := addressIDFromPath(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	principal, _ := getPrincipal(r)

	if err := app.addresses.Delete(r.Context(), id, principal.UserID, principal.IsAdmin()); err != nil {
		app.writeError(w, r, err)
		return
	}
	_ = app.jsonResponse(w, http.StatusOK, map[string]string{"message": "delivery address deleted"})
}
