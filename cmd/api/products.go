package main

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"checkoutcore/internal/domain/product"
)

type createProductPayload struct {
	Name        string `json:"name" validate:"required,max=150"`
	Description string `json:"description" validate:"max=2000"`
	Price       string `json:"price" validate:"required"`
	Stock       int    `json:"stock" validate:"gte=0"`
}

func productIDFromPath(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func (app *application) createProductHandler(w http.ResponseWriter, r *http.Request) {
	var payload createProductPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	price, err := decimal.NewFromString(payload.Price)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	p := &product.Product{
		Name:        payload.Name,
		Description: payload.Description,
		Price:       price,
		Stock:       payload.Stock,
	}

	created, err := app.products.Create(r.Context(), p)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	if err := app.jsonResponse(w, http.StatusCreated, created); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) getProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := productIDFromPath(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	p, err := app.products.GetByID(r.Context(), id)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	if err := app.jsonResponse(w, http.StatusOK, p); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) listProductsHandler(w http.ResponseWriter, r *http.Request) {
	products, err := app.products.GetAll(r.Context())
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	if err := app.jsonResponse(w, http.StatusOK, products); err != nil {
		app.internalServerError(w, r, err)
	}
}

type updateProductPayload struct {
	Name        *string `json:"name" validate:"omitempty,max=150"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Price       *string `json:"price" validate:"omitempty"`
	Stock       *int    `json:"stock" validate:"omitempty,gte=0"`
}

func (app *application) updateProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := productIDFromPath(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	var payload updateProductPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	patch := product.Patch{Name: payload.Name, Description: payload.Description, Stock: payload.Stock}
	if payload.Price != nil {
		price, err := decimal.NewFromString(*payload.Price)
		if err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
		patch.Price = &price
	}

	updated, err := app.products.Update(r.Context(), id, patch)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	if err := app.jsonResponse(w, http.StatusOK, updated); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) deleteProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := productIDFromPath(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := app.products.Delete(r.Context(), id); err != nil {
		app.writeError(w, r, err)
		return
	}
	_ = app.jsonResponse(w, http.StatusOK, map[string]string{"message": "product deleted"})
}
