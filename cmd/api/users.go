package main

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"checkoutcore/internal/auth"
	"checkoutcore/internal/domain/user"
)

// RegisterUserPayload is the request body for POST /users/register.
// Role is optional; anything other than customer requires an
// authenticated admin caller.
type RegisterUserPayload struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Name     string `json:"name" validate:"required,max=80"`
	Phone    string `json:"phone" validate:"omitempty,max=20"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=customer admin"`
}

func (app *application) registerUserHandler(w http.ResponseWriter, r *http.Request) {
	var payload RegisterUserPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	// Registration is open, so the route skips the auth middleware; a
	// bearer token, when presented, is still honored so an admin can
	// register another admin.
	requestedByAdmin := false
	if raw := auth.BearerFromRequest(r); raw != "" {
		if p, err := app.authenticator.Authenticate(r.Context(), raw); err == nil {
			requestedByAdmin = p.IsAdmin()
		}
	}

	created, err := app.users.Register(r.Context(), payload.Email, payload.Name, payload.Phone, payload.Password, user.Role(payload.Role), requestedByAdmin)
	if err != nil {
		app.writeError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, created); err != nil {
		app.internalServerError(w, r, err)
	}
}

// LoginPayload is the request body for POST /users/login.
type LoginPayload struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=1,max=72"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	UserID       int64  `json:"user_id"`
	Role         string `json:"role"`
}

func (app *application) loginHandler(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	u, pair, err := app.users.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		app.writeError(w, r, err)
		return
	}

	resp := tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		UserID:       u.ID,
		Role:         string(u.Role),
	}
	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

type refreshPayload struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func (app *application) refreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	var payload refreshPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	access, err := app.users.Refresh(r.Context(), payload.RefreshToken)
	if err != nil {
		app.writeError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"access_token": access}); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) logoutHandler(w http.ResponseWriter, r *http.Request) {
	var payload refreshPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.users.Logout(r.Context(), payload.RefreshToken); err != nil {
		app.writeError(w, r, err)
		return
	}

	_ = app.jsonResponse(w, http.StatusOK, map[string]string{"message": "logged out"})
}

type logoutAccessPayload struct {
	AccessToken string `json:"access_token" validate:"required"`
}

func (app *application) logoutAccessHandler(w http.ResponseWriter, r *http.Request) {
	var payload logoutAccessPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if payload.AccessToken == "" {
		if raw := auth.BearerFromRequest(r); raw != "" {
			payload.AccessToken = raw
		}
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.users.LogoutAccess(r.Context(), payload.AccessToken); err != nil {
		app.writeError(w, r, err)
		return
	}

	_ = app.jsonResponse(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func userIDFromPath(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func (app *application) getUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := userIDFromPath(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	principal, _ := getPrincipal(r)

	u, err := app.users.GetProfile(r.Context(), id, principal.UserID, principal.IsAdmin())
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	if err := app.jsonResponse(w, http.StatusOK, u); err != nil {
		app.internalServerError(w, r, err)
	}
}

type updateUserPayload struct {
	Name  *string `json:"name" validate:"omitempty,max=80"`
	Phone *string `json:"phone" validate:"omitempty,max=20"`
}

func (app *application) updateUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := userIDFromPath(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	var payload updateUserPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	principal, _ := getPrincipal(r)

	updated, err := app.users.UpdateProfile(r.Context(), id, user.Patch{Name: payload.Name, Phone: payload.Phone}, principal.UserID, principal.IsAdmin())
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	if err := app.jsonResponse(w, http.StatusOK, updated); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) deleteUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := userIDFromPath(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	principal, _ := getPrincipal(r)

	if err := app.users.DeleteAccount(r.Context(), id, principal.UserID, principal.IsAdmin()); err != nil {
		app.writeError(w, r, err)
		return
	}
	_ = app.jsonResponse(w, http.StatusOK, map[string]string{"message": "user deleted"})
}

func (app *application) makeAdminHandler(w http.ResponseWriter, r *http.Request) {
	id, err := userIDFromPath(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	u, err := app.users.MakeAdmin(r.Context(), id)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	if err := app.jsonResponse(w, http.StatusOK, u); err != nil {
		app.internalServerError(w, r, err)
	}
}
