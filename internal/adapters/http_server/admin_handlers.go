package httpserver

import (
	"context"
	"net/http"

	"github.com/go-chi/render"

	"stayhub/internal/domain"
)

func (h *Handlers) adminOverview(w http.ResponseWriter, r *http.Request) {
	ov, err := h.Admin.Overview(r.Context())
	if err != nil {
		renderErr(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{"ok": true, "overview": ov})
}

func (h *Handlers) adminUsers(w http.ResponseWriter, r *http.Request) {
	page, ok := pageFromRequest(w, r, 50)
	if !ok {
		return
	}
	us, err := h.Admin.ListUsers(r.Context(), page)
	if err != nil {
		renderErr(w, r, err)
		return
	}
	views := make([]userView, 0, len(us))
	for _, u := range us {
		views = append(views, viewUser(u))
	}
	render.JSON(w, r, map[string]any{"ok": true, "count": len(views), "users": views})
}

func (h *Handlers) adminSetUserActive(w http.ResponseWriter, r *http.Request) {
	admin, _ := userFrom(r.Context())
	id, err := idParam(r)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]any{"error": "bad_request", "detail": err.Error()})
		return
	}
	var in struct {
		Active bool `json:"active"`
	}
	if err := render.DecodeJSON(r.Body, &in); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]any{"error": "invalid_json", "detail": err.Error()})
		return
	}
	u, err := h.Admin.SetUserActive(r.Context(), admin.ID, id, in.Active)
	if err != nil {
		renderErr(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{"ok": true, "user": viewUser(u)})
}

func (h *Handlers) adminProperties(w http.ResponseWriter, r *http.Request) {
	page, ok := pageFromRequest(w, r, 50)
	if !ok {
		return
	}
	status := domain.PropertyPending
	if s := qStr(r, "status"); s != nil {
		status = *s
	}
	ps, err := h.Admin.ListPropertiesByStatus(r.Context(), status, page)
	if err != nil {
		renderErr(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{"ok": true, "count": len(ps), "properties": ps})
}

func (h *Handlers) adminApproveProperty(w http.ResponseWriter, r *http.Request) {
	h.adminModerate(w, r, h.Admin.ApproveProperty)
}

func (h *Handlers) adminSuspendProperty(w http.ResponseWriter, r *http.Request) {
	h.adminModerate(w, r, h.Admin.SuspendProperty)
}

func (h *Handlers) adminModerate(w http.ResponseWriter, r *http.Request, act func(context.Context, int64) (domain.Property, error)) {
	id, err := idParam(r)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]any{"error": "bad_request", "detail": err.Error()})
		return
	}
	p, err := act(r.Context(), id)
	if err != nil {
		renderErr(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{"ok": true, "property": p})
}

func (h *Handlers) adminBookings(w http.ResponseWriter, r *http.Request) {
	page, ok := pageFromRequest(w, r, 50)
	if !ok {
		return
	}
	views, err := h.Admin.ListBookings(r.Context(), qStr(r, "status"), page)
	if err != nil {
		renderErr(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{"ok": true, "count": len(views), "bookings": views})
}
