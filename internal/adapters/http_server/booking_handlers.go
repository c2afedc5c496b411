package httpserver

import (
	"net/http"
)

type stayRequest struct {
	PropertyID int64  `json:"property_id"`
	CheckIn    string `json:"check_in"`  // YYYY-MM-DD
	CheckOut   string `json:"check_out"` // YYYY-MM-DD
	Guests     int    `json:"guests"`
}

func (h *Handlers) quote(w http.ResponseWriter, r *http.Request) {
	var in stayRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	q, err := h.Bookings.Quote(r.Context(), in.PropertyID, in.CheckIn, in.CheckOut)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *Handlers) createBooking(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	var in stayRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	b, err := h.Bookings.Book(r.Context(), u.ID, in.PropertyID, in.CheckIn, in.CheckOut, in.Guests)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *Handlers) myBookings(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	page, ok := pageFromRequest(w, r, 50)
	if !ok {
		return
	}
	views, err := h.Bookings.ListForGuest(r.Context(), u.ID, page)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handlers) getBooking(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	id, err := idParam(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	b, err := h.Bookings.GetForUser(r.Context(), u, id)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *Handlers) cancelBooking(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	id, err := idParam(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	b, err := h.Bookings.Cancel(r.Context(), u.ID, id)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *Handlers) createReview(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	id, err := idParam(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	var in struct {
		Rating  float64 `json:"rating"`
		Comment string  `json:"comment"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	rv, err := h.Catalog.AddReview(r.Context(), u.ID, u.Name, id, in.Rating, in.Comment)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rv)
}

// ---- favorites ----

func (h *Handlers) listFavorites(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	ps, err := h.Catalog.ListFavorites(r.Context(), u.ID)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *Handlers) addFavorite(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	id, err := idParam(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	if err := h.Catalog.AddFavorite(r.Context(), u.ID, id); err != nil {
		fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) removeFavorite(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	id, err := idParam(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	if err := h.Catalog.RemoveFavorite(r.Context(), u.ID, id); err != nil {
		fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- notifications ----

func (h *Handlers) listNotifications(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	page, ok := pageFromRequest(w, r, 50)
	if !ok {
		return
	}
	ns, err := h.Notify.ListInbox(r.Context(), u.ID, page)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ns)
}

func (h *Handlers) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	id, err := idParam(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	if err := h.Notify.MarkRead(r.Context(), u.ID, id); err != nil {
		fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
