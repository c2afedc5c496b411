package httpserver

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/rs/zerolog/log"

	"stayhub/internal/app"
	"stayhub/internal/domain"
)

// The dashboard endpoints answer in the fire-and-refetch shape the panels
// expect: {"ok": true, ...} with the refreshed record inline.

func renderErr(w http.ResponseWriter, r *http.Request, err error) {
	status, _ := errStatus(err)
	render.Status(r, status)
	if status >= 500 {
		log.Error().Err(err).Msg("request failed")
		render.JSON(w, r, map[string]any{"error": "internal_error"})
		return
	}
	token := strings.ReplaceAll(strings.ToLower(http.StatusText(status)), " ", "_")
	render.JSON(w, r, map[string]any{"error": token, "detail": detailOf(err)})
}

type listingRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Address     struct {
		Line1      string   `json:"line1"`
		City       string   `json:"city"`
		Country    string   `json:"country"`
		PostalCode string   `json:"postal_code"`
		Lat        *float64 `json:"lat"`
		Lng        *float64 `json:"lng"`
	} `json:"address"`
	MaxGuests         int      `json:"max_guests"`
	Bedrooms          int      `json:"bedrooms"`
	Bathrooms         int      `json:"bathrooms"`
	NightlyPriceCents int64    `json:"nightly_price_cents"`
	CleaningFeeCents  int64    `json:"cleaning_fee_cents"`
	Currency          string   `json:"currency"`
	Amenities         []string `json:"amenities"`
	Images            []string `json:"images"`
}

func (in listingRequest) input() app.PropertyInput {
	return app.PropertyInput{
		Title:       in.Title,
		Description: in.Description,
		Type:        in.Type,
		Address: domain.Address{
			Line1:      in.Address.Line1,
			City:       in.Address.City,
			Country:    in.Address.Country,
			PostalCode: in.Address.PostalCode,
			Lat:        in.Address.Lat,
			Lng:        in.Address.Lng,
		},
		MaxGuests:         in.MaxGuests,
		Bedrooms:          in.Bedrooms,
		Bathrooms:         in.Bathrooms,
		NightlyPriceCents: in.NightlyPriceCents,
		CleaningFeeCents:  in.CleaningFeeCents,
		Currency:          in.Currency,
		Amenities:         in.Amenities,
		Images:            in.Images,
	}
}

func (h *Handlers) hostDashboard(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	stats, err := h.Host.Dashboard(r.Context(), u.ID)
	if err != nil {
		renderErr(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{"ok": true, "stats": stats})
}

func (h *Handlers) hostListings(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	ps, err := h.Host.ListMine(r.Context(), u.ID)
	if err != nil {
		renderErr(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{"ok": true, "count": len(ps), "properties": ps})
}

func (h *Handlers) hostCreateListing(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	var in listingRequest
	if err := render.DecodeJSON(r.Body, &in); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]any{"error": "invalid_json", "detail": err.Error()})
		return
	}
	p, err := h.Host.CreateProperty(r.Context(), u.ID, in.input())
	if err != nil {
		renderErr(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]any{"ok": true, "property": p})
}

func (h *Handlers) hostUpdateListing(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	id, err := idParam(r)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]any{"error": "bad_request", "detail": err.Error()})
		return
	}
	var in listingRequest
	if err := render.DecodeJSON(r.Body, &in); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]any{"error": "invalid_json", "detail": err.Error()})
		return
	}
	p, err := h.Host.UpdateProperty(r.Context(), u.ID, id, in.input())
	if err != nil {
		renderErr(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{"ok": true, "property": p})
}

func (h *Handlers) hostBookings(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	page, ok := pageFromRequest(w, r, 50)
	if !ok {
		return
	}
	views, err := h.Host.ListRequests(r.Context(), u.ID, qStr(r, "status"), page)
	if err != nil {
		renderErr(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{"ok": true, "count": len(views), "bookings": views})
}

func (h *Handlers) hostConfirmBooking(w http.ResponseWriter, r *http.Request) {
	h.hostDecide(w, r, h.Bookings.Confirm)
}

func (h *Handlers) hostRejectBooking(w http.ResponseWriter, r *http.Request) {
	h.hostDecide(w, r, h.Bookings.Reject)
}

func (h *Handlers) hostDecide(w http.ResponseWriter, r *http.Request, decide func(context.Context, int64, int64) (domain.Booking, error)) {
	u, _ := userFrom(r.Context())
	id, err := idParam(r)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]any{"error": "bad_request", "detail": err.Error()})
		return
	}
	b, err := decide(r.Context(), u.ID, id)
	if err != nil {
		renderErr(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{"ok": true, "booking": b})
}
