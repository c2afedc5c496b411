package domain

import "time"

const (
	PropertyPending   = "pending"
	PropertyApproved  = "approved"
	PropertySuspended = "suspended"
)

// PropertyTypes are the listing categories the catalog accepts.
var PropertyTypes = []string{"apartment", "house", "room", "villa"}

type Address struct {
	Line1      string
	City       string
	Country    string
	PostalCode string
	Lat, Lng   *float64
}

type Property struct {
	ID                int64
	HostID            int64
	SourceID          *string // stable identity for seeded listings
	Title             string
	Description       string
	Type              string
	Status            string // pending|approved|suspended
	Address           Address
	MaxGuests         int
	Bedrooms          int
	Bathrooms         int
	NightlyPriceCents int64
	CleaningFeeCents  int64
	Currency          string
	Amenities         []string
	Images            []string
	Rating            *float64
	ReviewCount       int
	RawJSON           []byte // original payload for seeded listings
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func ValidPropertyType(t string) bool {
	for _, pt := range PropertyTypes {
		if pt == t {
			return true
		}
	}
	return false
}

// Queries & pages

type PropertiesQuery struct {
	Q        *string
	City     *string
	Country  *string
	Type     *string
	Amenity  *string
	Guests   *int
	MinCents *int64
	MaxCents *int64
	Limit    int
	Cursor   *string
}

type PropertiesPage struct {
	Items      []Property
	NextCursor *string
}

type PageQuery struct {
	Limit  int
	Cursor *string
	Sort   string
}

// CalendarDay is one cell of the availability grid.
type CalendarDay struct {
	Date   string `json:"date"` // YYYY-MM-DD
	Booked bool   `json:"booked"`
}

// TrendsSummary is the market snapshot shown on the host dashboard.
type TrendsSummary struct {
	City            string
	MedianRateCents int64
	Occupancy       float64
	DemandScore     float64
}
