package types

import (
	"time"
)

// Tour is one bookable trip offering as returned by the remote API.
// Values are built with TourFromRecord so every field is already coerced.
type Tour struct {
	ID                 int64     `json:"id"`
	Title              string    `json:"title"`
	Description        string    `json:"description,omitempty"`
	DestinationCity    string    `json:"destinationCity"`
	Price              float64   `json:"price"`
	OriginalPrice      float64   `json:"originalPrice,omitempty"`
	DiscountPercentage float64   `json:"discountPercentage,omitempty"`
	Rating             float64   `json:"rating"`
	AvailableSeats     int       `json:"availableSeats"`
	StartDate          time.Time `json:"startDate"`
	EndDate            time.Time `json:"endDate"`
	CreationDate       time.Time `json:"creationDate"`
	CategoryID         *int64    `json:"categoryId,omitempty"`
	Tags               []string  `json:"tags"`
	Amenities          []string  `json:"amenities"`
	ImageURLs          []string  `json:"imageUrls"`
	CoverImageURL      string    `json:"coverImageUrl,omitempty"`
	CompanyID          int64     `json:"companyId"`
	CompanyName        string    `json:"companyName"`
}

// DurationDays returns the number of whole days between start and end date.
func (t Tour) DurationDays() int {
	if t.StartDate.IsZero() || t.EndDate.IsZero() || t.EndDate.Before(t.StartDate) {
		return 0
	}
	return int(t.EndDate.Sub(t.StartDate).Hours() / 24)
}

// Cover returns the cover image, falling back to the first gallery image.
func (t Tour) Cover() string {
	if t.CoverImageURL != "" {
		return t.CoverImageURL
	}
	if len(t.ImageURLs) > 0 {
		return t.ImageURLs[0]
	}
	return ""
}

// TourView is a tour annotated for the current caller.
type TourView struct {
	Tour
	IsFavourite  bool `json:"isFavourite"`
	DurationDays int  `json:"durationDays"`
}

// Category labels tours; it has no lifecycle beyond the catalog fetch.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"categoryName"`
}

// Event is an event suggestion delivered by the chat channel.
type Event struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	StartDate   time.Time `json:"startDate"`
	Price       float64   `json:"price"`
	ImageURL    string    `json:"imageUrl,omitempty"`
}

// Destination summarises the tours going to one city.
type Destination struct {
	City          string  `json:"city"`
	TourCount     int     `json:"tourCount"`
	MinPrice      float64 `json:"minPrice"`
	CoverImageURL string  `json:"coverImageUrl,omitempty"`
}

// Company is a tour operator profile.
type Company struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	LogoURL     string  `json:"logoUrl,omitempty"`
	Email       string  `json:"email,omitempty"`
	Phone       string  `json:"phone,omitempty"`
	Address     string  `json:"address,omitempty"`
	Rating      float64 `json:"rating"`
}

// CompanyProfile is a company together with the tours it operates.
type CompanyProfile struct {
	Company
	Tours []Tour `json:"tours"`
}
