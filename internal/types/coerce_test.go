package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeRecord(t *testing.T, s string) Record {
	t.Helper()
	var r Record
	require.NoError(t, json.Unmarshal([]byte(s), &r))
	return r
}

func TestTourFromRecord(t *testing.T) {
	t.Run("well formed record", func(t *testing.T) {
		r := decodeRecord(t, `{
			"id": 12, "title": "Karnak Temple", "destinationCity": "Luxor",
			"price": 150.5, "discountPercentage": 10, "rating": 4.5,
			"availableSeats": 8, "startDate": "2025-03-01T08:00:00Z", "endDate": "2025-03-04",
			"creationDate": "2024-12-01T10:00:00.123", "categoryId": 3,
			"tags": ["history", "", 7], "imageUrls": ["a.jpg", "b.jpg"],
			"company": {"id": 4, "name": "Nile Voyages"}
		}`)

		tour := TourFromRecord(r)
		assert.Equal(t, int64(12), tour.ID)
		assert.Equal(t, "Karnak Temple", tour.Title)
		assert.Equal(t, "Luxor", tour.DestinationCity)
		assert.InDelta(t, 150.5, tour.Price, 1e-9)
		assert.Equal(t, 8, tour.AvailableSeats)
		require.NotNil(t, tour.CategoryID)
		assert.Equal(t, int64(3), *tour.CategoryID)
		assert.Equal(t, []string{"history"}, tour.Tags)
		assert.Equal(t, "a.jpg", tour.Cover())
		assert.Equal(t, int64(4), tour.CompanyID)
		assert.Equal(t, "Nile Voyages", tour.CompanyName)
		assert.Equal(t, time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC), tour.StartDate)
		assert.Equal(t, 2, tour.DurationDays())
		assert.False(t, tour.CreationDate.IsZero())
	})

	t.Run("alternate keys and string numbers", func(t *testing.T) {
		r := decodeRecord(t, `{"travelId": "7", "name": "Felucca", "city": "Aswan", "price": " 80 ", "averageRating": "4"}`)

		tour := TourFromRecord(r)
		assert.Equal(t, int64(7), tour.ID)
		assert.Equal(t, "Felucca", tour.Title)
		assert.Equal(t, "Aswan", tour.DestinationCity)
		assert.InDelta(t, 80, tour.Price, 1e-9)
		assert.InDelta(t, 4, tour.Rating, 1e-9)
	})

	t.Run("malformed fields fall back to defaults", func(t *testing.T) {
		r := decodeRecord(t, `{"id": 1, "price": -5, "rating": 9, "discountPercentage": -3,
			"startDate": "next week", "tags": "not-a-list", "categoryId": "abc"}`)

		tour := TourFromRecord(r)
		assert.Zero(t, tour.Price)
		assert.Equal(t, 5.0, tour.Rating)
		assert.Zero(t, tour.DiscountPercentage)
		assert.True(t, tour.StartDate.IsZero())
		assert.NotNil(t, tour.Tags)
		assert.Empty(t, tour.Tags)
		assert.Nil(t, tour.CategoryID)
		assert.Zero(t, tour.DurationDays())
	})

	t.Run("non finite numbers fall back to defaults", func(t *testing.T) {
		r := decodeRecord(t, `{"id": 2, "price": "Infinity", "originalPrice": "-Inf", "rating": "Inf",
			"discountPercentage": "NaN", "availableSeats": "+Infinity"}`)

		tour := TourFromRecord(r)
		assert.Zero(t, tour.Price)
		assert.Zero(t, tour.OriginalPrice)
		assert.Zero(t, tour.Rating)
		assert.Zero(t, tour.DiscountPercentage)
		assert.Zero(t, tour.AvailableSeats)
	})

	t.Run("empty record", func(t *testing.T) {
		tour := TourFromRecord(Record{})
		assert.Zero(t, tour.ID)
		assert.NotNil(t, tour.ImageURLs)
		assert.Equal(t, "", tour.Cover())
	})
}

func TestToursFromRecords_NeverNil(t *testing.T) {
	assert.NotNil(t, ToursFromRecords(nil))
	assert.Len(t, ToursFromRecords([]Record{{"id": 1.0}, {"id": 2.0}}), 2)
}

func TestCategoryAndCompanyFromRecord(t *testing.T) {
	c := CategoryFromRecord(decodeRecord(t, `{"id": 2, "categoryName": "Desert"}`))
	assert.Equal(t, Category{ID: 2, Name: "Desert"}, c)

	co := CompanyFromRecord(decodeRecord(t, `{"id": 9, "companyName": "Desert Tracks", "phoneNumber": "+20 100", "rating": -1}`))
	assert.Equal(t, "Desert Tracks", co.Name)
	assert.Equal(t, "+20 100", co.Phone)
	assert.Zero(t, co.Rating)
}

func TestEventFromRecord(t *testing.T) {
	e := EventFromRecord(decodeRecord(t, `{"eventId": 3, "name": "Abu Simbel Sun Festival", "city": "Aswan", "date": "2025-02-22"}`))
	assert.Equal(t, int64(3), e.ID)
	assert.Equal(t, "Abu Simbel Sun Festival", e.Title)
	assert.Equal(t, "Aswan", e.Location)
	assert.Equal(t, time.Date(2025, 2, 22, 0, 0, 0, 0, time.UTC), e.StartDate)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		ok   bool
		want time.Time
	}{
		{in: "2025-01-02", ok: true, want: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)},
		{in: "2025-01-02T03:04:05Z", ok: true, want: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)},
		{in: "2025-01-02T05:04:05+02:00", ok: true, want: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)},
		{in: "2025-01-02 03:04:05", ok: true, want: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)},
		{in: "  ", ok: false},
		{in: "02/01/2025", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDate(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.want.Equal(got), "got %s", got)
			}
		})
	}
}

func TestClaimsIdentity(t *testing.T) {
	t.Run("first non-empty id wins", func(t *testing.T) {
		c := Claims{NameID: "n-1", UniqueNm: "nour", DotnetEml: "nour@example.com"}
		c.Subject = "sub-1"
		user := c.Identity("tok")
		require.NotNil(t, user)
		assert.Equal(t, "n-1", user.ID)
		assert.Equal(t, "nour", user.Name)
		assert.Equal(t, "nour@example.com", user.Email)
		assert.Equal(t, "tok", user.Token)
	})

	t.Run("no id", func(t *testing.T) {
		c := Claims{Name: "anon"}
		assert.Nil(t, c.Identity("tok"))
	})
}
