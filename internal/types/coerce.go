package types

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Record is an untrusted JSON object received from a collaborator.
type Record = map[string]any

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// TourFromRecord coerces an untrusted record into a Tour. Missing or malformed
// fields fall back to their defaults; the record is never rejected.
func TourFromRecord(r Record) Tour {
	t := Tour{
		ID:                 Int64Field(r, "id", "travelId", "tourId"),
		Title:              StringField(r, "title", "name"),
		Description:        StringField(r, "description"),
		DestinationCity:    StringField(r, "destinationCity", "destination", "city"),
		Price:              nonNegative(FloatField(r, "price")),
		OriginalPrice:      nonNegative(FloatField(r, "originalPrice")),
		DiscountPercentage: clamp(FloatField(r, "discountPercentage", "discount"), 0, 100),
		Rating:             clamp(FloatField(r, "rating", "averageRating"), 0, 5),
		AvailableSeats:     int(nonNegative(FloatField(r, "availableSeats", "seats"))),
		StartDate:          TimeField(r, "startDate"),
		EndDate:            TimeField(r, "endDate"),
		CreationDate:       TimeField(r, "creationDate", "createdAt"),
		Tags:               StringsField(r, "tags"),
		Amenities:          StringsField(r, "amenities"),
		ImageURLs:          StringsField(r, "imageUrls", "images"),
		CoverImageURL:      StringField(r, "coverImageUrl", "coverImage"),
		CompanyID:          Int64Field(r, "companyId"),
		CompanyName:        StringField(r, "companyName"),
	}
	if id, ok := optionalInt64(r, "categoryId"); ok {
		t.CategoryID = &id
	}
	if t.CompanyName == "" {
		if c, ok := r["company"].(map[string]any); ok {
			t.CompanyName = StringField(c, "name", "companyName")
			if t.CompanyID == 0 {
				t.CompanyID = Int64Field(c, "id")
			}
		}
	}
	return t
}

// ToursFromRecords coerces a list of records; it never returns nil.
func ToursFromRecords(rs []Record) []Tour {
	tours := make([]Tour, 0, len(rs))
	for _, r := range rs {
		tours = append(tours, TourFromRecord(r))
	}
	return tours
}

// CategoryFromRecord coerces an untrusted category record.
func CategoryFromRecord(r Record) Category {
	return Category{
		ID:   Int64Field(r, "id"),
		Name: StringField(r, "categoryName", "name"),
	}
}

// EventFromRecord coerces an untrusted event record.
func EventFromRecord(r Record) Event {
	return Event{
		ID:          Int64Field(r, "id", "eventId"),
		Title:       StringField(r, "title", "name"),
		Description: StringField(r, "description"),
		Location:    StringField(r, "location", "city"),
		StartDate:   TimeField(r, "startDate", "date"),
		Price:       nonNegative(FloatField(r, "price")),
		ImageURL:    StringField(r, "imageUrl", "image"),
	}
}

// CompanyFromRecord coerces an untrusted company record.
func CompanyFromRecord(r Record) Company {
	return Company{
		ID:          Int64Field(r, "id"),
		Name:        StringField(r, "name", "companyName"),
		Description: StringField(r, "description"),
		LogoURL:     StringField(r, "logoUrl", "logo"),
		Email:       StringField(r, "email"),
		Phone:       StringField(r, "phone", "phoneNumber"),
		Address:     StringField(r, "address"),
		Rating:      clamp(FloatField(r, "rating"), 0, 5),
	}
}

// StringField returns the first non-empty string stored under one of keys.
func StringField(r Record, keys ...string) string {
	for _, k := range keys {
		switch v := r[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case json.Number:
			return v.String()
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// FloatField returns the first numeric value stored under one of keys, or 0.
func FloatField(r Record, keys ...string) float64 {
	for _, k := range keys {
		if f, ok := toFloat(r[k]); ok {
			return f
		}
	}
	return 0
}

// Int64Field returns the first integral value stored under one of keys, or 0.
func Int64Field(r Record, keys ...string) int64 {
	for _, k := range keys {
		if n, ok := optionalInt64(r, k); ok {
			return n
		}
	}
	return 0
}

// TimeField returns the first parseable date stored under one of keys.
// The zero time means absent or unparseable.
func TimeField(r Record, keys ...string) time.Time {
	for _, k := range keys {
		s, ok := r[k].(string)
		if !ok {
			continue
		}
		if t, ok := ParseDate(s); ok {
			return t
		}
	}
	return time.Time{}
}

// StringsField returns the string elements of the first list under one of keys.
// The result is never nil.
func StringsField(r Record, keys ...string) []string {
	for _, k := range keys {
		list, ok := r[k].([]any)
		if !ok {
			continue
		}
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return []string{}
}

// ParseDate parses the date formats the remote API is known to emit.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func optionalInt64(r Record, key string) (int64, bool) {
	f, ok := toFloat(r[key])
	if !ok {
		return 0, false
	}
	return int64(f), true
}

// toFloat rejects NaN and the infinities so non-finite input falls back to defaults.
func toFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		var err error
		if f, err = n.Float64(); err != nil {
			return 0, false
		}
	case string:
		var err error
		if f, err = strconv.ParseFloat(strings.TrimSpace(n), 64); err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func nonNegative(f float64) float64 {
	if f < 0 || math.IsNaN(f) {
		return 0
	}
	return f
}

func clamp(f, lo, hi float64) float64 {
	if math.IsNaN(f) || f < lo {
		return lo
	}
	if f > hi {
		return hi
	}
	return f
}
