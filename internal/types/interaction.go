package types

import "strconv"

// SubjectType is the kind of entity an interaction targets.
type SubjectType string

const (
	SubjectEvent  SubjectType = "event"
	SubjectTravel SubjectType = "travel"
)

// Valid reports whether the subject type is known.
func (s SubjectType) Valid() bool {
	return s == SubjectEvent || s == SubjectTravel
}

// Interaction is a scored user action against a tour or event.
// At most one record exists per (UserID, ID); a later save replaces it.
type Interaction struct {
	UserID    string      `json:"userId"`
	ID        string      `json:"id"`
	Type      SubjectType `json:"type"`
	Checkout  int         `json:"checkout"`
	Favourite bool        `json:"favourite"`
	Like      bool        `json:"like"`
	Booked    bool        `json:"booked"`
	Total     *float64    `json:"total,omitempty"`
}

// Key returns the storage key of the interaction.
func (i Interaction) Key() InteractionKey {
	return InteractionKey{UserID: i.UserID, ID: i.ID}
}

// InteractionKey identifies one interaction record.
type InteractionKey struct {
	UserID string
	ID     string
}

// String joins user and subject id the way the local store keys them.
// The user id is length prefixed so ids containing ':' cannot collide.
func (k InteractionKey) String() string {
	return strconv.Itoa(len(k.UserID)) + ":" + k.UserID + ":" + k.ID
}

// InteractionSummary is one element of a flush batch.
type InteractionSummary struct {
	ID    string      `json:"id"`
	Type  SubjectType `json:"type"`
	Total float64     `json:"total"`
}

// InteractionBatch is the body posted to the interaction aggregator.
type InteractionBatch struct {
	UserID          string               `json:"id"`
	UserInteraction []InteractionSummary `json:"userInteraction"`
}

// RecordInteractionRequest is the body accepted by the interactions endpoint.
type RecordInteractionRequest struct {
	ID        string      `json:"id"`
	Type      SubjectType `json:"type"`
	Checkout  int         `json:"checkout"`
	Favourite bool        `json:"favourite"`
	Like      bool        `json:"like"`
	Booked    bool        `json:"booked"`
}
