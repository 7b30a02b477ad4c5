package types

// CheckoutRequest is what the UI sends to start a payment for a tour.
type CheckoutRequest struct {
	TourID      int64   `json:"tourId" example:"12"`
	Amount      float64 `json:"amount" example:"1500"`
	Currency    string  `json:"currency" example:"EGP"`
	Description string  `json:"description" example:"Luxor day trip"`
	Quantity    int     `json:"quantity,omitempty" example:"2"`
}

// CheckoutSession is the provider checkout the UI embeds or redirects to.
type CheckoutSession struct {
	OrderCode   int64   `json:"orderCode"`
	CheckoutURL string  `json:"checkoutUrl"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Provider    string  `json:"provider"`
}

// PaymentResult is the verified outcome reported by the provider webhook.
type PaymentResult struct {
	OrderCode int64 `json:"orderCode"`
	Amount    int   `json:"amount"`
	Success   bool  `json:"success"`
}
