package api

// Request and response bodies. Amounts cross this boundary as decimal
// dollars; everything behind it is integer cents. Pointer fields distinguish
// "absent" from zero so validation can reject missing values.

type createOrderRequest struct {
	Amount *float64 `json:"amount"`
}

type captureOrderRequest struct {
	OrderID string `json:"orderID"`
}

type capturedDonation struct {
	ID        string  `json:"id"`
	Amount    float64 `json:"amount"`
	Timestamp string  `json:"timestamp"`
}

type captureOrderResponse struct {
	Success  bool             `json:"success"`
	Donation capturedDonation `json:"donation"`
}

type updateGoFundMeRequest struct {
	Amount     *float64 `json:"amount"`
	DonorCount *int     `json:"donorCount"`
}

type updateGoFundMeResponse struct {
	Success            bool    `json:"success"`
	GofundmeOffset     float64 `json:"gofundmeOffset"`
	GofundmeDonorCount int     `json:"gofundmeDonorCount"`
	UpdatedAt          string  `json:"updatedAt"`
}

type totalsResponse struct {
	TotalRaised         float64 `json:"totalRaised"`
	PaypalTotal         float64 `json:"paypalTotal"`
	GofundmeTotal       float64 `json:"gofundmeTotal"`
	DonationCount       int     `json:"donationCount"`
	PaypalDonorCount    int     `json:"paypalDonorCount"`
	GofundmeDonorCount  int     `json:"gofundmeDonorCount"`
	Goal                float64 `json:"goal"`
	GofundmeLastUpdated *string `json:"gofundmeLastUpdated"`
}
