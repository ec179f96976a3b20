package api

// PaymentsRequest represents the query parameters for GET /payments
type PaymentsRequest struct {
	User    string `query:"user"`     // Optional account filter, matches sender or recipient
	Status  string `query:"status"`   // Optional payment status filter
	Page    uint64 `query:"page"`     // Page number for pagination (default: 1)
	PerPage uint64 `query:"per_page"` // Number of items per page (default: 50, max: 100)
}

// Payment represents a single payment in API responses
type Payment struct {
	ID            string `json:"id"`
	From          string `json:"from"`
	To            string `json:"to"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	Memo          string `json:"memo,omitempty"`
	Type          string `json:"type"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at"`
	ProcessedAt   string `json:"processed_at,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
	ErrorMessage  string `json:"error_message,omitempty"`
}

// PaymentsResponse represents the API response format for GET /payments
type PaymentsResponse struct {
	Data []Payment `json:"data"`
}

// Batch represents a payment batch in API responses
type Batch struct {
	ID            string    `json:"id"`
	CreatedBy     string    `json:"created_by"`
	Status        string    `json:"status"`
	TotalAmount   string    `json:"total_amount"`
	Currency      string    `json:"currency"`
	CreatedAt     string    `json:"created_at"`
	TransactionID string    `json:"transaction_id,omitempty"`
	ErrorMessage  string    `json:"error_message,omitempty"`
	Payments      []Payment `json:"payments"`
}

// BatchResultRequest represents the body of POST /batches/{id}/result, the
// wallet client's report of a batch submission outcome
type BatchResultRequest struct {
	Success       bool     `json:"success"`
	TransactionID string   `json:"transaction_id"`
	Completed     []string `json:"completed,omitempty"` // Recipients paid on chain
	Failed        []string `json:"failed,omitempty"`    // Recipients not paid
	ErrorMessage  string   `json:"error_message,omitempty"`
}
