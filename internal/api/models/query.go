package models

// QueryTurn is one prior conversation turn, oldest first.
type QueryTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// QueryRequest is the request body for POST /v1/query:process.
type QueryRequest struct {
	// Text is the free-form query. Required.
	Text string `json:"text"`

	// History holds prior turn summaries for follow-up queries.
	History []QueryTurn `json:"history,omitempty"`

	// PriorCollections carries the collection ids selected on the
	// previous turn, so "zoom out a bit" keeps showing the same sources.
	PriorCollections []string `json:"priorCollections,omitempty"`
}

// Validate returns field errors for a malformed request.
func (q QueryRequest) Validate() []FieldError {
	var errs []FieldError
	if q.Text == "" {
		errs = append(errs, FieldError{Field: "text", Message: "text is required", Code: "required"})
	}
	if len(q.Text) > 2000 {
		errs = append(errs, FieldError{Field: "text", Message: "text must be at most 2000 characters", Code: "too_long"})
	}
	for _, turn := range q.History {
		if turn.Role != "user" && turn.Role != "assistant" {
			errs = append(errs, FieldError{
				Field:   "history",
				Message: "turn role must be \"user\" or \"assistant\"",
				Code:    "invalid",
			})
			break
		}
	}
	return errs
}
