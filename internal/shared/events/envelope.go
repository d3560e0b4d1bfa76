package events

// Event is one announced state change as delivered to callback endpoints.
// Timestamp is unix seconds of the moment the event was published.
type Event struct {
	Event     string         `json:"event"`
	Timestamp int64          `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

// Batch is the callback POST body. Number equals len(Events).
type Batch struct {
	Number int     `json:"number"`
	Events []Event `json:"events"`
}
