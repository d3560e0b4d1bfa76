package entities

import "time"

// Callback is one registered delivery endpoint. Secret, when set, is sent
// as a bearer token on every delivery.
type Callback struct {
	CallbackID string
	URL        string
	Secret     *string
	CreatedAt  time.Time
}
