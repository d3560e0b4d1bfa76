package httptransport

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RegisterCallbackRequest struct {
	URL    string  `json:"url"`
	Secret *string `json:"secret,omitempty"`
}

type CallbackResponse struct {
	CallbackID string `json:"id"`
	URL        string `json:"url"`
	Created    int64  `json:"created"`
}

type CallbacksResponse struct {
	Items []CallbackResponse `json:"items"`
}
