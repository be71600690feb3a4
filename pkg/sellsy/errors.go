package sellsy

import (
	"encoding/json"
	"fmt"
	"strings"
)

// APIError is an error envelope returned by the Sellsy API.
type APIError struct {
	Code    string
	Message string
	More    json.RawMessage
}

func (e *APIError) Error() string {
	if e.Code != "" && e.Message != "" {
		return fmt.Sprintf("sellsy API error %s: %s", e.Code, e.Message)
	}
	if e.Message != "" {
		return "sellsy API error: " + e.Message
	}
	return "sellsy API error " + e.Code
}

// parseAPIError decodes the error field of a response envelope. The vendor
// returns either a bare string or an object with code/message details.
func parseAPIError(raw json.RawMessage) error {
	if len(raw) == 0 {
		return &APIError{Message: "unknown error"}
	}

	var message string
	if err := json.Unmarshal(raw, &message); err == nil {
		return &APIError{Message: message}
	}

	var detail struct {
		Code    string          `json:"code"`
		Error   string          `json:"error"`
		Message string          `json:"message"`
		More    json.RawMessage `json:"more"`
	}
	if err := json.Unmarshal(raw, &detail); err != nil {
		return &APIError{Message: strings.TrimSpace(string(raw))}
	}

	message = detail.Error
	if message == "" {
		message = detail.Message
	}

	return &APIError{
		Code:    detail.Code,
		Message: message,
		More:    detail.More,
	}
}
