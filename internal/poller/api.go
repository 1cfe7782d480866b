package poller

import "home-energy-backend/internal/telemetry"

// ApiDevice represents a single device record from the telemetry source.
type ApiDevice struct {
	ID       string                 `json:"id"`
	Name     string                 `json:"name"`
	Category string                 `json:"category"`
	Model    string                 `json:"model"`
	IP       string                 `json:"ip"`
	Online   bool                   `json:"online"`
	Status   []telemetry.StatusCode `json:"status"`
}

// ApiResponse models the top-level structure of the telemetry source's
// response.
type ApiResponse struct {
	Code int `json:"code"`
	Data struct {
		Page     int         `json:"page"`
		PageSize int         `json:"pageSize"`
		Total    int         `json:"total"`
		Items    []ApiDevice `json:"items"`
	} `json:"data"`
}
