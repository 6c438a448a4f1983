package models

// HealthResponse is the response for GET /healthz.
type HealthResponse struct {
	Status   string     `json:"status"`
	Uptime   string     `json:"uptime"`
	Store    StoreStats `json:"store"`
	Upstream string     `json:"upstream"`
	Version  string     `json:"version"`
}

// StoreStats reports the state of the navigation-state store.
type StoreStats struct {
	PendingResults int `json:"pending_results"`
	Visitors       int `json:"visitors"`
	InFlight       int `json:"in_flight"`
}
