package client

import "context"

// HealthService handles health check API calls
type HealthService struct {
	client *Client
}

// Healthz checks if the server is alive
func (s *HealthService) Healthz(ctx context.Context) error {
	return s.client.doRequest(ctx, "GET", "/healthz", nil, nil)
}

// Readyz checks if the server is ready to serve requests
func (s *HealthService) Readyz(ctx context.Context) error {
	return s.client.doRequest(ctx, "GET", "/readyz", nil, nil)
}
