package client

import (
	"context"
	"fmt"
	"net/url"
)

// CartService handles shopping list API calls
type CartService struct {
	client *Client
}

// CreateListRequest represents a request to create a shopping list
type CreateListRequest struct {
	OwnerID string    `json:"ownerId"`
	Name    string    `json:"name"`
	Items   []NewItem `json:"items,omitempty"`
}

// Create creates a new shopping list
func (s *CartService) Create(ctx context.Context, req CreateListRequest) (*List, error) {
	var list List
	if err := s.client.doRequest(ctx, "POST", "/api/v1/carts", req, &list); err != nil {
		return nil, err
	}

	return &list, nil
}

// Get retrieves a shopping list with its items
func (s *CartService) Get(ctx context.Context, id int64) (*List, error) {
	path := fmt.Sprintf("/api/v1/carts/%d", id)

	var list List
	if err := s.client.doRequest(ctx, "GET", path, nil, &list); err != nil {
		return nil, err
	}

	return &list, nil
}

// List retrieves the shopping list summaries for an owner
func (s *CartService) List(ctx context.Context, ownerID string) ([]Summary, error) {
	path := "/api/v1/carts?owner_id=" + url.QueryEscape(ownerID)

	var summaries []Summary
	if err := s.client.doRequest(ctx, "GET", path, nil, &summaries); err != nil {
		return nil, err
	}

	return summaries, nil
}

// Delete deletes a shopping list
func (s *CartService) Delete(ctx context.Context, id int64, ownerID string) error {
	path := fmt.Sprintf("/api/v1/carts/%d?owner_id=%s", id, url.QueryEscape(ownerID))
	return s.client.doRequest(ctx, "DELETE", path, nil, nil)
}

// AddItem adds a product to a shopping list
func (s *CartService) AddItem(ctx context.Context, listID int64, item NewItem) (*LineItem, error) {
	path := fmt.Sprintf("/api/v1/carts/%d/items", listID)

	var li LineItem
	if err := s.client.doRequest(ctx, "POST", path, item, &li); err != nil {
		return nil, err
	}

	return &li, nil
}

// UpdateQuantity changes a line item's quantity
func (s *CartService) UpdateQuantity(ctx context.Context, itemID int64, quantity int) error {
	path := fmt.Sprintf("/api/v1/carts/items/%d/quantity", itemID)
	body := map[string]int{"quantity": quantity}
	return s.client.doRequest(ctx, "PUT", path, body, nil)
}

// DeleteItem removes a line item
func (s *CartService) DeleteItem(ctx context.Context, itemID int64) error {
	path := fmt.Sprintf("/api/v1/carts/items/%d", itemID)
	return s.client.doRequest(ctx, "DELETE", path, nil, nil)
}

// MarkPurchased flips an item to purchased
func (s *CartService) MarkPurchased(ctx context.Context, itemID int64) error {
	path := fmt.Sprintf("/api/v1/carts/items/%d/purchased", itemID)
	return s.client.doRequest(ctx, "POST", path, nil, nil)
}

// Reactivate flips a purchased item back to pending
func (s *CartService) Reactivate(ctx context.Context, itemID int64) error {
	path := fmt.Sprintf("/api/v1/carts/items/%d/reactivate", itemID)
	return s.client.doRequest(ctx, "POST", path, nil, nil)
}

// Optimize recomputes a list's snapshot and returns the fresh one
func (s *CartService) Optimize(ctx context.Context, listID int64) (*Snapshot, error) {
	path := fmt.Sprintf("/api/v1/carts/%d/optimize", listID)

	var snap Snapshot
	if err := s.client.doRequest(ctx, "POST", path, nil, &snap); err != nil {
		return nil, err
	}

	return &snap, nil
}

// Snapshot retrieves the cached optimization snapshot without recomputing
func (s *CartService) Snapshot(ctx context.Context, listID int64) (*Snapshot, error) {
	path := fmt.Sprintf("/api/v1/carts/%d/snapshot", listID)

	var snap Snapshot
	if err := s.client.doRequest(ctx, "GET", path, nil, &snap); err != nil {
		return nil, err
	}

	return &snap, nil
}
