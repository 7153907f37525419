package dto

import (
	"time"

	"github.com/paisapro/pricewise/internal/domain/cart"
)

// NewItemRequest represents one product to add to a shopping list
type NewItemRequest struct {
	ProductName string `json:"productName" validate:"required,min=1,max=200"`
	Quantity    int    `json:"quantity" validate:"required,gte=1"`
}

// CreateListRequest represents a shopping list creation request
type CreateListRequest struct {
	OwnerID string           `json:"ownerId" validate:"required"`
	Name    string           `json:"name" validate:"required,min=1,max=100"`
	Items   []NewItemRequest `json:"items" validate:"dive"`
}

// UpdateQuantityRequest represents a quantity change for a line item
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,gte=1"`
}

// LineItemDTO represents a shopping list line item in API responses
type LineItemDTO struct {
	ID              int64               `json:"id"`
	ProductName     string              `json:"productName"`
	Quantity        int                 `json:"quantity"`
	Status          string              `json:"status"`
	NoCoverage      bool                `json:"noCoverage"`
	Recommendations []RecommendationDTO `json:"recommendations,omitempty"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

// ListDTO represents a shopping list with its items
type ListDTO struct {
	ID        int64         `json:"id"`
	OwnerID   string        `json:"ownerId"`
	Name      string        `json:"name"`
	Items     []LineItemDTO `json:"items"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// SummaryDTO represents a shopping list overview row
type SummaryDTO struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	ItemCount      int       `json:"itemCount"`
	PurchasedCount int       `json:"purchasedCount"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// SnapshotItemDTO represents one priced line inside a snapshot
type SnapshotItemDTO struct {
	ItemID             int64               `json:"itemId"`
	ProductName        string              `json:"productName"`
	Quantity           int                 `json:"quantity"`
	Status             string              `json:"status"`
	NoCoverage         bool                `json:"noCoverage"`
	Recommendations    []RecommendationDTO `json:"recommendations,omitempty"`
	LineTotalLocal     float64             `json:"lineTotalLocal"`
	LineTotalReference float64             `json:"lineTotalReference"`
	LineSavingsLocal   float64             `json:"lineSavingsLocal"`
	LineSavingsRef     float64             `json:"lineSavingsReference"`
}

// SnapshotDTO represents an optimization snapshot
type SnapshotDTO struct {
	ListID            int64             `json:"listId"`
	Items             []SnapshotItemDTO `json:"items"`
	TotalCostLocal    float64           `json:"totalCostLocal"`
	TotalCostRef      float64           `json:"totalCostReference"`
	PotentialSavLocal float64           `json:"potentialSavingsLocal"`
	PotentialSavRef   float64           `json:"potentialSavingsReference"`
	UncoveredItems    []int64           `json:"uncoveredItems,omitempty"`
	Sources           []string          `json:"sources"`
	ItemCount         int               `json:"itemCount"`
	OptimizedAt       time.Time         `json:"optimizedAt"`
}

// NewLineItemDTO converts a domain line item
func NewLineItemDTO(li cart.LineItem) LineItemDTO {
	out := LineItemDTO{
		ID:          li.ID,
		ProductName: li.ProductName,
		Quantity:    li.Quantity,
		Status:      string(li.Status),
		NoCoverage:  li.NoCoverage,
		CreatedAt:   li.CreatedAt,
		UpdatedAt:   li.UpdatedAt,
	}
	for _, r := range li.Recommendations {
		out.Recommendations = append(out.Recommendations, NewRecommendationDTO(r))
	}
	return out
}

// NewListDTO converts a domain list
func NewListDTO(l *cart.List) ListDTO {
	out := ListDTO{
		ID:        l.ID,
		OwnerID:   l.OwnerID,
		Name:      l.Name,
		Items:     make([]LineItemDTO, len(l.Items)),
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
	for i, li := range l.Items {
		out.Items[i] = NewLineItemDTO(li)
	}
	return out
}

// NewSummaryDTO converts a domain list summary
func NewSummaryDTO(s cart.Summary) SummaryDTO {
	return SummaryDTO{
		ID:             s.ID,
		Name:           s.Name,
		ItemCount:      s.ItemCount,
		PurchasedCount: s.PurchasedCount,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

// NewSnapshotDTO converts a domain snapshot
func NewSnapshotDTO(s *cart.Snapshot) SnapshotDTO {
	out := SnapshotDTO{
		ListID:            s.ListID,
		Items:             make([]SnapshotItemDTO, len(s.Items)),
		TotalCostLocal:    s.TotalCostLocal,
		TotalCostRef:      s.TotalCostRef,
		PotentialSavLocal: s.PotentialSavLocal,
		PotentialSavRef:   s.PotentialSavRef,
		UncoveredItems:    s.UncoveredItems,
		Sources:           s.Sources,
		ItemCount:         s.ItemCount,
		OptimizedAt:       s.OptimizedAt,
	}
	for i, si := range s.Items {
		item := SnapshotItemDTO{
			ItemID:             si.ItemID,
			ProductName:        si.ProductName,
			Quantity:           si.Quantity,
			Status:             string(si.Status),
			NoCoverage:         si.NoCoverage,
			LineTotalLocal:     si.LineTotalLocal,
			LineTotalReference: si.LineTotalReference,
			LineSavingsLocal:   si.LineSavingsLocal,
			LineSavingsRef:     si.LineSavingsRef,
		}
		for _, r := range si.Recommendations {
			item.Recommendations = append(item.Recommendations, NewRecommendationDTO(r))
		}
		out.Items[i] = item
	}
	return out
}

// ToNewItems converts item requests to the domain form
func ToNewItems(items []NewItemRequest) []cart.NewItem {
	out := make([]cart.NewItem, len(items))
	for i, it := range items {
		out[i] = cart.NewItem{ProductName: it.ProductName, Quantity: it.Quantity}
	}
	return out
}
