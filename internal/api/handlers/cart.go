package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/paisapro/pricewise/internal/api/dto"
	"github.com/paisapro/pricewise/internal/optimizer"
	"github.com/paisapro/pricewise/internal/pkg/errors"
	"github.com/paisapro/pricewise/internal/pkg/logger"
	"github.com/paisapro/pricewise/internal/pkg/utils"
	"github.com/paisapro/pricewise/internal/pkg/validator"
)

// CartHandler serves shopping list management and optimization
type CartHandler struct {
	service   *optimizer.Service
	logger    *logger.Logger
	validator *validator.Validator
}

// NewCartHandler creates a new cart handler
func NewCartHandler(service *optimizer.Service, log *logger.Logger, val *validator.Validator) *CartHandler {
	return &CartHandler{
		service:   service,
		logger:    log,
		validator: val,
	}
}

// Create creates a shopping list
// @Summary Create shopping list
// @Description Create a shopping list with optional initial items
// @Tags Carts
// @Accept json
// @Produce json
// @Param request body dto.CreateListRequest true "List details"
// @Success 201 {object} utils.SuccessResponse{data=dto.ListDTO} "Created list"
// @Failure 400 {object} utils.ErrorResponse "Invalid request"
// @Failure 409 {object} utils.ErrorResponse "Duplicate list name"
// @Router /carts [post]
func (h *CartHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}
	if verrs := h.validator.Validate(req); len(verrs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", verrs))
		return
	}

	list, err := h.service.CreateList(r.Context(), req.OwnerID, req.Name, dto.ToNewItems(req.Items))
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to create list")
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, dto.NewListDTO(list))
}

// Get returns a shopping list with its items
// @Summary Get shopping list
// @Description Get a shopping list with its items and stored recommendations
// @Tags Carts
// @Produce json
// @Param id path int true "List ID"
// @Success 200 {object} utils.SuccessResponse{data=dto.ListDTO} "List details"
// @Failure 404 {object} utils.ErrorResponse "List not found"
// @Router /carts/{id} [get]
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		utils.WriteError(w, err.(*errors.AppError))
		return
	}
	list, err := h.service.GetList(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to get list")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, dto.NewListDTO(list))
}

// Overview returns the lists belonging to an owner
// @Summary List shopping lists
// @Description Get per-list summaries for an owner
// @Tags Carts
// @Produce json
// @Param owner_id query string true "Owner ID"
// @Success 200 {object} utils.SuccessResponse{data=[]dto.SummaryDTO} "List summaries"
// @Failure 400 {object} utils.ErrorResponse "Missing owner"
// @Router /carts [get]
func (h *CartHandler) Overview(w http.ResponseWriter, r *http.Request) {
	ownerID := strings.TrimSpace(r.URL.Query().Get("owner_id"))
	if ownerID == "" {
		utils.WriteError(w, errors.BadRequest("owner_id is required"))
		return
	}
	summaries, err := h.service.Overview(r.Context(), ownerID)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to list carts")
		return
	}
	out := make([]dto.SummaryDTO, len(summaries))
	for i, s := range summaries {
		out[i] = dto.NewSummaryDTO(s)
	}
	utils.WriteSuccess(w, http.StatusOK, out)
}

// Delete removes a shopping list
// @Summary Delete shopping list
// @Description Delete a list with its items, recommendations and snapshot
// @Tags Carts
// @Produce json
// @Param id path int true "List ID"
// @Param owner_id query string true "Owner ID"
// @Success 200 {object} utils.SuccessResponse "Deleted"
// @Failure 404 {object} utils.ErrorResponse "List not found"
// @Router /carts/{id} [delete]
func (h *CartHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		utils.WriteError(w, err.(*errors.AppError))
		return
	}
	ownerID := strings.TrimSpace(r.URL.Query().Get("owner_id"))
	if ownerID == "" {
		utils.WriteError(w, errors.BadRequest("owner_id is required"))
		return
	}
	if err := h.service.DeleteList(r.Context(), id, ownerID); err != nil {
		writeServiceError(w, h.logger, err, "Failed to delete list")
		return
	}
	utils.WriteSuccessWithMessage(w, http.StatusOK, "List deleted", nil)
}

// AddItem adds a product to a list
// @Summary Add item
// @Description Add a product to a list; an existing product has its quantity increased
// @Tags Carts
// @Accept json
// @Produce json
// @Param id path int true "List ID"
// @Param request body dto.NewItemRequest true "Item details"
// @Success 201 {object} utils.SuccessResponse{data=dto.LineItemDTO} "Added item"
// @Failure 404 {object} utils.ErrorResponse "List not found"
// @Router /carts/{id}/items [post]
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		utils.WriteError(w, err.(*errors.AppError))
		return
	}
	var req dto.NewItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}
	if verrs := h.validator.Validate(req); len(verrs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", verrs))
		return
	}

	item, err := h.service.AddItem(r.Context(), id, dto.ToNewItems([]dto.NewItemRequest{req})[0])
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to add item")
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, dto.NewLineItemDTO(*item))
}

// UpdateQuantity changes a line item's quantity
// @Summary Update item quantity
// @Tags Carts
// @Accept json
// @Produce json
// @Param itemID path int true "Item ID"
// @Param request body dto.UpdateQuantityRequest true "New quantity"
// @Success 200 {object} utils.SuccessResponse "Updated"
// @Failure 404 {object} utils.ErrorResponse "Item not found"
// @Router /carts/items/{itemID}/quantity [put]
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathID(r, "itemID")
	if err != nil {
		utils.WriteError(w, err.(*errors.AppError))
		return
	}
	var req dto.UpdateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}
	if verrs := h.validator.Validate(req); len(verrs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", verrs))
		return
	}

	if err := h.service.UpdateItemQuantity(r.Context(), itemID, req.Quantity); err != nil {
		writeServiceError(w, h.logger, err, "Failed to update quantity")
		return
	}
	utils.WriteSuccessWithMessage(w, http.StatusOK, "Quantity updated", nil)
}

// DeleteItem removes a line item
// @Summary Delete item
// @Tags Carts
// @Produce json
// @Param itemID path int true "Item ID"
// @Success 200 {object} utils.SuccessResponse "Deleted"
// @Failure 404 {object} utils.ErrorResponse "Item not found"
// @Router /carts/items/{itemID} [delete]
func (h *CartHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathID(r, "itemID")
	if err != nil {
		utils.WriteError(w, err.(*errors.AppError))
		return
	}
	if err := h.service.DeleteItem(r.Context(), itemID); err != nil {
		writeServiceError(w, h.logger, err, "Failed to delete item")
		return
	}
	utils.WriteSuccessWithMessage(w, http.StatusOK, "Item deleted", nil)
}

// MarkPurchased flips an item to purchased
// @Summary Mark item purchased
// @Description Mark an item purchased; completing the whole list emits an expense event
// @Tags Carts
// @Produce json
// @Param itemID path int true "Item ID"
// @Success 200 {object} utils.SuccessResponse "Marked purchased"
// @Failure 404 {object} utils.ErrorResponse "Item not found"
// @Router /carts/items/{itemID}/purchased [post]
func (h *CartHandler) MarkPurchased(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathID(r, "itemID")
	if err != nil {
		utils.WriteError(w, err.(*errors.AppError))
		return
	}
	if err := h.service.MarkPurchased(r.Context(), itemID); err != nil {
		writeServiceError(w, h.logger, err, "Failed to mark item purchased")
		return
	}
	utils.WriteSuccessWithMessage(w, http.StatusOK, "Item marked purchased", nil)
}

// Reactivate flips a purchased item back to pending
// @Summary Reactivate item
// @Tags Carts
// @Produce json
// @Param itemID path int true "Item ID"
// @Success 200 {object} utils.SuccessResponse "Reactivated"
// @Failure 400 {object} utils.ErrorResponse "Item not purchased"
// @Router /carts/items/{itemID}/reactivate [post]
func (h *CartHandler) Reactivate(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathID(r, "itemID")
	if err != nil {
		utils.WriteError(w, err.(*errors.AppError))
		return
	}
	if err := h.service.Reactivate(r.Context(), itemID); err != nil {
		writeServiceError(w, h.logger, err, "Failed to reactivate item")
		return
	}
	utils.WriteSuccessWithMessage(w, http.StatusOK, "Item reactivated", nil)
}

// Optimize recomputes a list's snapshot
// @Summary Optimize cart
// @Description Re-price every pending item and replace the stored snapshot
// @Tags Carts
// @Produce json
// @Param id path int true "List ID"
// @Success 200 {object} utils.SuccessResponse{data=dto.SnapshotDTO} "Fresh snapshot"
// @Failure 404 {object} utils.ErrorResponse "List not found"
// @Router /carts/{id}/optimize [post]
func (h *CartHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		utils.WriteError(w, err.(*errors.AppError))
		return
	}
	snap, err := h.service.Refresh(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to optimize cart")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, dto.NewSnapshotDTO(snap))
}

// Snapshot returns the cached optimization snapshot
// @Summary Get cart snapshot
// @Description Get the last stored snapshot without recomputing
// @Tags Carts
// @Produce json
// @Param id path int true "List ID"
// @Success 200 {object} utils.SuccessResponse{data=dto.SnapshotDTO} "Cached snapshot"
// @Failure 404 {object} utils.ErrorResponse "List not found or never optimized"
// @Router /carts/{id}/snapshot [get]
func (h *CartHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		utils.WriteError(w, err.(*errors.AppError))
		return
	}
	snap, err := h.service.GetCached(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to read snapshot")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, dto.NewSnapshotDTO(snap))
}
