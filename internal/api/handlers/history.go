package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/paisapro/pricewise/internal/api/dto"
	"github.com/paisapro/pricewise/internal/domain/cart"
	"github.com/paisapro/pricewise/internal/pkg/errors"
	"github.com/paisapro/pricewise/internal/pkg/logger"
	"github.com/paisapro/pricewise/internal/pkg/utils"
)

// HistoryHandler serves recorded price observations
type HistoryHandler struct {
	history cart.HistoryRepository
	logger  *logger.Logger
}

// NewHistoryHandler creates a new price history handler
func NewHistoryHandler(history cart.HistoryRepository, log *logger.Logger) *HistoryHandler {
	return &HistoryHandler{history: history, logger: log}
}

// Get returns the price history for a product
// @Summary Get price history
// @Description Get recorded price observations for a product, oldest first
// @Tags History
// @Produce json
// @Param product path string true "Product name"
// @Param days query int false "Window in days (default: 30)"
// @Param page query int false "Page number (default: 1)"
// @Param page_size query int false "Items per page (default: 20, max: 100)"
// @Success 200 {object} utils.SuccessResponse{data=utils.PaginatedResponse{data=[]dto.PricePointDTO}} "Price observations"
// @Failure 400 {object} utils.ErrorResponse "Invalid window"
// @Router /price-history/{product} [get]
func (h *HistoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	product := strings.TrimSpace(chi.URLParam(r, "product"))
	if product == "" {
		utils.WriteError(w, errors.BadRequest("product must not be blank"))
		return
	}

	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			utils.WriteError(w, errors.BadRequest("days must be a positive integer"))
			return
		}
		days = n
	}

	since := time.Now().UTC().AddDate(0, 0, -days)
	points, err := h.history.History(r.Context(), product, since)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to read price history")
		return
	}

	params := utils.ParsePaginationParams(r)
	total := int64(len(points))
	start := params.Offset
	if start > len(points) {
		start = len(points)
	}
	end := start + params.PageSize
	if end > len(points) {
		end = len(points)
	}

	out := make([]dto.PricePointDTO, end-start)
	for i, p := range points[start:end] {
		out[i] = dto.NewPricePointDTO(p)
	}
	utils.WriteSuccess(w, http.StatusOK, utils.NewPaginatedResponse(out, params.Page, params.PageSize, total))
}
