package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/paisapro/pricewise/internal/api/dto"
	"github.com/paisapro/pricewise/internal/config"
	"github.com/paisapro/pricewise/internal/domain/catalog"
	"github.com/paisapro/pricewise/internal/pkg/errors"
	"github.com/paisapro/pricewise/internal/pkg/logger"
	"github.com/paisapro/pricewise/internal/pkg/utils"
	"github.com/paisapro/pricewise/internal/search"
	"github.com/paisapro/pricewise/internal/sources"
)

// SearchHandler serves product search and source discovery
type SearchHandler struct {
	coordinator *search.Coordinator
	registry    *sources.Registry
	cfg         config.SearchConfig
	logger      *logger.Logger
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(c *search.Coordinator, reg *sources.Registry, cfg config.SearchConfig, log *logger.Logger) *SearchHandler {
	return &SearchHandler{
		coordinator: c,
		registry:    reg,
		cfg:         cfg,
		logger:      log,
	}
}

// Search runs a product search across the configured storefronts
// @Summary Search products
// @Description Search product catalogs across storefronts and return price-ranked recommendations
// @Tags Search
// @Produce json
// @Param q query string true "Search term"
// @Param sources query string false "Comma-separated subset of sources to query"
// @Param top_n query int false "Number of recommendations to return"
// @Param sort query bool false "Sort by reference price (default: true)"
// @Param equal_distribution query bool false "Cap results per source"
// @Param parallel query bool false "Query sources concurrently (default: true)"
// @Success 200 {object} utils.SuccessResponse{data=dto.SearchResponse} "Ranked recommendations"
// @Failure 400 {object} utils.ErrorResponse "Invalid query"
// @Failure 502 {object} utils.ErrorResponse "All sources failed"
// @Router /search [get]
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	term := strings.TrimSpace(r.URL.Query().Get("q"))
	if term == "" {
		utils.WriteError(w, errors.BadRequest("q must not be blank"))
		return
	}

	q := catalog.SearchQuery{
		Term:              term,
		Sources:           h.registry.Names(),
		TopN:              h.cfg.DefaultTopN,
		SortByPrice:       h.cfg.SortByPrice,
		EqualDistribution: h.cfg.EqualDistribution,
		Parallel:          h.cfg.Parallel,
	}

	if raw := r.URL.Query().Get("sources"); raw != "" {
		q.Sources = nil
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				q.Sources = append(q.Sources, s)
			}
		}
	}
	if raw := r.URL.Query().Get("top_n"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			utils.WriteError(w, errors.BadRequest("top_n must be a positive integer"))
			return
		}
		q.TopN = n
	}
	if raw := r.URL.Query().Get("sort"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			utils.WriteError(w, errors.BadRequest("sort must be a boolean"))
			return
		}
		q.SortByPrice = v
	}
	if raw := r.URL.Query().Get("equal_distribution"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			utils.WriteError(w, errors.BadRequest("equal_distribution must be a boolean"))
			return
		}
		q.EqualDistribution = v
	}
	if raw := r.URL.Query().Get("parallel"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			utils.WriteError(w, errors.BadRequest("parallel must be a boolean"))
			return
		}
		q.Parallel = v
	}

	res, err := h.coordinator.Search(r.Context(), q)
	if err != nil {
		writeServiceError(w, h.logger, err, "Search failed")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.NewSearchResponse(res))
}

// ListSources returns the configured storefronts
// @Summary List sources
// @Description Get the storefront catalogs this instance queries
// @Tags Search
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=[]dto.SourceDTO} "Configured sources"
// @Router /sources [get]
func (h *SearchHandler) ListSources(w http.ResponseWriter, r *http.Request) {
	adapters := h.registry.All()
	out := make([]dto.SourceDTO, len(adapters))
	for i, a := range adapters {
		out[i] = dto.SourceDTO{Name: a.Name(), Currency: a.Currency()}
	}
	utils.WriteSuccess(w, http.StatusOK, out)
}
