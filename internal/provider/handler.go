package provider

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	repo Repository

	// Commission rate applied when a create request leaves the field at
	// zero, meaning "use the platform default".
	defaultCommissionRatePercent int64
}

func NewHandler(repo Repository, defaultCommissionRatePercent int64) *Handler {
	return &Handler{repo: repo, defaultCommissionRatePercent: defaultCommissionRatePercent}
}

// CreateProvider godoc
// @Summary      Create provider
// @Description  Registers a new barber, beauty specialist or salon. Admin only.
// @Tags         providers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CreateProviderRequest  true  "Provider data"
// @Success      201      {object}  Provider
// @Failure      400      {object}  gin.H
// @Router       /admin/providers [post]
func (h *Handler) CreateProvider(c *gin.Context) {
	var req CreateProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rate := req.CommissionRatePercent
	if rate == 0 {
		rate = h.defaultCommissionRatePercent
	}

	p, err := h.repo.Create(c.Request.Context(), req.Name, req.Kind, req.Address, rate)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create provider"})
		return
	}

	c.JSON(http.StatusCreated, p)
}

// ListProviders godoc
// @Summary      List providers
// @Tags         providers
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}  Provider
// @Router       /providers [get]
func (h *Handler) ListProviders(c *gin.Context) {
	providers, err := h.repo.GetAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch providers"})
		return
	}

	c.JSON(http.StatusOK, providers)
}

func (h *Handler) GetProvider(c *gin.Context) {
	providerID, err := strconv.Atoi(c.Param("providerID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid provider ID"})
		return
	}

	p, err := h.repo.GetByID(c.Request.Context(), providerID)
	if err != nil {
		if errors.Is(err, ErrProviderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Provider not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch provider"})
		return
	}

	c.JSON(http.StatusOK, p)
}

// AddPriceListItem godoc
// @Summary      Add service to price list
// @Tags         providers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        providerID  path      int                         true  "Provider ID"
// @Param        request     body      CreatePriceListItemRequest  true  "Service data"
// @Success      201         {object}  PriceListItem
// @Failure      400         {object}  gin.H
// @Router       /admin/providers/{providerID}/services [post]
func (h *Handler) AddPriceListItem(c *gin.Context) {
	providerID, err := strconv.Atoi(c.Param("providerID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid provider ID"})
		return
	}

	var req CreatePriceListItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := h.repo.GetByID(c.Request.Context(), providerID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Provider not found"})
		return
	}

	item, err := h.repo.AddPriceListItem(c.Request.Context(), providerID, req.Name, req.PriceCents, req.DurationMin)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add service"})
		return
	}

	c.JSON(http.StatusCreated, item)
}

func (h *Handler) GetPriceList(c *gin.Context) {
	providerID, err := strconv.Atoi(c.Param("providerID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid provider ID"})
		return
	}

	items, err := h.repo.GetPriceList(c.Request.Context(), providerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch price list"})
		return
	}

	c.JSON(http.StatusOK, items)
}

func (h *Handler) RemovePriceListItem(c *gin.Context) {
	providerID, err := strconv.Atoi(c.Param("providerID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid provider ID"})
		return
	}

	itemID, err := strconv.Atoi(c.Param("serviceID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid service ID"})
		return
	}

	if err := h.repo.DeactivatePriceListItem(c.Request.Context(), providerID, itemID); err != nil {
		if errors.Is(err, ErrItemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Service not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove service"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Service removed from price list"})
}
