package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	apierrors "github.com/stwalsh4118/recordbook/internal/errors"
	"github.com/stwalsh4118/recordbook/internal/services"
)

// LocationHandler serves the state and district lookup.
type LocationHandler struct {
	service services.LocationService
}

// NewLocationHandler creates a new LocationHandler instance.
func NewLocationHandler(service services.LocationService) *LocationHandler {
	return &LocationHandler{service: service}
}

// States handles GET /api/location/states.
func (h *LocationHandler) States(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.ListStates())
}

// Districts handles GET /api/location/districts/:state.
func (h *LocationHandler) Districts(c *gin.Context) {
	districts, err := h.service.ListDistricts(c.Param("state"))
	if err != nil {
		if errors.Is(err, services.ErrStateNotFound) {
			apierrors.NotFound(c, "No districts found for the specified state")
			return
		}
		apierrors.InternalServerError(c, "Failed to fetch districts", err)
		return
	}

	c.JSON(http.StatusOK, districts)
}

// All handles GET /api/location/all.
func (h *LocationHandler) All(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.ListAll())
}

// LegacyStates redirects GET /api/states.
func (h *LocationHandler) LegacyStates(c *gin.Context) {
	c.Redirect(http.StatusFound, "/api/location/states")
}

// LegacyDistricts redirects GET /api/districts/:state.
func (h *LocationHandler) LegacyDistricts(c *gin.Context) {
	c.Redirect(http.StatusFound, "/api/location/districts/"+url.PathEscape(c.Param("state")))
}
