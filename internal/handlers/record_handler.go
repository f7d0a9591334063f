package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	apierrors "github.com/stwalsh4118/recordbook/internal/errors"
	"github.com/stwalsh4118/recordbook/internal/middleware"
	"github.com/stwalsh4118/recordbook/internal/models"
	"github.com/stwalsh4118/recordbook/internal/services"
	"github.com/stwalsh4118/recordbook/internal/validation"
)

const notFoundMessage = "No record found with the specified ID"

// RecordHandler handles record-related HTTP requests.
type RecordHandler struct {
	service services.RecordService
}

// NewRecordHandler creates a new RecordHandler instance.
func NewRecordHandler(service services.RecordService) *RecordHandler {
	useFormFieldNames()
	return &RecordHandler{service: service}
}

// ListRequest holds the listing query parameters. Page and limit are parsed
// leniently: anything that is not a positive integer selects the default.
type ListRequest struct {
	Page      string `form:"page"`
	Limit     string `form:"limit"`
	Search    string `form:"search"`
	SortBy    string `form:"sortBy"`
	SortOrder string `form:"sortOrder"`
}

// DateRangeRequest holds the date-range query parameters.
type DateRangeRequest struct {
	StartDate string `form:"startDate" binding:"required"`
	EndDate   string `form:"endDate" binding:"required"`
}

// DeleteResponse is returned after a successful delete.
type DeleteResponse struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

// CountResponse carries the total number of records.
type CountResponse struct {
	Count int64 `json:"count"`
}

// List handles GET /api/records.
func (h *RecordHandler) List(c *gin.Context) {
	var req ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		apierrors.BadRequest(c, "Invalid query parameters", nil)
		return
	}

	page, err := h.service.List(c.Request.Context(), services.ListParams{
		Page:      positiveInt(req.Page),
		PageSize:  positiveInt(req.Limit),
		Search:    req.Search,
		SortField: req.SortBy,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		apierrors.InternalServerError(c, "Failed to fetch records", err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// Get handles GET /api/records/:id.
func (h *RecordHandler) Get(c *gin.Context) {
	rec, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrRecordNotFound) {
			apierrors.NotFound(c, notFoundMessage)
			return
		}
		apierrors.InternalServerError(c, "Failed to fetch record", err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

// Create handles POST /api/records.
func (h *RecordHandler) Create(c *gin.Context) {
	in, err := bindRecordInput(c)
	if err != nil {
		respondBodyError(c, err)
		return
	}

	rec, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		if verr, ok := validation.AsError(err); ok {
			apierrors.RecordValidationError(c, verr)
			return
		}
		apierrors.InternalServerError(c, "Failed to create record", err)
		return
	}

	if log := middleware.GetLogger(c); log != nil {
		log.Info("Record created via API", map[string]interface{}{"record_id": rec.ID})
	}

	c.JSON(http.StatusCreated, rec)
}

// Update handles PUT /api/records/:id. Fields missing from the body keep
// their stored values. A missing id is reported before any body error.
func (h *RecordHandler) Update(c *gin.Context) {
	in, err := bindRecordInput(c)
	if err != nil {
		if _, lookupErr := h.service.GetByID(c.Request.Context(), c.Param("id")); lookupErr != nil {
			if errors.Is(lookupErr, services.ErrRecordNotFound) {
				apierrors.NotFound(c, notFoundMessage)
				return
			}
			apierrors.InternalServerError(c, "Failed to update record", lookupErr)
			return
		}
		respondBodyError(c, err)
		return
	}

	rec, err := h.service.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		if errors.Is(err, services.ErrRecordNotFound) {
			apierrors.NotFound(c, notFoundMessage)
			return
		}
		if verr, ok := validation.AsError(err); ok {
			apierrors.RecordValidationError(c, verr)
			return
		}
		apierrors.InternalServerError(c, "Failed to update record", err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

// Delete handles DELETE /api/records/:id.
func (h *RecordHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, services.ErrRecordNotFound) {
			apierrors.NotFound(c, notFoundMessage)
			return
		}
		apierrors.InternalServerError(c, "Failed to delete record", err)
		return
	}

	c.JSON(http.StatusOK, DeleteResponse{Message: "Record deleted successfully", Success: true})
}

// Count handles GET /api/records/count/total.
func (h *RecordHandler) Count(c *gin.Context) {
	n, err := h.service.Count(c.Request.Context())
	if err != nil {
		apierrors.InternalServerError(c, "Failed to get record count", err)
		return
	}

	c.JSON(http.StatusOK, CountResponse{Count: n})
}

// ByField returns a handler for GET /api/records/<field>/:<field>.
func (h *RecordHandler) ByField(field string) gin.HandlerFunc {
	return func(c *gin.Context) {
		records, err := h.service.ListByField(c.Request.Context(), field, c.Param(field))
		if err != nil {
			if errors.Is(err, services.ErrInvalidField) {
				apierrors.BadRequest(c, err.Error(), nil)
				return
			}
			apierrors.InternalServerError(c, "Failed to fetch records", err)
			return
		}

		c.JSON(http.StatusOK, records)
	}
}

// DateRange handles GET /api/records/date-range?startDate&endDate.
func (h *RecordHandler) DateRange(c *gin.Context) {
	var req DateRangeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid query parameters", nil)
		return
	}

	start, okStart := validation.ParseRecordDate(req.StartDate)
	end, okEnd := validation.ParseRecordDate(req.EndDate)
	if !okStart || !okEnd {
		details := map[string]interface{}{}
		if !okStart {
			details["startDate"] = "Must be a valid date"
		}
		if !okEnd {
			details["endDate"] = "Must be a valid date"
		}
		apierrors.BadRequest(c, "Invalid date range", details)
		return
	}
	if isDateOnly(req.EndDate) {
		end = end.Add(24*time.Hour - time.Millisecond)
	}

	records, err := h.service.ListByDateRange(c.Request.Context(), start, end)
	if err != nil {
		if errors.Is(err, services.ErrInvalidDateRange) {
			apierrors.BadRequest(c, "startDate must not be after endDate", nil)
			return
		}
		apierrors.InternalServerError(c, "Failed to fetch records", err)
		return
	}

	c.JSON(http.StatusOK, records)
}

// bindRecordInput decodes a record body. A field sent as a JSON type other
// than string or number comes back as a *validation.Error keyed by that field.
func bindRecordInput(c *gin.Context) (models.RecordInput, error) {
	var in models.RecordInput
	err := c.ShouldBindJSON(&in)
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return in, validation.TypeMismatch(typeErr.Field)
	}
	return in, err
}

func respondBodyError(c *gin.Context, err error) {
	if verr, ok := validation.AsError(err); ok {
		apierrors.RecordValidationError(c, verr)
		return
	}
	apierrors.BadRequest(c, "Request body must be a JSON object", nil)
}

func positiveInt(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0
	}
	return n
}

// isDateOnly reports whether s is a bare YYYY-MM-DD date, which as an end
// bound covers the whole day.
func isDateOnly(s string) bool {
	return len(strings.TrimSpace(s)) == len("2006-01-02")
}

var formNamesOnce sync.Once

// useFormFieldNames makes binding errors report query parameter names
// instead of Go field names.
func useFormFieldNames() {
	formNamesOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"form", "json"} {
				name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return f.Name
		})
	})
}
