package errors

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/recordbook/internal/logger"
	"github.com/stwalsh4118/recordbook/internal/middleware"
	"github.com/stwalsh4118/recordbook/internal/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setupTestContext creates a test Gin context with logger and request ID in context.
func setupTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)

	c.Set(middleware.LoggerKey, logger.Nop())
	c.Set(middleware.RequestIDKey, "test-request-id")

	return c, w
}

// parseErrorResponse parses the JSON response into an ErrorResponse struct.
func parseErrorResponse(t *testing.T, body *bytes.Buffer) ErrorResponse {
	var response ErrorResponse
	err := json.Unmarshal(body.Bytes(), &response)
	require.NoError(t, err, "Failed to parse error response JSON")
	return response
}

func TestNotFound(t *testing.T) {
	c, w := setupTestContext()

	NotFound(c, "No record found with the specified ID")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.True(t, c.IsAborted())

	response := parseErrorResponse(t, w.Body)
	assert.Equal(t, ErrNotFound, response.Error.Code)
	assert.Equal(t, "No record found with the specified ID", response.Error.Message)
	assert.Equal(t, "test-request-id", response.Error.RequestID)
	assert.Nil(t, response.Error.Details)
}

func TestBadRequest(t *testing.T) {
	t.Run("without details", func(t *testing.T) {
		c, w := setupTestContext()

		BadRequest(c, "Invalid input", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		response := parseErrorResponse(t, w.Body)
		assert.Equal(t, ErrBadRequest, response.Error.Code)
		assert.Equal(t, "Invalid input", response.Error.Message)
		assert.Nil(t, response.Error.Details)
	})

	t.Run("with details", func(t *testing.T) {
		c, w := setupTestContext()

		BadRequest(c, "Invalid input", map[string]interface{}{"startDate": "required"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		response := parseErrorResponse(t, w.Body)
		assert.Equal(t, "required", response.Error.Details["startDate"])
	})
}

func TestInternalServerError(t *testing.T) {
	t.Run("hides error text by default", func(t *testing.T) {
		c, w := setupTestContext()

		InternalServerError(c, "Failed to fetch records", errors.New("connection refused"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		response := parseErrorResponse(t, w.Body)
		assert.Equal(t, ErrInternalServer, response.Error.Code)
		assert.Equal(t, "Failed to fetch records", response.Error.Message)
		assert.Nil(t, response.Error.Details)
		assert.Len(t, c.Errors, 1)
	})

	t.Run("includes error text when verbose", func(t *testing.T) {
		c, w := setupTestContext()
		c.Set(middleware.VerboseErrorsKey, true)

		InternalServerError(c, "Failed to fetch records", errors.New("connection refused"))

		response := parseErrorResponse(t, w.Body)
		assert.Equal(t, "connection refused", response.Error.Details["error"])
	})
}

func TestServiceUnavailable(t *testing.T) {
	c, w := setupTestContext()

	ServiceUnavailable(c, "Database unavailable")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, ErrServiceUnavailable, parseErrorResponse(t, w.Body).Error.Code)
}

func TestRecordValidationError(t *testing.T) {
	c, w := setupTestContext()

	RecordValidationError(c, validation.NewError(validation.FieldErrors{
		"zipcode": "Zipcode must be exactly 6 digits",
		"phone":   "Phone must be exactly 10 digits",
	}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	response := parseErrorResponse(t, w.Body)
	assert.Equal(t, ErrValidation, response.Error.Code)
	assert.Equal(t, "Invalid record data", response.Error.Message)
	assert.Equal(t, map[string]interface{}{
		"zipcode": "Zipcode must be exactly 6 digits",
		"phone":   "Phone must be exactly 10 digits",
	}, response.Error.Details)
}

func TestValidationError(t *testing.T) {
	c, w := setupTestContext()

	type query struct {
		Page  int    `validate:"gte=1"`
		Order string `validate:"oneof=asc desc"`
	}
	err := validator.New().Struct(query{Page: 0, Order: "sideways"})
	require.Error(t, err)

	var validationErrors validator.ValidationErrors
	require.True(t, errors.As(err, &validationErrors))

	ValidationError(c, validationErrors)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	response := parseErrorResponse(t, w.Body)
	assert.Equal(t, ErrValidation, response.Error.Code)
	assert.Equal(t, "Validation failed for one or more fields", response.Error.Message)
	assert.Equal(t, "Must be greater than or equal to 1", response.Error.Details["Page"])
	assert.Equal(t, "Must be one of: asc desc", response.Error.Details["Order"])
}

func TestFormatValidationError(t *testing.T) {
	tests := []struct {
		tag      string
		param    string
		expected string
	}{
		{"required", "", "This field is required"},
		{"min", "1", "Value is too short or small (minimum: 1)"},
		{"max", "100", "Value is too long or large (maximum: 100)"},
		{"gte", "1", "Must be greater than or equal to 1"},
		{"lte", "100", "Must be less than or equal to 100"},
		{"oneof", "asc desc", "Must be one of: asc desc"},
		{"datetime", "2006-01-02", "Must be a date in the format 2006-01-02"},
		{"unknown_tag", "", "Validation failed for tag: unknown_tag"},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			result := formatValidationError(&mockFieldError{tag: tt.tag, param: tt.param})
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestErrorResponseWithoutContext(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)

	NotFound(c, "Resource not found")

	assert.Equal(t, http.StatusNotFound, w.Code)
	response := parseErrorResponse(t, w.Body)
	assert.Equal(t, ErrNotFound, response.Error.Code)
	assert.Empty(t, response.Error.RequestID)
}

// mockFieldError is a mock implementation of validator.FieldError for testing.
type mockFieldError struct {
	tag   string
	param string
}

func (m *mockFieldError) Tag() string                    { return m.tag }
func (m *mockFieldError) ActualTag() string              { return m.tag }
func (m *mockFieldError) Namespace() string              { return "" }
func (m *mockFieldError) StructNamespace() string        { return "" }
func (m *mockFieldError) Field() string                  { return "TestField" }
func (m *mockFieldError) StructField() string            { return "TestField" }
func (m *mockFieldError) Value() interface{}             { return nil }
func (m *mockFieldError) Param() string                  { return m.param }
func (m *mockFieldError) Kind() reflect.Kind             { return reflect.String }
func (m *mockFieldError) Type() reflect.Type             { return nil }
func (m *mockFieldError) Translate(ut.Translator) string { return "" }
func (m *mockFieldError) Error() string                  { return "" }
