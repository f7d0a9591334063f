package recordform

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stwalsh4118/recordbook/internal/models"
	"github.com/stwalsh4118/recordbook/internal/validation"
)

type stubLocations struct {
	districts map[string][]string
	calls     []string
}

func (s *stubLocations) States(context.Context) ([]string, error) {
	return []string{"Karnataka", "Kerala"}, nil
}

func (s *stubLocations) Districts(_ context.Context, state string) ([]string, error) {
	s.calls = append(s.calls, state)
	d, ok := s.districts[state]
	if !ok {
		return nil, errors.New("No districts found for the specified state")
	}
	return d, nil
}

func newStub() *stubLocations {
	return &stubLocations{districts: map[string][]string{
		"Karnataka": {"Bengaluru Urban", "Mysuru"},
		"Kerala":    {"Ernakulam", "Thrissur"},
	}}
}

var fixedNow = func() time.Time { return time.Date(2024, 9, 14, 18, 30, 0, 0, time.UTC) }

func fill(t *testing.T, f *Form) {
	t.Helper()
	ctx := context.Background()
	for field, value := range map[string]string{
		FieldName:    "Deepa Nair",
		FieldPhone:   "9447012345",
		FieldEmail:   "deepa@example.com",
		FieldAddress: "14 MG Road, Indiranagar",
		FieldState:   "Karnataka",
		FieldCity:    "Bengaluru",
		FieldZipcode: "560038",
	} {
		require.NoError(t, f.Set(ctx, field, value))
	}
	require.NoError(t, f.Set(ctx, FieldDistrict, "Bengaluru Urban"))
}

func TestNew_DefaultsRecordDateToToday(t *testing.T) {
	f := New(newStub(), WithClock(fixedNow))

	assert.Equal(t, "2024-09-14", f.Values().RecordDate)
	assert.Empty(t, f.EditingID())
}

func TestFormatPhoneInput(t *testing.T) {
	tests := []struct {
		input, expected string
	}{
		{"", ""},
		{"98", "98"},
		{"984", "984"},
		{"9847", "(984)-7"},
		{"984701", "(984)-701"},
		{"9847012", "(984)-701-2"},
		{"9847012345", "(984)-701-2345"},
		{"984701234567", "(984)-701-2345"},
		{"(984)-701-23", "(984)-701-23"},
		{"abc", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatPhoneInput(tt.input), tt.input)
	}
}

func TestForm_SetPhoneFormatsLive(t *testing.T) {
	f := New(newStub())
	ctx := context.Background()

	typed := ""
	for _, r := range "94470123456" {
		typed = f.Values().Phone + string(r)
		require.NoError(t, f.Set(ctx, FieldPhone, typed))
	}
	assert.Equal(t, "(944)-701-2345", f.Values().Phone)
}

func TestForm_SubmitValid(t *testing.T) {
	f := New(newStub(), WithClock(fixedNow))
	fill(t, f)

	in, err := f.Submit()

	require.NoError(t, err)
	assert.Equal(t, "Deepa Nair", *in.Name)
	assert.Equal(t, "(944)-701-2345", *in.Phone)
	assert.Equal(t, "Bengaluru Urban", *in.District)
	assert.Equal(t, "2024-09-14", *in.RecordDate)
	assert.Empty(t, f.Errors())
}

func TestForm_SubmitEmpty(t *testing.T) {
	f := New(newStub())
	require.NoError(t, f.Set(context.Background(), FieldRecordDate, ""))

	_, err := f.Submit()

	verr, ok := validation.AsError(err)
	require.True(t, ok)
	assert.Equal(t, validation.FieldErrors{
		FieldName:       "Name is required",
		FieldPhone:      "Phone is required",
		FieldEmail:      "Email is required",
		FieldAddress:    "Address is required",
		FieldState:      "State is required",
		FieldDistrict:   "District is required",
		FieldCity:       "City is required",
		FieldZipcode:    "Zipcode is required",
		FieldRecordDate: "Record date is required",
	}, verr.Fields)
}

func TestForm_FieldRules(t *testing.T) {
	tests := []struct {
		field, value, expected string
	}{
		{FieldPhone, "12345", "Phone must be exactly 10 digits"},
		{FieldEmail, "deepa@example", "Email must contain @ and ."},
		{FieldEmail, "deepa.example.com", "Email must contain @ and ."},
		{FieldZipcode, "56003", "Zipcode must be exactly 6 digits"},
		{FieldZipcode, "5600381", "Zipcode must be exactly 6 digits"},
		{FieldRecordDate, "14/09/2024", "Record date must be a valid date"},
	}
	for _, tt := range tests {
		t.Run(tt.field+"="+tt.value, func(t *testing.T) {
			f := New(newStub(), WithClock(fixedNow))
			fill(t, f)
			require.NoError(t, f.Set(context.Background(), tt.field, tt.value))

			errs := f.Validate()

			assert.Equal(t, validation.FieldErrors{tt.field: tt.expected}, errs)
		})
	}
}

func TestForm_EditingClearsFieldError(t *testing.T) {
	f := New(newStub())
	errs := f.Validate()
	require.Contains(t, errs, FieldName)
	require.Contains(t, errs, FieldCity)

	require.NoError(t, f.Set(context.Background(), FieldName, "D"))

	assert.NotContains(t, f.Errors(), FieldName)
	assert.Contains(t, f.Errors(), FieldCity)
}

func TestForm_StateCascade(t *testing.T) {
	ctx := context.Background()
	stub := newStub()
	f := New(stub)

	require.NoError(t, f.Set(ctx, FieldState, "Kerala"))
	assert.Equal(t, []string{"Ernakulam", "Thrissur"}, f.Districts())

	require.NoError(t, f.Set(ctx, FieldDistrict, "Thrissur"))
	require.NoError(t, f.Set(ctx, FieldState, "Karnataka"))
	assert.Equal(t, []string{"Bengaluru Urban", "Mysuru"}, f.Districts())
	assert.Empty(t, f.Values().District, "district outside the new state is cleared")

	require.NoError(t, f.Set(ctx, FieldDistrict, "Mysuru"))
	require.NoError(t, f.Set(ctx, FieldState, "Karnataka"))
	assert.Equal(t, "Mysuru", f.Values().District, "district inside the state is kept")

	require.NoError(t, f.Set(ctx, FieldState, ""))
	assert.Empty(t, f.Districts())
	assert.Empty(t, f.Values().District)
	assert.Equal(t, []string{"Kerala", "Karnataka", "Karnataka"}, stub.calls)
}

func TestForm_StateWithoutDistricts(t *testing.T) {
	f := New(newStub())

	err := f.Set(context.Background(), FieldState, "Atlantis")

	require.Error(t, err)
	assert.Empty(t, f.Districts())
	assert.Equal(t, "Atlantis", f.Values().State)
}

func TestForm_Edit(t *testing.T) {
	f := New(newStub())
	rec := models.Record{
		ID:         "abc123",
		Name:       "Deepa Nair",
		Phone:      "(944)-701-2345",
		Email:      "deepa@example.com",
		Address:    "14 MG Road, Indiranagar",
		State:      "Karnataka",
		District:   "Mysuru",
		City:       "Mysuru",
		Zipcode:    "570001",
		RecordDate: time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
	}

	require.NoError(t, f.Edit(context.Background(), rec))

	assert.Equal(t, "abc123", f.EditingID())
	assert.Equal(t, "2023-12-31", f.Values().RecordDate)
	assert.Equal(t, "Mysuru", f.Values().District)
	assert.Equal(t, []string{"Bengaluru Urban", "Mysuru"}, f.Districts())

	_, err := f.Submit()
	assert.NoError(t, err)
}

func TestForm_UnknownField(t *testing.T) {
	err := New(newStub()).Set(context.Background(), "nickname", "x")
	assert.Error(t, err)
}

func TestForm_LoadStatesAndServerErrors(t *testing.T) {
	f := New(newStub())

	require.NoError(t, f.LoadStates(context.Background()))
	assert.Equal(t, []string{"Karnataka", "Kerala"}, f.States())

	f.ApplyServerErrors(map[string]string{FieldZipcode: "Zipcode must be exactly 6 digits"})
	assert.Equal(t, "Zipcode must be exactly 6 digits", f.Errors()[FieldZipcode])
}
