// Package recordform is the add/edit form for a record: field values, live
// phone formatting, state/district cascading and client-side validation that
// runs before anything is sent to the server.
package recordform

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/stwalsh4118/recordbook/internal/models"
	"github.com/stwalsh4118/recordbook/internal/validation"
)

// Field names, matching the record's JSON names.
const (
	FieldName       = "name"
	FieldPhone      = "phone"
	FieldEmail      = "email"
	FieldAddress    = "address"
	FieldState      = "state"
	FieldDistrict   = "district"
	FieldCity       = "city"
	FieldZipcode    = "zipcode"
	FieldRecordDate = "recordDate"
)

// Fields lists every form field in display order.
var Fields = []string{
	FieldName, FieldPhone, FieldEmail, FieldAddress, FieldState,
	FieldDistrict, FieldCity, FieldZipcode, FieldRecordDate,
}

const dateLayout = "2006-01-02"

// Locations supplies the state and district choices.
type Locations interface {
	States(ctx context.Context) ([]string, error)
	Districts(ctx context.Context, state string) ([]string, error)
}

// Values are the raw form inputs.
type Values struct {
	Name       string
	Phone      string
	Email      string
	Address    string
	State      string
	District   string
	City       string
	Zipcode    string
	RecordDate string
}

func (v *Values) ptr(field string) *string {
	switch field {
	case FieldName:
		return &v.Name
	case FieldPhone:
		return &v.Phone
	case FieldEmail:
		return &v.Email
	case FieldAddress:
		return &v.Address
	case FieldState:
		return &v.State
	case FieldDistrict:
		return &v.District
	case FieldCity:
		return &v.City
	case FieldZipcode:
		return &v.Zipcode
	case FieldRecordDate:
		return &v.RecordDate
	}
	return nil
}

// Form is not safe for concurrent use.
type Form struct {
	locs      Locations
	now       func() time.Time
	editingID string
	values    Values
	errors    validation.FieldErrors
	states    []string
	districts []string
}

// Option configures a Form.
type Option func(*Form)

// WithClock sets the clock used for the default record date.
func WithClock(now func() time.Time) Option {
	return func(f *Form) { f.now = now }
}

// New creates an empty add form whose record date defaults to today.
func New(locs Locations, opts ...Option) *Form {
	f := &Form{
		locs:      locs,
		now:       time.Now,
		errors:    validation.FieldErrors{},
		states:    []string{},
		districts: []string{},
	}
	for _, opt := range opts {
		opt(f)
	}
	f.values.RecordDate = f.now().Format(dateLayout)
	return f
}

// LoadStates fetches the state choices. On failure the list is left empty.
func (f *Form) LoadStates(ctx context.Context) error {
	states, err := f.locs.States(ctx)
	if err != nil {
		f.states = []string{}
		return fmt.Errorf("load states: %w", err)
	}
	f.states = states
	return nil
}

// Edit fills the form from an existing record and loads its districts.
func (f *Form) Edit(ctx context.Context, rec models.Record) error {
	f.editingID = rec.ID
	f.errors = validation.FieldErrors{}
	f.values = Values{
		Name:     rec.Name,
		Phone:    rec.Phone,
		Email:    rec.Email,
		Address:  rec.Address,
		State:    rec.State,
		District: rec.District,
		City:     rec.City,
		Zipcode:  rec.Zipcode,
	}
	if rec.RecordDate.IsZero() {
		f.values.RecordDate = f.now().Format(dateLayout)
	} else {
		f.values.RecordDate = rec.RecordDate.UTC().Format(dateLayout)
	}
	return f.loadDistricts(ctx)
}

// EditingID is the id of the record being edited, or "" for an add form.
func (f *Form) EditingID() string { return f.editingID }

// Values returns the current inputs.
func (f *Form) Values() Values { return f.values }

// States returns the state choices.
func (f *Form) States() []string { return slices.Clone(f.states) }

// Districts returns the district choices for the selected state.
func (f *Form) Districts() []string { return slices.Clone(f.districts) }

// Errors returns the current field errors.
func (f *Form) Errors() validation.FieldErrors {
	out := make(validation.FieldErrors, len(f.errors))
	for k, v := range f.errors {
		out[k] = v
	}
	return out
}

// Set changes one field and clears its error. Phone input is reformatted as
// it is typed; changing the state reloads the district choices.
func (f *Form) Set(ctx context.Context, field, value string) error {
	p := f.values.ptr(field)
	if p == nil {
		return fmt.Errorf("unknown form field %q", field)
	}
	delete(f.errors, field)

	switch field {
	case FieldPhone:
		*p = FormatPhoneInput(value)
	case FieldState:
		*p = value
		return f.loadDistricts(ctx)
	default:
		*p = value
	}
	return nil
}

// loadDistricts refreshes the district choices for the selected state. A
// district that does not belong to the new state is cleared.
func (f *Form) loadDistricts(ctx context.Context) error {
	if f.values.State == "" {
		f.districts = []string{}
		f.values.District = ""
		return nil
	}

	districts, err := f.locs.Districts(ctx, f.values.State)
	if err != nil {
		f.districts = []string{}
		return fmt.Errorf("load districts for %s: %w", f.values.State, err)
	}
	f.districts = districts
	if f.values.District != "" && !slices.Contains(districts, f.values.District) {
		f.values.District = ""
	}
	return nil
}

// Validate checks every field and stores the result as the form's errors.
func (f *Form) Validate() validation.FieldErrors {
	v := f.values
	errs := validation.FieldErrors{}

	if strings.TrimSpace(v.Name) == "" {
		errs[FieldName] = "Name is required"
	}

	if strings.TrimSpace(v.Phone) == "" {
		errs[FieldPhone] = "Phone is required"
	} else if !validation.IsValidPhone(v.Phone) {
		errs[FieldPhone] = "Phone must be exactly 10 digits"
	}

	if strings.TrimSpace(v.Email) == "" {
		errs[FieldEmail] = "Email is required"
	} else if !strings.Contains(v.Email, "@") || !strings.Contains(v.Email, ".") {
		errs[FieldEmail] = "Email must contain @ and ."
	}

	if strings.TrimSpace(v.Address) == "" {
		errs[FieldAddress] = "Address is required"
	}
	if v.State == "" {
		errs[FieldState] = "State is required"
	}
	if v.District == "" {
		errs[FieldDistrict] = "District is required"
	}
	if strings.TrimSpace(v.City) == "" {
		errs[FieldCity] = "City is required"
	}

	if strings.TrimSpace(v.Zipcode) == "" {
		errs[FieldZipcode] = "Zipcode is required"
	} else if !validation.IsValidZipcode(v.Zipcode) {
		errs[FieldZipcode] = "Zipcode must be exactly 6 digits"
	}

	if strings.TrimSpace(v.RecordDate) == "" {
		errs[FieldRecordDate] = "Record date is required"
	} else if _, ok := validation.ParseRecordDate(v.RecordDate); !ok {
		errs[FieldRecordDate] = "Record date must be a valid date"
	}

	f.errors = errs
	return f.Errors()
}

// Submit validates the form and returns the payload to send. On failure it
// returns a *validation.Error carrying the field messages.
func (f *Form) Submit() (models.RecordInput, error) {
	if errs := f.Validate(); len(errs) > 0 {
		return models.RecordInput{}, validation.NewError(errs)
	}

	v := f.values
	return models.RecordInput{
		Name:       models.StringPtr(strings.TrimSpace(v.Name)),
		Phone:      models.StringPtr(strings.TrimSpace(v.Phone)),
		Email:      models.StringPtr(strings.TrimSpace(v.Email)),
		Address:    models.StringPtr(strings.TrimSpace(v.Address)),
		State:      models.StringPtr(v.State),
		District:   models.StringPtr(v.District),
		City:       models.StringPtr(strings.TrimSpace(v.City)),
		Zipcode:    models.StringPtr(strings.TrimSpace(v.Zipcode)),
		RecordDate: models.StringPtr(strings.TrimSpace(v.RecordDate)),
	}, nil
}

// ApplyServerErrors shows field errors returned by the API.
func (f *Form) ApplyServerErrors(fields map[string]string) {
	for k, v := range fields {
		f.errors[k] = v
	}
}

// FormatPhoneInput formats a partially typed phone number: up to three
// digits are left bare, then "(DDD)-D..." and finally "(DDD)-DDD-DDDD".
// Non-digits and digits beyond the tenth are dropped.
func FormatPhoneInput(s string) string {
	d := models.PhoneDigits(s)
	switch {
	case len(d) <= 3:
		return d
	case len(d) <= 6:
		return "(" + d[:3] + ")-" + d[3:]
	default:
		if len(d) > 10 {
			d = d[:10]
		}
		return "(" + d[:3] + ")-" + d[3:6] + "-" + d[6:]
	}
}
