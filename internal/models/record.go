package models

import (
	"bytes"
	"encoding/json"
	"reflect"
	"time"
)

// Record is a single address-book entry with contact and Indian address fields.
type Record struct {
	RecordDate time.Time `json:"recordDate" validate:"required"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	ID         string    `json:"id"`
	Name       string    `json:"name" validate:"required,min=2,max=100"`
	Phone      string    `json:"phone" validate:"required,phone"`
	Email      string    `json:"email" validate:"required,contactemail"`
	Address    string    `json:"address" validate:"required,min=10,max=500"`
	State      string    `json:"state" validate:"required"`
	District   string    `json:"district" validate:"required"`
	City       string    `json:"city" validate:"required,min=2,max=100"`
	Zipcode    string    `json:"zipcode" validate:"required,zipcode"`
}

// recordJSON is the wire shape of a Record. It carries the identifier under
// both "id" and "_id" and the display-only formatted fields.
type recordJSON struct {
	ID                  string    `json:"id"`
	LegacyID            string    `json:"_id"`
	Name                string    `json:"name"`
	Phone               string    `json:"phone"`
	Email               string    `json:"email"`
	Address             string    `json:"address"`
	State               string    `json:"state"`
	District            string    `json:"district"`
	City                string    `json:"city"`
	Zipcode             string    `json:"zipcode"`
	RecordDate          time.Time `json:"recordDate"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
	FormattedPhone      string    `json:"formattedPhone"`
	FormattedRecordDate string    `json:"formattedRecordDate"`
}

// MarshalJSON implements json.Marshaler.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{
		ID:                  r.ID,
		LegacyID:            r.ID,
		Name:                r.Name,
		Phone:               r.Phone,
		Email:               r.Email,
		Address:             r.Address,
		State:               r.State,
		District:            r.District,
		City:                r.City,
		Zipcode:             r.Zipcode,
		RecordDate:          r.RecordDate,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
		FormattedPhone:      FormatPhone(r.Phone),
		FormattedRecordDate: r.FormattedRecordDate(),
	})
}

// UnmarshalJSON implements json.Unmarshaler. Either "id" or "_id" is accepted.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw recordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	id := raw.ID
	if id == "" {
		id = raw.LegacyID
	}
	*r = Record{
		ID:         id,
		Name:       raw.Name,
		Phone:      raw.Phone,
		Email:      raw.Email,
		Address:    raw.Address,
		State:      raw.State,
		District:   raw.District,
		City:       raw.City,
		Zipcode:    raw.Zipcode,
		RecordDate: raw.RecordDate,
		CreatedAt:  raw.CreatedAt,
		UpdatedAt:  raw.UpdatedAt,
	}
	return nil
}

// FormattedRecordDate renders the record date as DD/MM/YYYY, or "" when unset.
func (r Record) FormattedRecordDate() string {
	if r.RecordDate.IsZero() {
		return ""
	}
	return r.RecordDate.Format("02/01/2006")
}

// RecordInput is a create or update payload. Nil fields were not sent.
type RecordInput struct {
	Name       *string `json:"name"`
	Phone      *string `json:"phone"`
	Email      *string `json:"email"`
	Address    *string `json:"address"`
	State      *string `json:"state"`
	District   *string `json:"district"`
	City       *string `json:"city"`
	Zipcode    *string `json:"zipcode"`
	RecordDate *string `json:"recordDate"`
}

// UnmarshalJSON implements json.Unmarshaler. A field may arrive as a JSON
// string or a JSON number; a number keeps its literal text. null leaves the
// field unset. Any other JSON type yields a *json.UnmarshalTypeError naming
// the field.
func (in *RecordInput) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var out RecordInput
	for name, dst := range out.fieldPtrs() {
		msg, ok := raw[name]
		if !ok {
			continue
		}
		text, set, err := scalarText(msg, name)
		if err != nil {
			return err
		}
		if set {
			*dst = &text
		}
	}
	*in = out
	return nil
}

func (in *RecordInput) fieldPtrs() map[string]**string {
	return map[string]**string{
		"name":       &in.Name,
		"phone":      &in.Phone,
		"email":      &in.Email,
		"address":    &in.Address,
		"state":      &in.State,
		"district":   &in.District,
		"city":       &in.City,
		"zipcode":    &in.Zipcode,
		"recordDate": &in.RecordDate,
	}
}

var stringType = reflect.TypeOf("")

// scalarText returns the string form of a JSON string or number. set is
// false for null.
func scalarText(msg json.RawMessage, field string) (text string, set bool, err error) {
	msg = bytes.TrimSpace(msg)
	if len(msg) == 0 || bytes.Equal(msg, []byte("null")) {
		return "", false, nil
	}

	switch c := msg[0]; {
	case c == '"':
		if err := json.Unmarshal(msg, &text); err != nil {
			return "", false, err
		}
		return text, true, nil
	case c == '-' || (c >= '0' && c <= '9'):
		var n json.Number
		if err := json.Unmarshal(msg, &n); err != nil {
			return "", false, err
		}
		return n.String(), true, nil
	}

	value := "object"
	switch msg[0] {
	case '[':
		value = "array"
	case 't', 'f':
		value = "bool"
	}
	return "", false, &json.UnmarshalTypeError{Value: value, Type: stringType, Field: field}
}

// RecordPage is one page of a record listing.
type RecordPage struct {
	Records      []Record `json:"records"`
	TotalRecords int64    `json:"totalRecords"`
	TotalPages   int      `json:"totalPages"`
	CurrentPage  int      `json:"currentPage"`
	PageSize     int      `json:"pageSize"`
}

// StringPtr returns a pointer to s. Handy when building a RecordInput.
func StringPtr(s string) *string {
	return &s
}
