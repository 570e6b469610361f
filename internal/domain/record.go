package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Record is one submitted dish entry. Records are immutable once appended.
type Record struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Country     string    `json:"country"`
	State       string    `json:"state"`
	Tribe       string    `json:"tribe"`
	Asset       AssetRef  `json:"asset"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Fields is the metadata half of a submission.
type Fields struct {
	Name        string `json:"name" jsonschema:"minLength=1" jsonschema_description:"Traditional name of the dish, e.g. Efo Riro."`
	Description string `json:"description,omitempty" jsonschema_description:"Optional free text about the dish."`
	Country     string `json:"country" jsonschema:"minLength=1"`
	State       string `json:"state" jsonschema:"minLength=1"`
	Tribe       string `json:"tribe" jsonschema:"minLength=1"`
}

// Normalize returns a copy with surrounding whitespace removed from every field.
func (f Fields) Normalize() Fields {
	return Fields{
		Name:        strings.TrimSpace(f.Name),
		Description: strings.TrimSpace(f.Description),
		Country:     strings.TrimSpace(f.Country),
		State:       strings.TrimSpace(f.State),
		Tribe:       strings.TrimSpace(f.Tribe),
	}
}

// Validate reports every empty required field and every field that is not
// valid UTF-8, in form order. Call Normalize first.
func (f Fields) Validate() error {
	checks := []struct {
		name     string
		value    string
		required bool
	}{
		{FieldName, f.Name, true},
		{FieldDescription, f.Description, false},
		{FieldCountry, f.Country, true},
		{FieldState, f.State, true},
		{FieldTribe, f.Tribe, true},
	}

	var invalid []string
	reason := ""
	for _, c := range checks {
		switch {
		case c.required && c.value == "":
			invalid = append(invalid, c.name)
		case !utf8.ValidString(c.value):
			invalid = append(invalid, c.name)
			reason = "text must be valid UTF-8"
		}
	}
	if len(invalid) > 0 {
		return ValidationError{Fields: invalid, Reason: reason}
	}
	return nil
}

// Fields returns the metadata the record was submitted with.
func (r Record) Fields() Fields {
	return Fields{
		Name:        r.Name,
		Description: r.Description,
		Country:     r.Country,
		State:       r.State,
		Tribe:       r.Tribe,
	}
}

// Page is one slice of the record table. Next is empty on the last page.
type Page struct {
	Records []Record `json:"records"`
	Next    string   `json:"next,omitempty"`
}
