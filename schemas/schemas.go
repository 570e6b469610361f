package schemas

import (
	"github.com/invopop/jsonschema"

	"github.com/foodielens/dishbook/internal/domain"
)

const (
	RecordURL     string = "/api/v1/schemas/record.json"
	SubmissionURL string = "/api/v1/schemas/submission.json"
)

func build(v any, id string) *jsonschema.Schema {
	r := &jsonschema.Reflector{
		ExpandedStruct: true,
	}
	s := r.Reflect(v)
	s.ID = jsonschema.ID(id)
	return s
}

// Record describes a stored record as returned by the API.
func Record() *jsonschema.Schema {
	s := build(&domain.Record{}, RecordURL)
	s.Title = "Dish record"
	return s
}

// Submission describes the metadata half of a submission form.
func Submission() *jsonschema.Schema {
	s := build(&domain.Fields{}, SubmissionURL)
	s.Title = "Dish submission"
	return s
}
