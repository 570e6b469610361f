package domain

// Submission field names, used in validation errors and form keys.
const (
	FieldName        = "name"
	FieldDescription = "description"
	FieldCountry     = "country"
	FieldState       = "state"
	FieldTribe       = "tribe"
	FieldImage       = "image"
	FieldAsset       = "asset"
)

// TableColumns is the header of file-based record tables.
var TableColumns = []string{
	"id",
	FieldName,
	FieldDescription,
	FieldCountry,
	FieldState,
	FieldTribe,
	"asset_ref",
	"created_at",
}

const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
	ContentTypeCSV  = "text/csv"
)

const (
	EventRecordAppended = "record.appended"
	RecordsChannel      = "dishbook:records"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)
