package formz

import "context"

// Item is the catalog entity edited by a Form.
type Item struct {
	ID           string `json:"id" yaml:"id"`
	Name         string `json:"name" yaml:"name"`
	Description  string `json:"description" yaml:"description"`
	Logo         string `json:"logo" yaml:"logo"`
	DateRelease  string `json:"date_release" yaml:"date_release"`
	DateRevision string `json:"date_revision" yaml:"date_revision"`
}

// FieldKey names one field of the form.
type FieldKey string

// Form fields, one per Item attribute.
const (
	FieldID           FieldKey = "id"
	FieldName         FieldKey = "name"
	FieldDescription  FieldKey = "description"
	FieldLogo         FieldKey = "logo"
	FieldDateRelease  FieldKey = "date_release"
	FieldDateRevision FieldKey = "date_revision"
)

// FieldKeys lists every field in display order.
var FieldKeys = []FieldKey{
	FieldID,
	FieldName,
	FieldDescription,
	FieldLogo,
	FieldDateRelease,
	FieldDateRevision,
}

// Value returns the attribute of the item backing the field.
func (i Item) Value(key FieldKey) string {
	switch key {
	case FieldID:
		return i.ID
	case FieldName:
		return i.Name
	case FieldDescription:
		return i.Description
	case FieldLogo:
		return i.Logo
	case FieldDateRelease:
		return i.DateRelease
	case FieldDateRevision:
		return i.DateRevision
	default:
		return ""
	}
}

// set writes the attribute backing the field.
func (i *Item) set(key FieldKey, value string) {
	switch key {
	case FieldID:
		i.ID = value
	case FieldName:
		i.Name = value
	case FieldDescription:
		i.Description = value
	case FieldLogo:
		i.Logo = value
	case FieldDateRelease:
		i.DateRelease = value
	case FieldDateRevision:
		i.DateRevision = value
	}
}

// Catalog is the external collaborator that stores items. Implementations
// live under pkg/. Get, Update and Delete return ErrNotFound for a missing
// item; Create returns ErrExists for a duplicate identifier.
type Catalog interface {
	// Exists reports whether the identifier is already assigned.
	Exists(ctx context.Context, id string) (bool, error)

	// Get returns the item stored under id.
	Get(ctx context.Context, id string) (Item, error)

	// Create stores a new item.
	Create(ctx context.Context, item Item) error

	// Update replaces the item stored under id.
	Update(ctx context.Context, id string, item Item) error

	// Delete removes the item stored under id.
	Delete(ctx context.Context, id string) error
}
