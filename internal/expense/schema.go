package expense

import "fmt"

// Field identifies one user-supplied column of an expense record
type Field string

const (
	FieldProduct     Field = "product"
	FieldPlace       Field = "place"
	FieldCategory    Field = "category"
	FieldSubcategory Field = "subcategory"
	FieldAmount      Field = "amount"
	FieldQuantity    Field = "quantity"
)

// fieldColumns maps fields to their header row column names
var fieldColumns = map[Field]string{
	FieldProduct:     "Product",
	FieldPlace:       "Place",
	FieldCategory:    "Category",
	FieldSubcategory: "Subcategory",
	FieldAmount:      "Amount",
	FieldQuantity:    "Quantity",
}

// fieldKeys maps fields to the JSON keys accepted by the HTTP API
var fieldKeys = map[Field]string{
	FieldProduct:     "producto",
	FieldPlace:       "lugar",
	FieldCategory:    "categoria",
	FieldSubcategory: "subcategoria",
	FieldAmount:      "importe",
	FieldQuantity:    "cantidad",
}

// DateKey is the JSON key carrying the stamped timestamp in API echoes
const DateKey = "fecha"

// Schema is the ordered set of user-supplied fields a deployment records.
// The Date column is always first and is not part of Fields.
type Schema struct {
	Name   string
	Fields []Field
}

// SchemaBasic records product, category, subcategory, amount and quantity
var SchemaBasic = Schema{
	Name:   "basic",
	Fields: []Field{FieldProduct, FieldCategory, FieldSubcategory, FieldAmount, FieldQuantity},
}

// SchemaPlace adds the place of purchase after the product
var SchemaPlace = Schema{
	Name:   "place",
	Fields: []Field{FieldProduct, FieldPlace, FieldCategory, FieldSubcategory, FieldAmount, FieldQuantity},
}

// SchemaByName returns the schema registered under name
func SchemaByName(name string) (Schema, error) {
	switch name {
	case SchemaBasic.Name:
		return SchemaBasic, nil
	case SchemaPlace.Name:
		return SchemaPlace, nil
	default:
		return Schema{}, fmt.Errorf("unknown schema %q (valid: %s, %s)", name, SchemaBasic.Name, SchemaPlace.Name)
	}
}

// LineCount returns the exact number of lines a chat message must have
func (s Schema) LineCount() int {
	return len(s.Fields)
}

// Header returns the header row written when the table is created
func (s Schema) Header() []string {
	header := make([]string, 0, len(s.Fields)+1)
	header = append(header, "Date")
	for _, f := range s.Fields {
		header = append(header, fieldColumns[f])
	}
	return header
}

// Keys returns the required field-map keys, in schema order
func (s Schema) Keys() []string {
	keys := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		keys = append(keys, fieldKeys[f])
	}
	return keys
}

// Has reports whether the schema records the given field
func (s Schema) Has(field Field) bool {
	for _, f := range s.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// Key returns the field-map key of a field
func Key(field Field) string {
	return fieldKeys[field]
}
