package expense

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// TimestampLayout is the layout used for the Date column and every echo of it
const TimestampLayout = "2006-01-02 15:04:05"

// Record represents one logged purchase
type Record struct {
	OccurredAt  time.Time       `json:"occurred_at"`
	Product     string          `json:"product"`
	Place       string          `json:"place,omitempty"` // Only set for schemas with a place column
	Category    string          `json:"category"`
	Subcategory string          `json:"subcategory"`
	Amount      decimal.Decimal `json:"amount"`
	Quantity    int             `json:"quantity"`
}

// Date returns the stamped timestamp formatted for the table and for replies
func (r *Record) Date() string {
	return r.OccurredAt.Format(TimestampLayout)
}

// Row returns the record as one table row in the column order of the schema. The amount
// is a json.Number so its decimal text reaches the backend unrounded.
func (r *Record) Row(schema Schema) []any {
	row := make([]any, 0, len(schema.Fields)+1)
	row = append(row, r.Date())
	for _, f := range schema.Fields {
		switch f {
		case FieldProduct:
			row = append(row, r.Product)
		case FieldPlace:
			row = append(row, r.Place)
		case FieldCategory:
			row = append(row, r.Category)
		case FieldSubcategory:
			row = append(row, r.Subcategory)
		case FieldAmount:
			row = append(row, json.Number(r.Amount.String()))
		case FieldQuantity:
			row = append(row, r.Quantity)
		}
	}
	return row
}
