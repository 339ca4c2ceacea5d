package expense

import (
	"encoding/json"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Request is the pre-validation shape both ingress channels normalize into
type Request struct {
	lines   []string
	fields  map[string]string
	invalid []string
	isMap   bool
}

// LinesRequest splits a chat message into trimmed, non-blank lines
func LinesRequest(text string) Request {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return Request{lines: lines}
}

// FieldsRequest normalizes a decoded JSON object. String and number values are kept as
// text, numbers in their shortest decimal form so 1.0 reads as 1. Any other value type
// marks the key as invalid.
func FieldsRequest(values map[string]any) Request {
	req := Request{fields: make(map[string]string, len(values)), isMap: true}
	for key, value := range values {
		switch v := value.(type) {
		case string:
			req.fields[key] = v
		case json.Number:
			req.fields[key] = v.String()
			if d, err := decimal.NewFromString(v.String()); err == nil {
				req.fields[key] = d.String()
			}
		case float64:
			req.fields[key] = strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			req.fields[key] = strconv.Itoa(v)
		default:
			req.invalid = append(req.invalid, key)
		}
	}
	return req
}

// Parser turns requests into validated records
type Parser struct {
	schema     Schema
	timeSource TimeSource
}

// NewParser creates a Parser stamping records with the wall clock
func NewParser(schema Schema) *Parser {
	return NewParserWithDeps(schema, &defaultTimeSource{})
}

// NewParserWithDeps creates a Parser with a custom time source for testing
func NewParserWithDeps(schema Schema, timeSrc TimeSource) *Parser {
	return &Parser{
		schema:     schema,
		timeSource: timeSrc,
	}
}

// Schema returns the schema the parser validates against
func (p *Parser) Schema() Schema {
	return p.schema
}

// Parse validates a request. It returns either a complete record or a *Rejection.
func (p *Parser) Parse(req Request) (*Record, error) {
	values, names, err := p.extract(req)
	if err != nil {
		return nil, err
	}

	var empty []string
	for _, f := range p.schema.Fields {
		values[f] = strings.TrimSpace(values[f])
		if values[f] == "" {
			empty = append(empty, names[f])
		}
	}
	if len(empty) > 0 {
		return nil, &Rejection{Reason: ReasonEmptyField, Fields: empty}
	}

	amount, err := decimal.NewFromString(values[FieldAmount])
	if err != nil || amount.IsNegative() {
		return nil, &Rejection{Reason: ReasonInvalidAmount, Fields: []string{names[FieldAmount]}}
	}

	quantity, err := strconv.Atoi(values[FieldQuantity])
	if err != nil || quantity < 0 {
		return nil, &Rejection{Reason: ReasonInvalidQuantity, Fields: []string{names[FieldQuantity]}}
	}

	return &Record{
		OccurredAt:  p.timeSource.Now(),
		Product:     values[FieldProduct],
		Place:       values[FieldPlace],
		Category:    values[FieldCategory],
		Subcategory: values[FieldSubcategory],
		Amount:      amount,
		Quantity:    quantity,
	}, nil
}

// extract maps the request positionally (lines) or by key (fields) onto schema fields.
// names holds the caller-facing name of each field for rejection messages.
func (p *Parser) extract(req Request) (map[Field]string, map[Field]string, error) {
	values := make(map[Field]string, len(p.schema.Fields))
	names := make(map[Field]string, len(p.schema.Fields))

	if !req.isMap {
		if len(req.lines) != p.schema.LineCount() {
			return nil, nil, &Rejection{
				Reason: ReasonWrongLineCount,
				Got:    len(req.lines),
				Want:   p.schema.LineCount(),
			}
		}
		for i, f := range p.schema.Fields {
			values[f] = req.lines[i]
			names[f] = string(f)
		}
		return values, names, nil
	}

	var missing []string
	for _, f := range p.schema.Fields {
		key := Key(f)
		names[f] = key
		v, ok := req.fields[key]
		if !ok && !slices.Contains(req.invalid, key) {
			missing = append(missing, key)
			continue
		}
		values[f] = v
	}
	if len(missing) > 0 {
		return nil, nil, &Rejection{Reason: ReasonMissingFields, Fields: missing}
	}

	var invalid []string
	for _, key := range p.schema.Keys() {
		if slices.Contains(req.invalid, key) {
			invalid = append(invalid, key)
		}
	}
	if len(invalid) > 0 {
		return nil, nil, &Rejection{Reason: ReasonInvalidField, Fields: invalid}
	}

	return values, names, nil
}
