package query

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/wikiquery/internal/domain"
)

// Field is the article field a text filter searches.
type Field string

// Searchable fields.
const (
	FieldTitle   Field = "title"
	FieldContent Field = "content"
)

// IsValid checks if the field is searchable.
func (f Field) IsValid() bool { return f == FieldTitle || f == FieldContent }

// BoolOp combines the terms of one text filter.
type BoolOp string

// Term operators.
const (
	OpAnd BoolOp = "and"
	OpOr  BoolOp = "or"
)

// IsValid checks if the operator is supported.
func (o BoolOp) IsValid() bool { return o == OpAnd || o == OpOr }

// TextFilter is a full-text relevance filter.
type TextFilter struct {
	field Field
	terms []string
	fuzzy bool
	op    BoolOp
}

// NewTextFilter validates and creates a TextFilter. An empty op defaults to AND.
func NewTextFilter(field Field, terms []string, fuzzy bool, op BoolOp) (TextFilter, error) {
	if !field.IsValid() {
		return TextFilter{}, domain.NewValidationError("text.field", "unknown field %q", field)
	}
	if len(terms) == 0 {
		return TextFilter{}, domain.NewValidationError("text.terms", "at least one term is required")
	}
	cleaned := make([]string, len(terms))
	for i, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			return TextFilter{}, domain.NewValidationError("text.terms", "term %d is blank", i)
		}
		cleaned[i] = t
	}
	if op == "" {
		op = OpAnd
	}
	if !op.IsValid() {
		return TextFilter{}, domain.NewValidationError("text.op", "unknown operator %q", op)
	}
	return TextFilter{field: field, terms: cleaned, fuzzy: fuzzy, op: op}, nil
}

// Field returns the searched field.
func (f TextFilter) Field() Field { return f.field }

// Terms returns the match terms.
func (f TextFilter) Terms() []string { return f.terms }

// Fuzzy reports whether terms match approximately.
func (f TextFilter) Fuzzy() bool { return f.fuzzy }

// Op returns how the terms combine.
func (f TextFilter) Op() BoolOp { return f.op }

func (f TextFilter) String() string {
	fuzzy := ""
	if f.fuzzy {
		fuzzy = "~"
	}
	return fmt.Sprintf("text(%s %s%s %q)", f.field, f.op, fuzzy, f.terms)
}
