package view

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/JonMunkholm/csvedit/internal/table"
)

// ErrInvalidFilter is returned when a FilterSpec cannot be converted.
var ErrInvalidFilter = errors.New("invalid filter")

// Filter kinds used in FilterSpec.Type.
const (
	KindString = "string"
	KindNumber = "number"
)

// FilterSpec is the JSON form of a ColumnFilter.
type FilterSpec struct {
	Type     string `json:"type"`
	Operator string `json:"operator,omitempty"`
	Value    string `json:"value"`
}

// Filter converts s to a ColumnFilter.
func (s FilterSpec) Filter() (ColumnFilter, error) {
	switch s.Type {
	case KindString, "":
		return StringFilter{Value: s.Value}, nil
	case KindNumber:
		op, err := ParseOperator(s.Operator)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
		}
		v, ok := table.ParseNumber(s.Value)
		if !ok {
			return nil, fmt.Errorf("%w: %q is not a number", ErrInvalidFilter, s.Value)
		}
		return NumberFilter{Operator: op, Value: v}, nil
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidFilter, s.Type)
	}
}

// SpecOf returns the JSON form of f.
func SpecOf(f ColumnFilter) FilterSpec {
	switch f := f.(type) {
	case StringFilter:
		return FilterSpec{Type: KindString, Value: f.Value}
	case NumberFilter:
		return FilterSpec{
			Type:     KindNumber,
			Operator: string(f.Operator),
			Value:    strconv.FormatFloat(f.Value, 'f', -1, 64),
		}
	default:
		return FilterSpec{}
	}
}

// Specs converts every filter in f to its JSON form, keyed by column.
func Specs(f FilterState) map[int]FilterSpec {
	out := make(map[int]FilterSpec, len(f))
	for col, flt := range f {
		out[col] = SpecOf(flt)
	}
	return out
}
