package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	pmodels "registro/internal/persona/models"
	dErrors "registro/pkg/domain-errors"
	"registro/pkg/validation"
)

// FieldType is the SQL shape of a specialization column.
type FieldType int

const (
	FieldText FieldType = iota
	FieldDate
	FieldDecimal
	FieldInt
)

// Field describes one specialization column.
type Field struct {
	Column string
	Type   FieldType
	// Max bounds text length in runes.
	Max int
}

// Kind describes a roster: its URL segment, its table and the columns it adds
// on top of the shared general identity. Table names come only from this
// static list, never from request input.
type Kind struct {
	Name   string
	Table  string
	Label  string
	Fields []Field
}

// Kinds are the rosters served under /api/{kind}.
var Kinds = []Kind{
	{
		Name: "abogados", Table: "abogados", Label: "abogado",
		Fields: []Field{
			{Column: "matricula", Type: FieldText, Max: 50},
			{Column: "colegio", Type: FieldText, Max: 200},
			{Column: "especialidad", Type: FieldText, Max: 200},
			{Column: "fecha_matricula", Type: FieldDate},
		},
	},
	{
		Name: "docentes", Table: "docentes", Label: "docente",
		Fields: []Field{
			{Column: "institucion", Type: FieldText, Max: 200},
			{Column: "nivel", Type: FieldText, Max: 100},
			{Column: "materia", Type: FieldText, Max: 200},
			{Column: "categoria", Type: FieldText, Max: 100},
			{Column: "antiguedad_anios", Type: FieldInt},
		},
	},
	{
		Name: "funcionarios", Table: "funcionarios", Label: "funcionario",
		Fields: []Field{
			{Column: "institucion", Type: FieldText, Max: 200},
			{Column: "cargo", Type: FieldText, Max: 200},
			{Column: "dependencia", Type: FieldText, Max: 200},
			{Column: "salario", Type: FieldDecimal},
		},
	},
	{
		Name: "itaipu", Table: "itaipu", Label: "funcionario de Itaipu",
		Fields: []Field{
			{Column: "legajo", Type: FieldText, Max: 50},
			{Column: "cargo", Type: FieldText, Max: 200},
			{Column: "area", Type: FieldText, Max: 200},
			{Column: "margen", Type: FieldText, Max: 20},
			{Column: "fecha_ingreso", Type: FieldDate},
		},
	},
	{
		Name: "yacyreta", Table: "yacyreta", Label: "funcionario de Yacyreta",
		Fields: []Field{
			{Column: "legajo", Type: FieldText, Max: 50},
			{Column: "cargo", Type: FieldText, Max: 200},
			{Column: "area", Type: FieldText, Max: 200},
			{Column: "fecha_ingreso", Type: FieldDate},
			{Column: "salario", Type: FieldDecimal},
		},
	},
}

// KindByName looks up a roster descriptor.
func KindByName(name string) (Kind, bool) {
	for _, k := range Kinds {
		if k.Name == name {
			return k, true
		}
	}
	return Kind{}, false
}

// Columns lists the specialization columns in declaration order.
func (k Kind) Columns() []string {
	cols := make([]string, len(k.Fields))
	for i, f := range k.Fields {
		cols[i] = f.Column
	}
	return cols
}

// Values holds specialization values keyed by column. Text columns hold
// string, dates *time.Time, decimals decimal.NullDecimal and ints *int64.
type Values map[string]any

// ParseDatos converts the raw JSON "datos" object into typed values.
// Unknown keys are rejected; absent keys take the column's zero value.
func (k Kind) ParseDatos(raw map[string]json.RawMessage) (Values, error) {
	known := make(map[string]bool, len(k.Fields))
	for _, f := range k.Fields {
		known[f.Column] = true
	}
	var unknown []string
	for key := range raw {
		if !known[key] {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("campos desconocidos para %s: %s", k.Name, strings.Join(unknown, ", ")))
	}

	vals := make(Values, len(k.Fields))
	for _, f := range k.Fields {
		v, err := f.parse(raw[f.Column])
		if err != nil {
			return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s: %s", f.Column, err.Error()))
		}
		vals[f.Column] = v
	}
	return vals, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func (f Field) parse(raw json.RawMessage) (any, error) {
	switch f.Type {
	case FieldText:
		var s string
		if !isNull(raw) {
			if err := json.Unmarshal(raw, &s); err != nil {
				return nil, fmt.Errorf("debe ser texto")
			}
		}
		s = strings.TrimSpace(s)
		if f.Max > 0 && utf8.RuneCountInString(s) > f.Max {
			return nil, fmt.Errorf("supera %d caracteres", f.Max)
		}
		return s, nil
	case FieldDate:
		var t *time.Time
		if isNull(raw) {
			return t, nil
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("debe ser una fecha YYYY-MM-DD")
		}
		if s = strings.TrimSpace(s); s == "" {
			return t, nil
		}
		parsed, err := time.Parse(pmodels.DateLayout, s)
		if err != nil {
			return nil, fmt.Errorf("debe ser una fecha YYYY-MM-DD")
		}
		return &parsed, nil
	case FieldDecimal:
		var d decimal.NullDecimal
		if isNull(raw) || bytes.Equal(bytes.TrimSpace(raw), []byte(`""`)) {
			return d, nil
		}
		if err := d.Decimal.UnmarshalJSON(raw); err != nil {
			return nil, fmt.Errorf("debe ser un numero")
		}
		if d.Decimal.IsNegative() {
			return nil, fmt.Errorf("no puede ser negativo")
		}
		if !validation.FitsNumeric(d.Decimal) {
			return nil, fmt.Errorf("es demasiado grande")
		}
		d.Valid = true
		return d, nil
	case FieldInt:
		var n *int64
		if isNull(raw) {
			return n, nil
		}
		var v int64
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("debe ser un entero")
		}
		if v < 0 {
			return nil, fmt.Errorf("no puede ser negativo")
		}
		return &v, nil
	}
	return nil, fmt.Errorf("tipo de campo desconocido")
}

// JSON renders values for responses: dates as YYYY-MM-DD strings, decimals as
// strings, missing values as null.
func (k Kind) JSON(vals Values) map[string]any {
	out := make(map[string]any, len(k.Fields))
	for _, f := range k.Fields {
		switch v := vals[f.Column].(type) {
		case *time.Time:
			if v == nil {
				out[f.Column] = nil
			} else {
				out[f.Column] = v.Format(pmodels.DateLayout)
			}
		case decimal.NullDecimal:
			if !v.Valid {
				out[f.Column] = nil
			} else {
				out[f.Column] = v.Decimal.StringFixed(2)
			}
		case *int64:
			if v == nil {
				out[f.Column] = nil
			} else {
				out[f.Column] = *v
			}
		default:
			out[f.Column] = v
		}
	}
	return out
}
