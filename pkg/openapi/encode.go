// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package openapi

import (
	"strings"

	"github.com/tombee/apiwire/pkg/errors"
)

// Pair is one key/value wire fragment.
type Pair struct {
	Key   string
	Value string
}

// Encoded is the wire-ready result of encoding one parameter.
type Encoded struct {
	// Omitted marks a non-required absent parameter with no default.
	// Nothing is placed on the wire.
	Omitted bool

	// Value is the rendered string for path and header placement,
	// including any style prefix.
	Value string

	// Pairs are the key/value fragments for query placement.
	Pairs []Pair
}

// Encode translates one declared parameter plus its typed value into
// wire-ready fragments. An absent value falls back to the parameter's
// default; a required parameter with neither fails. Composite values
// expand per the parameter's style and explode flag.
func Encode(p *Parameter, v Value) (Encoded, error) {
	if v.IsAbsent() {
		if p.DefaultValue != "" {
			// The default is already a wire-ready literal; no format
			// transform is applied.
			return place(p, []string{p.DefaultValue}, []Pair{{Key: p.Ident, Value: p.DefaultValue}}), nil
		}
		if p.Required {
			return Encoded{}, &errors.ValidationError{Field: p.Ident, Message: "missing required value and no default"}
		}
		return Encoded{Omitted: true}, nil
	}

	if p.Format == FormatBinary {
		return Encoded{}, &errors.ValidationError{Field: p.Ident, Message: "binary format is only valid for body placement"}
	}

	elems, pairs, err := flatten(p, v)
	if err != nil {
		return Encoded{}, err
	}
	return place(p, elems, pairs), nil
}

// flatten renders the value into its flat element list and its exploded
// pair list. Elements carry the format transform; object field names do
// not.
func flatten(p *Parameter, v Value) ([]string, []Pair, error) {
	switch v.Kind() {
	case KindScalar, KindBinary:
		s, err := v.render(p.Format)
		if err != nil {
			return nil, nil, fieldErr(p, err)
		}
		return []string{s}, []Pair{{Key: p.Ident, Value: s}}, nil

	case KindArray:
		elems := make([]string, 0, len(v.items))
		pairs := make([]Pair, 0, len(v.items))
		for _, item := range v.items {
			switch item.Kind() {
			case KindScalar, KindBinary:
			default:
				return nil, nil, &errors.ValidationError{Field: p.Ident, Message: "array elements must be scalar or binary"}
			}
			s, err := item.render(p.Format)
			if err != nil {
				return nil, nil, fieldErr(p, err)
			}
			elems = append(elems, s)
			pairs = append(pairs, Pair{Key: p.Ident, Value: s})
		}
		return elems, pairs, nil

	case KindObject:
		elems := make([]string, 0, 2*len(v.fields))
		pairs := make([]Pair, 0, len(v.fields))
		for _, field := range v.fields {
			if field.Value.Kind() != KindScalar {
				return nil, nil, &errors.ValidationError{Field: p.Ident, Message: "object fields must be scalar"}
			}
			s, err := field.Value.render(p.Format)
			if err != nil {
				return nil, nil, fieldErr(p, err)
			}
			elems = append(elems, field.Name, s)
			pairs = append(pairs, Pair{Key: field.Name, Value: s})
		}
		return elems, pairs, nil

	default:
		return nil, nil, &errors.ValidationError{Field: p.Ident, Message: "unsupported value kind"}
	}
}

// place applies the style and location rules to the flattened value.
func place(p *Parameter, elems []string, pairs []Pair) Encoded {
	switch p.Location {
	case LocationPath:
		switch p.Style {
		case StyleLabel:
			return Encoded{Value: "." + strings.Join(elems, ".")}
		case StyleMatrix:
			if p.Explode {
				var sb strings.Builder
				for _, pair := range pairs {
					sb.WriteString(";")
					sb.WriteString(pair.Key)
					sb.WriteString("=")
					sb.WriteString(pair.Value)
				}
				return Encoded{Value: sb.String()}
			}
			return Encoded{Value: ";" + p.Ident + "=" + strings.Join(elems, ",")}
		default:
			return Encoded{Value: strings.Join(elems, ",")}
		}

	case LocationQuery:
		if p.Explode {
			return Encoded{Pairs: pairs}
		}
		return Encoded{Pairs: []Pair{{Key: p.Ident, Value: strings.Join(elems, ",")}}}

	default:
		// Headers are always a single comma-joined value regardless of
		// style and explode.
		return Encoded{Value: strings.Join(elems, ",")}
	}
}

// substitutePath replaces every template occurrence of ident, in any of
// its RFC 6570 spellings, with the rendered value.
func substitutePath(template, ident, rendered string) string {
	for _, marker := range []string{"{" + ident + "}", "{." + ident + "}", "{;" + ident + "}"} {
		template = strings.ReplaceAll(template, marker, rendered)
	}
	return template
}

func fieldErr(p *Parameter, err error) error {
	var verr *errors.ValidationError
	if errors.As(err, &verr) && verr.Field == "" {
		return &errors.ValidationError{Field: p.Ident, Message: verr.Message}
	}
	return err
}
