package router

import (
	"net/http"
	"strings"
)

// SegmentKind identifies what a pattern segment accepts. The numeric value
// doubles as the per-position weight used for precedence scoring: lower
// kinds bind tighter.
type SegmentKind uint8

const (
	SegmentStatic SegmentKind = iota
	SegmentTyped
	SegmentDynamic
	SegmentCatchAll
	SegmentOptionalCatchAll
)

// ParamType constrains what a typed dynamic segment accepts.
type ParamType uint8

const (
	TypeString ParamType = iota
	TypeNumber
)

var paramTypes = map[string]ParamType{
	"string": TypeString,
	"number": TypeNumber,
}

func (t ParamType) String() string {
	if t == TypeNumber {
		return "number"
	}
	return "string"
}

// accepts reports whether the captured value satisfies the constraint.
func (t ParamType) accepts(value string) bool {
	if t != TypeNumber {
		return true
	}
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Segment is one path component of a compiled pattern.
type Segment struct {
	Kind    SegmentKind
	Literal string // static text, empty for parameters
	Name    string // parameter name, empty for static
	Type    ParamType
}

// Protocol tags for upgrade routes; plain routes use HTTP method names.
const (
	MethodWS  = "WS"
	MethodSSE = "SSE"
)

var methodTags = map[string]string{
	"get":    http.MethodGet,
	"post":   http.MethodPost,
	"put":    http.MethodPut,
	"patch":  http.MethodPatch,
	"delete": http.MethodDelete,
	"ws":     MethodWS,
	"sse":    MethodSSE,
}

// maxDepth bounds pattern depth so positional weights fit in an int64.
const maxDepth = 24

var pow5 [maxDepth]int64

func init() {
	pow5[maxDepth-1] = 1
	for i := maxDepth - 2; i >= 0; i-- {
		pow5[i] = pow5[i+1] * 5
	}
}

// Shape is the compiled form of a route-definition path, independent of the
// handler bound to it.
type Shape struct {
	Method   string
	Segments []Segment
	Score    int64
	Raw      string
}

// Compile turns a route-definition path into its method tag, segment
// sequence, and precedence score. The final path component carries the
// method suffix; an "index" component contributes no segment.
func Compile(file string) (Shape, error) {
	raw := file
	trimmed := strings.Trim(strings.TrimPrefix(file, "./"), "/")
	if trimmed == "" {
		return Shape{}, &InvalidPatternError{Pattern: raw, Reason: "empty pattern"}
	}

	parts := strings.Split(trimmed, "/")
	last := parts[len(parts)-1]

	name, method, err := splitMethodSuffix(last, raw)
	if err != nil {
		return Shape{}, err
	}

	components := parts[:len(parts)-1]
	if name != "index" {
		components = append(components, name)
	}
	if len(components) > maxDepth {
		return Shape{}, &InvalidPatternError{Pattern: raw, Reason: "pattern exceeds maximum depth"}
	}

	segments := make([]Segment, 0, len(components))
	for i, component := range components {
		seg, err := parseSegment(component, raw)
		if err != nil {
			return Shape{}, err
		}
		if seg.Kind == SegmentCatchAll || seg.Kind == SegmentOptionalCatchAll {
			if i != len(components)-1 {
				return Shape{}, &InvalidPatternError{Pattern: raw, Reason: "catch-all must be the final segment"}
			}
		}
		segments = append(segments, seg)
	}

	var score int64
	for i, seg := range segments {
		score += int64(seg.Kind) * pow5[i]
	}

	return Shape{
		Method:   method,
		Segments: segments,
		Score:    score,
		Raw:      raw,
	}, nil
}

// splitMethodSuffix extracts the method tag from the final path component.
// One trailing file extension after the method token is tolerated, so both
// "index.get" and "index.get.ts" resolve to GET "index".
func splitMethodSuffix(last, raw string) (name, method string, err error) {
	tokens := strings.Split(last, ".")
	if len(tokens) >= 2 {
		if m, ok := methodTags[strings.ToLower(tokens[len(tokens)-1])]; ok {
			return strings.Join(tokens[:len(tokens)-1], "."), m, nil
		}
	}
	if len(tokens) >= 3 {
		if m, ok := methodTags[strings.ToLower(tokens[len(tokens)-2])]; ok {
			return strings.Join(tokens[:len(tokens)-2], "."), m, nil
		}
	}
	return "", "", &InvalidPatternError{Pattern: raw, Reason: "missing or unknown method suffix"}
}

func parseSegment(component, raw string) (Segment, error) {
	switch {
	case strings.HasPrefix(component, "[[...") && strings.HasSuffix(component, "]]"):
		name := component[5 : len(component)-2]
		if !validParamName(name) {
			return Segment{}, &InvalidPatternError{Pattern: raw, Reason: "invalid catch-all name"}
		}
		return Segment{Kind: SegmentOptionalCatchAll, Name: name}, nil

	case strings.HasPrefix(component, "[...") && strings.HasSuffix(component, "]"):
		name := component[4 : len(component)-1]
		if !validParamName(name) {
			return Segment{}, &InvalidPatternError{Pattern: raw, Reason: "invalid catch-all name"}
		}
		return Segment{Kind: SegmentCatchAll, Name: name}, nil

	case strings.HasPrefix(component, "[") && strings.HasSuffix(component, "]"):
		inner := component[1 : len(component)-1]
		name, typeName, hasType := strings.Cut(inner, ":")
		if !validParamName(name) {
			return Segment{}, &InvalidPatternError{Pattern: raw, Reason: "invalid parameter name"}
		}
		if !hasType {
			return Segment{Kind: SegmentDynamic, Name: name}, nil
		}
		t, ok := paramTypes[typeName]
		if !ok {
			return Segment{}, &InvalidPatternError{Pattern: raw, Reason: "unknown type constraint " + typeName}
		}
		return Segment{Kind: SegmentTyped, Name: name, Type: t}, nil

	case component == "":
		return Segment{}, &InvalidPatternError{Pattern: raw, Reason: "empty segment"}

	default:
		if strings.ContainsAny(component, "[]") {
			return Segment{}, &InvalidPatternError{Pattern: raw, Reason: "malformed segment " + component}
		}
		return Segment{Kind: SegmentStatic, Literal: component}, nil
	}
}

func validParamName(name string) bool {
	if name == "" {
		return false
	}
	return !strings.ContainsAny(name, "[]:.")
}

// signature encodes (method, segment shape) for duplicate detection.
// Parameter names are deliberately excluded: two routes that differ only in
// a parameter name are indistinguishable to the matcher.
func (s Shape) signature() string {
	var b strings.Builder
	b.WriteString(s.Method)
	for _, seg := range s.Segments {
		b.WriteByte('/')
		switch seg.Kind {
		case SegmentStatic:
			b.WriteString(seg.Literal)
		case SegmentTyped:
			b.WriteString("[:" + seg.Type.String() + "]")
		case SegmentDynamic:
			b.WriteString("[]")
		case SegmentCatchAll:
			b.WriteString("[...]")
		case SegmentOptionalCatchAll:
			b.WriteString("[[...]]")
		}
	}
	return b.String()
}

// Path renders the shape as a URL-style pattern for introspection.
func (s Shape) Path() string {
	if len(s.Segments) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, seg := range s.Segments {
		b.WriteByte('/')
		switch seg.Kind {
		case SegmentStatic:
			b.WriteString(seg.Literal)
		case SegmentTyped:
			b.WriteString("[" + seg.Name + ":" + seg.Type.String() + "]")
		case SegmentDynamic:
			b.WriteString("[" + seg.Name + "]")
		case SegmentCatchAll:
			b.WriteString("[..." + seg.Name + "]")
		case SegmentOptionalCatchAll:
			b.WriteString("[[..." + seg.Name + "]]")
		}
	}
	return b.String()
}
