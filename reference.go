package spanz

import "fmt"

// ReferenceType classifies the causal edge between a span and a context.
type ReferenceType int

const (
	// ChildOfRef means the referenced span depends on the new span's result.
	ChildOfRef ReferenceType = iota
	// FollowsFromRef means the referenced span does not wait for the new span.
	FollowsFromRef
)

// String returns the opentracing name of the reference type.
func (r ReferenceType) String() string {
	switch r {
	case ChildOfRef:
		return "child_of"
	case FollowsFromRef:
		return "follows_from"
	default:
		return fmt.Sprintf("unknown(%d)", int(r))
	}
}

// MarshalText encodes the reference type by name.
func (r ReferenceType) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText decodes a reference type name.
func (r *ReferenceType) UnmarshalText(text []byte) error {
	switch string(text) {
	case "child_of":
		*r = ChildOfRef
	case "follows_from":
		*r = FollowsFromRef
	default:
		return fmt.Errorf("spanz: unknown reference type %q", text)
	}
	return nil
}

// Reference declares a causal edge from a new span to an existing context.
// References describe intent; they are never validated as a graph.
type Reference struct {
	Context *SpanContext
	Type    ReferenceType
}

// ReferenceSnapshot is the serializable form of a Reference.
type ReferenceSnapshot struct {
	Context ContextSnapshot `json:"referencedContext"`
	Type    ReferenceType   `json:"type"`
}
