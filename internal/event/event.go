package event

import (
	"fmt"
	"reflect"
	"strings"

	"xmlrpc-binder/internal/common"
)

// Family identifies which of the four event families an Event belongs to.
type Family int

const (
	FamilyValue Family = iota
	FamilyStruct
	FamilyArray
	FamilyParameter
)

// String returns a human-readable family name.
func (f Family) String() string {
	switch f {
	case FamilyValue:
		return "Value"
	case FamilyStruct:
		return "Struct"
	case FamilyArray:
		return "Array"
	case FamilyParameter:
		return "Parameter"
	default:
		return common.UnknownStr
	}
}

// Phase distinguishes the begin/end markers of a composite from its
// member-level events. Value events carry PhaseNone.
type Phase int

const (
	PhaseNone Phase = iota
	// PhaseStart opens a struct, array or parameter.
	PhaseStart
	// PhaseMemberStart opens a struct member (by key) or an array element (by index).
	PhaseMemberStart
	// PhaseMember completes a member, element or parameter and carries its value.
	PhaseMember
	// PhaseEnd closes a struct, array or parameter.
	PhaseEnd
)

// String returns a human-readable phase name.
func (p Phase) String() string {
	switch p {
	case PhaseNone:
		return "none"
	case PhaseStart:
		return "start"
	case PhaseMemberStart:
		return "member-start"
	case PhaseMember:
		return "member"
	case PhaseEnd:
		return "end"
	default:
		return common.UnknownStr
	}
}

// Event is one wire token. Events are immutable values.
type Event struct {
	Family Family
	Phase  Phase
	// Index is the array element or parameter index (PhaseMemberStart/PhaseMember,
	// and PhaseStart for parameters).
	Index int
	// Key is the struct member name.
	Key string
	// Value is the scalar value (FamilyValue) or the completed generic value (PhaseMember).
	Value any
	// Type is the ValueType of Value.
	Type ValueType
}

// Value creates a scalar value event.
func Value(v any, t ValueType) Event {
	return Event{Family: FamilyValue, Value: v, Type: t}
}

// StructStart opens a struct.
func StructStart() Event {
	return Event{Family: FamilyStruct, Phase: PhaseStart, Type: TypeStruct}
}

// StructMemberStart opens the member named key.
func StructMemberStart(key string) Event {
	return Event{Family: FamilyStruct, Phase: PhaseMemberStart, Key: key}
}

// StructMember completes the member named key with its value.
func StructMember(key string, v any, t ValueType) Event {
	return Event{Family: FamilyStruct, Phase: PhaseMember, Key: key, Value: v, Type: t}
}

// StructEnd closes a struct.
func StructEnd() Event {
	return Event{Family: FamilyStruct, Phase: PhaseEnd, Type: TypeStruct}
}

// ArrayStart opens an array.
func ArrayStart() Event {
	return Event{Family: FamilyArray, Phase: PhaseStart, Type: TypeArray}
}

// ArrayElementStart opens element i.
func ArrayElementStart(i int) Event {
	return Event{Family: FamilyArray, Phase: PhaseMemberStart, Index: i}
}

// ArrayElement completes element i with its value.
func ArrayElement(i int, v any, t ValueType) Event {
	return Event{Family: FamilyArray, Phase: PhaseMember, Index: i, Value: v, Type: t}
}

// ArrayEnd closes an array.
func ArrayEnd() Event {
	return Event{Family: FamilyArray, Phase: PhaseEnd, Type: TypeArray}
}

// ParameterStart opens parameter i.
func ParameterStart(i int) Event {
	return Event{Family: FamilyParameter, Phase: PhaseStart, Index: i}
}

// Parameter completes parameter i with its value.
func Parameter(i int, v any, t ValueType) Event {
	return Event{Family: FamilyParameter, Phase: PhaseMember, Index: i, Value: v, Type: t}
}

// ParameterEnd closes the current parameter.
func ParameterEnd() Event {
	return Event{Family: FamilyParameter, Phase: PhaseEnd}
}

// Is reports whether e belongs to family f with phase p.
func (e Event) Is(f Family, p Phase) bool {
	return e.Family == f && e.Phase == p
}

// Equal compares two events, using deep equality for values.
func (e Event) Equal(o Event) bool {
	return e.Family == o.Family &&
		e.Phase == o.Phase &&
		e.Index == o.Index &&
		e.Key == o.Key &&
		e.Type == o.Type &&
		reflect.DeepEqual(e.Value, o.Value)
}

// String renders the event in the notation used by protocol traces,
// e.g. Parameter(member,0,"foo",STRING).
func (e Event) String() string {
	var args []string

	switch e.Family {
	case FamilyValue:
		return fmt.Sprintf("Value(%#v,%s)", e.Value, e.Type)
	case FamilyStruct:
		args = append(args, e.Phase.String())
		if e.Phase == PhaseMemberStart || e.Phase == PhaseMember {
			args = append(args, fmt.Sprintf("%q", e.Key))
		}
	case FamilyArray:
		args = append(args, e.Phase.String())
		if e.Phase == PhaseMemberStart || e.Phase == PhaseMember {
			args = append(args, fmt.Sprint(e.Index))
		}
	case FamilyParameter:
		args = append(args, e.Phase.String())
		if e.Phase == PhaseStart || e.Phase == PhaseMember {
			args = append(args, fmt.Sprint(e.Index))
		}
	}

	if e.Phase == PhaseMember {
		args = append(args, fmt.Sprintf("%#v", e.Value), e.Type.String())
	}

	return e.Family.String() + "(" + strings.Join(args, ",") + ")"
}
