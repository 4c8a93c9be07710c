// Package event defines the wire vocabulary exchanged between a tokenizer
// and the binder runtime: value types, the four event families and the
// grammar they must follow.
//
// Grammar:
//
//	message := parameter*
//	parameter := ParameterStart(i) value Parameter(i, v, t) ParameterEnd
//	value := Value(v, t) | struct | array
//	struct := StructStart (StructMemberStart(k) value StructMember(k, v, t))* StructEnd
//	array := ArrayStart (ArrayElementStart(i) value ArrayElement(i, v, t))* ArrayEnd
//
// Composite values are announced only by their start/end events; the
// member, element and parameter completion events carry the finished value
// in generic form (map[string]any, []any or a scalar).
package event
