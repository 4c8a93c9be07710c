package event

import (
	"context"
	"errors"
	"io"

	"xmlrpc-binder/internal/diagnostic"
)

// Mode selects the top-level production a Validator accepts.
type Mode int

const (
	// ModeMessage accepts a sequence of parameters.
	ModeMessage Mode = iota
	// ModeValue accepts exactly one value.
	ModeValue
)

type frameKind int

const (
	frameMessage       frameKind = iota // expecting ParameterStart
	frameValue                          // expecting a value start
	frameStructBody                     // expecting StructMemberStart or StructEnd
	frameArrayBody                      // expecting ArrayElementStart or ArrayEnd
	frameAwaitMember                    // expecting StructMember(key)
	frameAwaitElement                   // expecting ArrayElement(index)
	frameAwaitParameter                 // expecting Parameter(index)
	frameAwaitParamEnd                  // expecting ParameterEnd
	frameDone                           // top-level value complete
)

type owner int

const (
	ownerRoot owner = iota
	ownerParameter
	ownerMember
	ownerElement
)

type frame struct {
	kind  frameKind
	owner owner
	key   string
	index int
	next  int
	seen  map[string]struct{}
}

// Validator is a stack machine enforcing the event grammar. It is not safe
// for concurrent use; each stream gets its own Validator.
type Validator struct {
	stack []frame
	mode  Mode
}

// NewValidator creates a Validator for the given top-level production.
func NewValidator(mode Mode) *Validator {
	v := &Validator{mode: mode}
	if mode == ModeMessage {
		v.stack = []frame{{kind: frameMessage}}
	} else {
		v.stack = []frame{{kind: frameValue, owner: ownerRoot}}
	}

	return v
}

func (v *Validator) top() *frame {
	return &v.stack[len(v.stack)-1]
}

func (v *Validator) push(f frame) {
	v.stack = append(v.stack, f)
}

func (v *Validator) pop() {
	v.stack = v.stack[:len(v.stack)-1]
}

func violation(e Event, expecting string) error {
	return diagnostic.Errorf(diagnostic.CodeGrammarViolation, "", "", "saw %s while expecting %s", e, expecting)
}

// Check validates the next event.
func (v *Validator) Check(e Event) error {
	if len(v.stack) == 0 {
		return violation(e, "nothing")
	}

	top := v.top()

	switch top.kind {
	case frameMessage:
		if !e.Is(FamilyParameter, PhaseStart) {
			return violation(e, "Parameter(start)")
		}

		if e.Index != top.next {
			return diagnostic.Errorf(diagnostic.CodeGrammarViolation, "", "",
				"parameter index %d out of order, expected %d", e.Index, top.next)
		}

		top.next++
		v.push(frame{kind: frameValue, owner: ownerParameter, index: e.Index})

	case frameValue:
		return v.startValue(e)

	case frameStructBody:
		switch {
		case e.Is(FamilyStruct, PhaseMemberStart):
			if _, dup := top.seen[e.Key]; dup {
				return diagnostic.Errorf(diagnostic.CodeGrammarViolation, "", e.Key,
					"multiple entries for struct member")
			}

			top.seen[e.Key] = struct{}{}
			v.push(frame{kind: frameValue, owner: ownerMember, key: e.Key})
		case e.Is(FamilyStruct, PhaseEnd):
			v.pop()
		default:
			return violation(e, "Struct(member-start) or Struct(end)")
		}

	case frameArrayBody:
		switch {
		case e.Is(FamilyArray, PhaseMemberStart):
			if e.Index != top.next {
				return diagnostic.Errorf(diagnostic.CodeGrammarViolation, "", "",
					"array element index %d out of order, expected %d", e.Index, top.next)
			}

			top.next++
			v.push(frame{kind: frameValue, owner: ownerElement, index: e.Index})
		case e.Is(FamilyArray, PhaseEnd):
			v.pop()
		default:
			return violation(e, "Array(member-start) or Array(end)")
		}

	case frameAwaitMember:
		if !e.Is(FamilyStruct, PhaseMember) || e.Key != top.key {
			return violation(e, "Struct(member,"+top.key+")")
		}

		v.pop()

	case frameAwaitElement:
		if !e.Is(FamilyArray, PhaseMember) || e.Index != top.index {
			return violation(e, "Array(member)")
		}

		v.pop()

	case frameAwaitParameter:
		if !e.Is(FamilyParameter, PhaseMember) || e.Index != top.index {
			return violation(e, "Parameter(member)")
		}

		top.kind = frameAwaitParamEnd

	case frameAwaitParamEnd:
		if !e.Is(FamilyParameter, PhaseEnd) {
			return violation(e, "Parameter(end)")
		}

		v.pop()

	case frameDone:
		return violation(e, "end of stream")
	}

	return nil
}

// startValue replaces the frameValue on top with the frame awaiting the
// owner's completion event, then opens a body frame for composites.
func (v *Validator) startValue(e Event) error {
	top := v.top()

	var body *frame

	switch {
	case e.Family == FamilyValue:
	case e.Is(FamilyStruct, PhaseStart):
		body = &frame{kind: frameStructBody, seen: map[string]struct{}{}}
	case e.Is(FamilyArray, PhaseStart):
		body = &frame{kind: frameArrayBody}
	default:
		return violation(e, "a value")
	}

	switch top.owner {
	case ownerRoot:
		top.kind = frameDone
	case ownerParameter:
		top.kind = frameAwaitParameter
	case ownerMember:
		top.kind = frameAwaitMember
	case ownerElement:
		top.kind = frameAwaitElement
	}

	if body != nil {
		v.push(*body)
	}

	return nil
}

// Finish reports whether the stream may legally end here.
func (v *Validator) Finish() error {
	if len(v.stack) == 1 {
		switch v.stack[0].kind {
		case frameMessage, frameDone:
			return nil
		}
	}

	return diagnostic.Errorf(diagnostic.CodeGrammarViolation, "", "",
		"unexpected end of stream with %d open frame(s)", len(v.stack))
}

// ValidatingListener checks every event before forwarding it.
type ValidatingListener struct {
	*Validator
	next Listener
}

// ValidateListener wraps next with grammar checking.
func ValidateListener(next Listener, mode Mode) *ValidatingListener {
	return &ValidatingListener{Validator: NewValidator(mode), next: next}
}

// OnEvent implements Listener.
func (l *ValidatingListener) OnEvent(ctx context.Context, e Event) error {
	if err := l.Check(e); err != nil {
		return err
	}

	return l.next.OnEvent(ctx, e)
}

// ValidatingSource checks every event it yields, and turns a premature
// io.EOF into ErrGrammarViolation.
type ValidatingSource struct {
	*Validator
	src Source
}

// ValidateSource wraps src with grammar checking.
func ValidateSource(src Source, mode Mode) *ValidatingSource {
	return &ValidatingSource{Validator: NewValidator(mode), src: src}
}

// Next implements Source.
func (s *ValidatingSource) Next(ctx context.Context) (Event, error) {
	e, err := s.src.Next(ctx)
	if errors.Is(err, io.EOF) {
		if ferr := s.Finish(); ferr != nil {
			return Event{}, ferr
		}

		return Event{}, io.EOF
	}

	if err != nil {
		return Event{}, err
	}

	if err := s.Check(e); err != nil {
		return Event{}, err
	}

	return e, nil
}
