package event

import (
	"context"
	"errors"
	"io"

	"xmlrpc-binder/internal/diagnostic"
)

// Cursor is a Source with one event of lookahead, used by binders to decide
// how to consume the next value.
type Cursor struct {
	src    Source
	peeked bool
	ev     Event
	err    error
}

// NewCursor wraps src.
func NewCursor(src Source) *Cursor {
	if c, ok := src.(*Cursor); ok {
		return c
	}

	return &Cursor{src: src}
}

// Peek returns the next event without consuming it.
func (c *Cursor) Peek(ctx context.Context) (Event, error) {
	if !c.peeked {
		if err := ctx.Err(); err != nil {
			return Event{}, err
		}

		c.ev, c.err = c.src.Next(ctx)
		c.peeked = true
	}

	return c.ev, c.err
}

// Next implements Source.
func (c *Cursor) Next(ctx context.Context) (Event, error) {
	e, err := c.Peek(ctx)
	if err == nil {
		c.peeked = false
	}

	return e, err
}

// AtEOF reports whether the underlying source is exhausted.
func (c *Cursor) AtEOF(ctx context.Context) (bool, error) {
	_, err := c.Peek(ctx)
	if errors.Is(err, io.EOF) {
		return true, nil
	}

	return false, err
}

// Expect consumes the next event and fails with ErrGrammarViolation unless
// it has family f and phase p. A premature end of stream is also a grammar
// violation.
func (c *Cursor) Expect(ctx context.Context, f Family, p Phase) (Event, error) {
	e, err := c.Next(ctx)
	if errors.Is(err, io.EOF) {
		return Event{}, diagnostic.Errorf(diagnostic.CodeGrammarViolation, "", "",
			"unexpected end of stream while expecting %s(%s)", f, p)
	}

	if err != nil {
		return Event{}, err
	}

	if !e.Is(f, p) {
		return e, diagnostic.Errorf(diagnostic.CodeGrammarViolation, "", "",
			"saw %s while expecting %s(%s)", e, f, p)
	}

	return e, nil
}
