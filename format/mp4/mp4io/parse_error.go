package mp4io

import (
	"errors"
	"fmt"
	"strings"
)

// ParseError records the field and offset where box parsing failed, chained with inner failures.
type ParseError struct {
	Debug  string
	Offset int
	Err    error
	prev   *ParseError
}

func (p *ParseError) Error() string {
	s := []string{}
	for err := p; err != nil; err = err.prev {
		s = append(s, fmt.Sprintf("%s:%d", err.Debug, err.Offset))
	}
	msg := "mp4io: parse error: " + strings.Join(s, ",")
	if p.Err != nil {
		msg += ": " + p.Err.Error()
	}
	return msg
}

func (p *ParseError) Unwrap() error {
	return p.Err
}

func parseErr(debug string, offset int, prev error) error {
	pe := &ParseError{Debug: debug, Offset: offset, Err: prev}
	var inner *ParseError
	if errors.As(prev, &inner) {
		pe.prev = inner
		pe.Err = inner.Err
	}
	return pe
}
