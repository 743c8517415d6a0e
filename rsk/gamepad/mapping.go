package gamepad

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Direction of an axis based button. None means a plain button.
type Direction int

const (
	// Negative - pressed when the axis goes below -0.5
	Negative Direction = -1
	// None - not an axis, reads a discrete button
	None Direction = 0
	// Positive - pressed when the axis goes above 0.5
	Positive Direction = 1
)

func (d Direction) String() string {
	switch d {
	case Negative:
		return "-"
	case Positive:
		return "+"
	}
	return ""
}

// SkipToken leaves a uiIndex without a button
const SkipToken = "*"

// Binding ties an on-screen slot to a hardware button or axis direction
type Binding struct {
	UIIndex       int
	HardwareIndex int
	Direction     Direction
}

// Mapping is a parsed mapping specification. Bindings are in token order.
type Mapping struct {
	Bindings []Binding
	Slots    int // number of tokens, including skipped ones
}

// MalformedTokenError is returned for a token that is neither "*", an axis
// reference nor a button index
type MalformedTokenError struct {
	Token    string
	Position int
}

func (e *MalformedTokenError) Error() string {
	return fmt.Sprintf("malformed mapping token %q at position %d", e.Token, e.Position)
}

// MappingTooLongError is returned when a mapping has more slots than the
// on-screen gamepad
type MappingTooLongError struct {
	Slots      int
	MaxButtons int
}

func (e *MappingTooLongError) Error() string {
	return fmt.Sprintf("mapping has %d slots, at most %d supported", e.Slots, e.MaxButtons)
}

// ParseMapping parses a whitespace or comma separated list of tokens. The
// position of a token is its uiIndex:
//   - "*"  no button at this position
//   - "4-" axis 4, pressed in negative direction
//   - "4+" axis 4, pressed in positive direction
//   - "4"  button 4
//
// maxButtons <= 0 disables the length check.
func ParseMapping(spec string, maxButtons int) (Mapping, error) {
	tokens := strings.FieldsFunc(spec, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	if maxButtons > 0 && len(tokens) > maxButtons {
		return Mapping{}, &MappingTooLongError{Slots: len(tokens), MaxButtons: maxButtons}
	}

	mapping := Mapping{Bindings: make([]Binding, 0, len(tokens)), Slots: len(tokens)}
	for uiIndex, token := range tokens {
		if token == SkipToken {
			continue
		}
		entry := token
		direction := None
		if strings.HasSuffix(entry, "-") {
			direction = Negative
			entry = entry[:len(entry)-1]
		} else if strings.HasSuffix(entry, "+") {
			direction = Positive
			entry = entry[:len(entry)-1]
		}
		// Only plain digits, Atoi would accept a sign
		if len(entry) == 0 || strings.IndexFunc(entry, notDigit) != -1 {
			return Mapping{}, &MalformedTokenError{Token: token, Position: uiIndex}
		}
		hardwareIndex, err := strconv.Atoi(entry)
		if err != nil {
			return Mapping{}, &MalformedTokenError{Token: token, Position: uiIndex}
		}
		mapping.Bindings = append(mapping.Bindings, Binding{
			UIIndex:       uiIndex,
			HardwareIndex: hardwareIndex,
			Direction:     direction,
		})
	}
	return mapping, nil
}

func notDigit(r rune) bool {
	return r < '0' || r > '9'
}

// String renders the mapping in its canonical form
func (m Mapping) String() string {
	tokens := make([]string, m.Slots)
	for i := range tokens {
		tokens[i] = SkipToken
	}
	for _, b := range m.Bindings {
		tokens[b.UIIndex] = strconv.Itoa(b.HardwareIndex) + b.Direction.String()
	}
	return strings.Join(tokens, " ")
}
