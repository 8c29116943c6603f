package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/letterdesk/internal/common"
	"github.com/dmitrijs2005/letterdesk/internal/layout"
	"golang.org/x/term"
)

// isTerminal is a test seam for term.IsTerminal. The prompt is only shown
// on a terminal so scripted sessions produce clean output.
var isTerminal = term.IsTerminal

func usage(u string) error {
	return fmt.Errorf("%w: usage: %s", common.ErrInvalidField, u)
}

func parseInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: not an integer: %q", common.ErrInvalidField, s)
	}
	return n, nil
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: not a number: %q", common.ErrInvalidField, s)
	}
	return f, nil
}

// parsePoint reads two numbers.
func parsePoint(args []string) (float64, float64, error) {
	if len(args) != 2 {
		return 0, 0, fmt.Errorf("%w: expected x and y", common.ErrInvalidField)
	}
	x, err := parseFloat(args[0])
	if err != nil {
		return 0, 0, err
	}
	y, err := parseFloat(args[1])
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	}
	return false, fmt.Errorf("%w: expected on or off: %q", common.ErrInvalidField, s)
}

// elementNames are the short names accepted for fixed elements.
var elementNames = map[string]layout.ElementID{
	"serial":       layout.FixedID(layout.SerialNumber),
	"date":         layout.FixedID(layout.IssueDate),
	"signature":    layout.FixedID(layout.Signature),
	"verification": layout.VerificationID,
}

// parseElement resolves a short fixed element name or takes s as an id.
func parseElement(s string) layout.ElementID {
	if id, ok := elementNames[strings.ToLower(s)]; ok {
		return id
	}
	return layout.ElementID(s)
}
