// Package period normalizes raw period documents into Records.
package period

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedID is wrapped by every MalformedIDError.
var ErrMalformedID = errors.New("period: malformed period id")

// MalformedIDError reports a document id that is not a positive integer.
type MalformedIDError struct {
	ID string
}

func (e *MalformedIDError) Error() string {
	return fmt.Sprintf("%s %q", ErrMalformedID, e.ID)
}

func (e *MalformedIDError) Unwrap() error {
	return ErrMalformedID
}

// Record is one slot of a day schedule. Text fields default to "".
type Record struct {
	Number  int    `json:"period"`
	Subject string `json:"subject"`
	Teacher string `json:"teacher"`
	Code    string `json:"code"`
	Room    string `json:"room"`
}

// Empty reports whether the record carries no displayable text.
func (r Record) Empty() bool {
	return r.Subject == "" && r.Teacher == "" && r.Code == "" && r.Room == ""
}

// Fields lists, per record attribute, the document field names to try in
// order. Upstream data is not uniformly shaped, so the first present,
// non-empty name wins.
type Fields struct {
	Subject []string
	Teacher []string
	Code    []string
	Room    []string
}

// LegacyFields accepts every field spelling seen in stored routines.
func LegacyFields() Fields {
	return Fields{
		Subject: []string{"sname", "subject", "name"},
		Teacher: []string{"tname", "teacher", "faculty"},
		Code:    []string{"scode", "code"},
		Room:    []string{"room", "venue"},
	}
}

// PrimaryFields reads only the canonical field names.
func PrimaryFields() Fields {
	return Fields{
		Subject: []string{"sname"},
		Teacher: []string{"tname"},
		Code:    []string{"scode"},
		Room:    []string{"room"},
	}
}

// ParseNumber reads a period number from a document id.
func ParseNumber(id string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(id))
	if err != nil || n < 1 {
		return 0, &MalformedIDError{ID: id}
	}
	return n, nil
}

// Normalize builds a Record from a document id and its fields.
func Normalize(id string, fields map[string]any, f Fields) (Record, error) {
	n, err := ParseNumber(id)
	if err != nil {
		return Record{}, err
	}
	return Record{
		Number:  n,
		Subject: pick(fields, f.Subject),
		Teacher: pick(fields, f.Teacher),
		Code:    pick(fields, f.Code),
		Room:    pick(fields, f.Room),
	}, nil
}

func pick(fields map[string]any, names []string) string {
	for _, name := range names {
		if s := text(fields[name]); s != "" {
			return s
		}
	}
	return ""
}

func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
