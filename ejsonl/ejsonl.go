// Package ejsonl implements the dump line codec: one BSON document per
// line, rendered as canonical Extended JSON.
//
// Canonical mode tags every value kind that has no native JSON form
// ($timestamp, $binary, $date, $oid, $numberInt, $numberLong,
// $numberDouble, $numberDecimal, $regularExpression) so that a decoded
// line reproduces the original document exactly. The tag vocabulary is
// defined by the MongoDB Extended JSON v2 specification and is stable
// across versions: a dump produced earlier restores correctly later.
package ejsonl

import (
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/percona/percona-dbcopy-mongodb/errors"
)

// Marshal renders one document as a single line of canonical Extended
// JSON, without a trailing newline. JSON string escaping guarantees the
// output contains no raw line breaks.
func Marshal(doc any) ([]byte, error) {
	data, err := bson.MarshalExtJSON(doc, true, false)

	return data, errors.Wrap(err, "marshal extended JSON")
}

// Unmarshal decodes one line produced by [Marshal] back into a document,
// preserving field order and value kinds.
func Unmarshal(data []byte) (bson.D, error) {
	var doc bson.D

	err := bson.UnmarshalExtJSON(data, true, &doc)
	if err != nil {
		return nil, errors.Wrap(err, "unmarshal extended JSON")
	}

	return doc, nil
}

// DecodeError reports a malformed dump line. It is scoped to the single
// line it names; the caller decides whether to abort.
type DecodeError struct {
	Line int
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode line %d: %s", e.Line, e.Err.Error())
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// UnmarshalLine decodes one numbered dump line. A malformed line yields a
// *DecodeError carrying the line number.
func UnmarshalLine(data []byte, line int) (bson.D, error) {
	doc, err := Unmarshal(data)
	if err != nil {
		return nil, &DecodeError{Line: line, Err: err}
	}

	return doc, nil
}
