package sheet

import (
	"encoding/json"
	"errors"

	"github.com/dmitrymomot/folio/internal/record"
)

// marshalRow encodes a row as a JSON array of cells for the SQL backends.
func marshalRow(row Row) (string, error) {
	b, err := json.Marshal([]record.Value(encodeRow(row)))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalRow(data string) (Row, error) {
	var cells []record.Value
	if err := json.Unmarshal([]byte(data), &cells); err != nil {
		return nil, errors.Join(ErrCorruptRow, err)
	}
	return Row(cells), nil
}
