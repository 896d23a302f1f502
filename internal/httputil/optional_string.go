package httputil

import (
	"bytes"
	"encoding/json"
)

// OptionalString distinguishes an absent JSON field from an explicit
// null, which a plain *string cannot:
//   - Present=false: field absent (leave unchanged)
//   - Present=true, Value=nil: field was JSON null (clear)
//   - Present=true, Value=&s: field carried a string
//
// Move requests rely on the null case: parent_id null means "to the
// top level", which is different from omitting parent_id.
type OptionalString struct {
	Present bool
	Value   *string
}

// UnmarshalJSON is only invoked when the field appears in the payload,
// so reaching it at all establishes presence.
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Present = true

	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}
