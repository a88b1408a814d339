package api

type (
	// Inputs represents the named inputs supplied with a run request. Values
	// are either strings or lists of strings; JSON decoding produces string
	// or []any, so the accessors normalize both shapes
	Inputs map[string]any
)

// GetString retrieves a string input, returning defaultValue if not found or
// wrong type
func (i Inputs) GetString(name, defaultValue string) string {
	val, ok := i[name]
	if !ok {
		return defaultValue
	}
	str, ok := val.(string)
	if !ok {
		return defaultValue
	}
	return str
}

// GetStrings retrieves a list-of-strings input. A bare string is treated as
// a single-element list. Non-string elements are dropped
func (i Inputs) GetStrings(name string) []string {
	val, ok := i[name]
	if !ok {
		return nil
	}
	switch v := val.(type) {
	case string:
		return []string{v}
	case []string:
		return v
	case []any:
		res := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				res = append(res, s)
			}
		}
		return res
	default:
		return nil
	}
}
