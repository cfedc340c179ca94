package model

// Record is a schema-less record returned by the source-query API.
type Record map[string]any

// ID returns the record's identity field. Records without an id are never
// deduplicated.
func (r Record) ID() (string, bool) {
	v, ok := r["id"]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Version returns the record's version field. JSON numbers decode to
// float64, so that is the comparison domain.
func (r Record) Version() (float64, bool) {
	v, ok := r["version"]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	if !ok {
		return 0, false
	}
	return f, true
}

// HasVersion reports whether the record carries a usable version field.
func (r Record) HasVersion() bool {
	_, ok := r.Version()
	return ok
}
