package audit

// ChangeSet accumulates pending attribute transitions for a record. Models
// embed one and report mutations through their setters, which keeps
// ChangedAttributes exact: untouched attributes never appear.
//
// Not safe for concurrent use; a record belongs to one request at a time.
type ChangeSet struct {
	fields map[string]FieldChange
}

// Track records a transition for the named attribute. The first tracked old
// value is kept across repeated mutations of the same attribute, and a
// mutation back to the original value removes the entry entirely.
func (c *ChangeSet) Track(attribute, oldValue, newValue string) {
	if c.fields == nil {
		c.fields = make(map[string]FieldChange)
	}
	if prev, ok := c.fields[attribute]; ok {
		if prev.Old == newValue {
			delete(c.fields, attribute)
			return
		}
		c.fields[attribute] = FieldChange{Old: prev.Old, New: newValue}
		return
	}
	if oldValue == newValue {
		return
	}
	c.fields[attribute] = FieldChange{Old: oldValue, New: newValue}
}

// Fields returns a copy of the pending transitions.
func (c *ChangeSet) Fields() map[string]FieldChange {
	out := make(map[string]FieldChange, len(c.fields))
	for attr, fc := range c.fields {
		out[attr] = fc
	}
	return out
}

// Reset clears all pending transitions, typically after a successful save.
func (c *ChangeSet) Reset() {
	c.fields = nil
}
