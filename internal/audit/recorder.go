package audit

import (
	"sort"
	"time"
)

// RecordNew computes the drafts for a not-yet-persisted record: one draft
// per audited, non-identity attribute currently set, with no old value.
// Persisting the record itself stays with the caller.
func RecordNew(p *Policy, rec Record) []ChangeDraft {
	identity := p.IdentityAttribute(rec.Kind())
	attrs := rec.Attributes()

	drafts := make([]ChangeDraft, 0, len(attrs))
	for _, attr := range sortedKeys(attrs) {
		if attr == identity || !p.IsAudited(attr) {
			continue
		}
		value := attrs[attr]
		drafts = append(drafts, ChangeDraft{
			Attribute: attr,
			NewValue:  &value,
		})
	}
	return drafts
}

// RecordUpdate computes the drafts for an in-memory-mutated record: one
// draft per audited, non-identity changed attribute, with both values.
// The caller must still flush the record's pending mutation via Save.
func RecordUpdate(p *Policy, rec Record) []ChangeDraft {
	identity := p.IdentityAttribute(rec.Kind())
	changed := rec.ChangedAttributes()

	drafts := make([]ChangeDraft, 0, len(changed))
	for _, attr := range sortedChangeKeys(changed) {
		if attr == identity || !p.IsAudited(attr) {
			continue
		}
		fc := changed[attr]
		oldValue, newValue := fc.Old, fc.New
		drafts = append(drafts, ChangeDraft{
			Attribute: attr,
			OldValue:  &oldValue,
			NewValue:  &newValue,
		})
	}
	return drafts
}

// RecordSoftDelete marks the record deleted as of now and returns the single
// draft for the deletion-marker attribute, with no old value. The caller
// must still flush the mutation via Save.
func RecordSoftDelete(rec SoftDeletable, now time.Time) ChangeDraft {
	attr, value := rec.MarkDeleted(now)
	return ChangeDraft{
		Attribute: attr,
		NewValue:  &value,
	}
}

// sortedKeys returns map keys in a stable order so draft output is
// deterministic across runs.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedChangeKeys(m map[string]FieldChange) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
