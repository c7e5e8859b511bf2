package audit

// DefaultIdentityAttribute is the attribute used to key audit rows for
// record kinds without an explicit override.
const DefaultIdentityAttribute = "id"

// Policy holds the suppression list and the per-kind identity attribute
// table. It is immutable after construction and safe for concurrent use;
// the engine never mutates it at call time.
type Policy struct {
	suppressed map[string]struct{}
	identity   map[string]string
}

// DefaultSuppressedAttributes are never audited: row timestamps, which churn
// on every save, and credential material, which must not appear in the trail.
var DefaultSuppressedAttributes = []string{
	"created_at",
	"updated_at",
	"password_hash",
	"password_salt",
}

// NewPolicy builds a Policy from a suppression list and a map of record kind
// to identity attribute for kinds whose natural key is not "id". Both inputs
// are copied; callers cannot mutate the policy afterwards.
func NewPolicy(suppressed []string, identityOverrides map[string]string) *Policy {
	p := &Policy{
		suppressed: make(map[string]struct{}, len(suppressed)),
		identity:   make(map[string]string, len(identityOverrides)),
	}
	for _, attr := range suppressed {
		p.suppressed[attr] = struct{}{}
	}
	for kind, attr := range identityOverrides {
		p.identity[kind] = attr
	}
	return p
}

// DefaultPolicy returns the policy used by the application: the default
// suppression list, and budget_months keyed by budget_id. The persistence
// layer is not uniform about key naming across tables; hardcoding "id" would
// silently mis-key audit rows for the exceptional kinds.
func DefaultPolicy() *Policy {
	return NewPolicy(DefaultSuppressedAttributes, map[string]string{
		"budget_months": "budget_id",
	})
}

// IsAudited reports whether changes to the named attribute are recorded.
func (p *Policy) IsAudited(attribute string) bool {
	_, suppressed := p.suppressed[attribute]
	return !suppressed
}

// IdentityAttribute returns the attribute that keys audit rows for the given
// record kind. Kinds without a registered override use "id".
func (p *Policy) IdentityAttribute(kind string) string {
	if attr, ok := p.identity[kind]; ok {
		return attr
	}
	return DefaultIdentityAttribute
}
