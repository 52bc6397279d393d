package differ

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/samber/lo"
	"github.com/yairfalse/idcvault/pkg/types"
)

// DefaultMembershipFields are list attributes that hold sets: group members
// and attached managed policy ARNs. Reordering them is not a change.
// customer_managed_policies is order-sensitive and not listed.
var DefaultMembershipFields = []string{"members", "managed_policies"}

// AttributeDetector finds attribute-level differences between two resources
// of the same kind
type AttributeDetector struct {
	membershipFields map[string]struct{}
}

// NewAttributeDetector creates a detector that compares the given fields as
// sets. With no fields, DefaultMembershipFields is used.
func NewAttributeDetector(membershipFields ...string) *AttributeDetector {
	if len(membershipFields) == 0 {
		membershipFields = DefaultMembershipFields
	}
	fields := make(map[string]struct{}, len(membershipFields))
	for _, f := range membershipFields {
		fields[f] = struct{}{}
	}
	return &AttributeDetector{membershipFields: fields}
}

// MembershipFields returns the set-compared attribute names, sorted
func (d *AttributeDetector) MembershipFields() []string {
	fields := lo.Keys(d.membershipFields)
	sort.Strings(fields)
	return fields
}

// Detect compares before and after attribute by attribute. Attributes named
// in exclude are skipped and a key missing on one side compares as nil.
// Changes are returned sorted by attribute name.
func (d *AttributeDetector) Detect(before, after types.Resource, exclude ...string) []AttributeChange {
	return d.DetectMaps(before.ToMap(), after.ToMap(), exclude...)
}

// DetectMaps is Detect over already flattened attribute maps
func (d *AttributeDetector) DetectMaps(before, after map[string]any, exclude ...string) []AttributeChange {
	skip := make(map[string]struct{}, len(exclude))
	for _, e := range exclude {
		skip[e] = struct{}{}
	}

	names := lo.Union(lo.Keys(before), lo.Keys(after))
	sort.Strings(names)

	changes := []AttributeChange{}
	for _, name := range names {
		if _, excluded := skip[name]; excluded {
			continue
		}

		beforeValue := before[name]
		afterValue := after[name]
		if !d.differs(name, beforeValue, afterValue) {
			continue
		}

		changes = append(changes, AttributeChange{
			AttributeName: name,
			BeforeValue:   beforeValue,
			AfterValue:    afterValue,
		})
	}

	return changes
}

func (d *AttributeDetector) differs(name string, before, after any) bool {
	if reflect.DeepEqual(before, after) {
		return false
	}

	if _, ok := d.membershipFields[name]; ok {
		beforeList, beforeIsList := asList(before)
		afterList, afterIsList := asList(after)
		if beforeIsList && afterIsList {
			return !sameSet(beforeList, afterList)
		}
	}

	return true
}

// asList flattens any slice or array value into string keys suitable for
// set comparison
func asList(v any) ([]string, bool) {
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}

	out := make([]string, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = fmt.Sprintf("%v", rv.Index(i).Interface())
	}
	return out, true
}

func sameSet(a, b []string) bool {
	missing, extra := lo.Difference(lo.Uniq(a), lo.Uniq(b))
	return len(missing) == 0 && len(extra) == 0
}
