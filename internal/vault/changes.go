package vault

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DescribeChanges lists human-readable differences between two versions of
// a credential. Secret values are never included, only the fact that the
// secret changed.
func DescribeChanges(before, after Credential) []string {
	var out []string

	if before.Service != after.Service {
		out = append(out, fmt.Sprintf("service: %q -> %q", before.Service, after.Service))
	}
	if before.Principal != after.Principal {
		out = append(out, fmt.Sprintf("%s: %q -> %q", principalLabel(after.Kind), before.Principal, after.Principal))
	}
	if !bytes.Equal(before.Secret, after.Secret) {
		out = append(out, "secret: changed")
	}
	if before.Notes != after.Notes {
		out = append(out, "notes: "+inlineDiff(before.Notes, after.Notes))
	}
	if !slices.Equal(before.Tags, after.Tags) {
		out = append(out, fmt.Sprintf("tags: [%s] -> [%s]",
			strings.Join(before.Tags, ", "), strings.Join(after.Tags, ", ")))
	}
	if after.Kind == KindAPIKey && before.IsActive != after.IsActive {
		out = append(out, fmt.Sprintf("active: %t -> %t", before.IsActive, after.IsActive))
	}
	if !maps.Equal(before.CustomFields, after.CustomFields) {
		out = append(out, describeFields(before.CustomFields, after.CustomFields)...)
	}

	return out
}

func principalLabel(k Kind) string {
	if k == KindAPIKey {
		return "account"
	}
	return "username"
}

// inlineDiff renders a character diff with [-removed-] and {+added+} markers
func inlineDiff(a, b string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(a, b, false))

	var sb strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			sb.WriteString(d.Text)
		case diffmatchpatch.DiffDelete:
			sb.WriteString("[-" + d.Text + "-]")
		case diffmatchpatch.DiffInsert:
			sb.WriteString("{+" + d.Text + "+}")
		}
	}
	return sb.String()
}

func describeFields(before, after map[string]string) []string {
	keys := slices.Sorted(maps.Keys(before))
	for k := range after {
		if _, ok := before[k]; !ok {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	var out []string
	for _, k := range keys {
		old, hadOld := before[k]
		cur, hasCur := after[k]
		switch {
		case !hadOld:
			out = append(out, fmt.Sprintf("field %s: added", k))
		case !hasCur:
			out = append(out, fmt.Sprintf("field %s: removed", k))
		case old != cur:
			out = append(out, fmt.Sprintf("field %s: %q -> %q", k, old, cur))
		}
	}
	return out
}
