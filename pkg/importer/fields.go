package importer

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/kintree/pkg/family"
)

// Canonical field names.
const (
	fieldID               = "id"
	fieldName             = "name"
	fieldRole             = "role"
	fieldBirthDate        = "birthDate"
	fieldDeathDate        = "deathDate"
	fieldBio              = "bio"
	fieldAvatarRef        = "avatarRef"
	fieldStoryCount       = "storyCount"
	fieldHasNewStories    = "hasNewStories"
	fieldParentID         = "parentId"
	fieldFatherID         = "fatherId"
	fieldMotherID         = "motherId"
	fieldSpouseID         = "spouseId"
	fieldSource           = "source"
	fieldTarget           = "target"
	fieldKind             = "kind"
	fieldSharedStoryCount = "sharedStoryCount"
	fieldChildren         = "children"
	fieldSpouse           = "spouse"
)

// synonyms lists the accepted spellings of each canonical field, most
// preferred first.
var synonyms = map[string][]string{
	fieldID:               {"id", "memberId", "member_id"},
	fieldName:             {"name", "fullName", "full_name", "displayName", "display_name"},
	fieldRole:             {"role"},
	fieldBirthDate:        {"birthDate", "birth_date"},
	fieldDeathDate:        {"deathDate", "death_date"},
	fieldBio:              {"bio", "biography"},
	fieldAvatarRef:        {"avatarRef", "avatar_ref", "avatar", "photo"},
	fieldStoryCount:       {"storyCount", "story_count"},
	fieldHasNewStories:    {"hasNewStories", "has_new_stories"},
	fieldParentID:         {"parentId", "parent_id"},
	fieldFatherID:         {"fatherId", "father_id"},
	fieldMotherID:         {"motherId", "mother_id"},
	fieldSpouseID:         {"spouseId", "spouse_id"},
	fieldSource:           {"sourceId", "source_id", "source", "from"},
	fieldTarget:           {"targetId", "target_id", "target", "to"},
	fieldKind:             {"kind", "type", "relationship"},
	fieldSharedStoryCount: {"sharedStoryCount", "shared_story_count"},
	fieldChildren:         {"children"},
	fieldSpouse:           {"spouse"},
}

// Collection keys of the object shapes.
var (
	memberKeys       = []string{"members", "nodes", "people"}
	relationshipKeys = []string{"relationships", "edges", "links"}
	rowKeys          = []string{"rows", "records"}
)

// parentFields are the tabular columns producing parent_child edges.
var parentFields = []string{fieldParentID, fieldFatherID, fieldMotherID}

// record is a single decoded entry with raw field names.
type record map[string]any

// lookup returns the first non-nil value stored under any synonym of field.
func (r record) lookup(field string) (any, bool) {
	for _, key := range synonyms[field] {
		if v, ok := r[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// text returns the normalized string value of field, or "".
func (r record) text(field string) string {
	v, ok := r.lookup(field)
	if !ok {
		return ""
	}
	return scalarString(v)
}

func (r record) has(field string) bool {
	_, ok := r.lookup(field)
	return ok
}

// asRecord converts the map types produced by the supported decoders.
func asRecord(v any) (record, bool) {
	switch m := v.(type) {
	case map[string]any:
		return record(m), true
	case record:
		return m, true
	case map[any]any:
		out := make(record, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	case map[string]string:
		out := make(record, len(m))
		for k, val := range m {
			out[k] = val
		}
		return out, true
	}
	return nil, false
}

// asList converts the slice types produced by the supported decoders.
func asList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case []map[string]any:
		out := make([]any, len(l))
		for i, m := range l {
			out[i] = m
		}
		return out, true
	case []map[string]string:
		out := make([]any, len(l))
		for i, m := range l {
			out[i] = m
		}
		return out, true
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

// lookupList returns the first collection found under keys.
func lookupList(r record, keys []string) ([]any, bool) {
	for _, k := range keys {
		if v, ok := r[k]; ok {
			if l, ok := asList(v); ok {
				return l, true
			}
		}
	}
	return nil, false
}

// scalarString renders ids and text fields. Numbers become decimal strings.
func scalarString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case bool:
		return strconv.FormatBool(x)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// scalarCount parses a non-negative integer count. An absent or blank value
// is zero.
func scalarCount(v any) (int, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case int:
		return checkCount(x)
	case int64:
		return checkCount(int(x))
	case float64:
		if x != math.Trunc(x) {
			return 0, fmt.Errorf("%v is not an integer", x)
		}
		return checkCount(int(x))
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			return 0, fmt.Errorf("%s is not an integer", x)
		}
		return checkCount(int(n))
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("%q is not an integer", s)
		}
		return checkCount(n)
	}
	return 0, fmt.Errorf("unsupported count value %v", v)
}

func checkCount(n int) (int, error) {
	if n < 0 {
		return 0, fmt.Errorf("count %d is negative", n)
	}
	return n, nil
}

// scalarBool accepts booleans, ParseBool strings and numbers.
func scalarBool(v any) (bool, error) {
	switch x := v.(type) {
	case nil:
		return false, nil
	case bool:
		return x, nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return false, nil
		}
		switch strings.ToLower(s) {
		case "yes", "y":
			return true, nil
		case "no", "n":
			return false, nil
		}
		return strconv.ParseBool(s)
	case json.Number:
		f, err := x.Float64()
		return f != 0, err
	case float64:
		return x != 0, nil
	case int:
		return x != 0, nil
	case int64:
		return x != 0, nil
	}
	return false, fmt.Errorf("unsupported boolean value %v", v)
}

// ParseKind maps the accepted relationship kind spellings to a family.Kind.
// Matching is case-insensitive and treats "-" like "_".
func ParseKind(s string) (family.Kind, bool) {
	k := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	switch k {
	case "parent_child", "parentchild", "parent":
		return family.KindParentChild, true
	case "spouse", "partner", "married":
		return family.KindSpouse, true
	}
	return "", false
}
