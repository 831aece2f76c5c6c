package assets

import (
	"regexp"
	"strings"
)

// FieldNames are the content keys conventionally holding an asset path.
var FieldNames = []string{
	"image",
	"imageUrl",
	"senderImageUrl",
	"bannerImage",
	"logo",
	"avatar",
	"featuredImage",
}

var memberImageField = regexp.MustCompile(`^members\.[0-9]{1,4}\.image$`)

// IsAssetField reports whether field may be the target of an image upload.
// Accepted forms are the names in FieldNames and "members.<n>.image".
func IsAssetField(field string) bool {
	for _, f := range FieldNames {
		if field == f {
			return true
		}
	}
	return memberImageField.MatchString(field)
}

func isAssetKey(key string) bool {
	for _, f := range FieldNames {
		if key == f {
			return true
		}
	}
	return false
}

// Referenced returns every asset path found in content. It walks nested
// objects and arrays, so team rosters (members[].image) are covered.
func Referenced(content any) []string {
	var out []string
	seen := map[string]bool{}
	var walk func(v any)
	walk = func(v any) {
		switch t := v.(type) {
		case map[string]any:
			for k, child := range t {
				if s, ok := child.(string); ok && isAssetKey(k) {
					s = strings.TrimSpace(s)
					if s != "" && !seen[s] {
						seen[s] = true
						out = append(out, s)
					}
					continue
				}
				walk(child)
			}
		case []any:
			for _, child := range t {
				walk(child)
			}
		}
	}
	walk(content)
	return out
}

// ValueAt returns the string stored at a dotted field path ("members.2.image")
// inside content, or "" if there is none.
func ValueAt(content any, field string) string {
	cur := content
	for _, part := range strings.Split(field, ".") {
		switch t := cur.(type) {
		case map[string]any:
			cur = t[part]
		case []any:
			idx := 0
			for _, c := range part {
				if c < '0' || c > '9' {
					return ""
				}
				idx = idx*10 + int(c-'0')
			}
			if idx >= len(t) {
				return ""
			}
			cur = t[idx]
		default:
			return ""
		}
	}
	s, _ := cur.(string)
	return s
}
