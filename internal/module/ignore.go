package module

import (
	"git.home.luguber.info/inful/catalogbuilder/internal/foundation"
)

var ignoreValues = foundation.NewNormalizer(map[string]bool{"true": true, "false": false}, false)

// ParseIgnore parses the ignore flag of a descriptor. Only true and false are
// accepted; anything else is a structural error naming the file.
func ParseIgnore(raw, pathOffset string) (bool, error) {
	value, err := ignoreValues.Parse(raw)
	if err != nil {
		return false, Structural("ignore flag in %s: %w", pathOffset, err)
	}
	return value, nil
}

// ParseIgnoreValue accepts a decoded JSON/YAML value: a boolean or one of the
// strings ParseIgnore accepts. A missing value means false.
func ParseIgnoreValue(raw any, pathOffset string) (bool, error) {
	switch v := raw.(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case string:
		return ParseIgnore(v, pathOffset)
	default:
		return false, Structural("ignore flag in %s: unsupported value %v (%T)", pathOffset, v, v)
	}
}
