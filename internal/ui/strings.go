package ui

// The engine hands around opaque localization keys; this table is where
// they become display text. A future locale switch replaces this map.
var displayStrings = map[string]string{
	"instruction.inhale":            "Breathe in",
	"instruction.hold":              "Hold",
	"instruction.exhale":            "Breathe out",
	"instruction.hold_after_exhale": "Hold empty",
}

// localize resolves an instruction key to display text. Unknown keys fall
// through unchanged so a misconfigured catalog is visible, not blank.
func localize(key string) string {
	if s, ok := displayStrings[key]; ok {
		return s
	}
	return key
}
