package querysql

import "strings"

// appendPaths joins a parent property path and a child segment into a
// dotted/bracketed path. A leading "$." or "$" on the child is
// stripped; a child starting with "[" concatenates without a dot.
func appendPaths(parent, child string) string {
	if strings.HasPrefix(child, "$") {
		if strings.HasPrefix(child, "$.") {
			child = child[2:]
		} else {
			child = child[1:]
		}
	}
	if parent == "" {
		return child
	}
	if strings.HasPrefix(child, "[") {
		return parent + child
	}
	return parent + "." + child
}
