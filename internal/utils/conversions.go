// Package utils holds small generic helpers shared by the module.
package utils

// ToStringSlice keeps the non-empty strings of slice, in order. Decoded JSON
// arrays arrive as []any, so other element types are skipped.
func ToStringSlice(slice []any) []string {
	stringSlice := make([]string, 0, len(slice))
	for _, v := range slice {
		if s, ok := v.(string); ok && s != "" {
			stringSlice = append(stringSlice, s)
		}
	}
	return stringSlice
}
