package cache

import "fmt"

// GenerateKeyWithParams creates a cache key with multiple parameters.
// Empty params are kept as "_" so distinct filters never share a key.
func GenerateKeyWithParams(prefix string, params ...interface{}) string {
	key := prefix
	for _, param := range params {
		if s, ok := param.(string); ok && s == "" {
			param = "_"
		}
		key = fmt.Sprintf("%s:%v", key, param)
	}
	return key
}

// BuildPattern creates a glob pattern matching every key under prefix.
func BuildPattern(prefix string) string {
	return fmt.Sprintf("%s:*", prefix)
}
