package variables

import (
	"fmt"
	"strings"
)

// Key layout:
//
//	var:<scope>:<NAME>  -> json encoded model.Variable
//
// scope is a workflow id, or model.GlobalScope for shared variables. Names
// are [A-Z0-9_]+ so the two colons always delimit cleanly.
func VariableStorageKey(scope, name string) []byte {
	return []byte(fmt.Sprintf("var:%s:%s", scope, name))
}

func VariableStoragePrefix(scope string) []byte {
	return []byte(fmt.Sprintf("var:%s:", scope))
}

// VariableNameFromKey extracts the variable name out of a storage key.
func VariableNameFromKey(key string) string {
	parts := strings.SplitN(key, ":", 3)
	if len(parts) < 3 {
		return ""
	}
	return parts[2]
}
