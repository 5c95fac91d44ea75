package versions

import (
	"fmt"
	"strings"
)

// Key layout:
//
//	ver:<workflowID>:<versionID>  -> json encoded model.WorkflowVersion
//	ct:ver:<workflowID>           -> version number counter
//
// Version IDs are ULIDs, so key order within a workflow is creation order.
func VersionStorageKey(workflowID, versionID string) []byte {
	return []byte(fmt.Sprintf("ver:%s:%s", workflowID, versionID))
}

func VersionStoragePrefix(workflowID string) []byte {
	return []byte(fmt.Sprintf("ver:%s:", workflowID))
}

// AllVersionsPrefix covers every workflow, used by the retention sweep.
func AllVersionsPrefix() []byte {
	return []byte("ver:")
}

func VersionCounterKey(workflowID string) []byte {
	return []byte(fmt.Sprintf("ct:ver:%s", workflowID))
}

// VersionIdFromStorageKey extracts the version id from a storage key.
func VersionIdFromStorageKey(key []byte) string {
	parts := strings.SplitN(string(key), ":", 3)
	if len(parts) < 3 {
		return ""
	}
	return parts[2]
}

// WorkflowIdFromStorageKey extracts the workflow id from a storage key.
func WorkflowIdFromStorageKey(key []byte) string {
	parts := strings.SplitN(string(key), ":", 3)
	if len(parts) < 3 {
		return ""
	}
	return parts[1]
}
