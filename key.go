package configbus

import "fmt"

const (
	// compactSuffix marks the key holding the compact-binary form.
	compactSuffix = ":mp"

	// maxStoreKeyLen is the key-length ceiling imposed by the backing
	// store (15 characters for NVS-style partitions).
	maxStoreKeyLen = 15

	// MaxModuleIDLen is the longest module identifier that still fits a
	// compact key: maxStoreKeyLen minus the 3-character suffix.
	MaxModuleIDLen = maxStoreKeyLen - len(compactSuffix)
)

// compactKey derives the storage key for the compact-binary form of a
// module's record. The primary key is the module id itself and needs no
// construction.
func compactKey(moduleID string) (string, error) {
	if moduleID == "" {
		return "", fmt.Errorf("%w: empty module id", ErrInvalidArgument)
	}
	if len(moduleID)+len(compactSuffix) > maxStoreKeyLen {
		return "", fmt.Errorf("%w: module id %q exceeds %d characters",
			ErrKeyTooLong, moduleID, MaxModuleIDLen)
	}
	return moduleID + compactSuffix, nil
}
