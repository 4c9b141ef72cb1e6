package models

import (
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"
)

// mergePatch applies an RFC 7386 JSON Merge Patch to dst in place. Unknown
// patch members are dropped by the round trip rather than treated as errors,
// matching how the gateway evolves object schemas ahead of SDK releases.
func mergePatch[T any](dst *T, patch []byte) error {
	if len(patch) == 0 {
		return nil
	}

	original, err := json.Marshal(dst)
	if err != nil {
		return fmt.Errorf("failed to marshal object for patching: %w", err)
	}

	merged, err := jsonpatch.MergePatch(original, patch)
	if err != nil {
		return fmt.Errorf("failed to apply merge patch: %w", err)
	}

	// Decode into a zero value first: a merge patch removes fields by
	// setting them to null, and decoding the merged document into the
	// live object would leave removed fields populated.
	var patched T
	if err := json.Unmarshal(merged, &patched); err != nil {
		return fmt.Errorf("failed to unmarshal patched object: %w", err)
	}

	*dst = patched
	return nil
}
