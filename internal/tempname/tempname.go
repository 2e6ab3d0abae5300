// Package tempname generates names for the scratch files the orchestrator
// creates between pipeline stages, in the process's current working
// directory.
package tempname

import (
	"encoding/hex"
	"fmt"
	"time"

	"pecover/internal/util"
)

// Prefix is the fixed prefix every temp file name carries, matching the
// on-disk naming convention documented in SPEC_FULL.md §5.
const Prefix = "_pecover_"

// New returns a new temp file name unique enough to avoid collisions between
// invocations started in the same millisecond: the original naming scheme
// (prefix + millisecond timestamp alone) collides under that condition, so a
// random suffix is appended.
func New() (string, error) {
	suffix, err := util.RandomBytes(4)
	if err != nil {
		return "", fmt.Errorf("generating temp file name: %w", err)
	}
	return fmt.Sprintf("%s%d_%s", Prefix, time.Now().UnixMilli(), hex.EncodeToString(suffix)), nil
}
