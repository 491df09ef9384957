package domain

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// colorMask keeps every channel at or below 0xa0 so names stay readable on white.
const colorMask = 0xa0a0a0

const GrayColor = "#808080"

// Color derives a stable display colour ("#rrggbb") from an identity.
func Color(identity string) string {
	return fmt.Sprintf("#%06x", xxhash.Sum64String(identity)&colorMask)
}
