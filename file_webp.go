//go:build cgo

package dngopcodes

import (
	_ "github.com/chai2010/webp" // Register WebP decoder.
)
