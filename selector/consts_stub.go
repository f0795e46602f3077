//go:build !unix

// File: selector/consts_stub.go
// Author: momentics <momentics@gmail.com>

package selector

// Placeholder interest/result bits for unsupported platforms; never set by
// osPoll since it always fails with ErrUnsupportedPlatform there, but the
// constants must exist for the package to compile.
const (
	Readable int16 = 1 << 0
	Writable int16 = 1 << 1
)

const errorMask int16 = 1 << 2
