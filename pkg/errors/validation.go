package errors

import (
	"math/bits"
	"unicode"
)

// MaxPageSize bounds the page size accepted by [ValidatePageSize].
const MaxPageSize = 1 << 30

// maxSymbolLength bounds symbol names read from profiles and object files.
// Mangled C++ names get long, but not this long.
const maxSymbolLength = 4096

// ValidatePageSize checks that size can be used as a cluster size cap.
//
// The validation rules follow what linkers accept for a target page size:
//   - Must be nonzero
//   - Must be a power of two
//   - Must not exceed [MaxPageSize]
func ValidatePageSize(size uint64) error {
	if size == 0 {
		return New(ErrCodeInvalidPageSize, "page size cannot be zero")
	}
	if bits.OnesCount64(size) != 1 {
		return New(ErrCodeInvalidPageSize, "page size %d is not a power of two", size)
	}
	if size > MaxPageSize {
		return New(ErrCodeInvalidPageSize, "page size %d too large (max %d)", size, MaxPageSize)
	}
	return nil
}

// ValidateSymbolName validates a symbol name appearing in a profile or
// object description. Profiles are split on whitespace, so names containing
// spaces cannot round-trip and are rejected along with control characters.
func ValidateSymbolName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidSymbol, "symbol name cannot be empty")
	}

	if len(name) > maxSymbolLength {
		return New(ErrCodeInvalidSymbol, "symbol name too long (max %d bytes)", maxSymbolLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidSymbol, "symbol name contains invalid control characters")
		}
		if unicode.IsSpace(r) {
			return New(ErrCodeInvalidSymbol, "symbol name contains whitespace: %q", name)
		}
	}

	return nil
}

// ValidateSectionName validates an input section name. Section names
// follow the same rules as symbol names.
func ValidateSectionName(name string) error {
	if err := ValidateSymbolName(name); err != nil {
		return Wrap(ErrCodeInvalidObject, err, "invalid section name")
	}
	return nil
}

// ValidateAlignment checks that an input section alignment is zero (meaning
// byte aligned) or a power of two.
func ValidateAlignment(align uint64) error {
	if align == 0 || bits.OnesCount64(align) == 1 {
		return nil
	}
	return New(ErrCodeInvalidObject, "alignment %d is not a power of two", align)
}
