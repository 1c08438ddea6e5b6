package assets

import "fmt"

// maxAssetNameLength bounds asset names; real names are short identifiers.
const maxAssetNameLength = 64

// ValidateAssetName checks that an asset name is a plain identifier made of
// letters, digits, '-' and '_'. Anything else (separators, dots, traversal
// sequences, spaces) yields ErrInvalidAssetName.
func ValidateAssetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	if len(name) > maxAssetNameLength {
		return fmt.Errorf("%w: name longer than %d bytes", ErrInvalidAssetName, maxAssetNameLength)
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == '-' || c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			continue
		}
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	return nil
}
