// Package profiles provides embedded encryption profile templates.
//
// These profiles define PBES2 key-wrapping policies and are embedded in
// the binary for convenience. Users can also copy and customize them.
package profiles

import "embed"

// FS contains all embedded profile YAML files.
// Profiles are organized in subdirectories:
//   - pbes2/ - password-based key encryption (PBKDF2 + AES-CBC)
//
//go:embed all:pbes2
var FS embed.FS
