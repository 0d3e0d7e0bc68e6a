package fetch

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // ProtonMail's maintained fork
)

// Keyrings live on disk under the keyring directory, one file per tool
// (e.g. keyrings/mise.gpg). They are provisioned with ImportKeyring so
// the trusted key set is explicit and auditable rather than baked into
// the binary.

// KeyringPath returns the filesystem path to a tool's keyring.
func KeyringPath(keyringDir string, tool Tool) string {
	return filepath.Join(keyringDir, fmt.Sprintf("%s.gpg", tool))
}

// KeyringExists checks if a non-empty keyring file exists for the tool.
func KeyringExists(keyringDir string, tool Tool) bool {
	info, err := os.Stat(KeyringPath(keyringDir, tool))
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Size() > 0
}

// ImportKeyring installs a public key file as the tool's keyring. The
// source must parse as an OpenPGP keyring, armored or binary; anything
// else is rejected before it lands on disk.
func ImportKeyring(keyringDir string, tool Tool, srcPath string) error {
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return fmt.Errorf("read key file: %w", err)
	}

	if _, err := parseKeyring(data); err != nil {
		return fmt.Errorf("invalid key file %s: %w", srcPath, err)
	}

	if err := os.MkdirAll(keyringDir, 0o755); err != nil {
		return fmt.Errorf("create keyring dir: %w", err)
	}
	if err := os.WriteFile(KeyringPath(keyringDir, tool), data, 0o644); err != nil {
		return fmt.Errorf("write keyring: %w", err)
	}
	return nil
}

// loadKeyring reads a tool's keyring from the keyring directory.
func loadKeyring(keyringDir string, tool Tool) (openpgp.EntityList, error) {
	data, err := os.ReadFile(KeyringPath(keyringDir, tool))
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	return parseKeyring(data)
}

func parseKeyring(data []byte) (openpgp.EntityList, error) {
	keyring, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(data))
	if err != nil {
		// Retry as a binary keyring
		keyring, err = openpgp.ReadKeyRing(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("read keyring: %w", err)
		}
	}
	if len(keyring) == 0 {
		return nil, fmt.Errorf("keyring is empty")
	}
	return keyring, nil
}
