package fetch

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // ProtonMail's maintained fork
)

// Verifier checks downloaded archives against their signature or
// checksum before anything gets extracted.
type Verifier struct {
	keyringDir string
}

// NewVerifier creates a verifier using keyrings from keyringDir.
func NewVerifier(keyringDir string) *Verifier {
	return &Verifier{keyringDir: keyringDir}
}

// Verify checks an archive. The method depends on what the tool's
// release process publishes: mise signs with GPG, starship publishes
// SHA256 checksums. There is no fallback between methods.
func (v *Verifier) Verify(archivePath, signaturePath, checksumPath string, info *DownloadInfo) (VerificationMethod, error) {
	if info == nil {
		return VerificationNone, fmt.Errorf("download info is required")
	}

	switch {
	case info.SignatureURL != "":
		if signaturePath == "" {
			return VerificationNone, fmt.Errorf("GPG signature required for %s but not available", info.Tool)
		}
		if err := v.verifyGPG(archivePath, signaturePath, info.Tool); err != nil {
			return VerificationNone, fmt.Errorf("GPG verification failed for %s: %w", info.Tool, err)
		}
		return VerificationGPG, nil

	case info.ChecksumURL != "":
		if checksumPath == "" {
			return VerificationNone, fmt.Errorf("checksum file required for %s but not available", info.Tool)
		}
		if err := verifySHA256(archivePath, checksumPath); err != nil {
			return VerificationNone, fmt.Errorf("SHA256 verification failed for %s: %w", info.Tool, err)
		}
		return VerificationSHA256, nil

	default:
		return VerificationNone, fmt.Errorf("no verification method available for %s", info.Tool)
	}
}

func (v *Verifier) verifyGPG(archivePath, signaturePath string, tool Tool) error {
	keyring, err := loadKeyring(v.keyringDir, tool)
	if err != nil {
		return fmt.Errorf("load keyring: %w", err)
	}

	archive, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer archive.Close()

	sig, err := os.Open(signaturePath)
	if err != nil {
		return fmt.Errorf("open signature: %w", err)
	}
	defer sig.Close()

	_, err = openpgp.CheckArmoredDetachedSignature(keyring, archive, sig, nil)
	if err != nil {
		// Retry as a binary signature
		archive.Seek(0, io.SeekStart)
		sig.Seek(0, io.SeekStart)
		_, err = openpgp.CheckDetachedSignature(keyring, archive, sig, nil)
	}
	if err != nil {
		return fmt.Errorf("verify signature: %w", err)
	}
	return nil
}

func verifySHA256(archivePath, checksumPath string) error {
	actual, err := hashFile(archivePath)
	if err != nil {
		return fmt.Errorf("calculate checksum: %w", err)
	}

	expected, err := findChecksum(checksumPath, filepath.Base(archivePath))
	if err != nil {
		return err
	}

	if !strings.EqualFold(actual, expected) {
		return fmt.Errorf("checksum mismatch for %s:\nactual:   %s\nexpected: %s",
			filepath.Base(archivePath), actual, expected)
	}
	return nil
}

func hashFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// findChecksum extracts the expected checksum from a checksum file.
// Handles both the multi-entry "hash  filename" format and the
// single-hash-per-asset format starship publishes.
func findChecksum(checksumPath, filename string) (string, error) {
	file, err := os.Open(checksumPath)
	if err != nil {
		return "", fmt.Errorf("open checksum file: %w", err)
	}
	defer file.Close()

	var single string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		parts := strings.Fields(scanner.Text())
		switch len(parts) {
		case 0:
			continue
		case 1:
			single = parts[0]
		default:
			if parts[1] == filename || filepath.Base(strings.TrimPrefix(parts[1], "*")) == filename {
				return parts[0], nil
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("scan checksum file: %w", err)
	}

	if single != "" {
		return single, nil
	}
	return "", fmt.Errorf("checksum not found for %s", filename)
}
