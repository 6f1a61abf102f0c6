// Package verify checks that committed renames landed intact.
package verify

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"

	"github.com/On-Jun9/ShutterRename/pkg/types"
)

type Verifier struct {
	hashVerify bool
}

func New(hashVerify bool) *Verifier {
	return &Verifier{hashVerify: hashVerify}
}

// Fingerprint hashes a file before it is moved. It returns "" when hash
// verification is disabled.
func (v *Verifier) Fingerprint(path string) (string, error) {
	if !v.hashVerify {
		return "", nil
	}
	h, err := hashFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to hash source: %w", err)
	}
	return h, nil
}

// Verify checks that finalPath exists with the expected size and, when a
// fingerprint was taken, the same content hash.
func (v *Verifier) Verify(finalPath string, expectedSize int64, expectedHash string) error {
	info, err := os.Stat(finalPath)
	if err != nil {
		return fmt.Errorf("renamed file not found: %w", err)
	}

	if info.Size() != expectedSize {
		return fmt.Errorf("size mismatch: expected %d, got %d", expectedSize, info.Size())
	}

	if !v.hashVerify || expectedHash == "" {
		return nil
	}

	got, err := hashFile(finalPath)
	if err != nil {
		return fmt.Errorf("failed to hash renamed file: %w", err)
	}

	if got != expectedHash {
		return fmt.Errorf("hash mismatch: before=%s, after=%s", expectedHash, got)
	}

	return nil
}

// VerifyPlan runs Verify on every committed entry. fingerprints is keyed by
// the entry's Current path and may be nil.
func (v *Verifier) VerifyPlan(plan *types.RenamePlan, fingerprints map[string]string) []error {
	var errs []error
	for _, e := range plan.Entries {
		if err := v.Verify(e.Final, e.Size, fingerprints[e.Current]); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", e.Final, err))
		}
	}
	return errs
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
