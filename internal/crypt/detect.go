package crypt

import (
	"fmt"
	"os"
	"strings"
)

// Detection is the tri-state result of inspecting a file's encryption state.
// Callers decide policy on DetectionUnknown: read paths skip, write paths
// refuse.
type Detection int

const (
	// DetectionUnknown means the file could not be inspected (missing,
	// unreadable). Never guessed into one of the other states.
	DetectionUnknown Detection = iota

	// DetectedPlaintext means no encryption-at-rest marker was found.
	DetectedPlaintext

	// DetectedEncrypted means the file carries a marker produced by the
	// encryption tool.
	DetectedEncrypted
)

func (d Detection) String() string {
	switch d {
	case DetectedPlaintext:
		return "plaintext"
	case DetectedEncrypted:
		return "encrypted"
	default:
		return "unknown"
	}
}

// Detect inspects the file at path for encryption-at-rest markers without
// invoking the tool. A missing or unreadable file yields DetectionUnknown
// and the underlying error so callers can distinguish "not encrypted" from
// "could not tell".
func Detect(path string) (Detection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DetectionUnknown, fmt.Errorf("failed to inspect %s: %w", path, err)
	}
	return DetectContent(data), nil
}

// DetectContent reports whether content carries an encryption marker: a sops
// metadata key, a sops payload envelope, or an armored PGP message header.
func DetectContent(content []byte) Detection {
	text := string(content)

	if strings.Contains(text, "-----BEGIN PGP MESSAGE-----") {
		return DetectedEncrypted
	}
	if strings.Contains(text, "ENC[AES256_GCM,") {
		return DetectedEncrypted
	}

	// The sops metadata key appears as `sops:` in YAML output, `"sops":` in
	// JSON output, and `sops_version=` in flat formats.
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "sops:") ||
			strings.HasPrefix(trimmed, `"sops":`) ||
			strings.HasPrefix(trimmed, "sops_version=") {
			return DetectedEncrypted
		}
	}

	return DetectedPlaintext
}
