package gateway

import (
	"regexp"
	"strings"

	"backuphub/internal/shared"

	"golang.org/x/crypto/ssh"
)

var (
	nameRe = regexp.MustCompile(`^[a-f0-9]{8}$`)

	// Key type followed by the matching base64 blob header, then an optional
	// comment of words separated by spaces. Shell metacharacters stay out of
	// the comment so a key never reads as a command, even in logs.
	publicKeyRe = regexp.MustCompile(`^(` +
		`ssh-ed25519 AAAAC3NzaC1lZDI1NTE5|` +
		`sk-ssh-ed25519@openssh\.com AAAAGnNrLXNzaC1lZDI1NTE5QG9wZW5zc2guY29t|` +
		`ssh-rsa AAAAB3NzaC1yc2E|` +
		`ecdsa-sha2-nistp256 AAAAE2VjZHNhLXNoYTItbmlzdHAyNTY|` +
		`ecdsa-sha2-nistp384 AAAAE2VjZHNhLXNoYTItbmlzdHAzODQ|` +
		`ecdsa-sha2-nistp521 AAAAE2VjZHNhLXNoYTItbmlzdHA1MjE|` +
		`sk-ecdsa-sha2-nistp256@openssh\.com AAAAInNrLWVjZHNhLXNoYTItbmlzdHAyNTZAb3BlbnNzaC5jb20` +
		`)[0-9A-Za-z+/]+={0,3}( [A-Za-z0-9@._:+=, -]+)?$`)
)

// ValidateName checks the 8 hex character repository name grammar.
func ValidateName(name string) error {
	if !nameRe.MatchString(name) {
		return shared.Invalid("repository name %q must be 8 lowercase hex characters", name)
	}
	return nil
}

// ValidatePublicKey checks key against the accepted OpenSSH key grammar and
// returns it with surrounding whitespace removed.
func ValidatePublicKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if !publicKeyRe.MatchString(key) {
		return "", shared.Invalid("unsupported or malformed public key (the comment may only contain letters, digits, spaces and @._:+=,-)")
	}
	if _, _, _, _, err := ssh.ParseAuthorizedKey([]byte(key)); err != nil {
		return "", shared.Invalid("public key does not decode: %v", err)
	}
	return key, nil
}

// ValidateQuota rejects negative storage sizes.
func ValidateQuota(quotaBytes int64) error {
	if quotaBytes < 0 {
		return shared.Invalid("storage quota must not be negative")
	}
	return nil
}
