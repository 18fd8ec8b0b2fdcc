package verify

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// minisignFixture writes a minisign public-key file and a detached signature
// over content, built from a fresh ed25519 key pair in the minisign wire
// layout (2-byte algorithm, 8-byte key id, then key or signature material).
func minisignFixture(t *testing.T, dir string, content []byte) (keyPath, sigPath string) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	keyID := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}

	keyBlob := append([]byte("Ed"), keyID...)
	keyBlob = append(keyBlob, pub...)
	keyPath = filepath.Join(dir, "minisign.pub")
	keyFile := "untrusted comment: minisign public key\n" +
		base64.StdEncoding.EncodeToString(keyBlob) + "\n"
	if err := os.WriteFile(keyPath, []byte(keyFile), 0o644); err != nil {
		t.Fatal(err)
	}

	sig := ed25519.Sign(priv, content)
	sigBlob := append([]byte("Ed"), keyID...)
	sigBlob = append(sigBlob, sig...)
	trusted := "timestamp:0"
	global := ed25519.Sign(priv, append(append([]byte{}, sig...), []byte(trusted)...))
	sigPath = filepath.Join(dir, "archive.zip.minisig")
	sigFile := "untrusted comment: signature\n" +
		base64.StdEncoding.EncodeToString(sigBlob) + "\n" +
		"trusted comment: " + trusted + "\n" +
		base64.StdEncoding.EncodeToString(global) + "\n"
	if err := os.WriteFile(sigPath, []byte(sigFile), 0o644); err != nil {
		t.Fatal(err)
	}
	return keyPath, sigPath
}

func TestVerifyMinisignValid(t *testing.T) {
	dir := t.TempDir()
	content := []byte("release archive bytes")
	contentPath := filepath.Join(dir, "archive.zip")
	if err := os.WriteFile(contentPath, content, 0o644); err != nil {
		t.Fatal(err)
	}
	keyPath, sigPath := minisignFixture(t, dir, content)

	if err := VerifyMinisign(contentPath, sigPath, keyPath); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}
}

func TestVerifyMinisignTamperedContent(t *testing.T) {
	dir := t.TempDir()
	content := []byte("release archive bytes")
	keyPath, sigPath := minisignFixture(t, dir, content)

	contentPath := filepath.Join(dir, "archive.zip")
	if err := os.WriteFile(contentPath, []byte("tampered bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := VerifyMinisign(contentPath, sigPath, keyPath); err == nil {
		t.Fatal("tampered content must fail signature verification")
	}
}

func TestVerifyMinisignWrongKey(t *testing.T) {
	dir := t.TempDir()
	content := []byte("release archive bytes")
	contentPath := filepath.Join(dir, "archive.zip")
	if err := os.WriteFile(contentPath, content, 0o644); err != nil {
		t.Fatal(err)
	}
	_, sigPath := minisignFixture(t, dir, content)
	otherDir := t.TempDir()
	otherKey, _ := minisignFixture(t, otherDir, content)

	if err := VerifyMinisign(contentPath, sigPath, otherKey); err == nil {
		t.Fatal("signature from a different key must be rejected")
	}
}

func TestVerifyMinisignMissingKeyFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte("x")
	contentPath := filepath.Join(dir, "archive.zip")
	if err := os.WriteFile(contentPath, content, 0o644); err != nil {
		t.Fatal(err)
	}
	_, sigPath := minisignFixture(t, dir, content)

	err := VerifyMinisign(contentPath, sigPath, filepath.Join(dir, "nope.pub"))
	if err == nil {
		t.Fatal("missing public key file must fail")
	}
}

func TestExtractChecksumBareDigest(t *testing.T) {
	raw := "a3f5c1d9e8b7a6f4c3d2e1f0a9b8c7d6e5f4a3b2c1d0e9f8a7b6c5d4e3f2a1b0"
	got, err := ExtractChecksum([]byte(raw+"\n"), "archive.zip")
	if err != nil {
		t.Fatalf("ExtractChecksum: %v", err)
	}
	if got != raw {
		t.Errorf("got %q", got)
	}
}

func TestExtractChecksumList(t *testing.T) {
	list := `# release checksums
a3f5c1d9e8b7a6f4c3d2e1f0a9b8c7d6e5f4a3b2c1d0e9f8a7b6c5d4e3f2a1b0  other.zip
b4a6d2e0f9c8b7a6f5e4d3c2b1a0f9e8d7c6b5a4f3e2d1c0b9a8f7e6d5c4b3a2  freecad-mcp-v1.2.0.zip
`
	tests := []struct {
		asset   string
		want    string
		wantErr bool
	}{
		{"freecad-mcp-v1.2.0.zip", "b4a6d2e0f9c8b7a6f5e4d3c2b1a0f9e8d7c6b5a4f3e2d1c0b9a8f7e6d5c4b3a2", false},
		{"other.zip", "a3f5c1d9e8b7a6f4c3d2e1f0a9b8c7d6e5f4a3b2c1d0e9f8a7b6c5d4e3f2a1b0", false},
		{"missing.zip", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.asset, func(t *testing.T) {
			got, err := ExtractChecksum([]byte(list), tt.asset)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %s", tt.asset)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractChecksum: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractChecksumUppercaseNormalized(t *testing.T) {
	raw := "A3F5C1D9E8B7A6F4C3D2E1F0A9B8C7D6E5F4A3B2C1D0E9F8A7B6C5D4E3F2A1B0"
	got, err := ExtractChecksum([]byte(raw), "x.zip")
	if err != nil {
		t.Fatal(err)
	}
	if got != "a3f5c1d9e8b7a6f4c3d2e1f0a9b8c7d6e5f4a3b2c1d0e9f8a7b6c5d4e3f2a1b0" {
		t.Errorf("digest not lowercased: %q", got)
	}
}

func TestExtractChecksumEmpty(t *testing.T) {
	if _, err := ExtractChecksum([]byte("  \n"), "x.zip"); err == nil {
		t.Fatal("expected error for empty checksum file")
	}
}

func TestVerifyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.zip")
	content := []byte("archive contents")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
	sum := sha256.Sum256(content)
	good := hex.EncodeToString(sum[:])

	if err := VerifyFile(path, good); err != nil {
		t.Errorf("matching digest rejected: %v", err)
	}

	bad := "0000000000000000000000000000000000000000000000000000000000000000"
	err := VerifyFile(path, bad)
	var csErr *ChecksumError
	if !errors.As(err, &csErr) {
		t.Fatalf("expected ChecksumError, got %v", err)
	}
	if csErr.Got != good {
		t.Errorf("error should carry the computed digest")
	}
}

func TestIsHexDigest(t *testing.T) {
	tests := []struct {
		value string
		len   int
		want  bool
	}{
		{"abcdef01", 8, true},
		{"ABCDEF01", 8, true},
		{"abcdef0", 8, false},
		{"ghijkl01", 8, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		if got := isHexDigest(tt.value, tt.len); got != tt.want {
			t.Errorf("isHexDigest(%q, %d) = %v, want %v", tt.value, tt.len, got, tt.want)
		}
	}
}
