package verify

import (
	"fmt"
	"os"

	"github.com/jedisct1/go-minisign"
)

// VerifyMinisign checks the minisign signature at sigPath over the contents
// of contentPath, using the public key file at pubKeyPath.
func VerifyMinisign(contentPath, sigPath, pubKeyPath string) error {
	pubKey, err := minisign.NewPublicKeyFromFile(pubKeyPath)
	if err != nil {
		return fmt.Errorf("read minisign pubkey: %w", err)
	}

	sig, err := minisign.NewSignatureFromFile(sigPath)
	if err != nil {
		return fmt.Errorf("read minisign signature: %w", err)
	}

	content, err := os.ReadFile(contentPath) // #nosec G304 -- archive path inside run temp root
	if err != nil {
		return fmt.Errorf("read %s: %w", contentPath, err)
	}

	valid, err := pubKey.Verify(content, sig)
	if err != nil {
		return fmt.Errorf("minisign: verification error: %w", err)
	}
	if !valid {
		return fmt.Errorf("minisign: signature verification failed")
	}
	return nil
}
