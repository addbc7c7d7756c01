package signer

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp"
)

// KeyInfo describes a private key payload before it is imported
type KeyInfo struct {
	// KeyIDs lists the long key ids of the primary key and its subkeys
	KeyIDs []string
	// Fingerprints lists the matching v4 fingerprints, upper-case hex
	Fingerprints []string
	// Identities lists the user ids of the primary key
	Identities []string
}

// InspectKey parses an armored (or binary) private key payload and
// returns the ids it carries. The payload must contain a private key.
func InspectKey(payload []byte) (*KeyInfo, error) {
	// Try to parse as armored key first
	entityList, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(payload))
	if err != nil {
		// Try as binary key
		entityList, err = openpgp.ReadKeyRing(bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("failed to read key: %w", err)
		}
	}

	if len(entityList) == 0 {
		return nil, fmt.Errorf("no keys found in key payload")
	}

	info := &KeyInfo{}
	hasPrivate := false

	for _, entity := range entityList {
		if entity.PrivateKey != nil {
			hasPrivate = true
		}

		info.KeyIDs = append(info.KeyIDs, entity.PrimaryKey.KeyIdString())
		info.Fingerprints = append(info.Fingerprints, strings.ToUpper(hex.EncodeToString(entity.PrimaryKey.Fingerprint)))

		for name := range entity.Identities {
			info.Identities = append(info.Identities, name)
		}

		for _, subkey := range entity.Subkeys {
			if subkey.PrivateKey != nil {
				hasPrivate = true
			}
			info.KeyIDs = append(info.KeyIDs, subkey.PublicKey.KeyIdString())
			info.Fingerprints = append(info.Fingerprints, strings.ToUpper(hex.EncodeToString(subkey.PublicKey.Fingerprint)))
		}
	}

	if !hasPrivate {
		return nil, fmt.Errorf("key payload contains no private key")
	}

	return info, nil
}

// Matches reports whether id names one of the keys. Short ids, long ids
// and fingerprints are accepted, with or without a 0x prefix and spaces.
func (k *KeyInfo) Matches(id string) bool {
	id = strings.ToUpper(strings.ReplaceAll(id, " ", ""))
	id = strings.TrimPrefix(id, "0X")
	if len(id) < 8 {
		return false
	}

	for _, fpr := range k.Fingerprints {
		if strings.HasSuffix(fpr, id) {
			return true
		}
	}
	return false
}
