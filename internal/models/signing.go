package models

// SigningConfig contains configuration for the signing invoker
type SigningConfig struct {
	// KeyID is written to the devscripts profile as DEBSIGN_KEYID
	KeyID string
	// Key is the armored private key payload
	Key string

	BuildDir     string // Directory holding the .changes files
	Pattern      string // Glob matched against BuildDir
	ProfilePath  string // devscripts profile, usually ~/.devscripts
	GPGCommand   string
	SignCommand  string
	VerifyChecks bool // Verify .changes checksums before signing
}
