package signer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
	"github.com/hybris-mobian/releng/internal/models"
	"github.com/hybris-mobian/releng/internal/runner"
	"github.com/hybris-mobian/releng/internal/utils"
)

// recordingRunner records commands instead of executing them
type recordingRunner struct {
	commands []runner.Command
	stdin    []string
	failOn   string
}

func (r *recordingRunner) Run(ctx context.Context, cmd runner.Command) error {
	input := ""
	if cmd.Stdin != nil {
		data, err := io.ReadAll(cmd.Stdin)
		if err != nil {
			return err
		}
		input = string(data)
	}
	r.commands = append(r.commands, cmd)
	r.stdin = append(r.stdin, input)

	if cmd.Name == r.failOn {
		return fmt.Errorf("%s failed: exit status 2", cmd.Name)
	}
	return nil
}

// generateKey returns an armored private key and its fingerprint
func generateKey(t *testing.T) (string, string) {
	t.Helper()

	entity, err := openpgp.NewEntity("Release Bot", "", "release@example.org", &packet.Config{
		Algorithm: packet.PubKeyAlgoEdDSA,
	})
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}

	var buf bytes.Buffer
	w, err := armor.Encode(&buf, openpgp.PrivateKeyType, nil)
	if err != nil {
		t.Fatalf("Failed to create armor writer: %v", err)
	}
	if err := entity.SerializePrivate(w, nil); err != nil {
		t.Fatalf("Failed to serialize key: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close armor writer: %v", err)
	}

	return buf.String(), fmt.Sprintf("%X", entity.PrimaryKey.Fingerprint)
}

// setupBuildDir creates a build directory with one verified .changes file
func setupBuildDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	deb := filepath.Join(dir, "hello_1.0_arm64.deb")
	if err := os.WriteFile(deb, []byte("!<arch>\ndebian-binary   payload"), 0644); err != nil {
		t.Fatalf("Failed to write deb: %v", err)
	}
	sum, err := utils.CalculateChecksums(deb)
	if err != nil {
		t.Fatalf("Failed to checksum: %v", err)
	}

	content := fmt.Sprintf("Source: hello\nVersion: 1.0\nChecksums-Sha256:\n %s %d hello_1.0_arm64.deb\n", sum.SHA256, sum.Size)
	for _, name := range []string{"hello_1.0_arm64.changes", "hello_1.0_source.changes"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	return dir
}

func newConfig(t *testing.T, key, keyID, buildDir string) *models.SigningConfig {
	return &models.SigningConfig{
		KeyID:        keyID,
		Key:          key,
		BuildDir:     buildDir,
		Pattern:      "*.changes",
		ProfilePath:  filepath.Join(t.TempDir(), ".devscripts"),
		GPGCommand:   "gpg",
		SignCommand:  "debsign",
		VerifyChecks: true,
	}
}

func TestInvokerRun(t *testing.T) {
	key, fpr := generateKey(t)
	dir := setupBuildDir(t)
	cfg := newConfig(t, key, fpr[len(fpr)-16:], dir)
	rec := &recordingRunner{}

	signed, err := NewInvoker(cfg, rec).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	profile, err := os.ReadFile(cfg.ProfilePath)
	if err != nil {
		t.Fatalf("Profile not written: %v", err)
	}
	if string(profile) != "DEBSIGN_KEYID="+fpr[len(fpr)-16:]+"\n" {
		t.Errorf("Unexpected profile %q", profile)
	}

	if len(rec.commands) != 2 {
		t.Fatalf("Expected 2 commands, got %d: %v", len(rec.commands), rec.commands)
	}

	imp := rec.commands[0]
	if imp.String() != "gpg --batch --import" {
		t.Errorf("Unexpected import command %q", imp)
	}
	if rec.stdin[0] != key {
		t.Errorf("Key payload was not piped to gpg")
	}

	sign := rec.commands[1]
	want := []string{
		filepath.Join(dir, "hello_1.0_arm64.changes"),
		filepath.Join(dir, "hello_1.0_source.changes"),
	}
	if sign.Name != "debsign" || strings.Join(sign.Args, " ") != strings.Join(want, " ") {
		t.Errorf("Unexpected sign command %q", sign)
	}
	if len(signed) != 2 {
		t.Errorf("Expected 2 signed files, got %v", signed)
	}
}

func TestInvokerImportFailureIsFatal(t *testing.T) {
	key, fpr := generateKey(t)
	cfg := newConfig(t, key, fpr, setupBuildDir(t))
	rec := &recordingRunner{failOn: "gpg"}

	_, err := NewInvoker(cfg, rec).Run(context.Background())
	var relErr *models.RelengError
	if !errors.As(err, &relErr) || relErr.Type != models.ErrKeyImport {
		t.Fatalf("Expected KeyImport error, got %v", err)
	}
	if len(rec.commands) != 1 {
		t.Errorf("Nothing may run after a failed import, got %v", rec.commands)
	}
}

func TestInvokerSignFailureIsFatal(t *testing.T) {
	key, fpr := generateKey(t)
	cfg := newConfig(t, key, fpr, setupBuildDir(t))
	rec := &recordingRunner{failOn: "debsign"}

	_, err := NewInvoker(cfg, rec).Run(context.Background())
	var relErr *models.RelengError
	if !errors.As(err, &relErr) || relErr.Type != models.ErrSigning {
		t.Fatalf("Expected Signing error, got %v", err)
	}
}

func TestInvokerNoChanges(t *testing.T) {
	key, fpr := generateKey(t)
	cfg := newConfig(t, key, fpr, t.TempDir())
	rec := &recordingRunner{}

	if _, err := NewInvoker(cfg, rec).Run(context.Background()); err == nil {
		t.Fatalf("Expected error for empty build directory")
	}
	for _, cmd := range rec.commands {
		if cmd.Name == "debsign" {
			t.Errorf("debsign must not run without files")
		}
	}
}

func TestInvokerRejectsCorruptedArtifacts(t *testing.T) {
	key, fpr := generateKey(t)
	dir := setupBuildDir(t)
	os.WriteFile(filepath.Join(dir, "hello_1.0_arm64.deb"), []byte("tampered"), 0644)

	cfg := newConfig(t, key, fpr, dir)
	rec := &recordingRunner{}
	if _, err := NewInvoker(cfg, rec).Run(context.Background()); err == nil {
		t.Fatalf("Expected verification failure")
	}

	cfg.VerifyChecks = false
	rec = &recordingRunner{}
	if _, err := NewInvoker(cfg, rec).Run(context.Background()); err != nil {
		t.Fatalf("Run without verification failed: %v", err)
	}
}

func TestInvokerLeavesUnparsablePayloadToGPG(t *testing.T) {
	cfg := newConfig(t, "not a key", "DEADBEEF", setupBuildDir(t))

	rec := &recordingRunner{}
	if _, err := NewInvoker(cfg, rec).Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(rec.commands) == 0 || rec.stdin[0] != "not a key" {
		t.Errorf("Payload was not handed to gpg: %v", rec.commands)
	}

	rec = &recordingRunner{failOn: "gpg"}
	_, err := NewInvoker(cfg, rec).Run(context.Background())
	var relErr *models.RelengError
	if !errors.As(err, &relErr) || relErr.Type != models.ErrKeyImport {
		t.Fatalf("Expected KeyImport error, got %v", err)
	}
	if len(rec.commands) != 1 {
		t.Errorf("Nothing may run after gpg rejects the key, got %v", rec.commands)
	}
}

func TestInvokerEmptyChangesIsNotSkipped(t *testing.T) {
	key, fpr := generateKey(t)
	dir := setupBuildDir(t)
	broken := filepath.Join(dir, "broken_1.0_amd64.changes")
	if err := os.WriteFile(broken, nil, 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", broken, err)
	}

	// With verification the empty file fails before debsign runs
	cfg := newConfig(t, key, fpr, dir)
	rec := &recordingRunner{}
	if _, err := NewInvoker(cfg, rec).Run(context.Background()); err == nil {
		t.Fatalf("Expected failure for empty .changes file")
	}
	for _, cmd := range rec.commands {
		if cmd.Name == "debsign" {
			t.Errorf("debsign must not run, got %q", cmd)
		}
	}

	// Without verification it is still handed to debsign
	cfg.VerifyChecks = false
	rec = &recordingRunner{}
	signed, err := NewInvoker(cfg, rec).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(signed) != 3 {
		t.Fatalf("Expected 3 files, got %v", signed)
	}
	sign := rec.commands[len(rec.commands)-1]
	if !strings.Contains(strings.Join(sign.Args, " "), broken) {
		t.Errorf("Empty .changes missing from %q", sign)
	}
}

func TestInvokerUnreadableChangesIsFatal(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("file permissions are not enforced for root")
	}

	key, fpr := generateKey(t)
	dir := setupBuildDir(t)
	if err := os.Chmod(filepath.Join(dir, "hello_1.0_source.changes"), 0000); err != nil {
		t.Fatalf("Failed to chmod: %v", err)
	}

	cfg := newConfig(t, key, fpr, dir)
	cfg.VerifyChecks = false
	rec := &recordingRunner{}
	_, err := NewInvoker(cfg, rec).Run(context.Background())
	var relErr *models.RelengError
	if !errors.As(err, &relErr) || relErr.Type != models.ErrFileOp {
		t.Fatalf("Expected FileOp error, got %v", err)
	}
	for _, cmd := range rec.commands {
		if cmd.Name == "debsign" {
			t.Errorf("debsign must not run, got %q", cmd)
		}
	}
}

func TestInvokerResign(t *testing.T) {
	tests := []struct {
		name       string
		signedFile bool
		wantResign bool
	}{
		{"unsigned", false, false},
		{"already signed", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, fpr := generateKey(t)
			dir := setupBuildDir(t)
			if tt.signedFile {
				path := filepath.Join(dir, "hello_1.0_source.changes")
				content, err := os.ReadFile(path)
				if err != nil {
					t.Fatalf("Failed to read %s: %v", path, err)
				}
				signed := "-----BEGIN PGP SIGNED MESSAGE-----\nHash: SHA512\n\n" + string(content) +
					"-----BEGIN PGP SIGNATURE-----\n\niQ==\n-----END PGP SIGNATURE-----\n"
				if err := os.WriteFile(path, []byte(signed), 0644); err != nil {
					t.Fatalf("Failed to write %s: %v", path, err)
				}
			}

			rec := &recordingRunner{}
			if _, err := NewInvoker(newConfig(t, key, fpr, dir), rec).Run(context.Background()); err != nil {
				t.Fatalf("Run failed: %v", err)
			}

			sign := rec.commands[len(rec.commands)-1]
			if sign.Name != "debsign" {
				t.Fatalf("Expected debsign last, got %q", sign)
			}
			gotResign := len(sign.Args) > 0 && sign.Args[0] == "--re-sign"
			if gotResign != tt.wantResign {
				t.Errorf("--re-sign = %v, want %v: %q", gotResign, tt.wantResign, sign)
			}
			if gotResign && len(sign.Args) != 3 {
				t.Errorf("Expected both files after --re-sign, got %v", sign.Args)
			}
		})
	}
}

func TestInvokerMissingConfig(t *testing.T) {
	cfg := newConfig(t, "", "", setupBuildDir(t))
	_, err := NewInvoker(cfg, &recordingRunner{}).Run(context.Background())

	var relErr *models.RelengError
	if !errors.As(err, &relErr) || relErr.Type != models.ErrInvalidConfig {
		t.Fatalf("Expected InvalidConfig error, got %v", err)
	}
}

func TestKeyInfoMatches(t *testing.T) {
	key, fpr := generateKey(t)

	info, err := InspectKey([]byte(key))
	if err != nil {
		t.Fatalf("InspectKey failed: %v", err)
	}

	for _, id := range []string{fpr, fpr[len(fpr)-16:], "0x" + fpr[len(fpr)-8:], strings.ToLower(fpr)} {
		if !info.Matches(id) {
			t.Errorf("Expected %s to match", id)
		}
	}
	for _, id := range []string{"", "1234", "0000000000000000"} {
		if info.Matches(id) {
			t.Errorf("Did not expect %q to match", id)
		}
	}
	if len(info.Identities) != 1 || !strings.Contains(info.Identities[0], "release@example.org") {
		t.Errorf("Unexpected identities %v", info.Identities)
	}
}

func TestInspectKeyRejectsPublicKey(t *testing.T) {
	entity, err := openpgp.NewEntity("Release Bot", "", "release@example.org", &packet.Config{
		Algorithm: packet.PubKeyAlgoEdDSA,
	})
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}

	var buf bytes.Buffer
	w, _ := armor.Encode(&buf, openpgp.PublicKeyType, nil)
	entity.Serialize(w)
	w.Close()

	if _, err := InspectKey(buf.Bytes()); err == nil {
		t.Errorf("Expected error for public key payload")
	}
}
