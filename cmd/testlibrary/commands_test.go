package main

import (
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ochairo/testlibrary/internal/config"
	"github.com/ochairo/testlibrary/pkg/testlibrary"
)

const defaultChecksum = "1f8ab52250f5c9b36058354215e577c8d6be1af6d50ac119245170ca4e7c5ad6"

var fixedNow = time.Date(2026, time.October, 17, 9, 41, 5, 0, time.UTC)

// isolate points configuration at test-owned directories
func isolate(t *testing.T) string {
	t.Helper()
	for _, key := range []string{config.EnvConfigFile, config.EnvManifestsDir, config.EnvLogFormat, config.EnvHTTPTimeout} {
		t.Setenv(key, "")
	}
	artifactsDir := t.TempDir()
	t.Setenv(config.EnvArtifactsDir, artifactsDir)
	t.Setenv(config.EnvLogLevel, "error")
	t.Setenv(config.EnvTimeZone, "UTC")
	return artifactsDir
}

func run(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	a.greeterOpts = append(a.greeterOpts, testlibrary.WithClock(testlibrary.FixedClock(fixedNow)))

	cmd := a.command()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), err
}

func TestNewRootCommand(t *testing.T) {
	cmd := newRootCommand()
	assert.Equal(t, "testlibrary", cmd.Use)

	t.Run("has global flags", func(t *testing.T) {
		for _, name := range []string{"manifests-dir", "artifacts-dir", "log-level", "json"} {
			assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "missing global flag: %s", name)
		}
	})

	t.Run("has subcommands", func(t *testing.T) {
		for _, name := range []string{"resolve", "list", "fetch", "verify", "check", "greet", "time", "add", "version"} {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		}
	})
}

func TestResolve(t *testing.T) {
	isolate(t)

	out, err := run(t, newApp(), "resolve", "--platform-version", "16.0")
	require.NoError(t, err)
	assert.Contains(t, out, "TestLibrary 1.0.2 (ios>=13.0)")
	assert.Contains(t, out, "https://github.com/OdNairy/TestBinaryDependency/releases/download/1.0.2/TestLibrary-v1.0.2.xcframework.zip")
	assert.Contains(t, out, defaultChecksum)
}

func TestResolve_JSON(t *testing.T) {
	isolate(t)

	out, err := run(t, newApp(), "resolve", "TestLibrary", "--version", "1.0.2", "--platform", "iOS", "--json")
	require.NoError(t, err)

	var got descriptorOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, descriptorOutput{
		Product:  "TestLibrary",
		Version:  "1.0.2",
		Platform: "ios>=13.0",
		URL:      "https://github.com/OdNairy/TestBinaryDependency/releases/download/1.0.2/TestLibrary-v1.0.2.xcframework.zip",
		Checksum: defaultChecksum,
	}, got)
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"unsupported platform", []string{"resolve", "--platform", "android"}, ExitConfigurationError},
		{"platform below minimum", []string{"resolve", "--platform-version", "12.4"}, ExitConfigurationError},
		{"unknown release", []string{"resolve", "--version", "9.9.9"}, ExitConfigurationError},
		{"unknown product", []string{"resolve", "OtherLibrary"}, ExitConfigurationError},
		{"too many arguments", []string{"resolve", "a", "b"}, ExitInvalidArgs},
		{"unknown flag", []string{"resolve", "--arch", "arm64"}, ExitInvalidArgs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			_, err := run(t, newApp(), tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.want, exitCodeFromError(err))
		})
	}
}

func TestList(t *testing.T) {
	isolate(t)

	out, err := run(t, newApp(), "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Available manifests (1 total)")
	assert.Contains(t, out, "TestLibrary")
	assert.Contains(t, out, "ios>=13.0")
	assert.Contains(t, out, "1.0.2")

	out, err = run(t, newApp(), "list", "--platform", "macos", "--json")
	require.NoError(t, err)
	var got []manifestOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Empty(t, got)
}

func TestList_FetchedAndInvalid(t *testing.T) {
	artifactsDir := isolate(t)
	writeFile(t, artifactsDir, "TestLibrary-v1.0.2.xcframework.zip", []byte("zip"))

	manifestsDir := t.TempDir()
	writeFile(t, manifestsDir, "TestLibrary.yml", []byte(`name: TestLibrary
platforms:
  - name: ios
    minimum_version: "13.0"
binary_target:
  name: TestLibrary
  url: https://github.com/ochairo/TestLibrary/releases/download/{version}/{name}-v{version}.xcframework.zip
  releases:
    "1.0.2":
      checksum: `+defaultChecksum+`
    "1.0.3":
      checksum: not-hex
`))

	out, err := run(t, newApp(), "list", "--manifests-dir", manifestsDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Fetched:   TestLibrary-v1.0.2.xcframework.zip")
	assert.Contains(t, out, "release 1.0.3")

	out, err = run(t, newApp(), "list", "--manifests-dir", manifestsDir, "--json")
	require.NoError(t, err)
	var got []manifestOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, []string{"TestLibrary-v1.0.2.xcframework.zip"}, got[0].Fetched)
	assert.Contains(t, got[0].Problem, "release 1.0.3")
}

func TestGreet(t *testing.T) {
	isolate(t)

	out, err := run(t, newApp(), "greet", "Ada")
	require.NoError(t, err)
	assert.Equal(t, "Hello, Ada! This is TestLibrary v1.0.0\n", out)

	_, err = run(t, newApp(), "greet")
	assert.Equal(t, ExitInvalidArgs, exitCodeFromError(err))
}

func TestTime(t *testing.T) {
	isolate(t)

	out, err := run(t, newApp(), "time")
	require.NoError(t, err)
	assert.Equal(t, "Oct 17, 2026 at 9:41:05 AM\n", out)
}

func TestTime_BadZone(t *testing.T) {
	isolate(t)
	t.Setenv(config.EnvTimeZone, "Nowhere/Atlantis")

	_, err := run(t, newApp(), "time")
	require.Error(t, err)
	assert.Equal(t, ExitConfigurationError, exitCodeFromError(err))
}

func TestAdd(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr int
	}{
		{name: "small", args: []string{"2", "3"}, want: "5\n"},
		{name: "negative", args: []string{"--", "-7", "4"}, want: "-3\n"},
		{name: "max plus zero", args: []string{strconv.Itoa(math.MaxInt), "0"}, want: strconv.Itoa(math.MaxInt) + "\n"},
		{name: "overflow", args: []string{strconv.Itoa(math.MaxInt), "1"}, wantErr: ExitOverflow},
		{name: "underflow", args: []string{"--", strconv.Itoa(math.MinInt), "-1"}, wantErr: ExitOverflow},
		{name: "not a number", args: []string{"two", "3"}, wantErr: ExitInvalidArgs},
		{name: "missing operand", args: []string{"2"}, wantErr: ExitInvalidArgs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			out, err := run(t, newApp(), append([]string{"add"}, tt.args...)...)
			if tt.wantErr != 0 {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr, exitCodeFromError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestVersion(t *testing.T) {
	isolate(t)

	out, err := run(t, newApp(), "version", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":"1.0.0"}`, out)
}

func TestConfigurationError(t *testing.T) {
	isolate(t)
	t.Setenv(config.EnvLogLevel, "loud")

	_, err := run(t, newApp(), "greet", "Ada")
	require.Error(t, err)
	assert.Equal(t, ExitConfigurationError, exitCodeFromError(err))
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func TestVerify(t *testing.T) {
	content := []byte("TestLibrary xcframework")
	dir := t.TempDir()
	artifact := writeFile(t, dir, "TestLibrary-v1.0.2.xcframework.zip", content)

	t.Run("checksum digest", func(t *testing.T) {
		isolate(t)
		out, err := run(t, newApp(), "verify", artifact, "--checksum", sha256Hex(content))
		require.NoError(t, err)
		assert.Contains(t, out, "✅ Checksum verified")
		assert.Contains(t, out, "Verified: 1 checks")
	})

	t.Run("checksum file", func(t *testing.T) {
		isolate(t)
		sumFile := writeFile(t, dir, "TestLibrary.sha256", []byte(sha256Hex(content)+"  TestLibrary-v1.0.2.xcframework.zip\n"))
		_, err := run(t, newApp(), "verify", artifact, "--checksum", sumFile)
		require.NoError(t, err)
	})

	t.Run("checksum mismatch", func(t *testing.T) {
		isolate(t)
		out, err := run(t, newApp(), "verify", artifact, "--checksum", defaultChecksum)
		require.Error(t, err)
		assert.Contains(t, out, "❌ Checksum verification FAILED")
		assert.Equal(t, ExitChecksumMismatch, exitCodeFromError(err))
	})

	t.Run("nothing to verify", func(t *testing.T) {
		isolate(t)
		_, err := run(t, newApp(), "verify", artifact)
		assert.Equal(t, ExitInvalidArgs, exitCodeFromError(err))
	})

	t.Run("malformed checksum", func(t *testing.T) {
		isolate(t)
		_, err := run(t, newApp(), "verify", artifact, "--checksum", "abc123")
		require.Error(t, err)
		assert.Equal(t, ExitInvalidArgs, exitCodeFromError(err))
	})

	t.Run("gpg signature", func(t *testing.T) {
		isolate(t)
		entity, err := openpgp.NewEntity("TestLibrary Release", "test", "release@example.com",
			&packet.Config{Algorithm: packet.PubKeyAlgoEdDSA})
		require.NoError(t, err)

		var key bytes.Buffer
		w, err := armor.Encode(&key, openpgp.PublicKeyType, nil)
		require.NoError(t, err)
		require.NoError(t, entity.Serialize(w))
		require.NoError(t, w.Close())
		keyPath := writeFile(t, dir, "release.asc", key.Bytes())

		var sig bytes.Buffer
		require.NoError(t, openpgp.ArmoredDetachSign(&sig, entity, bytes.NewReader(content), nil))
		sigPath := writeFile(t, dir, "TestLibrary-v1.0.2.xcframework.zip.asc", sig.Bytes())

		out, err := run(t, newApp(), "verify", artifact, "--checksum", sha256Hex(content), "--gpg-sig", sigPath, "--gpg-key", keyPath)
		require.NoError(t, err)
		assert.Contains(t, out, "✅ GPG signature verified")
		assert.Contains(t, out, "Verified: 2 checks")

		tampered := writeFile(t, dir, "tampered.zip", []byte("tampered"))
		_, err = run(t, newApp(), "verify", tampered, "--gpg-sig", sigPath, "--gpg-key", keyPath)
		assert.Error(t, err)
	})

	t.Run("gpg without keys", func(t *testing.T) {
		isolate(t)
		_, err := run(t, newApp(), "verify", artifact, "--gpg-sig", filepath.Join(dir, "missing.asc"))
		assert.Equal(t, ExitInvalidArgs, exitCodeFromError(err))
	})
}

// fetchFixture serves one artifact over TLS and writes a manifest pointing at it
func fetchFixture(t *testing.T, content []byte) (*app, string) {
	t.Helper()
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/releases/download/1.0.2/TestLibrary-v1.0.2.xcframework.zip" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(content)
	}))
	t.Cleanup(server.Close)

	manifestsDir := t.TempDir()
	manifest := fmt.Sprintf(`name: TestLibrary
platforms:
  - name: ios
    minimum_version: "13.0"
binary_target:
  name: TestLibrary
  url: %s/releases/download/{version}/{name}-v{version}.xcframework.zip
  releases:
    "1.0.2":
      checksum: %s
    "1.0.3":
      checksum: %s
      url: %s/missing/TestLibrary-v1.0.3.xcframework.zip
`, server.URL, sha256Hex(content), strings.Repeat("a", 64), server.URL)
	writeFile(t, manifestsDir, "TestLibrary.yml", []byte(manifest))

	a := newApp()
	a.transport = server.Client().Transport
	return a, manifestsDir
}

func TestFetch(t *testing.T) {
	artifactsDir := isolate(t)
	content := []byte("xcframework zip bytes")
	a, manifestsDir := fetchFixture(t, content)

	out, err := run(t, a, "fetch", "--manifests-dir", manifestsDir, "--version", "1.0.2", "--platform-version", "16.0", "--json")
	require.NoError(t, err)

	var got fetchOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "1.0.2", got.Version)
	assert.False(t, got.Cached)
	assert.Equal(t, int64(len(content)), got.Size)
	assert.Equal(t, filepath.Join(artifactsDir, "TestLibrary-v1.0.2.xcframework.zip"), got.Path)

	data, err := os.ReadFile(got.Path)
	require.NoError(t, err)
	assert.Equal(t, content, data)

	a, manifestsDir = fetchFixture(t, content)
	out, err = run(t, a, "fetch", "--manifests-dir", manifestsDir, "--version", "1.0.2")
	require.NoError(t, err)
	assert.Contains(t, out, "already fetched")
}

func TestFetch_Extract(t *testing.T) {
	artifactsDir := isolate(t)

	var archive bytes.Buffer
	zw := zip.NewWriter(&archive)
	fw, err := zw.Create("TestLibrary.xcframework/Info.plist")
	require.NoError(t, err)
	_, err = fw.Write([]byte("<plist/>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	a, manifestsDir := fetchFixture(t, archive.Bytes())
	out, err := run(t, a, "fetch", "--manifests-dir", manifestsDir, "--version", "1.0.2", "--extract", "--json")
	require.NoError(t, err)

	var got fetchOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, filepath.Join(artifactsDir, "TestLibrary-v1.0.2.xcframework"), got.ExtractedPath)

	plist, err := os.ReadFile(filepath.Join(got.ExtractedPath, "TestLibrary.xcframework", "Info.plist"))
	require.NoError(t, err)
	assert.Equal(t, "<plist/>", string(plist))
}

func TestFetch_Errors(t *testing.T) {
	t.Run("http failure", func(t *testing.T) {
		isolate(t)
		a, manifestsDir := fetchFixture(t, []byte("zip"))
		_, err := run(t, a, "fetch", "--manifests-dir", manifestsDir, "--version", "1.0.3")
		require.Error(t, err)
		assert.Equal(t, ExitNetworkError, exitCodeFromError(err))
	})

	t.Run("unsupported platform", func(t *testing.T) {
		isolate(t)
		a, manifestsDir := fetchFixture(t, []byte("zip"))
		_, err := run(t, a, "fetch", "--manifests-dir", manifestsDir, "--platform", "tvos")
		require.Error(t, err)
		assert.Equal(t, ExitConfigurationError, exitCodeFromError(err))
	})

	t.Run("checksum mismatch", func(t *testing.T) {
		artifactsDir := isolate(t)
		a, manifestsDir := fetchFixture(t, []byte("zip"))
		// the manifest pins the checksum of different content
		manifest, err := os.ReadFile(filepath.Join(manifestsDir, "TestLibrary.yml"))
		require.NoError(t, err)
		writeFile(t, manifestsDir, "TestLibrary.yml", bytes.Replace(manifest, []byte(sha256Hex([]byte("zip"))), []byte(sha256Hex([]byte("other"))), 1))

		_, err = run(t, a, "fetch", "--manifests-dir", manifestsDir, "--version", "1.0.2")
		require.Error(t, err)
		assert.Equal(t, ExitChecksumMismatch, exitCodeFromError(err))

		_, statErr := os.Stat(filepath.Join(artifactsDir, "TestLibrary-v1.0.2.xcframework.zip"))
		assert.True(t, os.IsNotExist(statErr))
	})
}

func TestCheck(t *testing.T) {
	isolate(t)
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("GH_TOKEN", "")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/OdNairy/TestBinaryDependency/releases" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`[{"tag_name":"1.0.3"},{"tag_name":"1.0.2"},{"tag_name":"1.0.1"}]`))
	}))
	t.Cleanup(server.Close)

	out, err := run(t, newApp(), "check", "--github-api", server.URL, "--json")
	require.NoError(t, err)

	var got checkOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, checkOutput{
		Product:         "TestLibrary",
		Repository:      "OdNairy/TestBinaryDependency",
		Status:          "update_available",
		LatestKnown:     "1.0.2",
		LatestPublished: "1.0.3",
		NewVersions:     []string{"1.0.3"},
		Untracked:       []string{"1.0.1"},
	}, got)

	out, err = run(t, newApp(), "check", "--github-api", server.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "TestLibrary has new releases: 1.0.3")
	assert.Contains(t, out, "Not in manifest: 1.0.1")
}

func TestCheck_NotFound(t *testing.T) {
	isolate(t)
	server := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(server.Close)

	_, err := run(t, newApp(), "check", "--github-api", server.URL)
	require.Error(t, err)
	assert.Equal(t, ExitNetworkError, exitCodeFromError(err))
}
