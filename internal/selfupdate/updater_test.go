package selfupdate

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReleaseAsset(t *testing.T) {
	tests := []struct {
		goos, goarch string
		want         string
		wantErr      bool
	}{
		{"linux", "amd64", "learnterm_2.1.0_linux_amd64.tar.gz", false},
		{"linux", "arm64", "learnterm_2.1.0_linux_arm64.tar.gz", false},
		{"darwin", "arm64", "learnterm_2.1.0_darwin_arm64.tar.gz", false},
		{"windows", "amd64", "learnterm_2.1.0_windows_amd64.zip", false},
		{"freebsd", "amd64", "", true},
		{"linux", "riscv64", "", true},
	}
	for _, tt := range tests {
		got, err := releaseAsset("v2.1.0", tt.goos, tt.goarch)
		if tt.wantErr {
			assert.Error(t, err, "%s/%s", tt.goos, tt.goarch)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestExpectedSum(t *testing.T) {
	sums := []byte("" +
		"aaa1  learnterm_2.1.0_linux_amd64.tar.gz\n" +
		"not a checksum line\n" +
		"bbb2  learnterm_2.1.0_darwin_arm64.tar.gz\n")

	got, err := expectedSum(sums, "learnterm_2.1.0_darwin_arm64.tar.gz")
	require.NoError(t, err)
	assert.Equal(t, "bbb2", got)

	_, err = expectedSum(sums, "learnterm_2.1.0_windows_amd64.zip")
	assert.ErrorIs(t, err, ErrChecksum)
}

func TestUnpack(t *testing.T) {
	binary := []byte("#!/bin/sh\necho learnterm")

	t.Run("tar.gz", func(t *testing.T) {
		got, err := unpack("learnterm_2.1.0_linux_amd64.tar.gz", tarGz(t, "learnterm", binary))
		require.NoError(t, err)
		assert.Equal(t, binary, got)
	})

	t.Run("zip", func(t *testing.T) {
		got, err := unpack("learnterm_2.1.0_windows_amd64.zip", zipFile(t, "learnterm.exe", binary))
		require.NoError(t, err)
		assert.Equal(t, binary, got)
	})

	t.Run("binary missing", func(t *testing.T) {
		_, err := unpack("learnterm_2.1.0_linux_amd64.tar.gz", tarGz(t, "README.md", binary))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})
}

func TestInstallBinaryKeepsMode(t *testing.T) {
	target := filepath.Join(t.TempDir(), "learnterm")
	require.NoError(t, os.WriteFile(target, []byte("old"), 0o755))

	require.NoError(t, installBinary(target, []byte("new")))

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got)

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}

// releaseServer serves a fake v2.1.0 release: the latest-release document,
// the current platform's archive and its checksums file.
func releaseServer(t *testing.T, archive []byte, sumLine string) *httptest.Server {
	t.Helper()
	asset, err := releaseAsset("v2.1.0", runtime.GOOS, runtime.GOARCH)
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/anzway/learnterm/releases/latest", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"tag_name":"v2.1.0","html_url":"https://example.com/v2.1.0"}`))
	})
	mux.HandleFunc("/anzway/learnterm/releases/download/v2.1.0/"+asset, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(archive)
	})
	mux.HandleFunc("/anzway/learnterm/releases/download/v2.1.0/learnterm_2.1.0_checksums.txt", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sumLine))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestUpdate(t *testing.T) {
	binary := []byte("new-learnterm-binary")
	var archive []byte
	if runtime.GOOS == "windows" {
		archive = zipFile(t, "learnterm.exe", binary)
	} else {
		archive = tarGz(t, "learnterm", binary)
	}
	asset, err := releaseAsset("v2.1.0", runtime.GOOS, runtime.GOARCH)
	require.NoError(t, err)
	sum := sha256.Sum256(archive)
	sumLine := hex.EncodeToString(sum[:]) + "  " + asset + "\n"

	t.Run("happy path", func(t *testing.T) {
		execPath := filepath.Join(t.TempDir(), "learnterm")
		require.NoError(t, os.WriteFile(execPath, []byte("old"), 0o755))

		srv := releaseServer(t, archive, sumLine)
		checker := NewChecker(
			WithBaseURL(srv.URL),
			WithDownloadBaseURL(srv.URL),
			withExecPath(func() (string, error) { return execPath, nil }),
		)

		var stages []string
		err := checker.Update(context.Background(), &UpdateInput{CurrentVersion: "v1.0.0"}, func(p UpdateProgress) {
			stages = append(stages, p.Stage)
		})
		require.NoError(t, err)

		got, err := os.ReadFile(execPath)
		require.NoError(t, err)
		assert.Equal(t, binary, got)
		assert.Equal(t, []string{"check", "download", "verify", "unpack", "install", "done"}, stages)
	})

	t.Run("dev build refuses", func(t *testing.T) {
		err := NewChecker().Update(context.Background(),
			&UpdateInput{CurrentVersion: "(devel)"}, func(UpdateProgress) {})
		assert.ErrorIs(t, err, ErrDevBuild)
	})

	t.Run("already latest", func(t *testing.T) {
		srv := releaseServer(t, archive, sumLine)
		err := NewChecker(WithBaseURL(srv.URL)).Update(context.Background(),
			&UpdateInput{CurrentVersion: "v2.1.0"}, func(UpdateProgress) {})
		assert.ErrorIs(t, err, ErrAlreadyLatest)
	})

	t.Run("checksum mismatch", func(t *testing.T) {
		badLine := "0000000000000000000000000000000000000000000000000000000000000000  " + asset + "\n"
		srv := releaseServer(t, archive, badLine)
		checker := NewChecker(WithBaseURL(srv.URL), WithDownloadBaseURL(srv.URL))

		err := checker.Update(context.Background(),
			&UpdateInput{CurrentVersion: "v1.0.0"}, func(UpdateProgress) {})
		assert.ErrorIs(t, err, ErrChecksum)
	})
}

func tarGz(t *testing.T, name string, content []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: name, Size: int64(len(content)), Mode: 0o755}))
	_, err := tw.Write(content)
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())
	return buf.Bytes()
}

func zipFile(t *testing.T, name string, content []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(name)
	require.NoError(t, err)
	_, err = w.Write(content)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}
