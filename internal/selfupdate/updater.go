package selfupdate

import (
	"archive/tar"
	"archive/zip"
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

var (
	ErrDevBuild      = errors.New("cannot update a development build")
	ErrAlreadyLatest = errors.New("already running the latest version")
	ErrChecksum      = errors.New("checksum verification failed")
)

// UpdateInput selects what to update to. An empty TargetVersion means the
// latest published release.
type UpdateInput struct {
	CurrentVersion string
	TargetVersion  string
}

// UpdateProgress is reported once per stage so the CLI can narrate.
type UpdateProgress struct {
	Stage   string
	Message string
}

// Update replaces the running binary with the target release: resolve the
// tag, download the platform archive and its checksums file, verify, unpack
// and swap the executable in place.
func (c *Checker) Update(ctx context.Context, input *UpdateInput, progress func(UpdateProgress)) error {
	if input.CurrentVersion == "(devel)" {
		return ErrDevBuild
	}

	tag := input.TargetVersion
	if tag == "" {
		progress(UpdateProgress{Stage: "check", Message: "Checking for the latest version..."})
		result, err := c.Check(ctx, &CheckInput{Version: input.CurrentVersion})
		if err != nil {
			return fmt.Errorf("check for updates: %w", err)
		}
		if !result.UpdateAvailable {
			return ErrAlreadyLatest
		}
		tag = result.LatestVersion
	}

	asset, err := releaseAsset(tag, runtime.GOOS, runtime.GOARCH)
	if err != nil {
		return err
	}
	releaseDir := fmt.Sprintf("%s/%s/%s/releases/download/%s",
		strings.TrimRight(c.downloadBaseURL, "/"), c.owner, c.repo, tag)

	progress(UpdateProgress{Stage: "download", Message: fmt.Sprintf("Downloading %s...", asset)})
	archive, err := c.fetch(ctx, releaseDir+"/"+asset)
	if err != nil {
		return fmt.Errorf("download archive: %w", err)
	}

	progress(UpdateProgress{Stage: "verify", Message: "Verifying checksum..."})
	sums, err := c.fetch(ctx, releaseDir+"/"+checksumsName(tag))
	if err != nil {
		return fmt.Errorf("download checksums: %w", err)
	}
	want, err := expectedSum(sums, asset)
	if err != nil {
		return err
	}
	if got := sha256.Sum256(archive); hex.EncodeToString(got[:]) != want {
		return fmt.Errorf("%w: %s", ErrChecksum, asset)
	}

	progress(UpdateProgress{Stage: "unpack", Message: "Unpacking..."})
	binary, err := unpack(asset, archive)
	if err != nil {
		return fmt.Errorf("unpack %s: %w", asset, err)
	}

	progress(UpdateProgress{Stage: "install", Message: "Installing..."})
	target, err := c.execPath()
	if err != nil {
		return fmt.Errorf("resolve executable path: %w", err)
	}
	if err := installBinary(target, binary); err != nil {
		return fmt.Errorf("install: %w", err)
	}

	progress(UpdateProgress{Stage: "done", Message: fmt.Sprintf("Updated to %s", tag)})
	return nil
}

// releaseAsset names the archive the release workflow publishes for a
// platform: learnterm_<version>_<os>_<arch>.tar.gz (zip on windows).
func releaseAsset(tag, goos, goarch string) (string, error) {
	switch goos {
	case "linux", "darwin", "windows":
	default:
		return "", fmt.Errorf("no release build for %s", goos)
	}
	switch goarch {
	case "amd64", "arm64":
	default:
		return "", fmt.Errorf("no release build for %s/%s", goos, goarch)
	}

	ext := ".tar.gz"
	if goos == "windows" {
		ext = ".zip"
	}
	return fmt.Sprintf("learnterm_%s_%s_%s%s", strings.TrimPrefix(tag, "v"), goos, goarch, ext), nil
}

func checksumsName(tag string) string {
	return fmt.Sprintf("learnterm_%s_checksums.txt", strings.TrimPrefix(tag, "v"))
}

func (c *Checker) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}
	return io.ReadAll(resp.Body)
}

// expectedSum finds the asset's line in the sha256sum-format checksums file.
func expectedSum(sums []byte, asset string) (string, error) {
	sc := bufio.NewScanner(bytes.NewReader(sums))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 2 && fields[1] == asset {
			return fields[0], nil
		}
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("read checksums: %w", err)
	}
	return "", fmt.Errorf("%w: no entry for %s", ErrChecksum, asset)
}

func unpack(asset string, archive []byte) ([]byte, error) {
	name := "learnterm"
	if strings.HasSuffix(asset, ".zip") {
		return unpackZip(archive, name+".exe")
	}
	return unpackTarGz(archive, name)
}

func unpackTarGz(archive []byte, name string) ([]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(archive))
	if err != nil {
		return nil, err
	}
	defer func() { _ = gz.Close() }()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if hdr.Typeflag == tar.TypeReg && filepath.Base(hdr.Name) == name {
			return io.ReadAll(tr)
		}
	}
	return nil, fmt.Errorf("%s not found in archive", name)
}

func unpackZip(archive []byte, name string) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, err
	}
	for _, f := range zr.File {
		if filepath.Base(f.Name) != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer func() { _ = rc.Close() }()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("%s not found in archive", name)
}

// installBinary swaps the executable atomically: write next to the target so
// the rename stays on one filesystem, carry over the file mode, then rename.
func installBinary(target string, binary []byte) error {
	info, err := os.Stat(target)
	if err != nil {
		return err
	}

	staged, err := os.CreateTemp(filepath.Dir(target), ".learnterm-*")
	if err != nil {
		return err
	}
	stagedPath := staged.Name()
	defer func() { _ = os.Remove(stagedPath) }()

	if _, err := staged.Write(binary); err != nil {
		_ = staged.Close()
		return err
	}
	if err := staged.Close(); err != nil {
		return err
	}
	if err := os.Chmod(stagedPath, info.Mode()); err != nil {
		return err
	}
	return os.Rename(stagedPath, target)
}
