// Package release builds the distributable archives for the bridge: one
// tar.gz per supported platform plus a SHA256SUMS manifest.
package release

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

type Target struct {
	GOOS   string
	GOARCH string
	GOARM  string
}

type Artifact struct {
	Target      Target
	ArchiveName string
	ArchivePath string
}

type Options struct {
	OutDir   string
	RepoRoot string
	Version  string
	Targets  []Target
}

// DefaultTargets covers the platforms Home Assistant add-ons ship for.
var DefaultTargets = []Target{
	{GOOS: "linux", GOARCH: "amd64"},
	{GOOS: "linux", GOARCH: "arm64"},
	{GOOS: "linux", GOARCH: "arm", GOARM: "7"},
}

func BuildArtifacts(ctx context.Context, opts Options) ([]Artifact, error) {
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, fmt.Errorf("out dir is required")
	}
	if strings.TrimSpace(opts.RepoRoot) == "" {
		return nil, fmt.Errorf("repo root is required")
	}
	if strings.TrimSpace(opts.Version) == "" {
		return nil, fmt.Errorf("version is required")
	}
	targets := opts.Targets
	if len(targets) == 0 {
		targets = DefaultTargets
	}

	repoRoot, err := filepath.Abs(opts.RepoRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve repo root: %w", err)
	}
	outDir, err := filepath.Abs(opts.OutDir)
	if err != nil {
		return nil, fmt.Errorf("resolve out dir: %w", err)
	}

	if err := os.RemoveAll(outDir); err != nil {
		return nil, fmt.Errorf("clean out dir: %w", err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create out dir: %w", err)
	}

	stageRoot := filepath.Join(outDir, ".stage")
	if err := os.MkdirAll(stageRoot, 0o755); err != nil {
		return nil, fmt.Errorf("create stage dir: %w", err)
	}
	defer os.RemoveAll(stageRoot)

	var artifacts []Artifact
	for _, target := range targets {
		pkgDir := filepath.Join(stageRoot, packageDirName(opts.Version, target))
		if err := os.MkdirAll(pkgDir, 0o755); err != nil {
			return nil, fmt.Errorf("create package dir: %w", err)
		}

		binPath := filepath.Join(pkgDir, "ytmusic-bridge")
		if err := buildBinary(ctx, repoRoot, opts.Version, target, binPath); err != nil {
			return nil, err
		}

		if err := copyReleaseDocs(repoRoot, pkgDir); err != nil {
			return nil, err
		}

		name := packageDirName(opts.Version, target) + ".tar.gz"
		archivePath := filepath.Join(outDir, name)
		if err := createTarGz(archivePath, pkgDir); err != nil {
			return nil, fmt.Errorf("create %s: %w", name, err)
		}

		artifacts = append(artifacts, Artifact{
			Target:      target,
			ArchiveName: name,
			ArchivePath: archivePath,
		})
	}

	if err := writeChecksums(outDir, artifacts); err != nil {
		return nil, err
	}

	return artifacts, nil
}

func packageDirName(version string, target Target) string {
	arch := target.GOARCH
	if target.GOARM != "" {
		arch += "v" + target.GOARM
	}
	return fmt.Sprintf("ytmusic-bridge_%s_%s_%s", version, target.GOOS, arch)
}

func buildBinary(ctx context.Context, repoRoot, version string, target Target, outPath string) error {
	ldflags := fmt.Sprintf("-s -w -X github.com/1bobby-git/ytmusic-bridge/internal/buildinfo.Version=%s", version)
	cmd := exec.CommandContext(ctx, "go", "build", "-trimpath", "-ldflags", ldflags, "-o", outPath, ".")
	cmd.Dir = repoRoot
	cmd.Env = append(os.Environ(),
		"CGO_ENABLED=0",
		"GOOS="+target.GOOS,
		"GOARCH="+target.GOARCH,
	)
	if target.GOARM != "" {
		cmd.Env = append(cmd.Env, "GOARM="+target.GOARM)
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("go build %s/%s failed: %w: %s", target.GOOS, target.GOARCH, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func copyReleaseDocs(repoRoot, pkgDir string) error {
	files := []string{"README.md", "internal/config/config.example.toml"}
	for _, name := range files {
		src := filepath.Join(repoRoot, name)
		dst := filepath.Join(pkgDir, filepath.Base(name))
		if err := copyFile(src, dst); err != nil {
			return fmt.Errorf("copy %s: %w", name, err)
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		dstFile.Close()
		return err
	}
	return dstFile.Close()
}

func createTarGz(archivePath, dir string) error {
	file, err := os.Create(archivePath)
	if err != nil {
		return err
	}
	defer file.Close()

	gzw := gzip.NewWriter(file)
	defer gzw.Close()

	tw := tar.NewWriter(gzw)
	defer tw.Close()

	parent := filepath.Dir(dir)
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(parent, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = rel

		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()

		_, err = io.Copy(tw, src)
		return err
	})
}

func writeChecksums(outDir string, artifacts []Artifact) error {
	sort.Slice(artifacts, func(i, j int) bool {
		return artifacts[i].ArchiveName < artifacts[j].ArchiveName
	})

	var lines []string
	for _, artifact := range artifacts {
		data, err := os.ReadFile(artifact.ArchivePath)
		if err != nil {
			return fmt.Errorf("read artifact for checksum %s: %w", artifact.ArchiveName, err)
		}
		sum := sha256.Sum256(data)
		lines = append(lines, fmt.Sprintf("%x  %s", sum, artifact.ArchiveName))
	}
	payload := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(filepath.Join(outDir, "SHA256SUMS"), []byte(payload), 0o644); err != nil {
		return fmt.Errorf("write SHA256SUMS: %w", err)
	}
	return nil
}
