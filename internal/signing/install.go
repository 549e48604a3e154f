package signing

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/ZebulonRouseFrantzich/zign/internal/signpath"
)

// tmpSuffix names the temporary sibling written during download.
const tmpSuffix = ".signing-tmp"

// resolveOutputPath returns where the signed artifact for inputPath ends
// up: the output directory joined with the original base name, or the
// input path itself when signing in place.
func (m *Manager) resolveOutputPath(inputPath string) string {
	if m.opts.OutputDir != "" {
		return filepath.Join(m.opts.OutputDir, filepath.Base(inputPath))
	}
	return inputPath
}

// install downloads the signed artifact to a temporary sibling of dest
// and renames it over the final path. The rename is atomic, so dest is
// always either absent, its previous content, or the complete signed
// artifact. The temporary file is removed on every exit path.
func (m *Manager) install(ctx context.Context, status *signpath.RequestStatus, dest string) error {
	if m.opts.OutputDir != "" {
		if err := os.MkdirAll(m.opts.OutputDir, 0o755); err != nil {
			return errors.Wrap(err, "create output directory")
		}
	}

	tmpPath := dest + tmpSuffix

	m.log.Infow("downloading signed artifact", "dest", dest)

	tmp, err := os.Create(tmpPath)
	if err != nil {
		return errors.Wrap(err, "create temporary file")
	}
	closed := false
	defer func() {
		if !closed {
			_ = tmp.Close()
		}
		// No-op after a successful rename.
		_ = os.Remove(tmpPath)
	}()

	if err := m.client.DownloadSignedArtifact(ctx, status, tmp); err != nil {
		return errors.Wrap(err, "download signed artifact")
	}

	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temporary file")
	}
	closed = true

	if err := os.Rename(tmpPath, dest); err != nil {
		return errors.Wrap(err, "install signed artifact")
	}

	return nil
}
