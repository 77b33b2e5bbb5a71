package detect

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/oculon/gazeguard/internal/httpc"
	"github.com/oculon/gazeguard/internal/log"
)

// minModelSize guards against saving an error page as a model file.
const minModelSize = 1 << 20 // 1 MiB

// EnsureModel downloads the detector model to cfg.ModelPath when it is not
// already present.
func EnsureModel(ctx context.Context, cfg Config) error {
	if _, err := os.Stat(cfg.ModelPath); err == nil {
		return nil
	}
	if cfg.ModelURL == "" {
		return fmt.Errorf("model %s missing and no download URL configured", cfg.ModelPath)
	}

	log.Info("detect: downloading model", "url", cfg.ModelURL, "path", cfg.ModelPath)

	if err := os.MkdirAll(filepath.Dir(cfg.ModelPath), 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.ModelURL, nil)
	if err != nil {
		return err
	}

	resp, err := httpc.Do(req)
	if err != nil {
		return fmt.Errorf("download model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download model: status %d", resp.StatusCode)
	}

	tmp := cfg.ModelPath + ".partial"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create model file: %w", err)
	}

	n, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write model: %w", err)
	}
	if n < minModelSize {
		os.Remove(tmp)
		return fmt.Errorf("downloaded model too small (%d bytes)", n)
	}

	if err := os.Rename(tmp, cfg.ModelPath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("install model: %w", err)
	}

	log.Info("detect: model ready", "path", cfg.ModelPath, "bytes", n)
	return nil
}
