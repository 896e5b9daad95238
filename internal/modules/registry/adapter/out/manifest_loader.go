package out

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"exthub/internal/modules/registry/domain"
	regout "exthub/internal/modules/registry/port/out"

	"gopkg.in/yaml.v3"
)

// FileManifestLoader reads a plugin package's manifest from disk. It accepts
// manifest.yaml or manifest.json at the package root and resolves a relative
// entrypoint against the package path.
type FileManifestLoader struct{}

func NewFileManifestLoader() regout.ManifestLoader {
	return &FileManifestLoader{}
}

func (l *FileManifestLoader) Load(_ context.Context, packagePath string) (domain.Manifest, error) {
	for _, name := range []string{"manifest.yaml", "manifest.yml"} {
		payload, err := os.ReadFile(filepath.Join(packagePath, name))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return domain.Manifest{}, fmt.Errorf("read %s: %w", name, err)
		}
		return decodeYAML(payload, packagePath)
	}

	payload, err := os.ReadFile(filepath.Join(packagePath, "manifest.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Manifest{}, fmt.Errorf("no manifest found in %s", packagePath)
		}
		return domain.Manifest{}, fmt.Errorf("read manifest.json: %w", err)
	}
	return decodeJSON(payload, packagePath)
}

func decodeYAML(payload []byte, packagePath string) (domain.Manifest, error) {
	var manifest domain.Manifest
	decoder := yaml.NewDecoder(bytes.NewReader(payload))
	decoder.KnownFields(true)
	if err := decoder.Decode(&manifest); err != nil {
		return domain.Manifest{}, fmt.Errorf("decode manifest yaml: %w", err)
	}
	return resolve(manifest, packagePath), nil
}

func decodeJSON(payload []byte, packagePath string) (domain.Manifest, error) {
	var manifest domain.Manifest
	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&manifest); err != nil {
		return domain.Manifest{}, fmt.Errorf("decode manifest json: %w", err)
	}
	return resolve(manifest, packagePath), nil
}

func resolve(manifest domain.Manifest, packagePath string) domain.Manifest {
	if manifest.Entrypoint != "" && !filepath.IsAbs(manifest.Entrypoint) {
		manifest.Entrypoint = filepath.Clean(filepath.Join(packagePath, manifest.Entrypoint))
	}
	return manifest
}
