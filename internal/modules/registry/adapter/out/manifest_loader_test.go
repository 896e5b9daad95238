package out_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	out "exthub/internal/modules/registry/adapter/out"
	"exthub/internal/modules/registry/domain"
)

func TestLoadYAMLManifest(t *testing.T) {
	t.Parallel()
	tmp := t.TempDir()
	payload := []byte(`
id: vendor.trace
name: Trace Exporter
version: 1.2.0
entrypoint: bin/trace-exporter
transport: stdio
permissions:
  - document:read
  - export
config_schema:
  endpoint:
    type: string
    required: true
`)
	if err := os.WriteFile(filepath.Join(tmp, "manifest.yaml"), payload, 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	manifest, err := out.NewFileManifestLoader().Load(context.Background(), tmp)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if manifest.ID != "vendor.trace" || manifest.Version != "1.2.0" {
		t.Fatalf("unexpected manifest: %+v", manifest)
	}
	if manifest.Entrypoint != filepath.Join(tmp, "bin", "trace-exporter") {
		t.Fatalf("entrypoint not resolved: %s", manifest.Entrypoint)
	}
	if err := manifest.Validate(); err != nil {
		t.Fatalf("loaded manifest must validate: %v", err)
	}
	if manifest.ConfigSchema["endpoint"].Type != domain.PropertyString {
		t.Fatalf("schema not decoded: %+v", manifest.ConfigSchema)
	}
}

func TestLoadJSONManifest(t *testing.T) {
	t.Parallel()
	tmp := t.TempDir()
	payload := []byte(`{"id":"vendor.nest","name":"Nester","version":"0.3.1","entrypoint":"/usr/local/bin/nester"}`)
	if err := os.WriteFile(filepath.Join(tmp, "manifest.json"), payload, 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	manifest, err := out.NewFileManifestLoader().Load(context.Background(), tmp)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if manifest.Entrypoint != "/usr/local/bin/nester" {
		t.Fatalf("absolute entrypoint must be kept as-is: %s", manifest.Entrypoint)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	tmp := t.TempDir()
	payload := []byte(`{"id":"x","name":"X","version":"1","entrypoint":"x","surprise":true}`)
	if err := os.WriteFile(filepath.Join(tmp, "manifest.json"), payload, 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	if _, err := out.NewFileManifestLoader().Load(context.Background(), tmp); err == nil {
		t.Fatalf("expected unknown field rejection")
	}
}

func TestLoadMissingManifest(t *testing.T) {
	t.Parallel()
	if _, err := out.NewFileManifestLoader().Load(context.Background(), t.TempDir()); err == nil {
		t.Fatalf("expected error for missing manifest")
	}
}
