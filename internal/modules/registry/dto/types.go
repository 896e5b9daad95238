package dto

type ManifestInput struct {
	ID           string
	Name         string
	Version      string
	Entrypoint   string
	Transport    string
	ConfigSchema map[string]PropertyInput
	Permissions  []string
}

type PropertyInput struct {
	Type     string
	Required bool
}

type RegisterInput struct {
	Manifest    ManifestInput
	InstallPath string
}

type UpdateInput struct {
	ID          string
	Manifest    *ManifestInput
	Config      map[string]any
	PackagePath string
}

type PluginInfo struct {
	ID          string
	Name        string
	Version     string
	Entrypoint  string
	Transport   string
	Enabled     bool
	Status      string
	InstallPath string
	Permissions []string
}

type ProbeResult struct {
	ID       string
	Name     string
	Version  string
	Healthy  bool
	Detail   string
	Commands []string
}
