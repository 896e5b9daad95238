package domain

// ProbeReport is what a hosted plugin says about itself during a lifecycle
// probe.
type ProbeReport struct {
	Name     string
	Version  string
	Commands []string
}
