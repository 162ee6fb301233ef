package config

// FileName is the project config file, stored at the project root.
const FileName = "snapkit.yaml"

// Paths captures resolved locations for a snapkit project.
type Paths struct {
	Root       string // project directory; relative config paths resolve against it
	ConfigFile string // path to snapkit.yaml, which may not exist yet
}
