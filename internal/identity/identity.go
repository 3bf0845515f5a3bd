// Package identity reports who a footswitch daemon is: host name and
// software version.
package identity

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// DefaultVersion is the fallback version string when metadata.json is not found.
const DefaultVersion = "0.1.0"

// Info holds system identity information.
type Info struct {
	Hostname string
	Version  string
}

// Get returns the identity, reading the version from configDir.
func Get(configDir string) Info {
	return Info{Hostname: GetHostname(), Version: GetVersionFromDir(configDir)}
}

// GetHostname returns the system hostname.
func GetHostname() string {
	h, err := os.Hostname()
	if err != nil || h == "" {
		return "footswitch"
	}
	return h
}

// GetVersionFromDir reads "version" from dir/metadata.json.
// Falls back to DefaultVersion if the file is missing or unreadable.
func GetVersionFromDir(dir string) string {
	data, err := os.ReadFile(filepath.Join(dir, "metadata.json"))
	if err != nil {
		return DefaultVersion
	}

	var meta struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return DefaultVersion
	}
	if meta.Version != "" {
		return meta.Version
	}
	return DefaultVersion
}

// TXT returns the identity as mDNS TXT records.
func (i Info) TXT() []string {
	return []string{"version=" + i.Version}
}
