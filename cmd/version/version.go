// Package version prints build metadata of the core binary and of the
// installed producer plugins.
package version

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/secgate-io/secgate/pkg/shared/config"
)

// Set at build time via -ldflags.
var (
	AppConfig     *config.Config
	CoreVersion   = "unknown"
	GolangVersion = "unknown"
	BuildTime     = "unknown"
)

// PluginMeta holds version information for one producer plugin.
type PluginMeta struct {
	Version    string `json:"version"`
	PluginType string `json:"plugin_type"`
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// NewVersionCmd creates a new cobra.Command for the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "version",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Print the version of the core binary and installed plugins",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Core Version: v%s\n", CoreVersion)

			plugins := pluginVersions(config.GetPluginsFolder(AppConfig))
			if len(plugins) > 0 {
				fmt.Println("Plugin Versions:")
				for name, meta := range plugins {
					fmt.Printf("  %s: v%s (Type: %s)\n", name, meta.Version, meta.PluginType)
				}
			}

			fmt.Printf("Go Version: %s\n", GolangVersion)
			fmt.Printf("Build Time: %s\n", BuildTime)
		},
	}
}

// readVersionFile reads and parses a plugin VERSION file as JSON.
func readVersionFile(versionFilePath string) PluginMeta {
	var pm PluginMeta
	data, err := os.ReadFile(versionFilePath)
	if err != nil {
		return PluginMeta{Version: "unknown", PluginType: "unknown"}
	}
	if err := json.Unmarshal(data, &pm); err != nil {
		return PluginMeta{Version: "unknown", PluginType: "unknown"}
	}
	return pm
}

// pluginVersions iterates through the plugin directories and reads their
// version files.
func pluginVersions(pluginsDir string) map[string]PluginMeta {
	entries, err := os.ReadDir(pluginsDir)
	if err != nil {
		return nil
	}

	plugins := make(map[string]PluginMeta)
	for _, entry := range entries {
		if entry.IsDir() {
			plugins[entry.Name()] = readVersionFile(filepath.Join(pluginsDir, entry.Name(), "VERSION"))
		}
	}
	return plugins
}
