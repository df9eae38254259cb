package shared

import (
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/hashicorp/go-plugin"

	"github.com/secgate-io/secgate/pkg/shared/config"
	"github.com/secgate-io/secgate/pkg/shared/logger"
)

const (
	PluginTypeProducer string = "producer"
)

var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "SECGATE",
	MagicCookieValue: "f4c1b2e88d0347ab915c6d2efc81b7a3c5d90e12",
}

var PluginMap = map[string]plugin.Plugin{
	PluginTypeProducer: &ProducerPlugin{},
}

// PluginPath returns the expected binary path of a named producer plugin.
func PluginPath(cfg *config.Config, pluginName string) string {
	return filepath.Join(config.GetPluginsFolder(cfg), pluginName)
}

// WithPlugin launches the named producer plugin binary, dispenses its
// implementation and passes it to f. The plugin process is killed when f
// returns.
func WithPlugin(cfg *config.Config, loggerName string, pluginType string, pluginName string, f func(interface{}) error) error {
	log := logger.NewLogger(cfg, loggerName)

	pluginPath := PluginPath(cfg, pluginName)
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig: HandshakeConfig,
		Plugins:         PluginMap,
		Cmd:             exec.Command(pluginPath),
		Logger:          log,
	})
	defer client.Kill()

	rpcClient, err := client.Client()
	if err != nil {
		return fmt.Errorf("failed to start plugin %q: %w", pluginName, err)
	}

	raw, err := rpcClient.Dispense(pluginType)
	if err != nil {
		return fmt.Errorf("failed to dispense plugin %q: %w", pluginName, err)
	}

	return f(raw)
}
