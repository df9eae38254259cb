package producers

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"

	"github.com/secgate-io/secgate/pkg/shared"
	"github.com/secgate-io/secgate/pkg/shared/config"
)

// PluginProducer resolves a named producer plugin binary from the plugins
// folder and invokes it over RPC. A missing binary degrades to the empty
// result so an unconfigured integration never fails a check.
type PluginProducer struct {
	cfg        *config.Config
	pluginName string
	logger     hclog.Logger
}

// NewPluginProducer creates a producer backed by the named plugin binary.
func NewPluginProducer(cfg *config.Config, pluginName string, logger hclog.Logger) *PluginProducer {
	return &PluginProducer{cfg: cfg, pluginName: pluginName, logger: logger}
}

func (p *PluginProducer) available() bool {
	if p.pluginName == "" {
		return false
	}
	_, err := os.Stat(shared.PluginPath(p.cfg, p.pluginName))
	return err == nil
}

func (p *PluginProducer) scan(req shared.ProducerScanRequest) (*AuditResult, error) {
	if !p.available() {
		p.logger.Debug("producer plugin not installed, yielding empty result", "plugin", p.pluginName)
		return Empty(), nil
	}

	var result *AuditResult
	err := shared.WithPlugin(p.cfg, "plugin-producer", shared.PluginTypeProducer, p.pluginName, func(raw interface{}) error {
		producer, ok := raw.(shared.Producer)
		if !ok {
			return fmt.Errorf("invalid plugin type")
		}
		resp, err := producer.Scan(req)
		if err != nil {
			return fmt.Errorf("producer plugin scan failed: %w", err)
		}
		result = &AuditResult{Findings: resp.Findings, Details: resp.Details}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Audit implements DependencyAuditor.
func (p *PluginProducer) Audit(target string, params map[string]string) (*AuditResult, error) {
	return p.scan(shared.ProducerScanRequest{TargetPath: target, Params: params})
}

// ScanSecrets implements SecretsScanner.
func (p *PluginProducer) ScanSecrets(target string, params map[string]string) (*AuditResult, error) {
	return p.scan(shared.ProducerScanRequest{TargetPath: target, Params: params})
}

// AuditConfig implements ConfigAuditor.
func (p *PluginProducer) AuditConfig(target string, params map[string]string) (*AuditResult, error) {
	return p.scan(shared.ProducerScanRequest{TargetPath: target, Params: params})
}

// ValidateCompliance implements ComplianceValidator.
func (p *PluginProducer) ValidateCompliance(environment string, params map[string]string) (*AuditResult, error) {
	return p.scan(shared.ProducerScanRequest{Environment: environment, Params: params})
}

// PluginSet builds a Set where each external check type resolves to the
// plugin binary named after it (dependency, secrets, configuration,
// compliance). Missing binaries degrade per producer.
func PluginSet(cfg *config.Config, logger hclog.Logger) Set {
	return Set{
		Dependency: NewPluginProducer(cfg, "dependency", logger),
		Secrets:    NewPluginProducer(cfg, "secrets", logger),
		Config:     NewPluginProducer(cfg, "configuration", logger),
		Compliance: NewPluginProducer(cfg, "compliance", logger),
	}
}
