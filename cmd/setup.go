package cmd

import (
	"github.com/hashicorp/go-hclog"

	"github.com/secgate-io/secgate/internal/executor"
	"github.com/secgate-io/secgate/internal/gate"
	"github.com/secgate-io/secgate/internal/notify"
	"github.com/secgate-io/secgate/internal/pipeline"
	"github.com/secgate-io/secgate/internal/producers"
	"github.com/secgate-io/secgate/internal/report"
	"github.com/secgate-io/secgate/internal/review"
	"github.com/secgate-io/secgate/internal/scanner"
	"github.com/secgate-io/secgate/pkg/shared/config"
	"github.com/secgate-io/secgate/pkg/shared/logger"
)

// runtime wires the full pipeline from the validated configuration. It is
// built once per command invocation.
type runtime struct {
	logger       hclog.Logger
	store        *pipeline.Store
	history      report.Repository
	orchestrator *pipeline.Orchestrator
}

// newRuntime assembles the scanner, reviewer, producers, gate executor,
// report generator and notifier over the global configuration.
func newRuntime(name string) (*runtime, error) {
	log := logger.NewLogger(AppConfig, name)

	store, err := pipeline.NewStoreFromConfig(AppConfig)
	if err != nil {
		return nil, err
	}

	history, err := report.NewFileRepository(config.GetResultsHome(AppConfig))
	if err != nil {
		if history == nil {
			return nil, err
		}
		// Malformed history is reported but never blocks a run.
		log.Warn("report history could not be fully loaded", "error", err)
	}

	checkExec := executor.New(
		scanner.New(log.Named("scanner")),
		review.New(log.Named("review")),
		producers.PluginSet(AppConfig, log.Named("producers")),
		log,
	)

	orchestrator := pipeline.New(
		AppConfig,
		store,
		gate.New(checkExec, log),
		report.NewGenerator(history, log),
		notify.NewWebhookNotifier(AppConfig, log.Named("notify")),
		log,
	)

	return &runtime{
		logger:       log,
		store:        store,
		history:      history,
		orchestrator: orchestrator,
	}, nil
}
