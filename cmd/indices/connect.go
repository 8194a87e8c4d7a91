package indices

import (
	"fmt"

	"github.com/stackward/esretire/cmd/portforward"
	"github.com/stackward/esretire/internal/config"
	"github.com/stackward/esretire/internal/elasticsearch"
	"github.com/stackward/esretire/internal/k8s"
	"github.com/stackward/esretire/internal/logger"
)

// connect resolves the effective configuration and opens an Elasticsearch
// client against it. When a Kubernetes namespace is configured the cluster is
// reached through a service port-forward; otherwise the configured address is
// used directly. The returned cleanup tears down the port-forward (a no-op
// for direct connections) and must be called when the command is done.
// flagSet is cobra's Flags().Changed, reporting which flags were given
// explicitly.
func connect(cliCtx *config.Context, flagSet func(name string) bool, log *logger.Logger) (*elasticsearch.Client, *config.Config, func(), error) {
	cfg, err := config.Resolve(cliCtx.Config, flagSet)
	if err != nil {
		return nil, nil, nil, err
	}

	address := cfg.Elasticsearch.Address
	cleanup := func() {}

	if cfg.Kubernetes.Namespace != "" {
		k8sClient, err := k8s.NewClient(cfg.Kubernetes.Kubeconfig, cliCtx.Config.Debug)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to create Kubernetes client: %w", err)
		}

		pf, err := portforward.SetupPortForward(
			k8sClient,
			cfg.Kubernetes.Namespace,
			cfg.Kubernetes.ServiceName,
			cfg.Kubernetes.LocalPort,
			cfg.Kubernetes.ServicePort,
			log,
		)
		if err != nil {
			return nil, nil, nil, err
		}

		address = fmt.Sprintf("http://localhost:%d", pf.LocalPort)
		cleanup = func() { close(pf.StopChan) }
	}

	esClient, err := elasticsearch.NewClient(address)
	if err != nil {
		cleanup()
		return nil, nil, nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	return esClient, cfg, cleanup, nil
}
