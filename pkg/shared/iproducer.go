package shared

import (
	"net/rpc"

	"github.com/hashicorp/go-plugin"

	"github.com/secgate-io/secgate/pkg/types"
)

// Producer is the contract implemented by out-of-process finding producers
// (dependency auditors, secret scanners, compliance validators).
type Producer interface {
	Scan(args ProducerScanRequest) (ProducerScanResponse, error)
}

// ProducerScanRequest represents a single producer invocation.
type ProducerScanRequest struct {
	TargetPath  string            // Path to the target to scan
	Environment string            // Deployment environment for compliance checks
	Params      map[string]string // Check parameters passed through verbatim
}

// ProducerScanResponse is the single canonical result shape a producer
// returns; findings use the shared domain model.
type ProducerScanResponse struct {
	Findings []types.Finding
	Details  string
}

type ProducerRPCClient struct{ client *rpc.Client }

func (g *ProducerRPCClient) Scan(req ProducerScanRequest) (ProducerScanResponse, error) {
	var resp ProducerScanResponse
	if err := g.client.Call("Plugin.Scan", req, &resp); err != nil {
		return resp, err
	}
	return resp, nil
}

type ProducerRPCServer struct {
	Impl Producer
}

func (s *ProducerRPCServer) Scan(args ProducerScanRequest, resp *ProducerScanResponse) error {
	var err error
	*resp, err = s.Impl.Scan(args)
	return err
}

type ProducerPlugin struct {
	Impl Producer
}

func (p *ProducerPlugin) Server(*plugin.MuxBroker) (interface{}, error) {
	return &ProducerRPCServer{Impl: p.Impl}, nil
}

func (ProducerPlugin) Client(b *plugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &ProducerRPCClient{client: c}, nil
}
