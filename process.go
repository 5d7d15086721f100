package hostlink

import (
	"context"
	"fmt"

	"github.com/machinefabric/hostlink-go/wire"
)

// RunProcessRequest describes a command for the host's shell to execute.
type RunProcessRequest struct {
	Executable       string            `cbor:"executable" json:"executable"`
	Arguments        []string          `cbor:"arguments,omitempty" json:"arguments,omitempty"`
	WorkingDirectory string            `cbor:"working_directory,omitempty" json:"working_directory,omitempty"`
	Environment      map[string]string `cbor:"environment,omitempty" json:"environment,omitempty"`
}

// RunProcessResult is the completed process state reported by the host.
type RunProcessResult struct {
	ExitCode int32  `cbor:"exit_code" json:"exit_code"`
	Stdout   string `cbor:"stdout" json:"stdout"`
	Stderr   string `cbor:"stderr" json:"stderr"`
}

// RunProcess executes a command on the host and waits for it to finish. The
// host imposes its own limits on what may run; a refusal surfaces as a
// *HostError.
func (c *Client) RunProcess(ctx context.Context, req RunProcessRequest) (*RunProcessResult, error) {
	env, err := c.Call(ctx, wire.KindProcessRun, req)
	if err != nil {
		return nil, err
	}
	var result RunProcessResult
	if err := wire.DecodePayload(env.Payload, &result); err != nil {
		return nil, fmt.Errorf("decoding process result: %w", err)
	}
	return &result, nil
}
