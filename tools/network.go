package tools

import (
	"context"
	"errors"
	"time"

	"github.com/petasbytes/localmind/internal/argnorm"
	"github.com/petasbytes/localmind/internal/sysinfo"
)

type NetworkActivityInput struct {
	OnlyEstablished bool `json:"only_established,omitempty" jsonschema:"default=true" jsonschema_description:"Only report established connections."`
	TopN            int  `json:"top_n,omitempty" jsonschema:"minimum=1,maximum=200,default=50" jsonschema_description:"Maximum connections to return."`
}

type WiFiInfoInput struct {
	TimeoutSeconds int `json:"timeout_seconds,omitempty" jsonschema:"minimum=2,maximum=20,default=6" jsonschema_description:"Seconds to wait for the wireless scan."`
}

func networkActivityTool(env Env) ToolDefinition {
	return define[NetworkActivityInput](
		"network_activity",
		"Open network connections with their owning processes.",
		func(ctx context.Context, args argnorm.Args) (any, error) {
			onlyEstablished, err := args.Bool("only_established")
			if err != nil {
				return nil, err
			}
			topN, err := args.Int("top_n")
			if err != nil {
				return nil, err
			}
			conns, err := env.Host.Connections(ctx)
			if err != nil {
				return nil, err
			}
			out := make([]sysinfo.Connection, 0, min(len(conns), topN))
			for _, c := range conns {
				if onlyEstablished && c.Status != "ESTABLISHED" {
					continue
				}
				out = append(out, c)
				if len(out) >= topN {
					break
				}
			}
			return out, nil
		},
	)
}

type WiFiResult struct {
	ResultsCount int                   `json:"results_count"`
	Networks     []sysinfo.WiFiNetwork `json:"networks"`
}

// wifiInfoTool reports its own envelope so a scan timeout reads as
// {ok:false, error:"timeout"}.
func wifiInfoTool(env Env) ToolDefinition {
	return define[WiFiInfoInput](
		"wifi_info",
		"Visible Wi-Fi networks with authentication, encryption and per-access-point signal.",
		func(ctx context.Context, args argnorm.Args) (any, error) {
			timeout, err := args.Int("timeout_seconds")
			if err != nil {
				return nil, err
			}
			ctx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
			defer cancel()

			nets, err := env.Host.WiFi(ctx)
			if errors.Is(err, context.DeadlineExceeded) {
				return Failure("timeout"), nil
			}
			if err != nil {
				return nil, err
			}
			return Success(WiFiResult{ResultsCount: len(nets), Networks: nets}), nil
		},
	)
}
