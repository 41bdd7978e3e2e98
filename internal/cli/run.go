package cli

import (
	"bufio"
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/bufbuild/connect-go"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/net/http2"

	"github.com/codeforge-ai/codeforge/internal/rpc"
	agentrpc "github.com/codeforge-ai/codeforge/internal/rpc/agent"
	"github.com/codeforge-ai/codeforge/internal/rpc/connectjson"
)

// NewRunCmd wires the run command to stream events from the daemon.
func NewRunCmd(opts *Options) *cobra.Command {
	var role string
	var modelOverride string
	var sessionID string

	cmd := &cobra.Command{
		Use:   "run \"<prompt>\"",
		Short: "Send a task to the daemon and stream agent events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			prompt := args[0]
			if strings.TrimSpace(prompt) == "" {
				return fmt.Errorf("prompt cannot be empty")
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			if sessionID == "" {
				sessionID = "cli-" + uuid.NewString()
			}

			reqBody := rpc.RunTaskRequest{
				SessionID:     sessionID,
				CorrelationID: uuid.NewString(),
				Role:          role,
				Model:         modelOverride,
				Prompt:        prompt,
			}

			baseURL := daemonURL(cfg.Server.Addr)
			switch strings.ToLower(strings.TrimSpace(cfg.Server.Transport)) {
			case "ndjson":
				return runNDJSON(ctx, cmd, baseURL+"/agent/run", reqBody)
			default:
				return runConnect(ctx, cmd, baseURL+agentrpc.ConnectRunTaskProcedure, reqBody)
			}
		},
	}

	cmd.Flags().StringVar(&role, "role", "", "Entry role for the run (default: orchestrator)")
	cmd.Flags().StringVar(&modelOverride, "model", "", "Override model id for this run")
	cmd.Flags().StringVar(&sessionID, "session", "", "Session id to resume (default: fresh session)")
	return cmd
}

func daemonURL(addr string) string {
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return addr
	}
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

func runNDJSON(ctx context.Context, cmd *cobra.Command, url string, reqBody rpc.RunTaskRequest) error {
	data, err := json.Marshal(reqBody)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("daemon returned status %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		var evt rpc.RunTaskEvent
		if err := json.Unmarshal(scanner.Bytes(), &evt); err != nil {
			return fmt.Errorf("decode event: %w", err)
		}
		if err := renderEvent(cmd, evt); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func runConnect(ctx context.Context, cmd *cobra.Command, url string, reqBody rpc.RunTaskRequest) error {
	client := connect.NewClient[rpc.RunTaskStreamRequest, rpc.RunTaskEvent](buildH2CClient(), url, connect.WithCodec(connectjson.Codec{}))
	stream := client.CallBidiStream(ctx)

	if err := stream.Send(&rpc.RunTaskStreamRequest{Run: &reqBody}); err != nil {
		return err
	}

	// Propagate cancellation to the daemon.
	go func() {
		<-ctx.Done()
		_ = stream.Send(&rpc.RunTaskStreamRequest{Cancel: true})
		_ = stream.CloseRequest()
	}()

	for {
		evt, err := stream.Receive()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if err := renderEvent(cmd, *evt); err != nil {
			return err
		}
	}
	_ = stream.CloseRequest()
	return stream.CloseResponse()
}

func renderEvent(cmd *cobra.Command, evt rpc.RunTaskEvent) error {
	out := cmd.OutOrStdout()
	switch evt.Type {
	case "message":
		if evt.Role != "" {
			fmt.Fprintf(out, "[%s] %s\n", evt.Role, evt.Message)
		} else {
			fmt.Fprintln(out, evt.Message)
		}
	case "tool":
		if evt.ToolError != "" {
			fmt.Fprintf(out, "[tool %s] error: %s\n", evt.ToolName, evt.ToolError)
		} else {
			fmt.Fprintf(out, "[tool %s] %s\n", evt.ToolName, evt.ToolOutput)
		}
	case "compact":
		fmt.Fprintf(out, "[memory] compacted %d messages\n", evt.Compacted)
	case "delegate":
		fmt.Fprintf(out, "[delegate] -> %s\n", evt.Role)
	case "done":
		fmt.Fprintf(out, "\n[done %s after %d iterations]\n%s\n", evt.FinishReason, evt.Iterations, evt.Message)
	case "error":
		return fmt.Errorf("daemon error: %s", evt.Error)
	}
	return nil
}

func buildH2CClient() *http.Client {
	return &http.Client{
		Transport: &http2.Transport{
			AllowHTTP: true,
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, network, addr)
			},
		},
	}
}
