package solutions

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// CLIClient drafts through a locally installed claude CLI, for operators who
// have a CLI login but no API key.
type CLIClient struct {
	path    string
	model   string
	timeout time.Duration
	log     *zap.Logger
}

func NewCLIClient(path, model string, timeout time.Duration, log *zap.Logger) *CLIClient {
	if log == nil {
		log = zap.NewNop()
	}
	return &CLIClient{path: path, model: model, timeout: timeout, log: log}
}

func (c *CLIClient) args(systemPrompt string) []string {
	args := []string{
		"--print",
		"--output-format", "json",
		"--system-prompt", systemPrompt,
		"--max-turns", "1",
	}
	if c.model != "" {
		args = append(args, "--model", c.model)
	}
	return args
}

func (c *CLIClient) Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.path, c.args(systemPrompt)...)
	cmd.Stdin = strings.NewReader(userPrompt)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		c.log.Warn("drafting CLI failed",
			zap.String("path", c.path),
			zap.Duration("took", time.Since(start)),
			zap.String("stderr", strings.TrimSpace(stderr.String())),
			zap.Error(err))
		return nil, fmt.Errorf("drafting CLI: %w", err)
	}

	resp := parseCLIOutput(stdout.Bytes())
	if resp.Content == "" {
		return nil, fmt.Errorf("drafting CLI returned empty response")
	}
	c.log.Debug("drafting CLI replied",
		zap.Duration("took", time.Since(start)),
		zap.Int("output_tokens", resp.OutputTokens))
	return resp, nil
}

// parseCLIOutput reads the CLI's JSON envelope ({"result": ..., "usage": ...}).
// Anything else is taken as the reply text itself.
func parseCLIOutput(out []byte) *LLMResponse {
	out = bytes.TrimSpace(out)
	if gjson.ValidBytes(out) {
		env := gjson.ParseBytes(out)
		if result := env.Get("result"); result.Type == gjson.String {
			return &LLMResponse{
				Content:      strings.TrimSpace(result.String()),
				PromptTokens: int(env.Get("usage.input_tokens").Int()),
				OutputTokens: int(env.Get("usage.output_tokens").Int()),
			}
		}
	}
	return &LLMResponse{Content: string(out)}
}
