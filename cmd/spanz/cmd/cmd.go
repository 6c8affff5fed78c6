// Package cmd implements the spanz command line: emitting synthetic traces
// to a collector and printing propagation carriers.
package cmd

import (
	"context"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/zoobzio/spanz/config"
	"github.com/zoobzio/spanz/internal/logging"
	"github.com/zoobzio/spanz/transport"
)

type command struct {
	root   *cobra.Command
	config *config.Config
	logger logging.Logger
	send   transport.SendFunc
}

// Option configures the command.
type Option func(*command)

// WithArgs sets the command line arguments.
func WithArgs(a ...string) Option {
	return func(c *command) {
		c.root.SetArgs(a)
	}
}

// WithOutput sets where command output and diagnostics are written.
func WithOutput(w io.Writer) Option {
	return func(c *command) {
		c.root.SetOut(w)
		c.root.SetErr(w)
	}
}

// WithSendFunc replaces the HTTP transport used to reach collectors.
func WithSendFunc(send transport.SendFunc) Option {
	return func(c *command) {
		c.send = send
	}
}

func newCommand(opts ...Option) *command {
	c := &command{
		root: &cobra.Command{
			Use:           "spanz",
			Short:         "Emit traces and inspect span context propagation",
			SilenceErrors: true,
			SilenceUsage:  true,
		},
	}
	c.root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return c.initConfig(cmd)
	}

	for _, o := range opts {
		o(c)
	}

	c.initEmitCmd()
	c.initInjectCmd()
	return c
}

// Execute parses command line arguments and runs appropriate functions.
func Execute(opts ...Option) error {
	return newCommand(opts...).root.ExecuteContext(context.Background())
}

func (c *command) initConfig(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	c.config = cfg
	c.logger = logging.New(cmd.ErrOrStderr(), logging.ParseLevel(cfg.LogLevel))
	if c.send == nil {
		c.send = transport.New(
			transport.WithRetry(cfg.RetryCount, 100*time.Millisecond, 5*time.Second),
			transport.WithRateLimit(cfg.RateLimit),
		).Send
	}
	return nil
}
