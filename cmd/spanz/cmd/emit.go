package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/zoobzio/spanz"
	"github.com/zoobzio/spanz/collector"
	"github.com/zoobzio/spanz/config"
	"github.com/zoobzio/spanz/reporter"
)

const (
	optionNameSpans     = "spans"
	optionNameComponent = "component"
)

// collectorReporter is a collector reporter that can also be flushed.
type collectorReporter interface {
	spanz.Reporter
	collector.Flusher
}

func (c *command) newCollector(cfg *config.Config) collectorReporter {
	opts := []collector.Option{
		collector.WithBaseURL(cfg.CollectorBaseURL()),
		collector.WithLogger(c.logger),
	}
	switch cfg.Collector {
	case config.CollectorZipkin:
		return collector.NewZipkin(c.send, cfg.ServiceName, opts...)
	case config.CollectorGeneric:
		return collector.NewGeneric(c.send, cfg.ServiceName, nil, opts...)
	default:
		return collector.NewJaeger(c.send, collector.Process{ServiceName: cfg.ServiceName}, opts...)
	}
}

func (c *command) initEmitCmd() {
	cmd := &cobra.Command{
		Use:   "emit",
		Short: "Emit a synthetic trace to the configured collector",
		RunE: func(cmd *cobra.Command, _ []string) error {
			spans, err := cmd.Flags().GetInt(optionNameSpans)
			if err != nil {
				return err
			}
			component, err := cmd.Flags().GetString(optionNameComponent)
			if err != nil {
				return err
			}
			return c.emit(cmd, spans, component)
		},
	}
	cmd.Flags().Int(optionNameSpans, 3, "number of child spans")
	cmd.Flags().String(optionNameComponent, "spanz-cli", "component tag of the emitted spans")
	c.root.AddCommand(cmd)
}

func (c *command) emit(cmd *cobra.Command, spans int, component string) error {
	cfg := c.config
	sink := c.newCollector(cfg)

	var target spanz.Reporter = sink
	if cfg.Components != "" {
		target = reporter.NewSpanComponentTagFilter(target, cfg.Components)
	}

	logs := logrus.New()
	logs.SetOutput(cmd.ErrOrStderr())
	logs.SetLevel(logrus.TraceLevel)

	tracer := spanz.New(
		spanz.WithLogger(c.logger),
		spanz.WithConstantTags(map[spanz.Tag]string{"service": cfg.ServiceName}),
		spanz.WithReporters(
			target,
			reporter.NewLogLevelFilter(reporter.NewLogrus(logs), spanz.LogLevel(cfg.SpanLogLevel)),
		),
	)
	defer tracer.Close()

	root := tracer.StartSpan("emit", spanz.WithTag(spanz.TagComponent, component))
	for i := 0; i < spans; i++ {
		_, err := spanz.Wrap(root, spanz.WrapOptions{
			OperationName: fmt.Sprintf("step-%d", i+1),
			Component:     component,
		}, func(span *spanz.Span) (struct{}, error) {
			span.Logger().Info("synthetic step", map[string]int{"step": i + 1})
			return struct{}{}, nil
		})
		if err != nil {
			return err
		}
	}
	root.Finish()

	pending := sink.Pending()
	if err := collector.ReportAll(cmd.Context(), sink); err != nil {
		return err
	}
	cmd.Printf("trace %s: reported %d spans to %s\n", root.Context().TraceID(), pending, cfg.CollectorBaseURL())
	return nil
}
