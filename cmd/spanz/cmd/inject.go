package cmd

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/zoobzio/spanz"
)

const (
	optionNameFormat  = "format"
	optionNameTraceID = "trace-id"
	optionNameSpanID  = "span-id"
	optionNameBaggage = "baggage"
)

func (c *command) initInjectCmd() {
	cmd := &cobra.Command{
		Use:   "inject",
		Short: "Print the carrier a span context is injected into",
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			format, _ := flags.GetString(optionNameFormat)
			traceID, _ := flags.GetString(optionNameTraceID)
			spanID, _ := flags.GetString(optionNameSpanID)
			baggage, _ := flags.GetStringToString(optionNameBaggage)
			return c.inject(cmd, format, traceID, spanID, baggage)
		},
	}
	cmd.Flags().String(optionNameFormat, spanz.JaegerFormatName, "carrier format name")
	cmd.Flags().String(optionNameTraceID, "", "trace id (default: new)")
	cmd.Flags().String(optionNameSpanID, "", "span id (default: new)")
	cmd.Flags().StringToString(optionNameBaggage, nil, "baggage items as key=value")
	c.root.AddCommand(cmd)
}

func (c *command) inject(cmd *cobra.Command, format, traceID, spanID string, baggage map[string]string) error {
	tracer := spanz.New(spanz.WithLogger(c.logger))
	defer tracer.Close()

	if _, ok := tracer.Format(format); !ok {
		return spanz.ErrUnknownFormat
	}

	var sc *spanz.SpanContext
	if traceID != "" || spanID != "" {
		var err error
		sc, err = spanz.NewSpanContext(traceID, spanID)
		if err != nil {
			return err
		}
	} else {
		sc = tracer.StartSpan("inject").Context()
	}
	sc.AddBaggageItems(baggage)

	carrier := map[string]string{}
	f, _ := tracer.Format(format)
	if err := f.Inject(sc, carrier); err != nil {
		return err
	}

	keys := make([]string, 0, len(carrier))
	for k := range carrier {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		cmd.Printf("%s: %s\n", k, carrier[k])
	}
	return nil
}
