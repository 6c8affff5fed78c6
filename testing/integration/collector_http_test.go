package integration

import (
	"bytes"
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/zoobzio/spanz"
	"github.com/zoobzio/spanz/collector"
	"github.com/zoobzio/spanz/transport"
)

func TestJaegerOverHTTP(t *testing.T) {
	server := NewFakeCollector(t)
	jaeger := collector.NewJaeger(NewClient(0).Send, collector.Process{ServiceName: "orders"},
		collector.WithBaseURL(server.URL))
	tracer := NewTracer(jaeger)
	defer tracer.Close()

	root := tracer.StartSpan("checkout")
	child := tracer.StartSpan("charge", spanz.ChildOf(root.Context()))
	child.Finish()
	root.Finish()

	require.NoError(t, jaeger.Report(context.Background()))
	assert.Zero(t, jaeger.Pending())

	reqs := server.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/api/traces", reqs[0].Path)
	assert.Equal(t, "application/x-thrift", reqs[0].ContentType)
	// Batch{1: process struct, ...}
	require.Greater(t, len(reqs[0].Body), 3)
	assert.Equal(t, []byte{0x0c, 0x00, 0x01}, reqs[0].Body[:3])
	assert.True(t, bytes.Contains(reqs[0].Body, []byte("orders")))
	assert.True(t, bytes.Contains(reqs[0].Body, []byte(collector.ClientUUIDTag)))
}

func TestZipkinOverHTTPWithGzip(t *testing.T) {
	server := NewFakeCollector(t)
	zipkin := collector.NewZipkin(NewClient(0, transport.WithGzip()).Send, "orders",
		collector.WithBaseURL(server.URL))
	tracer := NewTracer(zipkin)
	defer tracer.Close()

	root := tracer.StartSpan("checkout", spanz.WithTag(spanz.TagSpanKind, "server"))
	child := tracer.StartSpan("charge", spanz.ChildOf(root.Context()))
	child.Finish()
	root.Finish()

	require.NoError(t, zipkin.Report(context.Background()))

	reqs := server.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/api/v2/spans", reqs[0].Path)
	assert.Equal(t, "gzip", reqs[0].Encoding)

	var spans []map[string]any
	require.NoError(t, sonic.Unmarshal(reqs[0].Body, &spans))
	require.Len(t, spans, 2)
	assert.Equal(t, "charge", spans[0]["name"])
	assert.Equal(t, root.Context().SpanID(), spans[0]["parentId"])
	assert.Equal(t, "SERVER", spans[1]["kind"])
}

func TestGenericMsgpackOverHTTP(t *testing.T) {
	server := NewFakeCollector(t)
	generic := collector.NewGeneric(NewClient(0).Send, "orders", map[string]string{"region": "eu"},
		collector.WithBaseURL(server.URL), collector.WithEncoding(collector.EncodingMsgpack))
	tracer := NewTracer(generic)
	defer tracer.Close()

	tracer.StartSpan("checkout").Finish()
	require.NoError(t, generic.Report(context.Background()))

	reqs := server.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/batch", reqs[0].Path)
	assert.Equal(t, "application/msgpack", reqs[0].ContentType)

	var batch collector.GenericBatch
	dec := msgpack.NewDecoder(bytes.NewReader(reqs[0].Body))
	dec.SetCustomStructTag("json")
	require.NoError(t, dec.Decode(&batch))
	assert.Equal(t, "orders", batch.ServiceName)
	assert.Equal(t, "eu", batch.Tags["region"])
	require.Len(t, batch.Spans, 1)
	assert.Equal(t, "checkout", batch.Spans[0].OperationName)
}

func TestRetriesThenDelivers(t *testing.T) {
	server := NewFakeCollector(t, http.StatusServiceUnavailable, http.StatusServiceUnavailable)
	zipkin := collector.NewZipkin(NewClient(3).Send, "orders", collector.WithBaseURL(server.URL))
	tracer := NewTracer(zipkin)
	defer tracer.Close()

	tracer.StartSpan("op").Finish()
	require.NoError(t, zipkin.Report(context.Background()))
	assert.Len(t, server.Requests(), 3)
	assert.Zero(t, zipkin.Pending())
}

func TestCollectorOutageRetainsSpans(t *testing.T) {
	server := NewFakeCollector(t)
	server.SetStatus(http.StatusInternalServerError)
	jaeger := collector.NewJaeger(NewClient(0).Send, collector.Process{ServiceName: "orders"},
		collector.WithBaseURL(server.URL))
	tracer := NewTracer(jaeger)
	defer tracer.Close()

	for i := 0; i < 5; i++ {
		tracer.StartSpan("op").Finish()
	}

	err := jaeger.Report(context.Background())
	assert.ErrorIs(t, err, collector.ErrReportFailed)
	assert.Equal(t, 5, jaeger.Pending())

	server.SetStatus(http.StatusAccepted)
	require.NoError(t, jaeger.Report(context.Background()))
	assert.Zero(t, jaeger.Pending())
	assert.Len(t, server.Requests(), 2)
}

func TestUnreachableCollector(t *testing.T) {
	zipkin := collector.NewZipkin(NewClient(0).Send, "orders", collector.WithBaseURL("http://127.0.0.1:1"))
	tracer := NewTracer(zipkin)
	defer tracer.Close()

	tracer.StartSpan("op").Finish()
	assert.ErrorIs(t, zipkin.Report(context.Background()), collector.ErrReportFailed)
	assert.Equal(t, 1, zipkin.Pending())
}

func TestBufferBackpressure(t *testing.T) {
	server := NewFakeCollector(t)
	zipkin := collector.NewZipkin(NewClient(0).Send, "orders",
		collector.WithBaseURL(server.URL), collector.WithMaxPending(100))
	tracer := NewTracer(zipkin)
	defer tracer.Close()

	start := time.Now()
	for i := 0; i < 1000; i++ {
		tracer.StartSpan("burst").Finish()
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Finishing spans into a full buffer took %v", elapsed)
	}

	assert.Equal(t, 100, zipkin.Pending())
	assert.Equal(t, int64(900), zipkin.Dropped())

	require.NoError(t, zipkin.Report(context.Background()))
	var spans []map[string]any
	require.NoError(t, sonic.Unmarshal(server.Requests()[0].Body, &spans))
	assert.Len(t, spans, 100)
}

func TestAutoFlushDeliversAndDrains(t *testing.T) {
	server := NewFakeCollector(t)
	jaeger := collector.NewJaeger(NewClient(0).Send, collector.Process{ServiceName: "orders"},
		collector.WithBaseURL(server.URL))
	zipkin := collector.NewZipkin(NewClient(0).Send, "orders", collector.WithBaseURL(server.URL))
	tracer := NewTracer(jaeger, zipkin)
	defer tracer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		collector.AutoFlush(ctx, 20*time.Millisecond, nil, nil, jaeger, zipkin)
		close(done)
	}()

	tracer.StartSpan("tick").Finish()
	require.True(t, WaitFor(t, 2*time.Second, func() bool {
		return jaeger.Pending() == 0 && zipkin.Pending() == 0
	}))

	tracer.StartSpan("last").Finish()
	cancel()
	<-done
	assert.Zero(t, jaeger.Pending())
	assert.Zero(t, zipkin.Pending())

	paths := map[string]int{}
	for _, r := range server.Requests() {
		paths[r.Path]++
	}
	assert.GreaterOrEqual(t, paths["/api/traces"], 1)
	assert.GreaterOrEqual(t, paths["/api/v2/spans"], 1)
}
