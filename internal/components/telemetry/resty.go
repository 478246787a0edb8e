package telemetry

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	report_http_request  = "http.request"
	report_http_response = "http.response"
	report_http_error    = "http.error"
)

type restyHooks struct {
	tel  API
	next *atomic.Uint64
}

// InstrumentResty traces a resty client's requests through otelhttp and reports each
// request and response at debug level. Transport errors are warnings, whether they
// count as breakage is for the caller to decide.
func InstrumentResty(client *resty.Client, tel API) {
	transport := client.GetClient().Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	client.SetTransport(otelhttp.NewTransport(transport))

	h := restyHooks{tel: tel, next: &atomic.Uint64{}}
	client.OnBeforeRequest(h.before)
	client.OnAfterResponse(h.after)
	client.OnError(h.failed)
}

type requestKey struct{}

type requestInfo struct {
	id uint64
	// monotonic, only used for durations
	start time.Time
}

func (h restyHooks) before(_ *resty.Client, req *resty.Request) error {
	info := requestInfo{id: h.next.Add(1), start: time.Now()}
	req.SetContext(context.WithValue(req.Context(), requestKey{}, info))
	h.tel.ReportDebug(report_http_request, info.id, req.Method, req.URL)
	return nil
}

func requestOf(ctx context.Context) (uint64, time.Duration) {
	info, ok := ctx.Value(requestKey{}).(requestInfo)
	if !ok {
		return 0, 0
	}
	return info.id, time.Since(info.start)
}

func (h restyHooks) after(_ *resty.Client, res *resty.Response) error {
	id, took := requestOf(res.Request.Context())
	h.tel.ReportDebug(report_http_response, id, res.StatusCode(), took.String())
	return nil
}

func (h restyHooks) failed(req *resty.Request, err error) {
	id, took := requestOf(req.Context())
	h.tel.ReportWarning(report_http_error, err, id, req.Method, req.URL, took.String())
}
