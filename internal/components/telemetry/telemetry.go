package telemetry

// API is how components report what happens to them. Implementations decide whether a
// report becomes a log line, a metric or something a test asserts on.
//
// note: fault injection point
type API interface {
	// ReportBroken reports a component that failed in a way someone should look at.
	//
	// id names the component and never the mechanism, a failed request while searching
	// ebay is `client.search` with the http error passed as a param. ids are lowercase,
	// dotted, with dashes inside a segment.
	ReportBroken(id string, params ...any)
	// ReportWarning reports something unexpected that did not break anything.
	ReportWarning(id string, params ...any)
	ReportDebug(msg string, params ...any)
	// ReportCount records how many of something there were at this point in time,
	// counts are data points and are never summed.
	ReportCount(id string, count int64)
}

// ScopedAPI prefixes every id with a namespace. Scoping an already scoped API joins the
// namespaces with a dot instead of nesting wrappers.
type ScopedAPI struct {
	prefix string
	inner  API
}

func NewScopedAPI(namespace string, inner API) ScopedAPI {
	if scoped, ok := inner.(ScopedAPI); ok {
		return ScopedAPI{prefix: scoped.prefix + "." + namespace, inner: scoped.inner}
	}
	return ScopedAPI{prefix: namespace, inner: inner}
}

func (s ScopedAPI) scope(id string) string {
	return s.prefix + "." + id
}

func (s ScopedAPI) ReportBroken(id string, params ...any) {
	s.inner.ReportBroken(s.scope(id), params...)
}

func (s ScopedAPI) ReportWarning(id string, params ...any) {
	s.inner.ReportWarning(s.scope(id), params...)
}

func (s ScopedAPI) ReportDebug(msg string, params ...any) {
	s.inner.ReportDebug(s.prefix+": "+msg, params...)
}

func (s ScopedAPI) ReportCount(id string, count int64) {
	s.inner.ReportCount(s.scope(id), count)
}
