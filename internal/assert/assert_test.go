package assert

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type writer interface {
	Write([]byte) (int, error)
}

type nopWriter struct{}

func (*nopWriter) Write(b []byte) (int, error) {
	return len(b), nil
}

func TestNotNil(t *testing.T) {
	var typedNil *nopWriter
	var iface writer = typedNil

	require.PanicsWithValue(t, "writer must not be nil", func() { NotNil(nil, "writer") })
	require.Panics(t, func() { NotNil(iface, "writer") })
	require.NotPanics(t, func() { NotNil(&nopWriter{}, "writer") })
	require.NotPanics(t, func() { NotNil(0, "count") })
}

func TestNotEmptyStr(t *testing.T) {
	require.PanicsWithValue(t, "base url must not be empty", func() { NotEmptyStr("", "base url") })
	require.NotPanics(t, func() { NotEmptyStr("https://api.ebay.com", "base url") })
}
