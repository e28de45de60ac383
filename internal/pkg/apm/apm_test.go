package apm

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopOption(t *testing.T) {
	asserter := assert.New(t)
	requirer := require.New(t)

	asserter.NotNil(Global())

	ins, err := New(t.Context(), &Options{ServiceName: "items-crud"})
	requirer.NoError(err)
	asserter.NotNil(ins)
	asserter.NotNil(ins.AppTracer())
	asserter.NotNil(ins.AppMeter())

	requirer.NoError(ins.Shutdown(t.Context()))
	assert.NotNil(t, Global().AppTracer())
	assert.NotNil(t, Global().AppMeter())
}

func TestHTTPMiddleware(t *testing.T) {
	requirer := require.New(t)

	for _, opts := range []*HTTPOpts{nil, {OperationName: "items"}} {
		mw := NewHTTPMiddleware(opts)
		handler := mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items", nil))
		requirer.Equal(http.StatusTeapot, rec.Code)
	}
}
