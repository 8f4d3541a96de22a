package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersCollectors(t *testing.T) {
	req := require.New(t)
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.PhraseTableSize.Set(13)
	m.FitsTotal.WithLabelValues("ok").Inc()
	m.DocsVectorizedTotal.Add(3)

	req.Equal(13.0, testutil.ToFloat64(m.PhraseTableSize))
	req.Equal(1.0, testutil.ToFloat64(m.FitsTotal.WithLabelValues("ok")))
	req.Equal(3.0, testutil.ToFloat64(m.DocsVectorizedTotal))

	// registering twice on the same registry is a programming error
	req.Panics(func() { New(reg) })
}

func TestHandler_ExposesRegistry(t *testing.T) {
	req := require.New(t)
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.FeatureCount.Set(7)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	req.NoError(err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	req.NoError(err)
	req.Contains(string(body), "vhash_feature_count 7")
}
