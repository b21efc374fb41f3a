// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sparql

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/hra-relations/internal/cache"
	"github.com/pdiddy/hra-relations/pkg/types"
)

const resultsJSON = `{
  "head": {"vars": ["s", "p", "o", "slabel"]},
  "results": {"bindings": [
    {"s": {"type": "uri", "value": "http://purl.obolibrary.org/obo/UBERON_0001228"},
     "p": {"type": "uri", "value": "http://purl.obolibrary.org/obo/BFO_0000050"},
     "o": {"type": "uri", "value": "http://purl.obolibrary.org/obo/UBERON_0004200"},
     "slabel": {"type": "literal", "value": "renal papilla", "xml:lang": "en"}},
    {"s": {"type": "uri", "value": "http://purl.obolibrary.org/obo/UBERON_0002113"},
     "p": {"type": "uri", "value": "http://www.w3.org/2000/01/rdf-schema#subClassOf"},
     "o": {"type": "uri", "value": "http://purl.obolibrary.org/obo/UBERON_0000061"}}
  ]}
}`

func newEndpoint(t *testing.T, calls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/sparql-results+json", r.Header.Get("Accept"))
		assert.NoError(t, r.ParseForm())
		assert.Contains(t, r.PostForm.Get("query"), "SELECT")
		w.Header().Set("Content-Type", "application/sparql-results+json")
		w.Write([]byte(resultsJSON))
	}))
}

func TestSelect(t *testing.T) {
	var calls int32
	ts := newEndpoint(t, &calls)
	defer ts.Close()

	c := NewClient(ts.URL, types.HTTPConfig{}, nil)
	rows, err := c.Select(context.Background(), "SELECT ?s ?p ?o WHERE { ?s ?p ?o }")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "renal papilla", rows[0]["slabel"])
	_, bound := rows[1]["slabel"]
	assert.False(t, bound, "unbound variables are absent")
	assert.Equal(t, "http://www.w3.org/2000/01/rdf-schema#subClassOf", rows[1]["p"])
}

func TestSelectCSV(t *testing.T) {
	var calls int32
	ts := newEndpoint(t, &calls)
	defer ts.Close()

	c := NewClient(ts.URL, types.HTTPConfig{}, nil)
	out, err := c.SelectCSV(context.Background(), "SELECT * WHERE { ?s ?p ?o }")
	require.NoError(t, err)

	want := "s,p,o,slabel\r\n" +
		"http://purl.obolibrary.org/obo/UBERON_0001228,http://purl.obolibrary.org/obo/BFO_0000050,http://purl.obolibrary.org/obo/UBERON_0004200,renal papilla\r\n" +
		"http://purl.obolibrary.org/obo/UBERON_0002113,http://www.w3.org/2000/01/rdf-schema#subClassOf,http://purl.obolibrary.org/obo/UBERON_0000061,"
	assert.Equal(t, want, out)
}

func TestQuery_Cached(t *testing.T) {
	var calls int32
	ts := newEndpoint(t, &calls)
	defer ts.Close()

	c := NewClient(ts.URL, types.HTTPConfig{}, cache.NewMemoryCache(time.Minute, time.Minute))
	for range 2 {
		_, err := c.Select(context.Background(), "SELECT ?s WHERE { ?s ?p ?o }")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	_, err := c.Select(context.Background(), "SELECT ?o WHERE { ?s ?p ?o }")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "different query misses the cache")
}

func TestQuery_ErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("Parse error: line 3"))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, types.HTTPConfig{}, nil)
	_, err := c.Select(context.Background(), "SELECT")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 400")
	assert.Contains(t, err.Error(), "Parse error")
}

func TestQuery_BearerToken(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer s3cret", r.Header.Get("Authorization"))
		w.Write([]byte(`{"head":{"vars":[]},"results":{"bindings":[]}}`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, types.HTTPConfig{}, nil)
	c.Token = "s3cret"
	rows, err := c.Select(context.Background(), "SELECT * WHERE {}")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestTerm(t *testing.T) {
	assert.Equal(t, "UBERON:0002113", Term("UBERON:0002113"))
	assert.Equal(t, "<http://purl.obolibrary.org/obo/UBERON_0002113>", Term("http://purl.obolibrary.org/obo/UBERON_0002113"))
	assert.Equal(t, "<http://x>", Term("<http://x>"))
}

func TestValues(t *testing.T) {
	rows := [][]string{{"rdfs:subClassOf"}, {"BFO:0000050"}}
	assert.Equal(t, "( rdfs:subClassOf ) ( BFO:0000050 )", Rows(rows))
	assert.Equal(t, "VALUES (?p) {\n  ( rdfs:subClassOf ) ( BFO:0000050 )\n}", Values([]string{"p"}, rows))
	assert.Equal(t, "<a>", IRI("a"))
}
