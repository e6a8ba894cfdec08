package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/osintworks/trailhound/internal/investigation"
)

type fakeSource struct {
	status      investigation.Status
	discoveries []investigation.Discovery
	report      investigation.Report
	hasReport   bool
}

func (f *fakeSource) Status() investigation.Status { return f.status }

func (f *fakeSource) Discoveries() []investigation.Discovery { return f.discoveries }

func (f *fakeSource) Report() (investigation.Report, bool) { return f.report, f.hasReport }

func newTestServer(src *fakeSource) *httptest.Server {
	return httptest.NewServer(NewServer(src, 0, zap.NewNop()).Handler())
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&fakeSource{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStatusEndpoint(t *testing.T) {
	t.Parallel()

	src := &fakeSource{status: investigation.Status{
		RunID:         "run-1",
		State:         "running",
		Iteration:     3,
		FrontierDepth: 7,
		Discoveries:   2,
		StartedAt:     time.Now().UTC(),
	}}
	srv := newTestServer(src)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	var got investigation.Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Equal(t, "run-1", got.RunID)
	require.Equal(t, "running", got.State)
	require.Equal(t, 7, got.FrontierDepth)
}

func TestDiscoveriesEndpoint(t *testing.T) {
	t.Parallel()

	src := &fakeSource{discoveries: []investigation.Discovery{
		{ID: "h1", Type: investigation.TypeUsername, Summary: `username "jdoe"`},
	}}
	srv := newTestServer(src)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/discoveries")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Discoveries []investigation.Discovery `json:"discoveries"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Discoveries, 1)
	require.Equal(t, "h1", body.Discoveries[0].ID)
}

func TestReportEndpointBeforeAndAfterTermination(t *testing.T) {
	t.Parallel()

	src := &fakeSource{}
	srv := newTestServer(src)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/report")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	src.report = investigation.Report{RunID: "run-1", TotalDiscoveries: 4}
	src.hasReport = true

	resp, err = http.Get(srv.URL + "/report")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got investigation.Report
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Equal(t, 4, got.TotalDiscoveries)
}
