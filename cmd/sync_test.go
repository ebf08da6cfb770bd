package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ontosync/config"
	"ontosync/internal/models"
)

func newListingServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	files := map[string]string{
		"MDS_Onto-v1.2.0.0.jsonld":  `{"v":"1.2"}`,
		"MDS_Onto-v1.10.0.0.jsonld": `{"v":"1.10"}`,
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		if r.URL.Path == "/files/" {
			w.Write([]byte(`<html><body><a href="../">../</a>` +
				`<a href="MDS_Onto-v1.2.0.0.jsonld">MDS_Onto-v1.2.0.0.jsonld</a>` +
				`<a href="MDS_Onto-v1.10.0.0.jsonld">MDS_Onto-v1.10.0.0.jsonld</a>` +
				`</body></html>`))
			return
		}
		body, ok := files[strings.TrimPrefix(r.URL.Path, "/files/")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func testConfig(t *testing.T, server *httptest.Server) *config.Config {
	c := config.Default()
	c.SourceURL = server.URL + "/files/"
	c.Backend = config.BackendMemory
	c.StagingDir = t.TempDir()
	return c
}

// execute runs the root command with flags reset to their defaults.
func execute(t *testing.T, c *config.Config, args ...string) (string, error) {
	t.Helper()
	for _, name := range []string{"backend", "target-dir", "branch"} {
		require.NoError(t, rootCmd.PersistentFlags().Set(name, ""))
	}
	require.NoError(t, rootCmd.PersistentFlags().Set("verbose", "false"))
	require.NoError(t, syncCmd.Flags().Set("dry-run", "false"))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := Execute(c)
	return out.String(), err
}

func TestSyncCommand(t *testing.T) {
	server := newListingServer(t, nil)

	output, err := execute(t, testConfig(t, server), "sync")
	require.NoError(t, err)

	var result models.SyncResult
	require.NoError(t, json.Unmarshal([]byte(output), &result))
	assert.Equal(t, "created", result.Action)
	assert.Equal(t, "memory:local", result.Store)
	assert.Equal(t, "ontology/MDS_Onto-v1.10.0.0.jsonld", result.DestinationPath)
	assert.Equal(t, "1.10.0.0", result.Selection.Version)
	assert.False(t, result.DryRun)
}

func TestSyncCommandDryRunAndOverrides(t *testing.T) {
	server := newListingServer(t, nil)

	output, err := execute(t, testConfig(t, server), "sync", "--dry-run", "--target-dir", "releases", "--verbose")
	require.NoError(t, err)

	var result models.SyncResult
	require.NoError(t, json.Unmarshal([]byte(output), &result))
	assert.True(t, result.DryRun)
	assert.Equal(t, "releases/MDS_Onto-v1.10.0.0.jsonld", result.DestinationPath)
}

func TestSyncCommandMissingCredential(t *testing.T) {
	var hits atomic.Int32
	server := newListingServer(t, &hits)
	c := testConfig(t, server)
	c.Backend = config.BackendGitHub

	output, err := execute(t, c, "sync")
	require.Error(t, err)
	assert.Contains(t, output, `"command": "sync"`)
	assert.Contains(t, output, "GH_PAT")
	assert.Zero(t, hits.Load())
}

func TestSyncCommandBackendFlag(t *testing.T) {
	server := newListingServer(t, nil)
	c := testConfig(t, server)
	c.Backend = config.BackendGitHub

	_, err := execute(t, c, "sync", "--backend", "memory")
	require.NoError(t, err)

	_, err = execute(t, testConfig(t, server), "sync", "--backend", "ftp")
	assert.ErrorContains(t, err, `unknown store backend "ftp"`)
}

func TestLatestCommand(t *testing.T) {
	server := newListingServer(t, nil)
	c := testConfig(t, server)
	c.Backend = config.BackendGitHub

	output, err := execute(t, c, "latest")
	require.NoError(t, err)

	var selection models.Selection
	require.NoError(t, json.Unmarshal([]byte(output), &selection))
	assert.Equal(t, "MDS_Onto-v1.10.0.0.jsonld", selection.FileName)
	assert.Equal(t, server.URL+"/files/MDS_Onto-v1.10.0.0.jsonld", selection.FileURL)
	assert.Len(t, selection.Candidates, 2)
}

func TestLatestCommandSourceDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	output, err := execute(t, testConfig(t, server), "latest")
	require.Error(t, err)
	assert.Contains(t, output, `"command": "latest"`)
	assert.Contains(t, output, "directory listing is empty")
}

func TestLatestCommandInvalidSourceURL(t *testing.T) {
	var hits atomic.Int32
	server := newListingServer(t, &hits)
	c := testConfig(t, server)
	c.SourceURL = "not-a-url"

	output, err := execute(t, c, "latest")
	require.Error(t, err)
	assert.Contains(t, output, `"command": "latest"`)
	assert.Contains(t, output, "invalid source url")
	assert.Zero(t, hits.Load())
}
