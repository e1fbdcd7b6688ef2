package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dmitrijs2005/gophstore/internal/client/config"
	"github.com/dmitrijs2005/gophstore/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runRoot(t *testing.T, args ...string) (*config.Config, string, error) {
	t.Helper()

	h := newHarness(t, "")
	var got *config.Config
	var out bytes.Buffer

	root := newRootCommand(strings.NewReader(""), &out, func(ctx context.Context, c *config.Config) (*App, error) {
		got = c
		app := newApp(c, h.store, h.tr, h.repos.Library, strings.NewReader(""), &out, logging.Nop{})
		return app, nil
	})
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return got, out.String(), err
}

func TestRoot_PingUsesFlags(t *testing.T) {
	c, out, err := runRoot(t, "ping", "-a", "store.example:443", "--retries", "5")
	require.NoError(t, err)

	assert.Equal(t, "store.example:443", c.ServerEndpointAddr)
	assert.Equal(t, 5, c.RetryAttempts)
	assert.Contains(t, out, "store.example:443 is up")
}

func TestRoot_ConfigFileUnderFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server_endpoint_addr: file:1\ndownload_dir: /tmp/books\n"), 0o600))

	c, _, err := runRoot(t, "ping", "-c", path, "-o", "/srv/books")
	require.NoError(t, err)

	assert.Equal(t, "file:1", c.ServerEndpointAddr)
	assert.Equal(t, "/srv/books", c.DownloadDir, "flag wins over file")
}

func TestRoot_TokenFromEnv(t *testing.T) {
	t.Setenv(config.TokenEnv, "env-token")

	c, _, err := runRoot(t, "ping")
	require.NoError(t, err)
	assert.Equal(t, "env-token", c.AccessToken)
}

func TestRoot_BuyNeedsContentID(t *testing.T) {
	_, _, err := runRoot(t, "buy")
	assert.Error(t, err)
}

func TestRoot_InvalidConfigStopsBeforeOpen(t *testing.T) {
	c, _, err := runRoot(t, "ping", "--retries", "0")
	require.Error(t, err)
	assert.Nil(t, c, "app not opened")
}
