package oui

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netsweep/internal/logger"
	"netsweep/internal/models"
	"netsweep/internal/tools"
)

func TestPrefix(t *testing.T) {
	for in, want := range map[string]string{
		"00:50:56:aa:bb:cc": "005056",
		"00-0c-29-01-02-03": "000C29",
		"b827.eb12.3456":    "B827EB",
		"DCA632000000":      "DCA632",
	} {
		got, ok := Prefix(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	for _, bad := range []string{"", "00:50", "zz:zz:zz:00:00:00"} {
		_, ok := Prefix(bad)
		assert.False(t, ok, bad)
	}
}

func TestParseOUIFileBothFormats(t *testing.T) {
	ieee := "OUI/MA-L\t\t\tOrganization\n" +
		"00-50-56   (hex)\t\tVMware, Inc.\n" +
		"005056     (base 16)\t\tVMware, Inc.\n" +
		"\t\t\t\t3401 Hillview Avenue\n"
	nmap := "# comment\n001B21 Intel Corporate\n005056 Something Else\n"

	table := map[string]string{}
	require.NoError(t, parseOUIFile(strings.NewReader(ieee), table))
	require.NoError(t, parseOUIFile(strings.NewReader(nmap), table))
	assert.Equal(t, "VMware, Inc.", table["005056"])
	assert.Equal(t, "Intel Corporate", table["001B21"])
	assert.Len(t, table, 2)
}

func TestFilesSkipsMissingPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nmap-mac-prefixes")
	require.NoError(t, os.WriteFile(path, []byte("A0B1C2 Acme Widgets\n"), 0o644))

	f := &Files{Paths: []string{filepath.Join(dir, "missing.txt"), path}}
	v, err := f.Vendor(context.Background(), "A0B1C2", "")
	require.NoError(t, err)
	assert.Equal(t, "Acme Widgets", v)

	_, err = f.Vendor(context.Background(), "FFFFFF", "")
	assert.Error(t, err)
}

func TestIEEETool(t *testing.T) {
	runner := tools.RunnerFunc(func(_ context.Context, name string, args ...string) (string, error) {
		assert.Equal(t, "ieee-oui", name)
		assert.Equal(t, []string{"00:1b:21"}, args)
		return "Intel Corporate\n", nil
	})
	v, err := IEEETool{Runner: runner}.Vendor(context.Background(), "001B21", "")
	require.NoError(t, err)
	assert.Equal(t, "Intel Corporate", v)

	notFound := tools.RunnerFunc(func(context.Context, string, ...string) (string, error) {
		return "OUI not found\n", nil
	})
	_, err = IEEETool{Runner: notFound}.Vendor(context.Background(), "001B21", "")
	assert.Error(t, err)
}

func TestOnlineFallsBackToMacLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/mv/"):
			http.Error(w, `{"errors":{"detail":"Not Found"}}`, http.StatusNotFound)
		case strings.HasPrefix(r.URL.Path, "/ml/"):
			_, _ = w.Write([]byte(`{"success":true,"found":true,"macPrefix":"A0B1C2","company":"Acme Widgets"}`))
		}
	}))
	defer srv.Close()

	s := Online{Client: srv.Client(), MacVendorsURL: srv.URL + "/mv/", MacLookupURL: srv.URL + "/ml/"}
	v, err := s.Vendor(context.Background(), "A0B1C2", "a0:b1:c2:00:00:01")
	require.NoError(t, err)
	assert.Equal(t, "Acme Widgets", v)
}

func TestOnlinePrefersMacVendors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("Acme Widgets Inc\n"))
	}))
	defer srv.Close()

	s := Online{Client: srv.Client(), MacVendorsURL: srv.URL + "/", MacLookupURL: srv.URL + "/"}
	v, err := s.Vendor(context.Background(), "A0B1C2", "a0:b1:c2:00:00:01")
	require.NoError(t, err)
	assert.Equal(t, "Acme Widgets Inc", v)
}

type countingSource struct {
	name  string
	out   string
	err   error
	calls int32
}

func (c *countingSource) Name() string { return c.name }

func (c *countingSource) Vendor(context.Context, string, string) (string, error) {
	atomic.AddInt32(&c.calls, 1)
	return c.out, c.err
}

func TestResolverChainAndCache(t *testing.T) {
	miss := &countingSource{name: "miss", err: errors.New("no")}
	hit := &countingSource{name: "hit", out: "Acme"}
	after := &countingSource{name: "after", out: "Other"}

	r := NewResolver([]Source{miss, hit, after}, time.Second, 8, logger.Discard())
	assert.Equal(t, "Acme", r.Lookup(context.Background(), "a0:b1:c2:00:00:01"))
	assert.Equal(t, "Acme", r.Lookup(context.Background(), "A0-B1-C2-FF-FF-FF"))
	assert.EqualValues(t, 1, atomic.LoadInt32(&hit.calls))
	assert.EqualValues(t, 0, atomic.LoadInt32(&after.calls))
}

func TestResolverUnknownDefaults(t *testing.T) {
	r := NewResolver([]Source{Static{}}, time.Second, 8, logger.Discard())
	assert.Equal(t, models.Unknown, r.Lookup(context.Background(), ""))
	assert.Equal(t, models.Unknown, r.Lookup(context.Background(), "a0:b1:c2:00:00:01"))
	assert.Equal(t, "VMware", r.Lookup(context.Background(), "00:50:56:c0:00:08"))
}
