package oui

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/tidwall/gjson"

	"netsweep/internal/tools"
)

// Source resolves a manufacturer name. prefix is the normalized six-digit
// OUI and mac the address as given.
type Source interface {
	Name() string
	Vendor(ctx context.Context, prefix, mac string) (string, error)
}

var errNotFound = errors.New("vendor not found")

// Static looks the prefix up in the built-in table.
type Static struct{}

func (Static) Name() string { return "static" }

func (Static) Vendor(_ context.Context, prefix, _ string) (string, error) {
	if v, ok := static[prefix]; ok {
		return v, nil
	}
	return "", errNotFound
}

// Files reads IEEE oui.txt and nmap-mac-prefixes style databases. The files
// are parsed once on first use; missing files are skipped.
type Files struct {
	Paths []string

	once  sync.Once
	table map[string]string
}

func (*Files) Name() string { return "oui-files" }

func (f *Files) Vendor(_ context.Context, prefix, _ string) (string, error) {
	f.once.Do(func() {
		f.table = make(map[string]string)
		for _, p := range f.Paths {
			fh, err := os.Open(p)
			if err != nil {
				continue
			}
			_ = parseOUIFile(fh, f.table)
			_ = fh.Close()
		}
	})
	if v, ok := f.table[prefix]; ok {
		return v, nil
	}
	return "", errNotFound
}

// parseOUIFile fills table from either format:
//
//	00-50-56   (hex)		VMware, Inc.
//	005056 VMware
//
// Entries already present are kept.
func parseOUIFile(r io.Reader, table map[string]string) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var key, name string
		if before, after, ok := strings.Cut(line, "(hex)"); ok {
			key = strings.ReplaceAll(strings.TrimSpace(before), "-", "")
			name = strings.TrimSpace(after)
		} else if before, after, ok := strings.Cut(line, "(base 16)"); ok {
			key, name = strings.TrimSpace(before), strings.TrimSpace(after)
		} else {
			fields := strings.SplitN(line, " ", 2)
			if len(fields) != 2 {
				fields = strings.SplitN(line, "\t", 2)
			}
			if len(fields) != 2 {
				continue
			}
			key, name = fields[0], strings.TrimSpace(fields[1])
		}
		prefix, ok := Prefix(key)
		if !ok || len(key) != 6 || name == "" {
			continue
		}
		if _, dup := table[prefix]; !dup {
			table[prefix] = name
		}
	}
	return sc.Err()
}

// IEEETool shells out to ieee-oui from the ieee-data package.
type IEEETool struct {
	Runner tools.Runner
}

func (IEEETool) Name() string { return "ieee-oui" }

func (s IEEETool) Vendor(ctx context.Context, prefix, _ string) (string, error) {
	out, err := s.Runner.Run(ctx, "ieee-oui", coloned(prefix))
	if err != nil {
		return "", err
	}
	lines := tools.Lines(out)
	if len(lines) == 0 || strings.Contains(strings.ToLower(out), "not found") {
		return "", errNotFound
	}
	return lines[0], nil
}

const (
	macVendorsURL = "https://api.macvendors.com/"
	macLookupURL  = "https://api.maclookup.app/v2/macs/"
)

// Online queries api.macvendors.com, then api.maclookup.app.
type Online struct {
	Client *http.Client
	// MacVendorsURL and MacLookupURL override the endpoints; the address is
	// appended to each.
	MacVendorsURL string
	MacLookupURL  string
}

func (Online) Name() string { return "online" }

func (s Online) Vendor(ctx context.Context, _ string, mac string) (string, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	base := s.MacVendorsURL
	if base == "" {
		base = macVendorsURL
	}
	body, err := get(ctx, client, base+mac)
	if err == nil {
		if v := strings.TrimSpace(string(body)); v != "" {
			return v, nil
		}
	}

	base = s.MacLookupURL
	if base == "" {
		base = macLookupURL
	}
	body, lerr := get(ctx, client, base+mac)
	if lerr != nil {
		return "", errors.CombineErrors(err, lerr)
	}
	res := gjson.ParseBytes(body)
	if company := res.Get("company").String(); res.Get("found").Bool() && company != "" {
		return company, nil
	}
	return "", errNotFound
}

func get(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "GET %s", url)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("GET %s: status %d", url, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 64<<10))
}
