package referencing

import (
	"fmt"
	"io"
	"net/http"
	gourl "net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// SchemeNotSupportedError is returned by SchemeRetrieve when a URI's scheme
// has no registered transport.
type SchemeNotSupportedError struct {
	Scheme string
}

func (e *SchemeNotSupportedError) Error() string {
	return fmt.Sprintf("referencing: no retrieve transport registered for scheme %q", e.Scheme)
}

// fetcher reads the raw bytes a URI names; it never decodes JSON.
type fetcher func(uri string) ([]byte, error)

// SchemeRetrieve dispatches a Retrieve call to one of several transports by
// URI scheme, decoding whichever transport handles it with table via
// TextRetriever. A bare filesystem path (no scheme) is dispatched to the
// "" entry, matching the convention the file transport itself registers.
func SchemeRetrieve(table []Specification, transports map[string]fetcher) Retrieve {
	fetch := func(uri string) ([]byte, error) {
		u, err := gourl.Parse(uri)
		if err != nil {
			return nil, err
		}
		fn, ok := transports[u.Scheme]
		if !ok {
			return nil, &SchemeNotSupportedError{Scheme: u.Scheme}
		}
		return fn(uri)
	}
	return TextRetriever(table, fetch)
}

// HTTPRetrieve builds a Retrieve that fetches http(s) URIs over the
// network using the given client (http.DefaultClient if nil).
func HTTPRetrieve(table []Specification, client *http.Client) Retrieve {
	if client == nil {
		client = http.DefaultClient
	}
	return SchemeRetrieve(table, map[string]fetcher{
		"http":  httpFetch(client),
		"https": httpFetch(client),
	})
}

func httpFetch(client *http.Client) fetcher {
	return func(uri string) ([]byte, error) {
		resp, err := client.Get(uri)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%s returned status code %d", uri, resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	}
}

// FileRetrieve builds a Retrieve that reads "file://" URIs and bare
// filesystem paths from local disk.
func FileRetrieve(table []Specification) Retrieve {
	return SchemeRetrieve(table, map[string]fetcher{
		"":     fileFetch,
		"file": fileURLFetch,
	})
}

func fileFetch(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func fileURLFetch(uri string) ([]byte, error) {
	path := strings.TrimPrefix(uri, "file://")
	if runtime.GOOS == "windows" {
		path = strings.TrimPrefix(path, "/")
		path = filepath.FromSlash(path)
	}
	return os.ReadFile(path)
}
