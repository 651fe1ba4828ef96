// Package uri parses, normalizes, joins and splits the URIs used to key
// resources in a registry. It implements RFC 3986 reference resolution and
// classifies fragments the way JSON Schema's referencing model needs:
// empty, JSON Pointer, plain-name anchor, or invalid.
package uri

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// FragmentKind classifies the fragment part of a Uri.
type FragmentKind int

const (
	// None means the original string had no "#" at all.
	None FragmentKind = iota
	// Empty means the fragment is present but empty (a bare trailing "#");
	// "#/" is not Empty, see JSONPointer below.
	Empty
	// JSONPointer means the fragment begins with "/".
	JSONPointer
	// PlainName means the fragment is non-empty and contains no "/".
	PlainName
	// Invalid means the fragment is non-empty, does not start with "/",
	// but contains "/" somewhere (e.g. "#foo/bar").
	Invalid
)

// Uri is a normalized absolute-part/fragment pair. The zero value is the
// empty URI with no fragment, used as the anonymous root base.
type Uri struct {
	// Absolute is everything before "#", normalized as normalizeAbsolute
	// describes.
	Absolute string
	// Fragment is everything after "#", excluding the "#" itself.
	Fragment string
	// HasFragment distinguishes "no fragment" from "empty fragment": a
	// string ending in a bare "#" parses with HasFragment true and
	// Fragment "".
	HasFragment bool
}

// String reassembles the absolute part and fragment into a URI string.
func (u Uri) String() string {
	if !u.HasFragment {
		return u.Absolute
	}
	return u.Absolute + "#" + u.Fragment
}

// IsAbsolute reports whether the absolute part has a scheme, i.e. this Uri
// can stand on its own without being joined against a base.
func (u Uri) IsAbsolute() bool {
	parsed, err := url.Parse(u.Absolute)
	return err == nil && parsed.IsAbs()
}

// WithEmptyFragmentStripped returns u with its fragment removed, if the
// fragment is present and empty. "http://x" and "http://x#" must denote the
// same registry key.
func (u Uri) WithEmptyFragmentStripped() Uri {
	if u.HasFragment && u.Fragment == "" {
		return Uri{Absolute: u.Absolute}
	}
	return u
}

// FragmentKind classifies u's fragment.
func (u Uri) FragmentKind() FragmentKind {
	if !u.HasFragment {
		return None
	}
	if u.Fragment == "" {
		return Empty
	}
	if strings.HasPrefix(u.Fragment, "/") {
		return JSONPointer
	}
	if strings.Contains(u.Fragment, "/") {
		return Invalid
	}
	return PlainName
}

// InvalidFragmentSuggestion returns a human-readable suggestion for a
// malformed fragment, or "" if u's fragment is not Invalid.
func (u Uri) InvalidFragmentSuggestion() string {
	if u.FragmentKind() != Invalid {
		return ""
	}
	if u.Fragment == "/" {
		return "did you mean an empty fragment (the document root)?"
	}
	return fmt.Sprintf("did you mean %q?", "#/"+u.Fragment)
}

// Parse performs a syntactic parse of s into a Uri; it never fetches
// anything over the network.
func Parse(s string) (Uri, error) {
	absolute, fragment, hasFragment := split(s)
	absolute, err := normalizeAbsolute(absolute)
	if err != nil {
		return Uri{}, fmt.Errorf("uri: parse %q: %w", s, err)
	}
	return Uri{Absolute: absolute, Fragment: fragment, HasFragment: hasFragment}, nil
}

// split divides a raw URI string into its absolute part and fragment,
// reporting whether a "#" was present at all (as opposed to an empty
// fragment).
func split(s string) (absolute, fragment string, hasFragment bool) {
	i := strings.IndexByte(s, '#')
	if i == -1 {
		return s, "", false
	}
	return s[:i], s[i+1:], true
}

// Join resolves ref against base per RFC 3986 §5.3, returning the joined
// Uri. A relative reference with an empty fragment preserves base's
// path/authority and yields an empty-fragment Uri (not a no-fragment one),
// matching spec.md's join semantics.
func Join(base Uri, ref string) (Uri, error) {
	refAbsolute, refFragment, refHasFragment := split(ref)

	baseURL, err := url.Parse(base.Absolute)
	if err != nil {
		return Uri{}, fmt.Errorf("uri: join: invalid base %q: %w", base.Absolute, err)
	}
	refURL, err := url.Parse(refAbsolute)
	if err != nil {
		return Uri{}, fmt.Errorf("uri: join: invalid reference %q: %w", ref, err)
	}

	resolved := baseURL.ResolveReference(refURL)
	absolute, err := normalizeAbsolute(resolved.String())
	if err != nil {
		return Uri{}, err
	}

	if !refHasFragment {
		return Uri{Absolute: absolute}, nil
	}
	return Uri{Absolute: absolute, Fragment: refFragment, HasFragment: true}, nil
}

// normalizeAbsolute lowercases the scheme and the host of an absolute URI,
// folding an internationalized hostname to its ASCII (punycode) form for
// any scheme that has a host, so that differently-cased or -encoded forms
// of the same host compare equal as registry keys. Userinfo, path, query
// and percent-encoding are left as net/url re-serializes them: escapes
// that differ only in hex case, or that escape an unreserved character,
// are not unified.
func normalizeAbsolute(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	parsed, err := url.Parse(s)
	if err != nil {
		return "", err
	}
	if !parsed.IsAbs() {
		// Relative references (plain filenames, relative paths used as
		// registry keys by callers who never join them against a network
		// base) are returned unchanged.
		return s, nil
	}
	parsed.Scheme = strings.ToLower(parsed.Scheme)
	if host := parsed.Host; host != "" {
		normalizedHost, err := normalizeHost(host)
		if err != nil {
			// A host that idna rejects (e.g. an opaque non-DNS authority
			// for a custom scheme) is kept verbatim, lowercased.
			normalizedHost = strings.ToLower(host)
		}
		parsed.Host = normalizedHost
	}
	return parsed.String(), nil
}

// normalizeHost lowercases and punycode-normalizes a URL host, preserving
// any ":port" suffix.
func normalizeHost(host string) (string, error) {
	hostname, port, hasPort := strings.Cut(host, ":")
	ascii, err := idna.Lookup.ToASCII(hostname)
	if err != nil {
		return "", err
	}
	if hasPort {
		return ascii + ":" + port, nil
	}
	return ascii, nil
}
