package imports

import (
	"context"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/hql-lang/hqlc/internal/herr"
	"github.com/hql-lang/hqlc/internal/token"
)

// zeroNode stands in for a source position when a remote-specifier
// error has no local syntax node to point at.
func zeroNode() token.Node { return token.NewNode(token.Pos{}, token.Pos{}) }

// Fetcher loads the raw bytes of a remote or native module specifier.
// The production implementation dispatches to the host's dynamic
// module loader (an external collaborator per spec §6); this interface
// exists so the resolver itself stays a pure, test-driven unit.
type Fetcher interface {
	Fetch(ctx context.Context, specifier string) ([]byte, error)
}

// npmMirrors lists the fallback CDN hosts spec §4.6 tries, in order,
// after the original npm: specifier, "first success wins".
var npmMirrors = []string{"esm.sh/", "cdn.skypack.dev/"}

// parseNpmSpecifier splits "npm:pkg@version" into package and version,
// validating version with x/mod/semver the way the teacher validates
// its own SemVer AST field (ast/ast.go).
func parseNpmSpecifier(spec string) (pkg, version string, err error) {
	body := strings.TrimPrefix(spec, "npm:")
	at := strings.LastIndex(body, "@")
	if at <= 0 {
		return body, "", nil
	}
	pkg = body[:at]
	version = body[at+1:]

	v := version
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return "", "", herr.New(herr.FamilyImport, herr.KindUnsupportedType, zeroNode(),
			"invalid semantic version in import specifier '"+spec+"'")
	}
	return pkg, version, nil
}

// FetchRemote resolves specifier to its module bytes. For npm:
// specifiers it tries the original registry first, then each mirror
// in npmMirrors, returning the first success; every other remote
// prefix (jsr:, node:, http(s)://) is fetched directly once, since
// spec §4.6 only specifies mirror fallback for npm:.
func FetchRemote(ctx context.Context, f Fetcher, specifier string) ([]byte, error) {
	if !strings.HasPrefix(specifier, "npm:") {
		data, err := f.Fetch(ctx, specifier)
		if err != nil {
			return nil, herr.New(herr.FamilyImport, herr.KindRemoteUnreachable, zeroNode(),
				"could not load remote module '"+specifier+"'").WithCause(err)
		}
		return data, nil
	}

	pkg, version, err := parseNpmSpecifier(specifier)
	if err != nil {
		return nil, err
	}

	attempts := []string{specifier}
	suffix := pkg
	if version != "" {
		suffix = pkg + "@" + version
	}
	for _, mirror := range npmMirrors {
		attempts = append(attempts, mirror+suffix)
	}

	var lastErr error
	for _, attempt := range attempts {
		data, err := f.Fetch(ctx, attempt)
		if err == nil {
			return data, nil
		}
		lastErr = err
	}

	return nil, herr.New(herr.FamilyImport, herr.KindRemoteUnreachable, zeroNode(),
		"could not load '"+specifier+"' from the original registry or any mirror").WithCause(lastErr)
}
