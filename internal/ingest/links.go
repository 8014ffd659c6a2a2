package ingest

import (
	"regexp"
	"strconv"
	"strings"
)

// docsRsCrateNameRe extracts the crate name from a docs.rs html_root_url,
// e.g. "https://docs.rs/tracing-core/0.1.36/..." -> "tracing-core".
var docsRsCrateNameRe = regexp.MustCompile(`^https?://docs\.rs/([^/]+)/`)

func extractDocsRsCrateName(rootURL string) string {
	m := docsRsCrateNameRe.FindStringSubmatch(rootURL)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// docsRsLink builds the external docs.rs URL for an item, the "documentation
// link" field required by spec §3's IndexedItem. kind selects the rustdoc
// HTML filename prefix (fn., method., struct., trait., etc.; see
// docsRsFilePrefix, which falls back to fn. for unlisted kinds); path is the
// item's full breadcrumb including its own name as the last element.
func docsRsLink(crateName, version string, path []string, kind string) string {
	if len(path) == 0 {
		return ""
	}
	module := path[:len(path)-1]
	name := path[len(path)-1]
	var b strings.Builder
	b.WriteString("https://docs.rs/")
	b.WriteString(crateName)
	b.WriteString("/")
	b.WriteString(version)
	b.WriteString("/")
	b.WriteString(crateName)
	for _, seg := range module {
		b.WriteString("/")
		b.WriteString(seg)
	}
	if kind == "module" {
		b.WriteString("/")
		b.WriteString(name)
		b.WriteString("/index.html")
		return b.String()
	}
	b.WriteString("/")
	b.WriteString(docsRsFilePrefix(kind))
	b.WriteString(".")
	b.WriteString(name)
	b.WriteString(".html")
	return b.String()
}

func docsRsFilePrefix(kind string) string {
	switch kind {
	case "function":
		return "fn"
	case "method", "tymethod":
		return "method"
	case "struct":
		return "struct"
	case "enum":
		return "enum"
	case "trait":
		return "trait"
	case "type_alias", "typedef":
		return "type"
	case "macro":
		return "macro"
	case "constant":
		return "constant"
	case "static":
		return "static"
	case "union":
		return "union"
	case "module":
		return "" // modules link to a directory index, not a file.kind.name.html page
	default:
		return "fn"
	}
}

// resolveDocLinks turns an item's rustdoc-resolved intra-doc link map into
// the markdown.RewriteLinks-ready form: link text -> absolute docs.rs URL.
// Only links that resolve within the same crate are resolvable here, since
// an external crate's own version isn't known without ingesting it; links
// into an external crate are left out rather than guessed at.
func resolveDocLinks(links map[string]int, crate *RustdocCrate, crateName, version string) map[string]string {
	if len(links) == 0 {
		return nil
	}
	out := make(map[string]string, len(links))
	for text, targetID := range links {
		summary, ok := crate.Paths[strconv.Itoa(targetID)]
		if !ok || summary.CrateID != 0 {
			continue // external crate target, or unresolvable id
		}
		out[text] = docsRsLink(crateName, version, summary.Path, summary.Kind)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

