package assistant

import (
	"regexp"
	"strings"
)

// CreateIntent is a file-creation request recognized directly from the chat
// text, bypassing the model.
type CreateIntent struct {
	Filename    string
	ContentDesc string
}

// The four templates are tried in fixed priority order; the first match
// wins, there is no scoring between them. Requests are lowercased before
// matching, as are the extracted groups.
var (
	// "write/create/save/make <content> to/as/in/into [a file called] <name.ext>"
	contentThenFilename = regexp.MustCompile(
		`(?:write|create|save|make)\s+(.+?)\s+(?:to\s+|as\s+|in\s+|into\s+)(?:a\s+)?(?:file\s+)?(?:called\s+|named\s+)?["']?([^"'\s]+\.\w{2,4})["']?`)

	// "create/make [a] [file] [called/named] <name> with/containing <content>".
	// The name may lack an extension only when a file keyword makes the
	// intent unambiguous; the extension is inferred later.
	filenameThenContent = regexp.MustCompile(
		`(?:create|make)\s+(?:a\s+)?((?:file\s+)?(?:called\s+|named\s+)?)["']?([^"'\s]+)["']?\s+(?:with|containing|that\s+contains)\s+(.+)`)

	// "<name.ext> with/containing <content>"
	bareFilenameContent = regexp.MustCompile(
		`["']?([^"'\s]+\.\w{2,4})["']?\s+(?:with|containing|that\s+contains)\s+(.+)`)

	// "write <content> to <name.ext>"
	writeContentTo = regexp.MustCompile(
		`write\s+(.+?)\s+to\s+["']?([^"'\s]+\.\w{2,4})["']?`)

	deletePattern = regexp.MustCompile(
		`(?:delete|remove)\s+(?:the\s+)?(?:files?\s+)?(?:named\s+)?(.+)`)

	hasExtension = regexp.MustCompile(`\.\w{2,4}$`)
)

// MatchCreateIntent extracts a (filename, content description) pair from a
// free-text request, or returns nil when no template applies.
func MatchCreateIntent(request string) *CreateIntent {
	req := strings.ToLower(request)

	if m := contentThenFilename.FindStringSubmatch(req); m != nil {
		return &CreateIntent{Filename: strings.TrimSpace(m[2]), ContentDesc: strings.TrimSpace(m[1])}
	}

	if m := filenameThenContent.FindStringSubmatch(req); m != nil {
		keyword := strings.TrimSpace(m[1])
		filename := strings.TrimSpace(m[2])
		if hasExtension.MatchString(filename) || keyword != "" {
			return &CreateIntent{Filename: filename, ContentDesc: strings.TrimSpace(m[3])}
		}
	}

	if m := bareFilenameContent.FindStringSubmatch(req); m != nil {
		return &CreateIntent{Filename: strings.TrimSpace(m[1]), ContentDesc: strings.TrimSpace(m[2])}
	}

	if m := writeContentTo.FindStringSubmatch(req); m != nil {
		return &CreateIntent{Filename: strings.TrimSpace(m[2]), ContentDesc: strings.TrimSpace(m[1])}
	}

	return nil
}

// MatchDeleteIntent returns the items a delete request names, or nil.
// "test files" fans out to the pair of canned test filenames.
func MatchDeleteIntent(request string) []string {
	m := deletePattern.FindStringSubmatch(strings.ToLower(request))
	if m == nil {
		return nil
	}
	target := strings.TrimSpace(m[1])
	if target == "" {
		return nil
	}
	if strings.Contains(target, "test files") || strings.Contains(target, "test1.txt and test2.txt") {
		return []string{"test1.txt", "test2.txt"}
	}
	return []string{target}
}

// NormalizeFilename infers an extension from content keywords when the
// extracted name has none.
func NormalizeFilename(filename, contentDesc string) string {
	if strings.Contains(filename, ".") {
		return filename
	}
	desc := strings.ToLower(contentDesc)
	switch {
	case strings.Contains(desc, "python") || strings.Contains(desc, "import") || strings.Contains(desc, "def "):
		return filename + ".py"
	case strings.Contains(desc, "javascript") || strings.Contains(desc, "function") || strings.Contains(desc, "console.log"):
		return filename + ".js"
	case strings.Contains(desc, "<html") || strings.Contains(desc, "html"):
		return filename + ".html"
	case strings.Contains(desc, "css") || strings.Contains(desc, "style"):
		return filename + ".css"
	default:
		return filename + ".txt"
	}
}

var literalContentPhrases = map[string]bool{
	"hello world":  true,
	"test content": true,
	"sample text":  true,
	"example":      true,
	"demo":         true,
}

// IsLiteralContent reports whether the description should be written to the
// file verbatim instead of being expanded by the model.
func IsLiteralContent(desc string) bool {
	return len(desc) < 50 && literalContentPhrases[strings.ToLower(desc)]
}
