package utils

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xlab/treeprint"
)

func containsEscapeSequence(s string) bool {
	if len(s) < 2 {
		return false
	}
	for i := 0; i < len(s)-1; i++ {
		if s[i] == '\\' && strings.ContainsRune("ntr\"\\", rune(s[i+1])) {
			return true
		}
	}
	return false
}

func UnescapeIfNeeded(s string) string {
	s = strings.TrimSpace(s)
	if containsEscapeSequence(s) {
		if !strings.HasPrefix(s, "\"") || !strings.HasSuffix(s, "\"") {
			s = fmt.Sprintf("\"%s\"", s)
		}
		unescaped, err := strconv.Unquote(s)
		if err != nil {
			log.Printf("Error unquoting string: %v; text: %s", err, s)
			return s
		}
		return unescaped
	}
	return s
}

// ExtractJSONObject returns the substring between the first '{' and the last
// '}' of s, or "" when no such span exists. Model replies wrap structured
// actions in prose, so the span is cut out before unmarshalling.
func ExtractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end <= start {
		return ""
	}
	return s[start : end+1]
}

func BuildTree(dir string, tree treeprint.Tree, skipDirs map[string]bool) (string, error) {
	if tree == nil {
		tree = treeprint.New()
		tree.SetValue(filepath.Base(dir))
	}
	if skipDirs == nil {
		skipDirs = map[string]bool{
			".git":         true,
			".github":      true,
			".idea":        true,
			".vscode":      true,
			"node_modules": true,
			"vendor":       true,
			"dist":         true,
			"build":        true,
			".cache":       true,
			".DS_Store":    true,
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			if skipDirs[entry.Name()] {
				continue
			}
			branch := tree.AddBranch(entry.Name())
			_, err = BuildTree(filepath.Join(dir, entry.Name()), branch, skipDirs)
			if err != nil {
				return "", err
			}
		} else {
			tree.AddNode(entry.Name())
		}
	}
	return tree.String(), nil
}

