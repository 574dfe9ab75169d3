package corpus

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/KBNLresearch/frame-generator/types"
)

const (
	RegexDir = "regex"
	DocsDir  = "docs"
	StopDir  = "stop"
)

var (
	RegexExtensions = []string{".txt", ".tsv", ".csv"}
	StopExtensions  = []string{".txt"}
	DocExtensions   = []string{".txt", ".xml", ".json"}

	textExtensions = []string{".txt", ".xml"}
	jsonExtensions = []string{".json"}
)

// InputDirs checks the regex, docs and stop subdirectories of root.
func InputDirs(root string) (regexDir string, docsDir string, stopDir string, err error) {
	regexDir = filepath.Join(root, RegexDir)
	docsDir = filepath.Join(root, DocsDir)
	stopDir = filepath.Join(root, StopDir)
	for _, dir := range []string{regexDir, docsDir, stopDir} {
		info, statErr := os.Stat(dir)
		if statErr != nil {
			return "", "", "", fmt.Errorf("%w: input directory %s: %v", types.ErrInvalidConfig, dir, statErr)
		}
		if !info.IsDir() {
			return "", "", "", fmt.Errorf("%w: %s is not a directory", types.ErrInvalidConfig, dir)
		}
	}
	return regexDir, docsDir, stopDir, nil
}

// ListFiles returns the regular files in dir with one of the extensions, in lexical order.
func ListFiles(dir string, extensions []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !HasExtension(entry.Name(), extensions) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// HasExtension reports whether name ends in one of extensions, ignoring case.
func HasExtension(name string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range extensions {
		if ext == e {
			return true
		}
	}
	return false
}

func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	text, err := Decode(data, DefaultDecodings)
	if err != nil {
		return "", fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return text, nil
}

// LoadRules reads the regex files of dir. Rules keep file order, then line order.
func LoadRules(dir string) ([]types.RegexRule, error) {
	files, err := ListFiles(dir, RegexExtensions)
	if err != nil {
		return nil, err
	}
	var rules []types.RegexRule
	for _, path := range files {
		text, err := readText(path)
		if err != nil {
			return nil, err
		}
		fileRules, err := ParseRules(text, filepath.Base(path))
		if err != nil {
			return nil, err
		}
		rules = append(rules, fileRules...)
	}
	return rules, nil
}

// ParseRules reads one pattern<TAB>replacement rule per line. Lines without exactly two fields, or
// with an empty field, are ignored.
func ParseRules(text string, source string) ([]types.RegexRule, error) {
	var rules []types.RegexRule
	for i, line := range splitLines(text) {
		fields := strings.Split(line, "\t")
		if len(fields) != 2 {
			continue
		}
		pattern := strings.TrimSpace(fields[0])
		replacement := strings.TrimSpace(fields[1])
		if pattern == "" || replacement == "" {
			continue
		}
		rule, err := types.NewRegexRule(pattern, replacement, fmt.Sprintf("%s:%d", source, i+1))
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}

// LoadStopWords reads whitespace separated stop words from the .txt files of dir.
func LoadStopWords(dir string) (types.StopWordSet, error) {
	files, err := ListFiles(dir, StopExtensions)
	if err != nil {
		return nil, err
	}
	var words []string
	for _, path := range files {
		text, err := readText(path)
		if err != nil {
			return nil, err
		}
		words = append(words, strings.Fields(text)...)
	}
	return types.NewStopWordSet(words...), nil
}

// StripXML returns the character data of an XML document. Malformed XML is an error.
func StripXML(text string) (string, error) {
	decoder := xml.NewDecoder(strings.NewReader(text))
	decoder.Strict = true
	decoder.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}
	var sb strings.Builder
	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			return sb.String(), nil
		}
		if err != nil {
			return "", err
		}
		if data, ok := token.(xml.CharData); ok {
			sb.Write(data)
			sb.WriteByte(' ')
		}
	}
}

// DocsFile is the docs.json format: one list of token keys per document.
type DocsFile struct {
	Docs [][]string `json:"docs"`
}

// EncodeDocs writes the corpus as docs.json.
func EncodeDocs(w io.Writer, corpus *types.Corpus) error {
	file := DocsFile{Docs: make([][]string, 0, corpus.Len())}
	for _, doc := range corpus.Documents() {
		file.Docs = append(file.Docs, doc.Keys())
	}
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	return encoder.Encode(file)
}

// DecodeDocs reads pre-tokenized documents. Empty documents are skipped.
func DecodeDocs(data []byte, source string) ([]types.Document, error) {
	var file DocsFile
	decoder := json.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	var docs []types.Document
	for _, keys := range file.Docs {
		if len(keys) == 0 {
			continue
		}
		docs = append(docs, types.Document{Source: source, Tokens: types.ParseTokens(keys)})
	}
	return docs, nil
}
