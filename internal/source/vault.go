package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/muesli/reflow/truncate"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

const summaryWidth = 160

var frontMatterRe = regexp.MustCompile(`(?ms)^---\s*\n(.*?)\n---\s*\n?`)

// VaultSource lists the markdown notes of a directory tree, newest first.
// Every first page rescans the tree; later pages read the same snapshot so
// a listing stays consistent while the user scrolls.
type VaultSource struct {
	dir string

	mu       sync.Mutex
	snapshot []Item
}

func NewVaultSource(dir string) (*VaultSource, error) {
	normalized := normalizePath(dir)
	if normalized == "" {
		return nil, errors.New("vault directory cannot be empty")
	}
	info, err := os.Stat(normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to open vault: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vault %q is not a directory", normalized)
	}
	return &VaultSource{dir: normalized}, nil
}

// Dir returns the normalized vault root.
func (v *VaultSource) Dir() string { return v.dir }

func (v *VaultSource) Page(ctx context.Context, cursor string, limit int) (Page, error) {
	offset, err := parseCursor(cursor)
	if err != nil {
		return Page{}, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if cursor == "" || v.snapshot == nil {
		items, err := v.scan(ctx)
		if err != nil {
			return Page{}, err
		}
		v.snapshot = items
	}
	return slicePage(v.snapshot, offset, limit), nil
}

// Detail returns the note body without its front matter.
func (v *VaultSource) Detail(ctx context.Context, id string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path, err := v.resolve(id)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return "", fmt.Errorf("error reading file: %w", err)
	}
	_, body := splitFrontMatter(data)
	return string(body), nil
}

func (v *VaultSource) resolve(id string) (string, error) {
	rel := filepath.FromSlash(id)
	if id == "" || filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	path := filepath.Join(v.dir, rel)
	back, err := vaultRelative(v.dir, path)
	if err != nil || back == "." || strings.HasPrefix(back, "..") {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return path, nil
}

func (v *VaultSource) scan(ctx context.Context) ([]Item, error) {
	var items []Item
	err := filepath.WalkDir(v.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrPermission) {
				return filepath.SkipDir
			}
			return fmt.Errorf("error walking the path %q: %w", path, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != v.dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}

		item, err := v.readItem(path, d)
		if err != nil {
			return err
		}
		items = append(items, item)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].Updated.Equal(items[j].Updated) {
			return items[i].Updated.After(items[j].Updated)
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}

func (v *VaultSource) readItem(path string, d fs.DirEntry) (Item, error) {
	info, err := d.Info()
	if err != nil {
		return Item{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Item{}, fmt.Errorf("error reading file: %w", err)
	}
	rel, err := vaultRelative(v.dir, path)
	if err != nil {
		return Item{}, err
	}

	fm, body := splitFrontMatter(data)
	meta := parseFrontMatter(fm)
	heading, summary := outline(body)

	title := meta["title"]
	if len(title) == 0 || strings.TrimSpace(title[0]) == "" {
		title = []string{heading}
	}
	if strings.TrimSpace(title[0]) == "" {
		title = []string{strings.TrimSuffix(filepath.Base(rel), filepath.Ext(rel))}
	}

	return Item{
		ID:      rel,
		Title:   strings.TrimSpace(title[0]),
		Summary: truncate.StringWithTail(summary, summaryWidth, "…"),
		Tags:    meta["tags"],
		Updated: info.ModTime(),
	}, nil
}

func splitFrontMatter(data []byte) ([]byte, []byte) {
	loc := frontMatterRe.FindSubmatchIndex(data)
	if len(loc) < 4 || loc[0] != 0 {
		return nil, data
	}
	return data[loc[2]:loc[3]], data[loc[1]:]
}

// parseFrontMatter flattens the top-level keys of a YAML mapping. Broken
// front matter is treated as absent.
func parseFrontMatter(fm []byte) map[string][]string {
	result := make(map[string][]string)
	if len(fm) == 0 {
		return result
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(fm, &doc); err != nil {
		return result
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return result
	}
	mapping := doc.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return result
	}

	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key, value := mapping.Content[i], mapping.Content[i+1]
		switch value.Kind {
		case yaml.SequenceNode:
			vals := make([]string, 0, len(value.Content))
			for _, child := range value.Content {
				vals = append(vals, child.Value)
			}
			result[key.Value] = vals
		case yaml.ScalarNode:
			result[key.Value] = []string{value.Value}
		}
	}
	return result
}

// outline returns the first heading and the first paragraph of a markdown
// body.
func outline(body []byte) (heading, summary string) {
	doc := goldmark.DefaultParser().Parse(text.NewReader(body))

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := n.(type) {
		case *ast.Heading:
			if heading == "" {
				heading = strings.TrimSpace(string(n.Text(body)))
			}
			return ast.WalkSkipChildren, nil
		case *ast.Paragraph:
			if summary == "" {
				var raw strings.Builder
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					raw.Write(seg.Value(body))
					raw.WriteByte(' ')
				}
				summary = strings.Join(strings.Fields(raw.String()), " ")
			}
			return ast.WalkSkipChildren, nil
		}
		if heading != "" && summary != "" {
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return heading, summary
}

// normalizePath converts Windows-style separators to the current platform's
// separator and cleans the result.
func normalizePath(p string) string {
	if p == "" {
		return ""
	}
	replaced := strings.ReplaceAll(p, "\\", "/")
	return filepath.Clean(filepath.FromSlash(replaced))
}

// vaultRelative returns target relative to the vault with forward slashes.
func vaultRelative(vaultDir, target string) (string, error) {
	rel, err := filepath.Rel(normalizePath(vaultDir), normalizePath(target))
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}
