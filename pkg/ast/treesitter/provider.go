// Package treesitter implements ast.Provider for PHP with tree-sitter.
package treesitter

import (
	"fmt"
	"os"

	"github.com/panbanda/mondrian/pkg/ast"
	"github.com/panbanda/mondrian/pkg/parser"
)

// Provider implements ast.Provider using tree-sitter. A Provider wraps one
// tree-sitter parser and must not be shared between goroutines.
type Provider struct {
	parser *parser.Parser
}

// New creates a new tree-sitter based provider.
func New() *Provider {
	return &Provider{
		parser: parser.New(),
	}
}

// Parse reads the file at path and returns its declaration tree.
func (p *Provider) Parse(path string) (*ast.File, error) {
	if parser.DetectLanguage(path) != parser.LangPHP {
		return nil, fmt.Errorf("%w: %s", ast.ErrUnsupportedLanguage, path)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return p.ParseSource(path, src)
}

// ParseSource parses src as the content of path. Syntax errors are not fatal:
// tree-sitter recovers around them and the file is marked Partial.
func (p *Provider) ParseSource(path string, src []byte) (*ast.File, error) {
	if parser.DetectLanguage(path) != parser.LangPHP {
		return nil, fmt.Errorf("%w: %s", ast.ErrUnsupportedLanguage, path)
	}
	result, err := p.parser.Parse(src, parser.LangPHP, path)
	if err != nil {
		return nil, err
	}
	defer result.Tree.Close()

	return extract(result), nil
}

// Close releases parser resources.
func (p *Provider) Close() {
	p.parser.Close()
}
