// Package docscan extracts method documentation from Go source. Go keeps
// no doc comments at run time, so hook declarations written in source are
// read here and handed to hook.Describe through hook.WithDocs.
package docscan

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"sort"
	"strings"

	"github.com/soyeahso/hookmount/internal/hook"
)

// Method is a documented method declaration.
type Method struct {
	Type string // receiver type name, without pointer
	Name string
	Doc  string // raw comment text, markers included
	Pos  token.Position
}

// Declared is a method carrying a hook declaration.
type Declared struct {
	Method
	hook.Declaration
}

// ParseFile scans the Go source file at path.
func ParseFile(path string) ([]Method, error) {
	return parse(path, nil)
}

// ParseSource scans src; filename is used in positions.
func ParseSource(filename string, src []byte) ([]Method, error) {
	return parse(filename, src)
}

func parse(filename string, src any) ([]Method, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, filename, src, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filename, err)
	}

	var out []Method
	for _, decl := range f.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Recv == nil || len(fn.Recv.List) == 0 || fn.Doc == nil {
			continue
		}
		typ := receiverType(fn.Recv.List[0].Type)
		if typ == "" {
			continue
		}
		out = append(out, Method{
			Type: typ,
			Name: fn.Name.Name,
			Doc:  rawText(fn.Doc),
			Pos:  fset.Position(fn.Pos()),
		})
	}
	return out, nil
}

// receiverType unwraps *T, T[P] and *T[P] to T.
func receiverType(expr ast.Expr) string {
	for {
		switch e := expr.(type) {
		case *ast.StarExpr:
			expr = e.X
		case *ast.IndexExpr:
			expr = e.X
		case *ast.IndexListExpr:
			expr = e.X
		case *ast.Ident:
			return e.Name
		default:
			return ""
		}
	}
}

// rawText joins the comments of g with their markers intact, which is the
// form hook.ParseDeclaration expects.
func rawText(g *ast.CommentGroup) string {
	lines := make([]string, len(g.List))
	for i, c := range g.List {
		lines[i] = c.Text
	}
	return strings.Join(lines, "\n")
}

// Docs returns the documentation of typeName's methods keyed by method name.
func Docs(methods []Method, typeName string) map[string]string {
	docs := make(map[string]string)
	for _, m := range methods {
		if m.Type == typeName {
			docs[m.Name] = m.Doc
		}
	}
	return docs
}

// Types returns the receiver types that have documented methods, sorted.
func Types(methods []Method) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range methods {
		if !seen[m.Type] {
			seen[m.Type] = true
			out = append(out, m.Type)
		}
	}
	sort.Strings(out)
	return out
}

// Declarations returns the exported methods that carry a hook declaration,
// in source order.
func Declarations(methods []Method, defaultPriority int) []Declared {
	var out []Declared
	for _, m := range methods {
		if !token.IsExported(m.Name) {
			continue
		}
		decl, ok := hook.ParseDeclaration(m.Doc, defaultPriority)
		if !ok {
			continue
		}
		out = append(out, Declared{Method: m, Declaration: decl})
	}
	return out
}
