package main

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	reName     = regexp.MustCompile(`--\s*name:\s*(\w+)`)
	reReadOrRW = regexp.MustCompile(`(?is)^\s*(select|update|delete|with)\b`)
	reTenant   = regexp.MustCompile(`(?i)tenant_id\s*=\s*\$[0-9]+`)
)

// scan evaluates every string constant in the package's *.sql.go files,
// following `+` concatenation and references to other constants, and
// returns "file: Query" for each unguarded statement.
func scan(dir string, allow map[string]string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.go"))
	if err != nil {
		return nil, err
	}
	fset := token.NewFileSet()
	exprs := map[string]ast.Expr{}
	origin := map[string]string{}
	for _, path := range files {
		f, err := parser.ParseFile(fset, path, nil, parser.SkipObjectResolution)
		if err != nil {
			return nil, err
		}
		for _, decl := range f.Decls {
			gd, ok := decl.(*ast.GenDecl)
			if !ok || gd.Tok != token.CONST {
				continue
			}
			for _, spec := range gd.Specs {
				vs := spec.(*ast.ValueSpec)
				for i, name := range vs.Names {
					if i < len(vs.Values) {
						exprs[name.Name] = vs.Values[i]
						origin[name.Name] = filepath.Base(path)
					}
				}
			}
		}
	}

	var violations []string
	for name, expr := range exprs {
		sql, ok := eval(expr, exprs, 0)
		if !ok {
			continue
		}
		m := reName.FindStringSubmatch(sql)
		if m == nil {
			continue
		}
		query := m[1]
		if _, exempt := allow[query]; exempt {
			continue
		}
		body := sql[strings.Index(sql, "\n")+1:]
		if reReadOrRW.MatchString(body) && !reTenant.MatchString(body) {
			violations = append(violations, fmt.Sprintf("%s: %s (const %s)", origin[name], query, name))
		}
	}
	sort.Strings(violations)
	return violations, nil
}

// eval folds a constant string expression. Non-string constants report
// false.
func eval(e ast.Expr, exprs map[string]ast.Expr, depth int) (string, bool) {
	if depth > 16 {
		return "", false
	}
	switch v := e.(type) {
	case *ast.BasicLit:
		if v.Kind != token.STRING {
			return "", false
		}
		s, err := strconv.Unquote(v.Value)
		return s, err == nil
	case *ast.Ident:
		ref, ok := exprs[v.Name]
		if !ok {
			return "", false
		}
		return eval(ref, exprs, depth+1)
	case *ast.ParenExpr:
		return eval(v.X, exprs, depth+1)
	case *ast.BinaryExpr:
		if v.Op != token.ADD {
			return "", false
		}
		l, ok := eval(v.X, exprs, depth+1)
		if !ok {
			return "", false
		}
		r, ok := eval(v.Y, exprs, depth+1)
		return l + r, ok
	}
	return "", false
}
