// Package rawhtml reports conversions to the html/template "trusted content"
// types (template.HTML, template.JS and friends) outside the view package.
// Such a conversion switches contextual escaping off for the value, so it
// must only happen next to the templates that own the markup.
package rawhtml

import (
	"go/ast"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
)

// AllowedPackageSuffix is the import path suffix of the only package
// allowed to build trusted template content.
const AllowedPackageSuffix = "/internal/view"

var trustedTypes = map[string]bool{
	"CSS":      true,
	"HTML":     true,
	"HTMLAttr": true,
	"JS":       true,
	"JSStr":    true,
	"Srcset":   true,
	"URL":      true,
}

// Analyzer flags html/template trusted-type conversions outside the view package.
var Analyzer = &analysis.Analyzer{
	Name: "rawhtml",
	Doc:  "prohibits html/template trusted-type conversions outside " + AllowedPackageSuffix,
	Run:  run,
}

func run(pass *analysis.Pass) (interface{}, error) {
	if strings.HasSuffix(pass.Pkg.Path(), AllowedPackageSuffix) {
		return nil, nil
	}

	for _, file := range pass.Files {
		ast.Inspect(file, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok || len(call.Args) != 1 {
				return true
			}

			tv, ok := pass.TypesInfo.Types[call.Fun]
			if !ok || !tv.IsType() {
				return true
			}

			named, ok := tv.Type.(*types.Named)
			if !ok {
				return true
			}

			obj := named.Obj()
			if obj.Pkg() != nil && obj.Pkg().Path() == "html/template" && trustedTypes[obj.Name()] {
				pass.Reportf(call.Pos(), "conversion to template.%s disables escaping; render through internal/view instead", obj.Name())
			}

			return true
		})
	}

	return nil, nil
}
