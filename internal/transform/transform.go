// Package transform implements the syntax transformer of spec §4.3:
// five scanning phases that populate a symbol table, followed by a
// rewrite pass that desugars surface forms into canonical S-expressions
// (Symbol | List | Literal only).
package transform

import (
	"log/slog"

	"github.com/hql-lang/hqlc/internal/herr"
	"github.com/hql-lang/hqlc/internal/sexpr"
	"github.com/hql-lang/hqlc/internal/symtab"
)

// Result is the transformer's output: the canonical program plus the
// symbol table populated by the scanning phases.
type Result struct {
	Canonical []*sexpr.SExpr
	Symbols   *symtab.Table
}

// Transform runs the fixed phase sequence over exprs. Rewrite-pass
// errors for one top-level form are reported and that form is dropped;
// transformation continues with the remaining forms (spec §7:
// "Transformer errors abort transformation of that top-level form but
// continue with the next, accumulating diagnostics").
func Transform(exprs []*sexpr.SExpr, reporter *herr.Reporter, log *slog.Logger) *Result {
	tbl := symtab.New()
	enums := newEnumRegistry()

	scanEnums(exprs, tbl, enums)
	logPhase(log, "enum-scan", tbl)

	scanTypes(exprs, tbl)
	logPhase(log, "type-scan", tbl)

	scanCallables(exprs, tbl)
	logPhase(log, "callable-scan", tbl)

	scanBindings(exprs, tbl)
	logPhase(log, "binding-scan", tbl)

	scanDeclarations(exprs, tbl)
	logPhase(log, "declaration-scan", tbl)

	rw := &rewriter{symbols: tbl, enums: enums}

	canonical := make([]*sexpr.SExpr, 0, len(exprs))
	for _, top := range exprs {
		out, err := rw.rewrite(top)
		if err != nil {
			reporter.Report(err, nil)
			continue
		}
		canonical = append(canonical, out)
	}

	return &Result{Canonical: canonical, Symbols: tbl}
}

func logPhase(log *slog.Logger, phase string, tbl *symtab.Table) {
	if log == nil {
		return
	}
	log.Debug("transform phase complete", "phase", phase, "symbols", len(tbl.All()))
}
