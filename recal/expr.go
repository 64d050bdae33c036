// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package recal

import (
	"bytes"
	"go/ast"
	"go/parser"
	"go/token"
	"regexp"
	"strconv"

	"github.com/grailbio/bqsr/covariate"
	"github.com/grailbio/hts/sam"
	"github.com/pkg/errors"
)

// FilterHelp describes the syntax accepted by ParseFilter.
const FilterHelp = `A filter expression is a boolean condition on a single read.

EXAMPLES:
   mapping_quality >= 20 && sequence_length >= 50
   !(paired && !proper_pair)
   re(read_group, "^lane[12]$")

SYNTAX:

  Expressions are parsed with the Go parser and follow Go's precedence rules.

  expr = intliteral | stringliteral |
       re(expr, stringliteral) |  // Partial regex match.
       expr op expr |             // op is one of > >= < <= == !=; both sides
                                  // are ints or both are strings.
       expr && expr | expr || expr | !expr |
       (expr) |
       symbol

  string symbols: rec_name ref_name mate_ref_name read_group
  int symbols:    ref_id position mate_ref_id mate_position sequence_length
                  mapping_quality template_length
  bool symbols:   paired proper_pair unmapped mate_is_unmapped
                  is_reverse_strand mate_is_reverse_strand first_of_pair
                  second_of_pair secondary_alignment failed_quality_control
                  duplicate supplementary chimeric

  chimeric is shorthand for
  (paired && !unmapped && !mate_is_unmapped && ref_id != mate_ref_id).
  read_group is "" for reads without an RG tag.
`

type valueType int

const (
	valueTypeInt valueType = iota
	valueTypeStr
	valueTypeBool
)

func (t valueType) String() string {
	switch t {
	case valueTypeInt:
		return "int"
	case valueTypeStr:
		return "string"
	}
	return "bool"
}

// term is a compiled subexpression.  Exactly one of intFn, strFn, boolFn is
// set, matching vtype.  literal is set for string constants so that re() can
// compile its pattern once.
type term struct {
	vtype   valueType
	intFn   func(*sam.Record) int64
	strFn   func(*sam.Record) string
	boolFn  func(*sam.Record) bool
	literal *string
}

func intTerm(f func(*sam.Record) int64) term  { return term{vtype: valueTypeInt, intFn: f} }
func strTerm(f func(*sam.Record) string) term { return term{vtype: valueTypeStr, strFn: f} }
func boolTerm(f func(*sam.Record) bool) term  { return term{vtype: valueTypeBool, boolFn: f} }
func flagTerm(flag sam.Flags) term {
	return boolTerm(func(r *sam.Record) bool { return r.Flags&flag != 0 })
}

func isChimeric(r *sam.Record) bool {
	return r.Flags&sam.Paired != 0 &&
		r.Flags&sam.Unmapped == 0 &&
		r.Flags&sam.MateUnmapped == 0 &&
		r.Ref.ID() != r.MateRef.ID()
}

func readGroup(r *sam.Record) string {
	id, _ := covariate.ReadGroupID(r)
	return id
}

var symbols = map[string]term{
	"rec_name":      strTerm(func(r *sam.Record) string { return r.Name }),
	"ref_name":      strTerm(func(r *sam.Record) string { return r.Ref.Name() }),
	"mate_ref_name": strTerm(func(r *sam.Record) string { return r.MateRef.Name() }),
	"read_group":    strTerm(readGroup),

	"ref_id":          intTerm(func(r *sam.Record) int64 { return int64(r.Ref.ID()) }),
	"position":        intTerm(func(r *sam.Record) int64 { return int64(r.Pos) }),
	"mate_ref_id":     intTerm(func(r *sam.Record) int64 { return int64(r.MateRef.ID()) }),
	"mate_position":   intTerm(func(r *sam.Record) int64 { return int64(r.MatePos) }),
	"sequence_length": intTerm(func(r *sam.Record) int64 { return int64(r.Seq.Length) }),
	"mapping_quality": intTerm(func(r *sam.Record) int64 { return int64(r.MapQ) }),
	"template_length": intTerm(func(r *sam.Record) int64 { return int64(r.TempLen) }),

	"paired":                 flagTerm(sam.Paired),
	"proper_pair":            flagTerm(sam.ProperPair),
	"unmapped":               flagTerm(sam.Unmapped),
	"mate_is_unmapped":       flagTerm(sam.MateUnmapped),
	"is_reverse_strand":      flagTerm(sam.Reverse),
	"mate_is_reverse_strand": flagTerm(sam.MateReverse),
	"first_of_pair":          flagTerm(sam.Read1),
	"second_of_pair":         flagTerm(sam.Read2),
	"secondary_alignment":    flagTerm(sam.Secondary),
	"failed_quality_control": flagTerm(sam.QCFail),
	"duplicate":              flagTerm(sam.Duplicate),
	"supplementary":          flagTerm(sam.Supplementary),
	"chimeric":               boolTerm(isChimeric),
}

// astString pretty-prints an AST node for error messages.
func astString(node ast.Node) string {
	var buf bytes.Buffer
	if err := ast.Fprint(&buf, token.NewFileSet(), node, nil); err != nil {
		return "?"
	}
	return buf.String()
}

func compileCall(e *ast.CallExpr) (term, error) {
	fun, ok := e.Fun.(*ast.Ident)
	if !ok || fun.Name != "re" {
		return term{}, errors.Errorf("unknown function %s", astString(e.Fun))
	}
	if len(e.Args) != 2 {
		return term{}, errors.Errorf("re() takes two arguments, got %d", len(e.Args))
	}
	x, err := compile(e.Args[0])
	if err != nil {
		return term{}, err
	}
	pattern, err := compile(e.Args[1])
	if err != nil {
		return term{}, err
	}
	if x.vtype != valueTypeStr || pattern.literal == nil {
		return term{}, errors.New("re() takes a string and a string literal")
	}
	re, err := regexp.Compile(*pattern.literal)
	if err != nil {
		return term{}, errors.Wrap(err, "re()")
	}
	strFn := x.strFn
	return boolTerm(func(r *sam.Record) bool { return re.MatchString(strFn(r)) }), nil
}

func compileComparison(op token.Token, x, y term) (term, error) {
	if x.vtype != y.vtype {
		return term{}, errors.Errorf("operands of %v have different types %v and %v", op, x.vtype, y.vtype)
	}
	switch x.vtype {
	case valueTypeInt:
		xf, yf := x.intFn, y.intFn
		var cmp func(a, b int64) bool
		switch op {
		case token.EQL:
			cmp = func(a, b int64) bool { return a == b }
		case token.NEQ:
			cmp = func(a, b int64) bool { return a != b }
		case token.LSS:
			cmp = func(a, b int64) bool { return a < b }
		case token.LEQ:
			cmp = func(a, b int64) bool { return a <= b }
		case token.GTR:
			cmp = func(a, b int64) bool { return a > b }
		case token.GEQ:
			cmp = func(a, b int64) bool { return a >= b }
		}
		return boolTerm(func(r *sam.Record) bool { return cmp(xf(r), yf(r)) }), nil
	case valueTypeStr:
		xf, yf := x.strFn, y.strFn
		var cmp func(a, b string) bool
		switch op {
		case token.EQL:
			cmp = func(a, b string) bool { return a == b }
		case token.NEQ:
			cmp = func(a, b string) bool { return a != b }
		case token.LSS:
			cmp = func(a, b string) bool { return a < b }
		case token.LEQ:
			cmp = func(a, b string) bool { return a <= b }
		case token.GTR:
			cmp = func(a, b string) bool { return a > b }
		case token.GEQ:
			cmp = func(a, b string) bool { return a >= b }
		}
		return boolTerm(func(r *sam.Record) bool { return cmp(xf(r), yf(r)) }), nil
	}
	xf, yf := x.boolFn, y.boolFn
	switch op {
	case token.EQL:
		return boolTerm(func(r *sam.Record) bool { return xf(r) == yf(r) }), nil
	case token.NEQ:
		return boolTerm(func(r *sam.Record) bool { return xf(r) != yf(r) }), nil
	}
	return term{}, errors.Errorf("operator %v does not apply to bools", op)
}

func compileBinary(e *ast.BinaryExpr) (term, error) {
	x, err := compile(e.X)
	if err != nil {
		return term{}, err
	}
	y, err := compile(e.Y)
	if err != nil {
		return term{}, err
	}
	switch e.Op {
	case token.LAND, token.LOR:
		if x.vtype != valueTypeBool || y.vtype != valueTypeBool {
			return term{}, errors.Errorf("operands of %v must be bool", e.Op)
		}
		xf, yf := x.boolFn, y.boolFn
		if e.Op == token.LAND {
			return boolTerm(func(r *sam.Record) bool { return xf(r) && yf(r) }), nil
		}
		return boolTerm(func(r *sam.Record) bool { return xf(r) || yf(r) }), nil
	case token.EQL, token.NEQ, token.LSS, token.LEQ, token.GTR, token.GEQ:
		return compileComparison(e.Op, x, y)
	}
	return term{}, errors.Errorf("unknown binary operator %v", e.Op)
}

func compile(node ast.Expr) (term, error) {
	switch e := node.(type) {
	case *ast.ParenExpr:
		return compile(e.X)
	case *ast.CallExpr:
		return compileCall(e)
	case *ast.UnaryExpr:
		if e.Op != token.NOT {
			break
		}
		x, err := compile(e.X)
		if err != nil {
			return term{}, err
		}
		if x.vtype != valueTypeBool {
			return term{}, errors.New("operand of ! must be bool")
		}
		xf := x.boolFn
		return boolTerm(func(r *sam.Record) bool { return !xf(r) }), nil
	case *ast.BinaryExpr:
		return compileBinary(e)
	case *ast.BasicLit:
		switch e.Kind {
		case token.STRING:
			v, err := strconv.Unquote(e.Value)
			if err != nil {
				return term{}, errors.Wrapf(err, "string literal %s", e.Value)
			}
			t := strTerm(func(*sam.Record) string { return v })
			t.literal = &v
			return t, nil
		case token.INT:
			v, err := strconv.ParseInt(e.Value, 0, 64)
			if err != nil {
				return term{}, errors.Wrapf(err, "int literal %s", e.Value)
			}
			return intTerm(func(*sam.Record) int64 { return v }), nil
		}
	case *ast.Ident:
		if t, ok := symbols[e.Name]; ok {
			return t, nil
		}
		return term{}, errors.Errorf("unknown symbol %q", e.Name)
	}
	return term{}, errors.Errorf("unsupported expression %s", astString(node))
}

// ParseFilter compiles a boolean filter expression; see FilterHelp.
func ParseFilter(expr string) (ReadFilter, error) {
	node, err := parser.ParseExpr(expr)
	if err != nil {
		return nil, errors.Wrapf(err, "filter %q", expr)
	}
	t, err := compile(node)
	if err != nil {
		return nil, errors.Wrapf(err, "filter %q", expr)
	}
	if t.vtype != valueTypeBool {
		return nil, errors.Errorf("filter %q is a %v expression, not bool", expr, t.vtype)
	}
	return ReadFilter(t.boolFn), nil
}
