package core

import (
	"encoding/json"
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

// Manifest is the decoded, loosely-typed on-disk opam.json tree handed to
// the parser by the repository adapter (SPEC_FULL.md §3/§6). It already
// carries the package's own name/version so the adapter can validate them
// against the directory it read them from.
type Manifest struct {
	OpamVersion   string
	Name          string
	Version       string
	Depends       []opamPackageFormula
	ConflictClass string
}

// opamJSONDoc is the raw shape of an opam.json file.
type opamJSONDoc struct {
	OpamVersion   string               `json:"opam-version"`
	Name          string               `json:"name"`
	Version       string               `json:"version"`
	Depends       []opamPackageFormula `json:"depends"`
	ConflictClass string               `json:"conflict-class"`
}

// DecodeManifest parses an opam.json document's bytes into a Manifest.
func DecodeManifest(data []byte) (Manifest, error) {
	var doc opamJSONDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return Manifest{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("malformed opam.json").
			WithCause(err)
	}
	return Manifest{
		OpamVersion:   doc.OpamVersion,
		Name:          doc.Name,
		Version:       doc.Version,
		Depends:       doc.Depends,
		ConflictClass: doc.ConflictClass,
	}, nil
}

// ParseDependencies converts a Manifest's depends list (plus its
// conflict-class tag, if any) into the Formula AST (SPEC_FULL.md §4.C/D).
func ParseDependencies(m Manifest) ([]PackageFormula, error) {
	out := make([]PackageFormula, 0, len(m.Depends)+1)
	for _, raw := range m.Depends {
		formula, err := parsePackageFormula(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, formula)
	}
	if m.ConflictClass != "" {
		out = append(out, ConflictClassDep{Class: m.ConflictClass, Package: m.Name})
	}
	return out, nil
}

// --- on-disk package formula shape (§3) ---

type packageFormulaKind int

const (
	pkgFormulaSimple packageFormulaKind = iota
	pkgFormulaBinary
	pkgFormulaGroup
)

type opamPackageFormula struct {
	kind       packageFormulaKind
	name       string
	conditions []opamVersionFormula
	logop      string
	lhs, rhs   *opamPackageFormula
	group      []opamPackageFormula
}

func (f *opamPackageFormula) UnmarshalJSON(data []byte) error {
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		f.kind = pkgFormulaSimple
		f.name = plain
		return nil
	}

	var probe struct {
		Val        *string              `json:"val"`
		Conditions []opamVersionFormula `json:"conditions"`
		LogOp      *string              `json:"logop"`
		LHS        json.RawMessage      `json:"lhs"`
		RHS        json.RawMessage      `json:"rhs"`
		Group      []opamPackageFormula `json:"group"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}

	switch {
	case probe.Val != nil:
		f.kind = pkgFormulaSimple
		f.name = *probe.Val
		f.conditions = probe.Conditions
	case probe.LogOp != nil:
		f.kind = pkgFormulaBinary
		f.logop = *probe.LogOp
		var lhs, rhs opamPackageFormula
		if err := json.Unmarshal(probe.LHS, &lhs); err != nil {
			return fmt.Errorf("package formula lhs: %w", err)
		}
		if err := json.Unmarshal(probe.RHS, &rhs); err != nil {
			return fmt.Errorf("package formula rhs: %w", err)
		}
		f.lhs, f.rhs = &lhs, &rhs
	case probe.Group != nil:
		f.kind = pkgFormulaGroup
		f.group = probe.Group
	default:
		return fmt.Errorf("unrecognised package formula shape: %s", string(data))
	}
	return nil
}

func parsePackageFormula(f opamPackageFormula) (PackageFormula, error) {
	switch f.kind {
	case pkgFormulaSimple:
		if len(f.conditions) == 0 {
			return Base{Name: f.name, Formula: VersionRange{Range: RangeFull()}}, nil
		}
		var combined VersionFormula
		for i, cond := range f.conditions {
			parsed, err := parseVersionFormula(cond)
			if err != nil {
				return nil, err
			}
			if i == 0 {
				combined = parsed
				continue
			}
			combined = foldVerAnd(combined, parsed)
		}
		return Base{Name: f.name, Formula: combined}, nil
	case pkgFormulaBinary:
		lhs, err := parsePackageFormula(*f.lhs)
		if err != nil {
			return nil, err
		}
		rhs, err := parsePackageFormula(*f.rhs)
		if err != nil {
			return nil, err
		}
		switch f.logop {
		case "and":
			return PkgAnd{LHS: lhs, RHS: rhs}, nil
		case "or":
			return PkgOr{LHS: lhs, RHS: rhs}, nil
		default:
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("unrecognised package logop: %s", f.logop))
		}
	case pkgFormulaGroup:
		if len(f.group) == 0 {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("empty package formula group")
		}
		formula, err := parsePackageFormula(f.group[0])
		if err != nil {
			return nil, err
		}
		for _, member := range f.group[1:] {
			next, err := parsePackageFormula(member)
			if err != nil {
				return nil, err
			}
			formula = PkgAnd{LHS: formula, RHS: next}
		}
		return formula, nil
	default:
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("unreachable package formula kind")
	}
}

// --- on-disk version formula shape (§3/§4.C/D) ---

type versionFormulaKind int

const (
	verFormulaConstraint versionFormulaKind = iota
	verFormulaBinary
	verFormulaNot
	verFormulaGroup
	verFormulaFilter
)

type opamVersionFormula struct {
	kind     versionFormulaKind
	relop    string
	arg      string
	logop    string
	lhs, rhs *opamVersionFormula
	op       string
	inner    *opamVersionFormula
	group    []opamVersionFormula
	filter   filterExpr
}

func (f *opamVersionFormula) UnmarshalJSON(data []byte) error {
	var bareFilter filterExpr
	if err := json.Unmarshal(data, &bareFilter); err == nil && bareFilter.kind != filterExprInvalid {
		f.kind = verFormulaFilter
		f.filter = bareFilter
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	switch {
	case fields["prefix_relop"] != nil:
		var relop, arg string
		if err := json.Unmarshal(fields["prefix_relop"], &relop); err != nil {
			return fmt.Errorf("version formula prefix_relop: %w", err)
		}
		if err := json.Unmarshal(fields["arg"], &arg); err != nil {
			return fmt.Errorf("version formula arg: %w", err)
		}
		f.kind = verFormulaConstraint
		f.relop = relop
		f.arg = arg
	case fields["logop"] != nil:
		var logop string
		if err := json.Unmarshal(fields["logop"], &logop); err != nil {
			return fmt.Errorf("version formula logop: %w", err)
		}
		var lhs, rhs opamVersionFormula
		if err := json.Unmarshal(fields["lhs"], &lhs); err != nil {
			return fmt.Errorf("version formula lhs: %w", err)
		}
		if err := json.Unmarshal(fields["rhs"], &rhs); err != nil {
			return fmt.Errorf("version formula rhs: %w", err)
		}
		f.kind = verFormulaBinary
		f.logop = logop
		f.lhs, f.rhs = &lhs, &rhs
	case fields["pfxop"] != nil:
		var op string
		if err := json.Unmarshal(fields["pfxop"], &op); err != nil {
			return fmt.Errorf("version formula pfxop: %w", err)
		}
		var inner opamVersionFormula
		if err := json.Unmarshal(fields["arg"], &inner); err != nil {
			return fmt.Errorf("version formula arg: %w", err)
		}
		f.kind = verFormulaNot
		f.op = op
		f.inner = &inner
	case fields["group"] != nil:
		var group []opamVersionFormula
		if err := json.Unmarshal(fields["group"], &group); err != nil {
			return fmt.Errorf("version formula group: %w", err)
		}
		f.kind = verFormulaGroup
		f.group = group
	default:
		return fmt.Errorf("unrecognised version formula shape: %s", string(data))
	}
	return nil
}

type filterExprKind int

const (
	filterExprInvalid filterExprKind = iota
	filterExprVar
	filterExprLit
	filterExprRelop
)

type filterExpr struct {
	kind     filterExprKind
	id       string
	lit      string
	op       string
	lhs, rhs *filterExpr
}

func (f *filterExpr) UnmarshalJSON(data []byte) error {
	var lit string
	if err := json.Unmarshal(data, &lit); err == nil {
		f.kind = filterExprLit
		f.lit = lit
		return nil
	}

	var probe struct {
		ID    *string         `json:"id"`
		Op    *string         `json:"relop"`
		LHS   json.RawMessage `json:"lhs"`
		RHS   json.RawMessage `json:"rhs"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		f.kind = filterExprInvalid
		return nil
	}

	switch {
	case probe.ID != nil:
		f.kind = filterExprVar
		f.id = *probe.ID
	case probe.Op != nil:
		f.kind = filterExprRelop
		f.op = *probe.Op
		var lhs, rhs filterExpr
		if err := json.Unmarshal(probe.LHS, &lhs); err != nil {
			return fmt.Errorf("filter lhs: %w", err)
		}
		if err := json.Unmarshal(probe.RHS, &rhs); err != nil {
			return fmt.Errorf("filter rhs: %w", err)
		}
		f.lhs, f.rhs = &lhs, &rhs
	default:
		f.kind = filterExprInvalid
	}
	return nil
}

func parseRelOp(raw string) (RelOp, error) {
	switch raw {
	case "eq":
		return RelEq, nil
	case "neq":
		return RelNeq, nil
	case "geq":
		return RelGeq, nil
	case "gt":
		return RelGt, nil
	case "leq":
		return RelLeq, nil
	case "lt":
		return RelLt, nil
	default:
		return 0, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unrecognised relational operator: %s", raw))
	}
}

func filterOperand(e filterExpr) (VersionFormula, error) {
	switch e.kind {
	case filterExprVar:
		return Variable{Name: e.id}, nil
	case filterExprLit:
		return Lit{Value: RealVersion(e.lit)}, nil
	default:
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("filter comparison operand must be a variable or literal")
	}
}

// parseVersionFormula converts an on-disk version-formula node into the
// Formula AST, performing pure-range folding (rule 1), prefix-relop-to-range
// mapping (rule 2), negation normalisation (rule 3), defined() sugar
// expansion (rule 4), and group flattening (rule 5) — SPEC_FULL.md §4.C/D.
func parseVersionFormula(f opamVersionFormula) (VersionFormula, error) {
	switch f.kind {
	case verFormulaConstraint:
		op, err := parseRelOp(f.relop)
		if err != nil {
			return nil, err
		}
		return VersionRange{Range: relopToRange(op, RealVersion(f.arg))}, nil
	case verFormulaBinary:
		lhs, err := parseVersionFormula(*f.lhs)
		if err != nil {
			return nil, err
		}
		rhs, err := parseVersionFormula(*f.rhs)
		if err != nil {
			return nil, err
		}
		switch f.logop {
		case "and":
			return foldVerAnd(lhs, rhs), nil
		case "or":
			return foldVerOr(lhs, rhs), nil
		default:
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("unrecognised version logop: %s", f.logop))
		}
	case verFormulaNot:
		switch f.op {
		case "not":
			inner, err := parseVersionFormula(*f.inner)
			if err != nil {
				return nil, err
			}
			return normalizeNegation(inner), nil
		case "defined":
			varName, err := leadingVariable(*f.inner)
			if err != nil {
				return nil, err
			}
			return Comparator{Op: RelNeq, LHS: Variable{Name: varName}, RHS: Lit{Value: RootVersion()}}, nil
		default:
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("unrecognised prefix operator: %s", f.op))
		}
	case verFormulaGroup:
		if len(f.group) == 0 {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("empty version formula group")
		}
		formula, err := parseVersionFormula(f.group[0])
		if err != nil {
			return nil, err
		}
		for _, member := range f.group[1:] {
			next, err := parseVersionFormula(member)
			if err != nil {
				return nil, err
			}
			formula = foldVerAnd(formula, next)
		}
		return formula, nil
	case verFormulaFilter:
		switch f.filter.kind {
		case filterExprVar:
			return Variable{Name: f.filter.id}, nil
		case filterExprLit:
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("literal filter outside comparator")
		case filterExprRelop:
			op, err := parseRelOp(f.filter.op)
			if err != nil {
				return nil, err
			}
			lhs, err := filterOperand(*f.filter.lhs)
			if err != nil {
				return nil, err
			}
			rhs, err := filterOperand(*f.filter.rhs)
			if err != nil {
				return nil, err
			}
			return Comparator{Op: op, LHS: lhs, RHS: rhs}, nil
		default:
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("unrecognised filter expression")
		}
	default:
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("unreachable version formula kind")
	}
}

// leadingVariable extracts the variable name referenced by a bare
// defined(var) argument.
func leadingVariable(f opamVersionFormula) (string, error) {
	if f.kind == verFormulaFilter && f.filter.kind == filterExprVar {
		return f.filter.id, nil
	}
	return "", errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg("defined() argument must be a bare variable")
}

// foldVerAnd implements rule 1: two pure VersionRange children fold into a
// single VersionRange via intersection; otherwise a generic VerAnd node is
// kept for the encoder to lower.
func foldVerAnd(lhs, rhs VersionFormula) VersionFormula {
	lr, lok := lhs.(VersionRange)
	rr, rok := rhs.(VersionRange)
	if lok && rok {
		return VersionRange{Range: lr.Range.Intersection(rr.Range)}
	}
	return VerAnd{LHS: lhs, RHS: rhs}
}

// foldVerOr implements rule 1 for disjunction: fold two pure ranges via
// union; otherwise keep a generic VerOr node.
func foldVerOr(lhs, rhs VersionFormula) VersionFormula {
	lr, lok := lhs.(VersionRange)
	rr, rok := rhs.(VersionRange)
	if lok && rok {
		return VersionRange{Range: lr.Range.Union(rr.Range)}
	}
	return VerOr{LHS: lhs, RHS: rhs}
}
