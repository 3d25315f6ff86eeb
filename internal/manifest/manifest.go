// Package manifest loads query manifests written in CUE.
//
// A manifest declares the documents table, the JSON column, and a set
// of named queries. The CUE layer validates the manifest shape against
// an embedded schema; the predicate grammar inside each query is the
// compiler's business (package querysql).
package manifest

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/docql/docql/internal/querysql"
)

//go:embed schema.cue
var schemaCUE string

// Manifest is a validated query manifest.
type Manifest struct {
	Table   string
	Column  string
	Queries []Query // declaration order
}

// Query is one named query of a manifest. WhereJSON and SortJSON hold
// the JSON export of the CUE values, nil when the field is absent.
type Query struct {
	Name      string
	WhereJSON []byte
	SortJSON  []byte
}

// LoadError is a manifest loading or validation failure, with the CUE
// source position when one is available.
type LoadError struct {
	Pos     token.Pos
	Message string
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// Load reads a manifest from a CUE file or a directory of CUE files,
// validates it against the embedded schema, and extracts its queries.
// All detected errors are returned together.
func Load(path string) (*Manifest, []error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Message: fmt.Sprintf("manifest not found: %s", path)}}
	}
	if err != nil {
		return nil, []error{err}
	}

	cfg := &load.Config{}
	args := []string{path}
	if info.IsDir() {
		cfg.Dir = path
		args = []string{"."}
	}

	insts := load.Instances(args, cfg)
	if len(insts) == 0 {
		return nil, []error{&LoadError{Message: fmt.Sprintf("no CUE files in %s", path)}}
	}
	inst := insts[0]
	if inst.Err != nil {
		return nil, cueErrors(inst.Err)
	}

	ctx := cuecontext.New()
	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, cueErrors(err)
	}
	return fromCUE(ctx, value)
}

// LoadString builds a manifest from CUE source text. Used by tests and
// callers that assemble manifests programmatically.
func LoadString(src string) (*Manifest, []error) {
	ctx := cuecontext.New()
	value := ctx.CompileString(src)
	if err := value.Err(); err != nil {
		return nil, cueErrors(err)
	}
	return fromCUE(ctx, value)
}

// fromCUE validates a CUE value against #Manifest and extracts the
// manifest data.
func fromCUE(ctx *cue.Context, value cue.Value) (*Manifest, []error) {
	schema := ctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		return nil, cueErrors(err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Manifest")).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, cueErrors(err)
	}

	m := &Manifest{}
	var errs []error

	table, err := unified.LookupPath(cue.ParsePath("table")).String()
	if err != nil {
		errs = append(errs, cueErrors(err)...)
	}
	m.Table = table

	column, err := unified.LookupPath(cue.ParsePath("column")).String()
	if err != nil {
		errs = append(errs, cueErrors(err)...)
	}
	m.Column = column

	queries := unified.LookupPath(cue.ParsePath("queries"))
	if queries.Exists() {
		it, err := queries.Fields()
		if err != nil {
			return nil, append(errs, cueErrors(err)...)
		}
		for it.Next() {
			q := Query{Name: it.Selector().Unquoted()}

			if wv := it.Value().LookupPath(cue.ParsePath("where")); wv.Exists() {
				data, err := wv.MarshalJSON()
				if err != nil {
					errs = append(errs, &LoadError{Pos: wv.Pos(), Message: fmt.Sprintf("query %s: %v", q.Name, err)})
					continue
				}
				q.WhereJSON = data
			}
			if sv := it.Value().LookupPath(cue.ParsePath("sort")); sv.Exists() {
				data, err := sv.MarshalJSON()
				if err != nil {
					errs = append(errs, &LoadError{Pos: sv.Pos(), Message: fmt.Sprintf("query %s: %v", q.Name, err)})
					continue
				}
				q.SortJSON = data
			}
			m.Queries = append(m.Queries, q)
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return m, nil
}

// CompileQuery compiles one named query of the manifest into SQL
// clauses.
func (m *Manifest) CompileQuery(q Query) (*querysql.Compiler, error) {
	c := querysql.NewCompiler(m.Table, m.Column)
	if err := c.ParseJSON(q.WhereJSON, q.SortJSON); err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Name, err)
	}
	return c, nil
}

// cueErrors flattens a CUE error into positioned LoadErrors.
func cueErrors(err error) []error {
	list := cueerrors.Errors(err)
	if len(list) == 0 {
		return []error{err}
	}
	out := make([]error, len(list))
	for i, e := range list {
		out[i] = &LoadError{Pos: e.Position(), Message: e.Error()}
	}
	return out
}
