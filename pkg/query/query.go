// Package query filters scanned plugins with CEL expressions such as
//
//	kind == "Instrument" && manufacturer.startsWith("Acme")
//	"Delay" in categories && cardinality != 1
package query

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/ext"

	"github.com/justyntemme/vst3host/pkg/host"
)

// Variables available to expressions.
const (
	VarID           = "id"
	VarName         = "name"
	VarManufacturer = "manufacturer"
	VarKind         = "kind"
	VarCategories   = "categories"
	VarVersion      = "version"
	VarSDKVersion   = "sdkVersion"
	VarCardinality  = "cardinality"
	VarBundle       = "bundle"
	VarSource       = "source"
)

var env = sync.OnceValues(func() (*cel.Env, error) {
	return cel.NewEnv(
		ext.Strings(),
		cel.Variable(VarID, cel.StringType),
		cel.Variable(VarName, cel.StringType),
		cel.Variable(VarManufacturer, cel.StringType),
		cel.Variable(VarKind, cel.StringType),
		cel.Variable(VarCategories, cel.ListType(cel.StringType)),
		cel.Variable(VarVersion, cel.StringType),
		cel.Variable(VarSDKVersion, cel.StringType),
		cel.Variable(VarCardinality, cel.IntType),
		cel.Variable(VarBundle, cel.StringType),
		cel.Variable(VarSource, cel.StringType),
	)
})

// Filter is a compiled boolean expression over PluginInfo. It is safe for
// concurrent use.
type Filter struct {
	expr string
	prog cel.Program
}

// Compile checks expr against the plugin variables. The expression must
// evaluate to a bool.
func Compile(expr string) (*Filter, error) {
	e, err := env()
	if err != nil {
		return nil, fmt.Errorf("creating CEL env: %w", err)
	}
	ast, issues := e.Compile(expr)
	if issues.Err() != nil {
		return nil, fmt.Errorf("compiling filter %q: %w", expr, issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("filter %q evaluates to %s, not bool", expr, ast.OutputType())
	}
	prog, err := e.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("building filter %q: %w", expr, err)
	}
	return &Filter{expr: expr, prog: prog}, nil
}

func (f *Filter) String() string {
	return f.expr
}

// Match evaluates the filter for one plugin.
func (f *Filter) Match(ctx context.Context, info host.PluginInfo) (bool, error) {
	val, _, err := f.prog.ContextEval(ctx, Vars(info))
	if err != nil {
		return false, fmt.Errorf("evaluating filter %q for %s: %w", f.expr, info.Name, err)
	}
	b, ok := val.Value().(bool)
	if !ok {
		return false, fmt.Errorf("filter %q returned %v", f.expr, val.Type())
	}
	return b, nil
}

// Apply returns the plugins the filter matches, in order.
func (f *Filter) Apply(ctx context.Context, infos []host.PluginInfo) ([]host.PluginInfo, error) {
	var out []host.PluginInfo
	for _, info := range infos {
		ok, err := f.Match(ctx, info)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, info)
		}
	}
	return out, nil
}

// Vars returns the variables an expression sees for info.
func Vars(info host.PluginInfo) map[string]any {
	return map[string]any{
		VarID:           info.ID.String(),
		VarName:         info.Name,
		VarManufacturer: info.Manufacturer,
		VarKind:         info.Type.String(),
		VarCategories:   info.Categories(),
		VarVersion:      info.Version,
		VarSDKVersion:   info.SDKVersion,
		VarCardinality:  int64(info.Cardinality),
		VarBundle:       info.BundlePath,
		VarSource:       string(info.Source),
	}
}
