package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plutus/pkg/errors"
)

func noopHandler(ctx context.Context, args Args) (interface{}, error) {
	return nil, nil
}

func TestRegistry_DuplicateName(t *testing.T) {
	r := NewRegistry()
	spec := Spec{Name: "get_quote", Params: map[string]ParamSpec{}}

	require.NoError(t, r.Register(spec, noopHandler))

	err := r.Register(spec, noopHandler)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDuplicateTool))
}

func TestRegistry_UnknownLookup(t *testing.T) {
	r := NewRegistry()

	_, _, err := r.Lookup("imaginary_tool")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnknownTool))
}

func TestRegistry_MissingHandler(t *testing.T) {
	r := NewRegistry()
	err := r.Register(Spec{Name: "broken"}, nil)
	assert.Error(t, err)
}

func TestRegistry_SpecsSorted(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, r.Register(Spec{Name: name}, noopHandler))
	}

	specs := r.Specs()
	require.Len(t, specs, 3)
	assert.Equal(t, "alpha", specs[0].Name)
	assert.Equal(t, "mid", specs[1].Name)
	assert.Equal(t, "zeta", specs[2].Name)
}

func TestSpec_ValidateCollectsAllViolations(t *testing.T) {
	zero := 0.0
	spec := Spec{
		Name: "add_position",
		Params: map[string]ParamSpec{
			"ticker": {Type: TypeString, Required: true},
			"shares": {Type: TypeNumber, Required: true, GreaterThan: &zero},
			"price":  {Type: TypeNumber, Required: true, GreaterThan: &zero},
		},
	}

	_, err := spec.Validate(map[string]interface{}{
		"shares": -5.0,
		"extra":  "nonsense",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidArguments))

	// every violation is reported, not just the first
	msg := err.Error()
	assert.Contains(t, msg, "ticker")
	assert.Contains(t, msg, "shares")
	assert.Contains(t, msg, "price")
	assert.Contains(t, msg, "extra")
}

func TestSpec_ValidateNormalizes(t *testing.T) {
	zero := 0.0
	spec := Spec{
		Name: "t",
		Params: map[string]ParamSpec{
			"ticker":  {Type: TypeString, Required: true},
			"shares":  {Type: TypeNumber, GreaterThan: &zero},
			"tickers": {Type: TypeArray, MinItems: 2},
			"range":   {Type: TypeString, Enum: []string{"1mo", "1y"}},
		},
	}

	args, err := spec.Validate(map[string]interface{}{
		"ticker":  "AAPL",
		"shares":  10.0,
		"tickers": []interface{}{"AAPL", "MSFT"},
		"range":   "1y",
	})
	require.NoError(t, err)

	assert.Equal(t, "AAPL", args.String("ticker"))
	assert.Equal(t, 10.0, args.Number("shares"))
	assert.Equal(t, []string{"AAPL", "MSFT"}, args.StringSlice("tickers"))
	assert.True(t, args.Has("range"))
}

func TestSpec_ValidateRejectsEnumViolation(t *testing.T) {
	spec := Spec{
		Name: "get_history",
		Params: map[string]ParamSpec{
			"range": {Type: TypeString, Enum: []string{"1mo", "1y"}},
		},
	}

	_, err := spec.Validate(map[string]interface{}{"range": "5y"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be one of")
}

func TestSpec_ValidateIntegerRejectsFraction(t *testing.T) {
	spec := Spec{
		Name: "search",
		Params: map[string]ParamSpec{
			"top_k": {Type: TypeInteger},
		},
	}

	_, err := spec.Validate(map[string]interface{}{"top_k": 2.5})
	assert.Error(t, err)

	args, err := spec.Validate(map[string]interface{}{"top_k": 3.0})
	require.NoError(t, err)
	assert.Equal(t, 3, args.Int("top_k"))
}

func TestSpec_JSONSchema(t *testing.T) {
	zero := 0.0
	spec := Spec{
		Name: "add_position",
		Params: map[string]ParamSpec{
			"ticker": {Type: TypeString, Description: "symbol", Required: true},
			"shares": {Type: TypeNumber, Required: true, GreaterThan: &zero},
			"date":   {Type: TypeString},
		},
	}

	schema := spec.JSONSchema()
	assert.Equal(t, "object", schema["type"])

	props := schema["properties"].(map[string]interface{})
	assert.Len(t, props, 3)

	required := schema["required"].([]string)
	assert.Equal(t, []string{"shares", "ticker"}, required)
}

func TestNewCatalog(t *testing.T) {
	r, err := NewCatalog(Deps{})
	require.NoError(t, err)

	expected := []string{
		"add_position", "analyze_stock", "calculate_portfolio_metrics",
		"compare_stocks", "find_similar_holdings", "get_fundamentals",
		"get_history", "get_portfolio_summary", "get_position_details",
		"get_quote", "get_sector_exposure", "get_stock_news",
		"recommend_action", "reindex_portfolio", "remove_position",
		"search_portfolio",
	}

	specs := r.Specs()
	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.Name
	}
	assert.Equal(t, expected, names)

	defs := r.Definitions()
	assert.Len(t, defs, len(expected))
	for _, def := range defs {
		assert.Equal(t, "function", def.Type)
		assert.NotEmpty(t, def.Function.Description)
	}

	// exactly the two portfolio mutations are marked mutating
	var mutating []string
	for _, s := range specs {
		if s.Mutating {
			mutating = append(mutating, s.Name)
		}
	}
	assert.Equal(t, []string{"add_position", "remove_position"}, mutating)
}
