package tools

import (
	"context"

	"plutus/pkg/errors"
)

const defaultTopK = 5

func registerSemanticTools(r *Registry, deps Deps) error {
	requireIndex := func() error {
		if deps.Index == nil {
			return errors.Wrap(errors.ErrCollaborator, "semantic index not configured")
		}
		return nil
	}

	zero := 0.0

	specs := []struct {
		spec    Spec
		handler Handler
	}{
		{
			spec: Spec{
				Name:        "search_portfolio",
				Description: "Search held positions by free-text meaning, e.g. 'my tech stocks'",
				Category:    CategorySemantic,
				Params: map[string]ParamSpec{
					"query": {Type: TypeString, Description: "Free-text search query", Required: true},
					"top_k": {Type: TypeInteger, Description: "Maximum results, defaults to 5", GreaterThan: &zero},
				},
			},
			handler: func(ctx context.Context, args Args) (interface{}, error) {
				if err := requireIndex(); err != nil {
					return nil, err
				}
				topK := defaultTopK
				if args.Has("top_k") {
					topK = args.Int("top_k")
				}
				return deps.Index.Search(ctx, args.String("query"), topK)
			},
		},
		{
			spec: Spec{
				Name:        "find_similar_holdings",
				Description: "Find held positions most similar to a given stock",
				Category:    CategorySemantic,
				Params: map[string]ParamSpec{
					"ticker": {Type: TypeString, Description: "Stock ticker symbol", Required: true},
					"top_k":  {Type: TypeInteger, Description: "Maximum results, defaults to 5", GreaterThan: &zero},
				},
			},
			handler: func(ctx context.Context, args Args) (interface{}, error) {
				if err := requireIndex(); err != nil {
					return nil, err
				}

				// Describe the candidate the same way held positions are
				// described, so similarity is apples to apples.
				f, err := deps.Market.GetFundamentals(ctx, args.String("ticker"))
				if err != nil {
					return nil, err
				}
				query := args.String("ticker")
				if f.Sector != "" {
					query += " " + f.Sector + " sector"
				}
				if f.Industry != "" {
					query += " " + f.Industry
				}

				topK := defaultTopK
				if args.Has("top_k") {
					topK = args.Int("top_k")
				}
				return deps.Index.Search(ctx, query, topK)
			},
		},
		{
			spec: Spec{
				Name:        "reindex_portfolio",
				Description: "Rebuild the semantic index from the current portfolio",
				Category:    CategorySemantic,
				Params:      map[string]ParamSpec{},
			},
			handler: func(ctx context.Context, args Args) (interface{}, error) {
				if err := requireIndex(); err != nil {
					return nil, err
				}
				positions, err := deps.Store.List(ctx)
				if err != nil {
					return nil, err
				}
				if err := deps.Index.Reindex(ctx, positions); err != nil {
					return nil, err
				}
				return map[string]interface{}{"indexed": len(positions)}, nil
			},
		},
	}

	for _, s := range specs {
		if err := r.Register(s.spec, s.handler); err != nil {
			return err
		}
	}
	return nil
}
