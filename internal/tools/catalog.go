package tools

// NewCatalog builds the full tool registry from its collaborators. Any
// registration failure (a duplicate name, a missing handler) is a startup
// error, not a call-time one.
func NewCatalog(deps Deps) (*Registry, error) {
	r := NewRegistry()

	if err := registerMarketTools(r, deps); err != nil {
		return nil, err
	}
	if err := registerPortfolioTools(r, deps); err != nil {
		return nil, err
	}
	if err := registerSemanticTools(r, deps); err != nil {
		return nil, err
	}
	if err := registerAnalysisTools(r, deps); err != nil {
		return nil, err
	}

	return r, nil
}
