package tools

import (
	"plutus/internal/analysis"
	"plutus/internal/domain/portfolio"
	"plutus/internal/marketdata"
	"plutus/internal/semindex"
)

// Deps are the collaborators behind the tool catalog. Index may be nil
// when no vector store is configured; the semantic tools then report a
// collaborator error and everything else keeps working.
type Deps struct {
	Market    marketdata.Provider
	Store     portfolio.Store
	Index     semindex.Index
	Analyzer  *analysis.StockAnalyzer
	Analytics *analysis.Analytics
}
