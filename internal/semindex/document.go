package semindex

import (
	"fmt"
	"strings"

	"plutus/internal/domain/portfolio"
)

// renderDocument turns a position into the text that gets embedded. The
// phrasing matters: sector and ticker words are what free-text queries like
// "my tech holdings" match against.
func renderDocument(p portfolio.Position) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s holding: %s shares purchased at $%s per share",
		p.Ticker, p.Shares.String(), p.CostBasis.String())

	if p.Sector != "" {
		fmt.Fprintf(&b, ", %s sector", p.Sector)
	}
	if !p.PurchaseDate.IsZero() {
		fmt.Fprintf(&b, ", bought on %s", p.PurchaseDate.Format("2006-01-02"))
	}

	return b.String()
}
