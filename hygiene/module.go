package hygiene

import (
	"github.com/npillmayer/splice/macro"
	"github.com/npillmayer/splice/quote"
)

// ModuleName is the name of the macro module providing hygienic quotes.
const ModuleName = "splice.hquote"

// Macros creates the macro module for hygienic quotes: expression macro `hq`
// and block macro `hq`.
func Macros() *macro.Module {
	b := macro.NewBuilder(ModuleName)
	b.Add(macro.ExprShape, "hq", quote.ExprQuote(Rename), 0)
	b.Add(macro.BlockShape, "hq", quote.BlockQuote(Rename), macro.WantTarget)
	b.Expose(quote.Namespace)
	return b.Build()
}
