// Package lingq wraps the LingQ REST API: token login, language listing,
// vocabulary card listing, and marking cards known. Pagination of the cards
// endpoint is deliberately unimplemented; a count/page mismatch fails loudly
// rather than returning a partial set.
package lingq
