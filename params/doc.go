// Package params validates and converts the path and query params of a
// request against the path_params and query_params of a definition.
//
// Raw params usually arrive as strings, so each declared type also accepts
// its string form (an integer accepts "42", a boolean "true"). Conversion
// tries the declared type alternatives in order with the parsers of a
// [Registry]; register a parser to support a custom type or format.
package params
