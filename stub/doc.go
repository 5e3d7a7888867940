// Package stub serves the examples of endpoint contracts over HTTP so that
// clients can be developed against an API before it exists.
package stub
