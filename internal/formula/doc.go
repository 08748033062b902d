// Package formula parses and evaluates the restricted arithmetic language used
// by line item formulas.
//
// A formula references other named quantities for the current year (`revenue`)
// or for a prior year (`revenue[-1]`), combines them with the binary operators
// + - * / // % ** and unary + -, and may aggregate a category with
// `category_total("opex")`. The legacy form `category_total:opex` is accepted
// when it makes up the whole formula. Everything else is rejected with an
// *UnsupportedError naming the construct.
//
// Values are looked up through the Lookup interface so the evaluator has no
// knowledge of how the value matrix is stored.
package formula
