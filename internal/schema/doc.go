// Package schema maps loosely named export columns onto the canonical ESG
// fields.
//
// A declared mapping from configuration always wins. Undeclared fields are
// filled from a versioned keyword table: the first column in table order
// that contains a keyword and no exclusion is taken, and the binding is
// marked as suggested. Suggest renders the heuristic result as YAML so an
// analyst can confirm it and move it into the declared mapping.
package schema
