// Package svd reads CMSIS-SVD style hardware descriptions into a
// generic element tree.
//
// # Element Tree
//
// The XML surface is deliberately thin: Parse tokenizes a document with
// encoding/xml and returns it as a tree of Element values (name, text,
// attributes, ordered children). Everything the compiler knows about
// the description vocabulary lives in pkg/model, which walks this tree;
// nothing outside this package touches an XML token.
//
// # Scalars
//
// Descriptions write numbers in decimal ("42"), hex ("0x2A") and, for
// enumerated values, the SVD binary form ("#101x" where 'x' digits are
// "do not care"). ParseUint accepts all three and normalizes to uint64.
package svd
