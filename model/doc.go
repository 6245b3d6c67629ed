// Package model defines core types used throughout recgo.
//
// # Identity Types
//
//   - ID: stable per-table record identifier (int64, 0 is reserved)
//   - RefList: ordered list of child record ids referenced from a row
//
// # Data Types
//
//   - PrimitiveType: the four allowed field storage types
//     (Integer, Real, Text, Blob)
//   - Record: a node in a record tree (id, fields, child groups)
//
// Normalize and FormatValue define the canonical in-memory and textual
// representations of field values; every package that touches field values
// goes through them so that round trips compare deep-equal.
package model
