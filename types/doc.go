// Package types contains the core types and interfaces shared across the
// mbxas library.
//
// It exists so that internal packages can depend on these definitions without
// importing the root package, which would create import cycles. Users normally
// import the root package, which re-exports everything here via type aliases.
package types
