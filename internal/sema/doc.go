// Package sema infers a static type for every expression of a resolved
// program. Types drive the boxing decisions of the lowering: Int and Bool
// stay native, pairs of known members stay unboxed, and everything the
// inference cannot pin down is Dynamic.
//
// Function signatures are found by iterating over the whole program until
// they stop changing. Parameters of functions that never escape are the join
// of their direct call-site arguments; escaping functions take Dynamic.
package sema
