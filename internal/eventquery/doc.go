// Package eventquery describes event queries independently of storage.
//
// A Filter, ObjectRef, or Activity is what callers build. Filter and Activity
// lower to a sealed Predicate tree that backend compilers (see querysql)
// translate to their own query language:
//
//	[Filter] → [Predicate] → [SQL]
//
// Validation happens here, before any backend is involved, and reports
// caller mistakes as *UsageError.
package eventquery
