// Package services implements the core application logic: indexing,
// retrieval, context assembly and the answer policy. Services depend
// only on port interfaces and are safe for concurrent use.
package services
