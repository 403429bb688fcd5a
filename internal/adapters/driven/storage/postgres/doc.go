// Package postgres implements the document store and vector searcher
// over Postgres with the pgvector extension.
package postgres
