// Package domain contains the core business entities and value objects
// for DocPilot. Entities here have no dependencies on infrastructure;
// adapters map them to and from storage and transport representations.
package domain
