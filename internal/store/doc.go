// Package store provides persistence for inventory-api.
//
// # Architecture
//
// Two small interfaces keep callers independent of the backend:
//
//   - PrincipalStore: username lookup for the authentication gate
//   - ProductStore: the product catalogue served behind the gate
//
// SQLiteStore implements both on a single database. MemoryPrincipals is an
// immutable PrincipalStore built once from configuration, which is the
// default credential source.
//
// # Data Models
//
//   - Principal: username, bcrypt password hash, role set
//   - Product: name (unique, case-insensitive), description, price in
//     integer cents, quantity, timestamps
//
// # Schema
//
// Tables are created with CREATE TABLE IF NOT EXISTS when the store opens.
// Additive column changes are applied by runMigrations, which checks
// pragma_table_info before altering.
package store
