// Package database provides connection pool management for PostgreSQL.
//
// One shared pool serves the batch processors, the maintenance scheduler and
// the startup bootstrap. No caller holds a connection outside its own
// transaction's lifetime.
package database
