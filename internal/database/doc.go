// Package database provides the connection pool for the tick journal.
//
// The journal stores received market-data ticks in PostgreSQL/TimescaleDB;
// order and position state is never persisted.
package database
