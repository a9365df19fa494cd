// Package models defines the roster cache tables and the read views built from them.
package models
