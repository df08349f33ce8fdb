// Package store persists capacity records in the semicolon separated
// kapa_data.csv file.
//
// The file is read completely on every load and rewritten completely on
// every save. Saves copy the previous file to <store>.bak first and then
// replace the store atomically, so a failed write leaves the prior file in
// place. There is no locking; callers serialize writers within a process.
package store
