// Package config loads the camp configuration.
//
// Values are layered in increasing precedence:
//
//	1. Default()
//	2. camp.yaml (or the file passed to Load)
//	3. CAMP_* environment variables, e.g. CAMP_STORAGE_DATA_DIR
//
// The merged Config is validated with struct tags before use. Paths resolves
// the storage section into absolute file locations.
package config
