// Package config loads the opinions configuration.
//
// Settings come from, in increasing precedence:
//
//  1. Built-in defaults (New)
//  2. opinions.json, opinions.yaml or opinions.yml in the working directory
//  3. OPINIONS_* environment variables
//
// Example opinions.yaml:
//
//	addr: ":8080"
//	logLevel: info
//	metrics: true
//	store:
//	  backend: sqlite
//	  sqlitePath: opinions.db
//
// Environment variables:
//
//	OPINIONS_ADDR            listen address
//	OPINIONS_REMOTE          server URL for client commands
//	OPINIONS_LOG_LEVEL       debug, info, warn or error
//	OPINIONS_METRICS         serve /metrics
//	OPINIONS_STORE           memory, sqlite or s3
//	OPINIONS_SQLITE_PATH     SQLite database file
//	OPINIONS_S3_BUCKET       snapshot bucket
//	OPINIONS_S3_KEY          snapshot object key
//	OPINIONS_S3_REGION       bucket region
//	OPINIONS_S3_ENDPOINT     custom endpoint (MinIO, localstack)
//	OPINIONS_S3_PATH_STYLE   use path-style addressing
//	OPINIONS_S3_ACCESS_KEY_ID, OPINIONS_S3_SECRET_ACCESS_KEY
package config
