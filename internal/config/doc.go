// Package config loads vtree project configuration.
//
// The configuration lives in vtree.json, vtree.yaml or vtree.yml at the
// project root. Missing fields take their defaults; Validate reports the
// first problem as a coded error (C0xx).
//
// # Configuration File Structure
//
//	name: dashboard
//	log:
//	  level: debug
//	  format: json
//	server:
//	  address: ":8080"
//	  maxSessions: 100
//	  readTimeout: 60s
//	metrics:
//	  enabled: true
//	  namespace: vtree
//	tracing:
//	  enabled: true
//	snapshot:
//	  backend: s3
//	  bucket: rendered-pages
//	  prefix: snaps/
//	render:
//	  minify: true
//
// # Usage
//
//	cfg, err := config.LoadFromWorkingDir()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config
