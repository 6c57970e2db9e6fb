// Package config loads rask configuration with viper.
//
// Values come from, in increasing precedence: built-in defaults, an
// optional rask.yaml, rask.json or rask.toml file, RASK_ environment
// variables and command-line flags bound by the CLI.
//
// # Configuration File Structure
//
//	log:
//	  level: info
//	  format: text
//	metrics:
//	  enabled: true
//	  namespace: rask
//	inspector:
//	  addr: 127.0.0.1:7070
//	  pretty: false
//	  app: counter
//	snapshot:
//	  dir: snapshots
//	  s3:
//	    bucket: ""
//	    prefix: ""
//	    region: ""
//	    endpoint: ""
//	debug: false
//
// # Usage
//
//	v := config.NewViper()
//	cfg, err := config.Load(v, "", ".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Inspector:", cfg.Inspector.Addr)
package config
