// Package config provides configuration parsing for trellis applications.
//
// The configuration is stored in trellis.json (or trellis.yaml) next to the
// application. This package handles loading, saving, and validating it.
//
// # Configuration File Structure
//
//	{
//	  "root": "/html/body",
//	  "queueSize": 256,
//	  "collect": true,
//	  "lengthPolicy": "replace",
//	  "log": {
//	    "level": "info",
//	    "format": "auto"
//	  },
//	  "metrics": {
//	    "namespace": "trellis"
//	  },
//	  "serve": {
//	    "addr": ":3000",
//	    "example": "counter"
//	  }
//	}
//
// The same keys are accepted in YAML.
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    // handle error
//	}
//	opts := app.FromConfig(cfg)
package config
