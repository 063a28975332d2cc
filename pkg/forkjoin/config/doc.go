// Package config provides file-based configuration for the forkjoin engine.
//
// Config wraps a plain map so engine settings can come from YAML or
// JSON files without the engine depending on any particular schema:
//
//	cfg, err := config.FromFile("engine.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := forkjoin.Run(ctx, input, leaf, forkjoin.OptionsFromConfig(cfg)...)
//
// Recognized keys are documented on forkjoin.OptionsFromConfig.
package config
