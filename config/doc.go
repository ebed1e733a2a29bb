// Package config loads the runtime settings shared by the audiomodectl
// command and any service embedding an audiomode machine.
//
// Settings come from built-in defaults, an optional YAML, TOML or JSON
// file, and CALLAUDIO_* environment variables, in increasing priority:
//
//	cfg, err := config.Load("callaudio.yaml")
//	if err != nil {
//	    return err
//	}
//	closer, err := config.ConfigureLogging(cfg)
//	if err != nil {
//	    return err
//	}
//	defer closer.Close()
//
// # Environment Variables
//
//   - CALLAUDIO_QUEUE_SIZE: event queue capacity (1-65536)
//   - CALLAUDIO_JOURNAL_SIZE: retained transition records (0-1000000)
//   - CALLAUDIO_LOG_LEVEL: any logrus level name
//   - CALLAUDIO_LOG_FORMAT: "text" or "json"
//   - CALLAUDIO_LOG_FILE: append logs to this file instead of stdout
package config
