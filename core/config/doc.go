// Package config provides configuration management for the ranking tool.
//
// It utilizes Viper for loading configuration from environment variables
// and an optional .env file. Default values come from `default` struct tags
// on each partial configuration.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: HTTP server settings (port, API key)
//   - Database: local cache database (sqlite file or MySQL)
//   - Storage: S3/MinIO credentials and bucket for report exports
//   - Log: Logging level and format
//   - Warera: remote game API base URL, bearer token and request pacing
//   - Reconcile: detail batch width and roster cap
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Warera.BaseURL)
package config
