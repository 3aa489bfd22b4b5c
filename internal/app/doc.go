// Package app wires the LabPulse server: configuration, logging,
// OpenTelemetry, the analysis and health services, the chi router and the
// input watcher.
//
// # Initialization Flow
//
//	1. Load configuration from .env, environment and YAML
//	2. Initialize logging and observability
//	3. Resolve and create the input and output directories
//	4. Create the result cache and the analysis service
//	5. Set up HTTP handlers and middleware
//	6. Configure the HTTP server
//
// # Usage
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    return err
//	}
//	return application.Run()
//
// Run blocks until SIGINT or SIGTERM, then drains in-flight requests, stops
// the watcher and flushes telemetry. Initialization errors are returned to
// the caller; the package never calls os.Exit.
package app
