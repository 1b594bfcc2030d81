// Package environment names the deployment environments the service runs in
// and parses the APP_ENV variable into one of them.
package environment
