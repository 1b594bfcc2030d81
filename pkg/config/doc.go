// Package config loads typed configuration structs from environment
// variables, with optional .env files for local runs.
//
// Struct fields are described with caarlos0/env tags. Every package that
// needs settings declares its own Config type and the command composes them;
// see cmd/newsletter.
package config
