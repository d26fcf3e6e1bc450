// Package confloader provides configuration loading mechanism.
//
// This package implements a flexible configuration loader that supports
// multiple sources using koanf as the underlying library.
//
// Priority (highest to lowest):
//
//  1. Environment variables
//  2. Configuration file (YAML)
//  3. Default values
//
// A companion fsnotify watcher triggers reloads when the configuration
// file changes on disk.
package confloader
