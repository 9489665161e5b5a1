// Package build provides the canonical image build pipeline for the service.
//
// The pipeline turns a remote repository URL into a runnable container
// image: workspace preparation, shallow clone, Dockerfile synthesis, image
// build. All execution paths (HTTP, CLI, tests) route through Service, and
// every path that prepares a workspace tears it down before returning.
package build
