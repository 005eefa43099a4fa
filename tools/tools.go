//go:build tools

// Package tools records the development tools this repo expects on PATH.
// They are installed with `go install` and stay out of go.mod.
package tools

// mockgen regenerates internal/mocks/identity_mock.go (go generate ./internal/mocks):
//
//	go install go.uber.org/mock/mockgen@v0.6.0
//
// Air reloads cmd/bns on change during local development:
//
//	go install github.com/air-verse/air@v1.63.0
//	air --build.cmd "go build -o ./tmp/bns ./cmd/bns" --build.bin ./tmp/bns
