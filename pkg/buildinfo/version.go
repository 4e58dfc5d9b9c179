// Package buildinfo holds the version stamped into kintree binaries.
//
// The variables are set with ldflags:
//
//	go build -ldflags "-X github.com/matzehuels/kintree/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/matzehuels/kintree/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/matzehuels/kintree/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)" ./cmd/kintree
package buildinfo

import "fmt"

var (
	// Version is the semantic version, reported by "kintree --version" and GET /.
	Version = "dev"
	// Commit is the git commit SHA.
	Commit = "none"
	// Date is the build timestamp.
	Date = "unknown"
)

// Template returns the cobra version template.
func Template() string {
	return fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\n", Version, Commit, Date)
}
