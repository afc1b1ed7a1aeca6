// Package buildinfo exposes version metadata injected at link time.
package buildinfo

import "encoding/json"

var (
	Version = "dev"
	Commit  = ""
	BuiltAt = ""
)

func Info() map[string]string {
	return map[string]string{
		"version": Version,
		"commit":  Commit,
		"builtAt": BuiltAt,
	}
}

// JSON renders the build metadata for the /version endpoint.
func JSON() []byte {
	b, _ := json.Marshal(Info())
	return b
}
