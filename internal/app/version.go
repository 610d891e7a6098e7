package app

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
)

// Build information, set at link time:
//
//	go build -ldflags "-X github.com/agbru/fibiter/internal/app.Version=v1.2.0 \
//	  -X github.com/agbru/fibiter/internal/app.Commit=$(git rev-parse --short HEAD)"
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// HasVersionFlag reports whether args request the version. It is checked
// before flag parsing so that --version works with otherwise invalid flags.
func HasVersionFlag(args []string) bool {
	for _, arg := range args {
		switch arg {
		case "--version", "-V":
			return true
		case "--":
			return false
		}
	}
	return false
}

// PrintVersion writes the version line.
func PrintVersion(out io.Writer) {
	commit, date := Commit, Date
	if commit == "" {
		commit, date = vcsInfo()
	}
	fmt.Fprintf(out, "fibiter %s", Version)
	if commit != "" {
		fmt.Fprintf(out, " (%s", commit)
		if date != "" {
			fmt.Fprintf(out, ", %s", date)
		}
		fmt.Fprint(out, ")")
	}
	fmt.Fprintf(out, " %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// vcsInfo reads the revision stamped by the go command, if any.
func vcsInfo() (revision, time string) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "", ""
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
			if len(revision) > 12 {
				revision = revision[:12]
			}
		case "vcs.time":
			time = s.Value
		}
	}
	return revision, time
}
