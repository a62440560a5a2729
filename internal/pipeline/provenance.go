package pipeline

import (
	"context"
	"os/exec"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/hiring-signal/internal/types"
)

// Build metadata, overridden with -ldflags "-X ...".
var (
	ToolVersion = "0.1.0-dev"
	GitSHA      = ""
)

const unknownRevision = "unknown"

// NewRunID returns an identifier of the form YYYYmmdd_HHMMSS_abcd for a run
// started at start.
func NewRunID(start time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:4]
	return start.UTC().Format("20060102_150405") + "_" + suffix
}

// Revision returns the short source revision of the running binary.
// It prefers the build-time value, then the embedded VCS stamp, then git.
func Revision() string {
	if GitSHA != "" {
		return GitSHA
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && s.Value != "" {
				return shortSHA(s.Value)
			}
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	out, err := exec.CommandContext(ctx, "git", "rev-parse", "--short", "HEAD").Output()
	if err == nil {
		if sha := strings.TrimSpace(string(out)); sha != "" {
			return sha
		}
	}
	return unknownRevision
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

func newProvenance(runID string, start time.Time, companies int, format, version, sha string) types.RunProvenance {
	if format == "" {
		format = "jsonl"
	}
	if version == "" {
		version = ToolVersion
	}
	if sha == "" {
		sha = unknownRevision
	}
	return types.RunProvenance{
		RecordType:   types.RecordTypeProvenance,
		RunID:        runID,
		ToolVersion:  version,
		GitSHA:       sha,
		CrawlTS:      start.UTC().Format(time.RFC3339),
		Companies:    companies,
		OutputFormat: format,
	}
}
