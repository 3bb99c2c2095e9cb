package shared

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement is an external binary the pipeline shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// BinaryStatus reports whether a [Requirement] was found.
type BinaryStatus struct {
	Requirement
	Available bool
	Path      string
	Detail    string
}

// ToolRequirements lists the binaries named by the tools config.
func ToolRequirements(cfg ToolsConfig) []Requirement {
	return []Requirement{
		{Name: "yt-dlp", Command: cfg.YtDlp, Description: "media probing and download"},
		{Name: "ffmpeg", Command: cfg.FFmpeg, Description: "MP3 transcoding"},
		{Name: "ffprobe", Command: cfg.FFprobe, Description: "duration fallback", Optional: true},
	}
}

// CheckBinaries resolves each requirement through PATH.
func CheckBinaries(requirements []Requirement) []BinaryStatus {
	results := make([]BinaryStatus, 0, len(requirements))
	for _, req := range requirements {
		req.Command = strings.TrimSpace(req.Command)
		status := BinaryStatus{Requirement: req}

		if req.Command == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}

		path, err := exec.LookPath(req.Command)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", req.Command)
			results = append(results, status)
			continue
		}

		status.Available = true
		status.Path = path
		results = append(results, status)
	}
	return results
}

// MissingRequired returns the names of unavailable, non-optional binaries.
func MissingRequired(statuses []BinaryStatus) []string {
	var missing []string
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			missing = append(missing, s.Name)
		}
	}
	return missing
}
