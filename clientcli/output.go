package clientcli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// Formatter formats results for output.
type Formatter interface {
	FormatUpload(w io.Writer, results []UploadResult) error
	FormatDownload(w io.Writer, result *DownloadResult) error
	FormatDelete(w io.Writer, results []DeleteResult) error
	FormatList(w io.Writer, result *ListResult) error
	FormatError(w io.Writer, err error) error
	FormatProfileList(w io.Writer, profiles []Profile, defaultName string) error
	FormatProfileShow(w io.Writer, profile Profile, isDefault bool) error
}

// NewFormatter returns the appropriate formatter based on flags.
func NewFormatter(jsonOutput, quiet bool) Formatter {
	if jsonOutput {
		return &JSONFormatter{}
	}
	return &HumanFormatter{Quiet: quiet}
}

// HumanFormatter outputs human-readable text.
type HumanFormatter struct {
	Quiet bool
}

// FormatUpload formats upload results as human-readable text.
func (f *HumanFormatter) FormatUpload(w io.Writer, results []UploadResult) error {
	for i := range results {
		r := &results[i]
		if r.Err != nil {
			_, _ = fmt.Fprintf(w, "Error: %s - %v\n", r.LocalPath, r.Err)
			continue
		}
		if !f.Quiet {
			_, _ = fmt.Fprintf(w, "Uploaded: %s -> %s (%s)\n", r.LocalPath, r.Key, formatSize(r.Size))
		}
	}
	return nil
}

// FormatDownload formats download result as human-readable text.
func (f *HumanFormatter) FormatDownload(w io.Writer, result *DownloadResult) error {
	if !f.Quiet {
		if result.LocalPath == "-" {
			_, _ = fmt.Fprintf(w, "Downloaded: %s (%s)\n", result.Key, formatSize(result.Size))
		} else {
			_, _ = fmt.Fprintf(w, "Downloaded: %s -> %s (%s)\n", result.Key, result.LocalPath, formatSize(result.Size))
		}
	}
	return nil
}

// FormatDelete formats delete results as human-readable text.
func (f *HumanFormatter) FormatDelete(w io.Writer, results []DeleteResult) error {
	for i := range results {
		r := &results[i]
		if r.Err != nil {
			_, _ = fmt.Fprintf(w, "Error: %s - %v\n", r.Key, r.Err)
			continue
		}
		if !f.Quiet {
			_, _ = fmt.Fprintf(w, "Deleted: %s\n", r.Key)
		}
	}
	return nil
}

// FormatList formats list results as human-readable text.
func (f *HumanFormatter) FormatList(w io.Writer, result *ListResult) error {
	if len(result.Items) == 0 {
		_, _ = fmt.Fprintln(w, "No files found")
		return nil
	}

	maxKeyLen := 3 // "KEY"
	for i := range result.Items {
		if len(result.Items[i].Key) > maxKeyLen {
			maxKeyLen = len(result.Items[i].Key)
		}
	}
	if maxKeyLen > 60 {
		maxKeyLen = 60
	}

	_, _ = fmt.Fprintf(w, "%-*s  %10s  %s\n", maxKeyLen, "KEY", "SIZE", "CREATED")
	_, _ = fmt.Fprintf(w, "%s  %s  %s\n", strings.Repeat("-", maxKeyLen), strings.Repeat("-", 10), strings.Repeat("-", 19))

	for i := range result.Items {
		item := &result.Items[i]
		key := item.Key
		if len(key) > maxKeyLen {
			key = key[:maxKeyLen-3] + "..."
		}
		_, _ = fmt.Fprintf(w, "%-*s  %10s  %s\n",
			maxKeyLen,
			key,
			formatSize(item.Size),
			item.CreatedAt.Format("2006-01-02 15:04:05"),
		)
	}

	_, _ = fmt.Fprintf(w, "\n%d file(s) (%s total)\n", len(result.Items), formatSize(result.TotalSize()))

	if result.Page+1 < result.TotalPages {
		_, _ = fmt.Fprintf(w, "Page %d of %d, %d file(s) in all. Next page: use --page %d\n",
			result.Page+1, result.TotalPages, result.TotalElements, result.Page+1)
	}

	return nil
}

// FormatError formats an error as human-readable text.
func (f *HumanFormatter) FormatError(w io.Writer, err error) error {
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	return nil
}

// JSONFormatter outputs JSON.
type JSONFormatter struct{}

// FormatUpload formats upload results as JSON.
func (f *JSONFormatter) FormatUpload(w io.Writer, results []UploadResult) error {
	// Convert errors to strings for JSON output
	type jsonResult struct {
		LocalPath   string `json:"local_path"`
		Key         string `json:"key,omitempty"`
		ID          int64  `json:"id,omitempty"`
		Filename    string `json:"filename,omitempty"`
		ContentType string `json:"content_type,omitempty"`
		Size        int64  `json:"size_bytes,omitempty"`
		CreatedAt   string `json:"created_at,omitempty"`
		Error       string `json:"error,omitempty"`
	}

	output := make([]jsonResult, len(results))
	for i := range results {
		r := &results[i]
		jr := jsonResult{
			LocalPath: r.LocalPath,
			Key:       r.Key,
		}
		if r.Err != nil {
			jr.Error = r.Err.Error()
		} else {
			jr.ID = r.ID
			jr.Filename = r.Filename
			jr.ContentType = r.ContentType
			jr.Size = r.Size
			jr.CreatedAt = r.CreatedAt.Format(time.RFC3339Nano)
		}
		output[i] = jr
	}

	return writeJSON(w, output)
}

// FormatDownload formats download result as JSON.
func (f *JSONFormatter) FormatDownload(w io.Writer, result *DownloadResult) error {
	return writeJSON(w, result)
}

// FormatDelete formats delete results as JSON.
func (f *JSONFormatter) FormatDelete(w io.Writer, results []DeleteResult) error {
	type jsonResult struct {
		Key     string `json:"key"`
		Deleted bool   `json:"deleted"`
		Error   string `json:"error,omitempty"`
	}

	output := struct {
		Results []jsonResult `json:"results"`
	}{
		Results: make([]jsonResult, len(results)),
	}

	for i, r := range results {
		jr := jsonResult{
			Key:     r.Key,
			Deleted: r.Deleted,
		}
		if r.Err != nil {
			jr.Error = r.Err.Error()
		}
		output.Results[i] = jr
	}

	return writeJSON(w, output)
}

// FormatList formats list results as JSON.
func (f *JSONFormatter) FormatList(w io.Writer, result *ListResult) error {
	return writeJSON(w, result)
}

// FormatError formats an error as JSON.
func (f *JSONFormatter) FormatError(w io.Writer, err error) error {
	output := struct {
		Error string `json:"error"`
	}{
		Error: err.Error(),
	}
	return writeJSON(w, output)
}

// writeJSON writes a value as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatSize formats bytes as human-readable size.
func formatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
		TB = GB * 1024
	)

	switch {
	case bytes >= TB:
		return fmt.Sprintf("%.1f TB", float64(bytes)/TB)
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// FormatProfileList formats a list of profiles as human-readable text.
func (f *HumanFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string) error {
	maxNameLen := 4     // "NAME"
	maxEndpointLen := 8 // "ENDPOINT"
	for i := range profiles {
		if len(profiles[i].Name) > maxNameLen {
			maxNameLen = len(profiles[i].Name)
		}
		if len(profiles[i].Endpoint) > maxEndpointLen {
			maxEndpointLen = len(profiles[i].Endpoint)
		}
	}
	if maxNameLen > 20 {
		maxNameLen = 20
	}
	if maxEndpointLen > 50 {
		maxEndpointLen = 50
	}

	_, _ = fmt.Fprintf(w, "  %-*s  %-*s  %s\n", maxNameLen, "NAME", maxEndpointLen, "ENDPOINT", "USER ID")
	_, _ = fmt.Fprintf(w, "  %s  %s  %s\n", strings.Repeat("-", maxNameLen), strings.Repeat("-", maxEndpointLen), strings.Repeat("-", 20))

	for i := range profiles {
		p := &profiles[i]
		marker := " "
		if p.Name == defaultName {
			marker = "*"
		}

		name := p.Name
		if len(name) > maxNameLen {
			name = name[:maxNameLen-3] + "..."
		}

		endpoint := p.Endpoint
		if len(endpoint) > maxEndpointLen {
			endpoint = endpoint[:maxEndpointLen-3] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s %-*s  %-*s  %s\n", marker, maxNameLen, name, maxEndpointLen, endpoint, orNotSet(p.UserID))
	}

	return nil
}

// FormatProfileShow formats a single profile as human-readable text.
func (f *HumanFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault bool) error {
	_, _ = fmt.Fprintf(w, "Name:     %s", profile.Name)
	if isDefault {
		_, _ = fmt.Fprintf(w, " (default)")
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "Endpoint: %s\n", profile.Endpoint)
	_, _ = fmt.Fprintf(w, "User ID:  %s\n", orNotSet(profile.UserID))
	return nil
}

// FormatProfileList formats a list of profiles as JSON.
func (f *JSONFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string) error {
	type jsonProfile struct {
		Name     string `json:"name"`
		Endpoint string `json:"endpoint"`
		UserID   string `json:"user_id,omitempty"`
		Default  bool   `json:"default,omitempty"`
	}

	output := struct {
		Profiles []jsonProfile `json:"profiles"`
	}{
		Profiles: make([]jsonProfile, len(profiles)),
	}

	for i := range profiles {
		p := &profiles[i]
		output.Profiles[i] = jsonProfile{
			Name:     p.Name,
			Endpoint: p.Endpoint,
			UserID:   p.UserID,
			Default:  p.Name == defaultName,
		}
	}

	return writeJSON(w, output)
}

// FormatProfileShow formats a single profile as JSON.
func (f *JSONFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault bool) error {
	output := struct {
		Name     string `json:"name"`
		Endpoint string `json:"endpoint"`
		UserID   string `json:"user_id"`
		Default  bool   `json:"default"`
	}{
		Name:     profile.Name,
		Endpoint: profile.Endpoint,
		UserID:   profile.UserID,
		Default:  isDefault,
	}

	return writeJSON(w, output)
}

func orNotSet(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
