package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID     = "build_id"
	KeyRepoURL     = "repo_url"
	KeyName        = "name"
	KeyPath        = "path"
	KeyImageTag    = "image_tag"
	KeyProjectType = "project_type"
	KeyStage       = "stage"
	KeyAttempt     = "attempt"
	KeyLogLines    = "log_lines"
	KeyDurationMS  = "duration_ms"
	KeyMethod      = "method"
	KeyStatus      = "status"
	KeyResponseSz  = "response_size"
	KeyUserAgent   = "user_agent"
	KeyRemoteAddr  = "remote_addr"
	KeyRequestID   = "request_id"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr      { return slog.String(KeyBuildID, id) }
func RepoURL(u string) slog.Attr       { return slog.String(KeyRepoURL, u) }
func Name(n string) slog.Attr          { return slog.String(KeyName, n) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func ImageTag(t string) slog.Attr      { return slog.String(KeyImageTag, t) }
func ProjectType(t string) slog.Attr   { return slog.String(KeyProjectType, t) }
func Stage(name string) slog.Attr      { return slog.String(KeyStage, name) }
func Attempt(n int) slog.Attr          { return slog.Int(KeyAttempt, n) }
func LogLines(n int) slog.Attr         { return slog.Int(KeyLogLines, n) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Method(m string) slog.Attr        { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr        { return slog.Int(KeyStatus, code) }
func ResponseSize(n int) slog.Attr     { return slog.Int(KeyResponseSz, n) }
func UserAgent(ua string) slog.Attr    { return slog.String(KeyUserAgent, ua) }
func RemoteAddr(addr string) slog.Attr { return slog.String(KeyRemoteAddr, addr) }
func RequestID(id string) slog.Attr    { return slog.String(KeyRequestID, id) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
