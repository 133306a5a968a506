package folder

// Folder and file names joined onto the configured base paths at
// runtime.
const (
	DatabasePath = "hearth.db"
	MediaPath    = "media"
	SessionsPath = "sessions"
)
