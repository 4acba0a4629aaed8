package rules

// DefaultCategories maps built-in category labels to their associated file
// extensions. Extensions are matched case-insensitively; the table is
// inverted into the extension index when a Set is built.
var DefaultCategories = map[string][]string{
	"Images": {
		".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff", ".tif", ".webp", ".svg", ".ico", ".heic", ".heif", ".raw",
	},
	"PDF": {
		".pdf",
	},
	"Documents": {
		".doc", ".docx", ".odt", ".rtf", ".tex", ".pages",
	},
	"Text": {
		".txt", ".rst", ".log",
	},
	"Markdown": {
		".md", ".markdown",
	},
	"Spreadsheets": {
		".xls", ".xlsx", ".ods", ".csv", ".tsv", ".numbers",
	},
	"Presentations": {
		".ppt", ".pptx", ".odp", ".key",
	},
	"Audio": {
		".mp3", ".flac", ".wav", ".aac", ".ogg", ".wma", ".m4a", ".opus", ".aiff",
	},
	"Videos": {
		".mp4", ".mkv", ".avi", ".mov", ".wmv", ".flv", ".webm", ".m4v", ".mpeg", ".mpg",
	},
	"Code": {
		".go", ".py", ".js", ".ts", ".java", ".c", ".cpp", ".h", ".hpp", ".rs", ".rb", ".php", ".swift", ".kt", ".cs", ".sh", ".html", ".css", ".json", ".yaml", ".yml", ".toml", ".xml", ".sql",
	},
	"Archives": {
		".zip", ".tar", ".gz", ".bz2", ".xz", ".7z", ".rar", ".tgz", ".tbz2", ".zst", ".iso",
	},
	"Fonts": {
		".ttf", ".otf", ".woff", ".woff2",
	},
	"Books": {
		".epub", ".mobi", ".azw3",
	},
	"Executables": {
		".exe", ".msi", ".dmg", ".deb", ".rpm", ".appimage",
	},
}

// CategoryOther is the fallback bucket for files no rule or MIME type matches.
const CategoryOther = "Other"
