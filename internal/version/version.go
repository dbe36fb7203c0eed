package version

import "fmt"

// Заполняются через -ldflags при сборке.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Build описывает метаданные сборки сервера.
type Build struct {
	Version string
	Commit  string
	Date    string
}

// Current возвращает метаданные текущей сборки.
func Current() Build {
	return Build{Version: version, Commit: commit, Date: date}
}

// GetVersion возвращает только версию, для health-эндпоинта.
func GetVersion() string { return version }

// String — однострочное представление для стартового лога.
func String() string {
	return fmt.Sprintf("version=%s commit=%s date=%s", version, commit, date)
}
