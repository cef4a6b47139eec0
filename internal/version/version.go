package version

// Version holds the application's version string.
// This is set at build time:
//
//	go build -ldflags "-X github.com/tamzrod/flowlogger/internal/version.Version=1.2.0"
var Version = "dev"

// BuildDate holds the date the binary was built.
// This is set at build time.
var BuildDate = "not set"
