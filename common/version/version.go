package version

import "fmt"

// VERSION and GITCOMMIT are set at build time, e.g.
// -ldflags "-X github.com/tidecast/tidecast/common/version.VERSION=1.2.0".
var (
	VERSION   string
	GITCOMMIT string
)

// VersionToString returns the version the binary was built from, or "dev" if none was injected.
func VersionToString() string {
	switch {
	case VERSION == "" && GITCOMMIT == "":
		return "dev"
	case GITCOMMIT == "":
		return VERSION
	case VERSION == "":
		return GITCOMMIT
	default:
		return fmt.Sprintf("%s - %s", VERSION, GITCOMMIT)
	}
}
