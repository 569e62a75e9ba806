package common

import "fmt"

// Must be manually updated!
// Before releasing: set Prerelease to ""
// After releasing: increase Patch and set Prerelease to "pre"
var version = Version{
	Major:      0,
	Minor:      1,
	Patch:      0,
	Prerelease: "",
}

// Set via -ldflags. Example:
//
//	go install -ldflags "-X github.com/drand/drand-mcp/common.COMMIT=`git rev-parse HEAD`"
var (
	COMMIT    = ""
	BUILDDATE = ""
)

// AppName is how the adapter identifies itself to hosts and beacon servers.
const AppName = "drand-mcp"

func GetAppVersion() Version {
	return version
}

type Version struct {
	Major      uint32
	Minor      uint32
	Patch      uint32
	Prerelease string
}

func (v Version) String() string {
	pre := ""
	if v.Prerelease != "" {
		pre = "-" + v.Prerelease
	}
	return fmt.Sprintf("%d.%d.%d%s", v.Major, v.Minor, v.Patch, pre)
}

// UserAgent is sent on every outbound beacon request.
func UserAgent() string {
	return fmt.Sprintf("%s/%s", AppName, version)
}
