package formbd

import "fmt"

// Version is the engine's 3-component version.
type Version struct {
	Major uint32
	Minor uint32
	Patch uint32
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// EngineVersion loads the engine library if necessary and queries its
// version.
func EngineVersion() (Version, error) {
	api, err := engineAPI("")
	if err != nil {
		return Version{}, err
	}
	major, minor, patch := api.Version()
	return Version{Major: major, Minor: minor, Patch: patch}, nil
}
