package version

// UbuntuID identifies the Ubuntu release scheme.
const UbuntuID = "ubuntu"

// Ubuntu maps codenames and numeric releases onto the same version, so
// "focal" and "20.04" are equal.
var Ubuntu = table{
	id: UbuntuID,
	releases: map[string]Release{
		"bionic": {18, 4},
		"18.04":  {18, 4},
		"focal":  {20, 4},
		"20.04":  {20, 4},
	},
}

// Lookup returns the scheme registered under id.
func Lookup(id string) (Scheme, bool) {
	switch id {
	case UbuntuID:
		return Ubuntu, true
	}
	return nil, false
}
