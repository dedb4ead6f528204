package recipe

import (
	"fmt"
	"regexp"
	"strings"
)

var refToken = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_+.-]*$`)

// Reference identifies a package release: name/version@user/channel.
// User and channel are optional but come as a pair.
type Reference struct {
	Name    string
	Version string
	User    string
	Channel string
}

// ParseReference parses "name/version" or "name/version@user/channel".
func ParseReference(s string) (Reference, error) {
	s = strings.TrimSpace(s)
	nameVersion, userChannel, hasAt := strings.Cut(s, "@")

	name, version, ok := strings.Cut(nameVersion, "/")
	if !ok {
		return Reference{}, fmt.Errorf("reference %q: expected name/version", s)
	}
	ref := Reference{Name: name, Version: version}
	if hasAt {
		user, channel, ok := strings.Cut(userChannel, "/")
		if !ok {
			return Reference{}, fmt.Errorf("reference %q: expected user/channel after '@'", s)
		}
		ref.User, ref.Channel = user, channel
	}
	if err := ref.Validate(); err != nil {
		return Reference{}, err
	}
	return ref, nil
}

// Validate checks every present component.
func (r Reference) Validate() error {
	for _, part := range []struct{ field, value string }{{"name", r.Name}, {"version", r.Version}} {
		if !refToken.MatchString(part.value) {
			return fmt.Errorf("reference %s: invalid %s %q", r, part.field, part.value)
		}
	}
	if (r.User == "") != (r.Channel == "") {
		return fmt.Errorf("reference %s: user and channel must be set together", r)
	}
	if r.User != "" && (!refToken.MatchString(r.User) || !refToken.MatchString(r.Channel)) {
		return fmt.Errorf("reference %s: invalid user/channel", r)
	}
	return nil
}

// String renders the canonical form.
func (r Reference) String() string {
	s := r.Name + "/" + r.Version
	if r.User != "" || r.Channel != "" {
		s += "@" + r.User + "/" + r.Channel
	}
	return s
}

// Requirement is a dependency reference declared by the recipe. Resolution
// is left to the dependency manager.
type Requirement = Reference
