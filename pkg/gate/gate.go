package gate

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// MarkerCookie only signals that a session exists; the bearer token lives in
// a separate cookie that the gate never reads.
const MarkerCookie = "isSign"

type MatchMode string

const (
	MatchPrefix MatchMode = "prefix"
	MatchExact  MatchMode = "exact"
)

func ParseMatchMode(s string) (MatchMode, error) {
	switch MatchMode(s) {
	case "", MatchPrefix:
		return MatchPrefix, nil
	case MatchExact:
		return MatchExact, nil
	}
	return "", fmt.Errorf("unknown match mode %q", s)
}

type Routes struct {
	Protected      []string
	UserController []string
	Match          MatchMode
	Home           string
	Landing        string
}

func DefaultRoutes() Routes {
	return Routes{
		Protected:      []string{"/dashboard"},
		UserController: []string{"/login", "/register"},
		Match:          MatchPrefix,
		Home:           "/",
		Landing:        "/dashboard",
	}
}

// Decision is either Allow or a redirect to Location.
type Decision struct {
	Location string
}

var Allow = Decision{}

func RedirectTo(path string) Decision {
	return Decision{Location: path}
}

func (d Decision) Redirect() bool {
	return d.Location != ""
}

func (d Decision) String() string {
	if d.Redirect() {
		return "redirect:" + d.Location
	}
	return "allow"
}

// Decide applies the access table:
//
//	protected       + no marker -> Home
//	user-controller + marker    -> Landing
//	everything else             -> allow
func (r Routes) Decide(path string, markerPresent bool) Decision {
	switch {
	case r.matches(r.Protected, path):
		if !markerPresent {
			return RedirectTo(r.Home)
		}
	case r.matches(r.UserController, path):
		if markerPresent {
			return RedirectTo(r.Landing)
		}
	}
	return Allow
}

func (r Routes) matches(list []string, path string) bool {
	for _, route := range list {
		if path == route {
			return true
		}
		if r.Match == MatchExact {
			continue
		}
		if route == "/" {
			return true
		}
		if strings.HasPrefix(path, strings.TrimSuffix(route, "/")+"/") {
			return true
		}
	}
	return false
}

// MarkerPresent reports whether the request carries a truthy session marker.
// Anything unreadable counts as absent.
func MarkerPresent(r *http.Request) bool {
	c, err := r.Cookie(MarkerCookie)
	if err != nil {
		return false
	}
	ok, err := strconv.ParseBool(c.Value)
	return err == nil && ok
}
