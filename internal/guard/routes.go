package guard

import (
	"strings"

	"photoshare/internal/models"
	"photoshare/internal/observability"
	"photoshare/internal/session"
)

// Screen identifies a top-level screen.
type Screen string

const (
	ScreenLogin     Screen = "login"
	ScreenSignup    Screen = "signup"
	ScreenFeed      Screen = "feed"
	ScreenDashboard Screen = "dashboard"
	ScreenSearch    Screen = "search"
	ScreenProfile   Screen = "profile"
	ScreenNotFound  Screen = "not_found"
)

// Paths of the routed screens.
const (
	PathLogin     = "/login"
	PathSignup    = "/signup"
	PathHome      = "/"
	PathDashboard = "/dashboard"
	PathSearch    = "/search"
	PathProfile   = "/profile"
)

// maxHops bounds redirect chains. The route table needs at most two.
const maxHops = 4

// Route binds a path to a screen and the policies guarding it.
type Route struct {
	Path     string
	Screen   Screen
	Policies []Policy
}

// Routes is the application route table.
var Routes = []Route{
	{Path: PathLogin, Screen: ScreenLogin, Policies: []Policy{AuthRedirect}},
	{Path: PathSignup, Screen: ScreenSignup, Policies: []Policy{AuthRedirect}},
	{Path: PathHome, Screen: ScreenFeed, Policies: []Policy{ProtectedRoute, CreatorBlock}},
	{Path: PathDashboard, Screen: ScreenDashboard, Policies: []Policy{ProtectedRoute, RoleRoute(models.RoleCreator)}},
	{Path: PathSearch, Screen: ScreenSearch},
	{Path: PathProfile, Screen: ScreenProfile},
}

// RoleHome is the landing path for role.
func RoleHome(role models.Role) string {
	if role == models.RoleCreator {
		return PathDashboard
	}
	return PathHome
}

// Lookup finds the route for path. Unknown paths map to the not-found screen
// with no policies.
func Lookup(path string) Route {
	p := normalize(path)
	for _, r := range Routes {
		if r.Path == p {
			return r
		}
	}
	return Route{Path: p, Screen: ScreenNotFound}
}

func normalize(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return PathHome
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = PathHome
		}
	}
	return path
}

// Resolution is where a navigation ends up.
type Resolution struct {
	// Requested is the path asked for.
	Requested string
	// Path is the path of the screen that renders.
	Path   string
	Screen Screen
	// First is the decision for the requested path itself.
	First Decision
	// Redirects lists every non-Allow decision that was followed.
	Redirects []Decision
}

// Redirected reports whether the navigation did not land where requested.
func (r Resolution) Redirected() bool {
	return len(r.Redirects) > 0
}

// Resolve follows guard redirects from path until a screen allows the
// session.
func Resolve(s session.Session, path string) Resolution {
	res := Resolution{Requested: path}
	route := Lookup(path)

	for hop := 0; ; hop++ {
		d := Evaluate(s, route.Policies...)
		if hop == 0 {
			res.First = d
		}
		if d.Allowed() || hop == maxHops {
			res.Path = route.Path
			res.Screen = route.Screen
			return res
		}
		res.Redirects = append(res.Redirects, d)
		observability.GuardRedirects.WithLabelValues(d.Kind.String()).Inc()
		route = Lookup(d.Target())
	}
}
