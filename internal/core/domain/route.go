package domain

// View identifies one of the pages of the portal.
type View string

const (
	ViewLogin          View = "login"
	ViewRegister       View = "register"
	ViewWelcome        View = "welcome"
	ViewChangePassword View = "change-password"
	ViewAdmin          View = "admin"
)

const (
	FragmentLogin          = "#/login"
	FragmentRegister       = "#/register"
	FragmentWelcome        = "#/welcome"
	FragmentChangePassword = "#/change-password"
	FragmentAdmin          = "#/admin"
)

// access is the guard attached to a route.
type access int

const (
	accessPublic access = iota
	accessSession
	accessAdmin
)

type route struct {
	view   View
	access access
}

// routes maps a location fragment to its view and guard.
var routes = map[string]route{
	FragmentLogin:          {view: ViewLogin, access: accessPublic},
	FragmentRegister:       {view: ViewRegister, access: accessPublic},
	FragmentWelcome:        {view: ViewWelcome, access: accessSession},
	FragmentChangePassword: {view: ViewChangePassword, access: accessSession},
	FragmentAdmin:          {view: ViewAdmin, access: accessAdmin},
}

var viewFragments = map[View]string{
	ViewLogin:          FragmentLogin,
	ViewRegister:       FragmentRegister,
	ViewWelcome:        FragmentWelcome,
	ViewChangePassword: FragmentChangePassword,
	ViewAdmin:          FragmentAdmin,
}

// Resolution is the outcome of routing a fragment for a given session.
// When Redirected is set, Fragment is the location the caller must navigate
// to and Notice carries the transient message to show.
type Resolution struct {
	View       View   `json:"view"`
	Fragment   string `json:"fragment"`
	Redirected bool   `json:"redirected"`
	Notice     string `json:"notice,omitempty"`
}

// Resolve derives the view for fragment purely from the fragment and the
// current session. Empty and unknown fragments render the login view.
func Resolve(fragment string, session *Session) Resolution {
	if fragment == "" {
		fragment = FragmentLogin
	}

	r, ok := routes[fragment]
	if !ok {
		return Resolution{View: ViewLogin, Fragment: fragment}
	}

	switch r.access {
	case accessSession:
		if session == nil {
			return redirect(ViewLogin, ErrUnauthenticated)
		}
	case accessAdmin:
		if session == nil {
			return redirect(ViewLogin, ErrUnauthenticated)
		}
		if session.Role != RoleAdmin {
			return redirect(ViewWelcome, ErrForbidden)
		}
	}

	return Resolution{View: r.view, Fragment: fragment}
}

// Startup routes the first navigation. With no fragment the landing page
// depends on the session; otherwise it behaves like Resolve.
func Startup(fragment string, session *Session) Resolution {
	if fragment != "" && fragment != "#/" {
		return Resolve(fragment, session)
	}
	if session == nil {
		return Resolution{View: ViewLogin, Fragment: FragmentLogin, Redirected: true}
	}
	target := LandingFragment(session.Role)
	return Resolution{View: routes[target].view, Fragment: target, Redirected: true}
}

// LandingFragment is where a freshly signed-in user of role lands.
func LandingFragment(role Role) string {
	if role == RoleAdmin {
		return FragmentAdmin
	}
	return FragmentWelcome
}

// FragmentFor returns the location fragment of v.
func FragmentFor(v View) string {
	return viewFragments[v]
}

func redirect(v View, notice error) Resolution {
	return Resolution{
		View:       v,
		Fragment:   viewFragments[v],
		Redirected: true,
		Notice:     notice.Error(),
	}
}
