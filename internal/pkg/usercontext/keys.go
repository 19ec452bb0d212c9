package usercontext

// Session and Locals keys shared between the auth controllers and the
// middleware stack. Controllers mirror these so a session written at login is
// readable everywhere without importing the controller package.
const (
	AuthKey          = "authenticated"
	KeyUserID        = "user_id"
	KeyUsername      = "username"
	KeyIsAdmin       = "isAdmin"
	KeyFromProtected = "from_protected"
)
