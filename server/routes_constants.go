package server

const (
	RouteAuthLogin     = "/auth/login"
	RouteAuthRefresh   = "/auth/refresh"
	RouteAuthLogout    = "/auth/logout"
	RouteMe            = "/api/me"
	RouteWellKnownJWKS = "/.well-known/jwks.json"
)
