package api

// API version prefix shared by every route.
const Prefix = "/api/v1"

// User and token endpoints
const (
	UsersSignup    = Prefix + "/users/signup"
	UsersVerifyOTP = Prefix + "/users/verify-otp"
	UsersResendOTP = Prefix + "/users/resend-otp"
	UsersToken     = Prefix + "/users/token"
	UsersRefresh   = Prefix + "/users/refresh"
	UsersMe        = Prefix + "/users/me"
)

// Gym access code endpoints
const (
	GymIDsGenerate = Prefix + "/gym-ids/generate"
	GymIDsVerify   = Prefix + "/gym-ids/verify"
)

// PublicEndpoints defines endpoints that don't require a bearer token
var PublicEndpoints = map[string]bool{
	UsersSignup:    true,
	UsersVerifyOTP: true,
	UsersResendOTP: true,
	UsersToken:     true,
	UsersRefresh:   true,
}

// CredentialEndpoints take passwords or one-time codes and get the stricter
// rate limit bucket.
var CredentialEndpoints = map[string]bool{
	UsersSignup:    true,
	UsersVerifyOTP: true,
	UsersResendOTP: true,
	UsersToken:     true,
}
