package reliability

// IsRateLimited reports whether the status code signals provider throttling.
func IsRateLimited(code int) bool {
	return code == 429
}

// IsSuccess reports whether the status code is a 2xx success.
func IsSuccess(code int) bool {
	return code >= 200 && code < 300
}

// ShouldTryNextModel classifies a status code as non-fatal for the fallback
// loop. Every failure advances to the next model; only success stops it.
func ShouldTryNextModel(code int) bool {
	return !IsSuccess(code)
}
