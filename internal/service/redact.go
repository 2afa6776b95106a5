package service

import "regexp"

// secretParamPattern matches credential-bearing query parameters and the ARL
// cookie inside error messages that may embed upstream URLs.
var secretParamPattern = regexp.MustCompile(`(?i)\b(secret|api_sig|access_token|token|code|arl)=[^&\s"]+`)

// Redact replaces credential values in s with [REDACTED].
func Redact(s string) string {
	return secretParamPattern.ReplaceAllString(s, "${1}=[REDACTED]")
}
