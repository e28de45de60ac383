package logger

import "fmt"

// color is an ANSI escape sequence, used to make the access log of local runs easier to scan.
// Colors are never used by the JSON logger of live environments.
type color string

const (
	GREEN  = color("\033[0;32m")
	RED    = color("\033[1;31m")
	YELLOW = color("\033[1;33m")
	CYAN   = color("\033[1;36m")
	NC     = color("\033[0m")
)

func Colorize(c color, msg any) string {
	return fmt.Sprintf("%s%+v%s", c, msg, NC)
}

func Green(msg any) string {
	return Colorize(GREEN, msg)
}

func Red(msg any) string {
	return Colorize(RED, msg)
}

func Yellow(msg any) string {
	return Colorize(YELLOW, msg)
}

func Cyan(msg any) string {
	return Colorize(CYAN, msg)
}

// ByStatus colors msg by the HTTP status code: red for server errors, yellow for client
// errors and green otherwise.
func ByStatus(code int, msg any) string {
	switch {
	case code >= 500:
		return Red(msg)
	case code >= 400:
		return Yellow(msg)
	default:
		return Green(msg)
	}
}
