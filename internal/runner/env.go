package runner

import (
	"strings"
)

var debugArgPrefixes = []string{"--inspect", "--debug", "--listen="}

func isDebugArg(arg string) bool {
	for _, prefix := range debugArgPrefixes {
		if strings.HasPrefix(arg, prefix) {
			return true
		}
	}

	return false
}

// FilterDebugArgs drops debugger flags so a debug session of the parent is
// not inherited by test runner subprocesses.
func FilterDebugArgs(args []string) []string {
	filtered := make([]string, 0, len(args))

	for _, arg := range args {
		if !isDebugArg(arg) {
			filtered = append(filtered, arg)
		}
	}

	return filtered
}

// FilterDebugEnv removes debugger related variables from env. Debugger flags
// inside NODE_OPTIONS are stripped and the variable is dropped when nothing
// remains.
func FilterDebugEnv(env []string) []string {
	filtered := make([]string, 0, len(env))

	for _, kv := range env {
		key, value, _ := strings.Cut(kv, "=")

		switch {
		case strings.HasPrefix(key, "DLV_"):
			continue
		case key == "NODE_OPTIONS":
			value = strings.Join(FilterDebugArgs(strings.Fields(value)), " ")
			if value == "" {
				continue
			}

			kv = key + "=" + value
		}

		filtered = append(filtered, kv)
	}

	return filtered
}
