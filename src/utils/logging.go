/*
Copyright (c) YugabyteDB, Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package utils

import (
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/tebeka/atexit"
)

// Exit codes of the CLI.
const (
	EXIT_FAILURE       = 1
	EXIT_INVALID_INPUT = 2
)

// exit terminates the process through atexit so that deferred handlers
// (log flushing) run. Tests replace it with SetExitHook.
var exit = atexit.Exit

// SetExitHook replaces the process exit used by ErrExit. nil restores it.
func SetExitHook(h func(code int)) {
	if h == nil {
		h = atexit.Exit
	}
	exit = h
}

// ErrExit reports a fatal error on stderr and in the log, then exits with
// EXIT_FAILURE.
func ErrExit(format string, args ...interface{}) {
	ErrExitWithCode(EXIT_FAILURE, format, args...)
}

func ErrExitWithCode(code int, format string, args ...interface{}) {
	format = strings.ReplaceAll(format, "%w", "%v")
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, msg)
	log.Errorf("exit %d: %s", code, msg)
	exit(code)
}

func PrintAndLog(formatString string, args ...interface{}) {
	log.Infof(formatString, args...)
	if !strings.HasSuffix(formatString, "\n") {
		formatString = formatString + "\n"
	}
	fmt.Printf(formatString, args...)
}
