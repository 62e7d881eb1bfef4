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
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
)

var DoNotPrompt bool

// AskPrompt asks a yes/no question on stdin. It returns true without asking
// when DoNotPrompt is set.
func AskPrompt(args ...string) bool {
	if DoNotPrompt {
		return true
	}
	fmt.Printf("%s? [Y/N]: ", strings.Join(args, " "))

	var input string
	_, err := fmt.Scan(&input)
	if err != nil {
		return false
	}
	input = strings.ToUpper(strings.TrimSpace(input))
	return input == "Y" || input == "YES"
}

// RandomSuffix returns a short lowercase hex string suitable for ephemeral
// object names.
func RandomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

// ShortHash returns the first n hex chars of sha256(s).
func ShortHash(s string, n int) string {
	sum := sha256.Sum256([]byte(s))
	h := hex.EncodeToString(sum[:])
	if n > len(h) {
		n = len(h)
	}
	return h[:n]
}

// TruncateIdentifier keeps name under maxLen chars, replacing the tail with a
// hash of the full name so that distinct long names stay distinct.
func TruncateIdentifier(name string, maxLen int) string {
	if len(name) <= maxLen {
		return name
	}
	hash := ShortHash(name, 8)
	return name[:maxLen-len(hash)-1] + "_" + hash
}

func FileOrFolderExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
