// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package scrape

import (
	"fmt"
	"strings"

	"github.com/capitoltrades/ctdata/model"
	json "github.com/goccy/go-json"
)

// deescape unwinds one layer of JS string-literal escaping. The upstream
// page embeds its payload as an escaped JSON string inside a server
// component push call; this turns `\"foo\":\"bar\"` back into `"foo":"bar"`
// so the balanced-brace walk below sees real JSON delimiters.
func deescape(raw string) string {
	if !strings.Contains(raw, `\"`) {
		return raw
	}
	r := strings.NewReplacer(
		`\"`, `"`,
		`\n`, "\n",
		`\t`, "\t",
		`\\`, `\`,
	)
	return r.Replace(raw)
}

// findBalancedObject locates the JSON object enclosing needle: it walks
// backward from just before the needle's position to the nearest opening
// brace at depth zero, then forward from that brace to its matching
// close, tracking string-quote state so braces inside quoted values
// don't throw off the count.
func findBalancedObject(payload, needle string) (string, error) {
	idx := strings.Index(payload, needle)
	if idx < 0 {
		return "", fmt.Errorf("%w: needle %q not found in payload", model.ErrParse, needle)
	}

	start := -1
	depth := 0
	inString := false
	escaped := false
	// Every needle is itself a quoted string (e.g. `"filingUrl"`), so its
	// own opening quote must not be re-processed as a string-state
	// toggle — the walk starts one byte before it.
	for i := idx - 1; i >= 0; i-- {
		ch := payload[i]
		if inString {
			if ch == '"' && !escaped {
				inString = false
			}
			escaped = ch == '\\' && !escaped
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '}':
			depth++
		case '{':
			if depth == 0 {
				start = i
			} else {
				depth--
			}
		}
		if start >= 0 {
			break
		}
	}
	if start < 0 {
		return "", fmt.Errorf("%w: no enclosing brace found for needle %q", model.ErrParse, needle)
	}

	depth = 0
	inString = false
	escaped = false
	for i := start; i < len(payload); i++ {
		ch := payload[i]
		if inString {
			if ch == '"' && !escaped {
				inString = false
			}
			escaped = ch == '\\' && !escaped
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return payload[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("%w: unbalanced object starting at needle %q", model.ErrParse, needle)
}

// ExtractByNeedle de-escapes body and recovers the balanced JSON object
// containing needle, unmarshalling it into T.
func ExtractByNeedle[T any](body []byte, needle string) (T, error) {
	var out T
	payload := deescape(string(body))
	obj, err := findBalancedObject(payload, needle)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal([]byte(obj), &out); err != nil {
		return out, fmt.Errorf("%w: unmarshal extracted object: %v", model.ErrParse, err)
	}
	return out, nil
}
