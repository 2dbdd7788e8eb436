// Copyright 2025 Agentic World, LLC (Sherin Thomas)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package htmlentity

import (
	"fmt"
	"net/url"
	"strings"

	whatwgUrl "github.com/nlnwa/whatwg-url/url"
)

var urlParser = whatwgUrl.NewParser(whatwgUrl.WithPercentEncodeSinglePercentSign())

var followableSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"file":  true,
}

// ResolveURL resolves value against base and checks that the result can be
// read. A relative value without a base is invalid.
func ResolveURL(base, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("%w: empty value", ErrInvalidURL)
	}

	var (
		resolved *whatwgUrl.Url
		err      error
	)
	if base == "" {
		resolved, err = urlParser.Parse(value)
	} else {
		resolved, err = urlParser.ParseRef(base, value)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidURL, value, err)
	}

	href := resolved.Href(false)
	u, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidURL, value, err)
	}
	if !followableSchemes[strings.ToLower(u.Scheme)] {
		return "", fmt.Errorf("%w: %q: %w %q", ErrInvalidURL, value, ErrUnsupportedScheme, u.Scheme)
	}
	if u.Scheme != "file" && u.Host == "" {
		return "", fmt.Errorf("%w: %q: missing host", ErrInvalidURL, value)
	}
	return href, nil
}

// expandTemplate substitutes {name} placeholders in template with the
// query-escaped first value of the named field. The placeholder named key is
// replaced with value.
func expandTemplate(template, key, value string, row map[string][]string) string {
	var out strings.Builder
	for {
		open := strings.IndexByte(template, '{')
		if open < 0 {
			out.WriteString(template)
			break
		}
		end := strings.IndexByte(template[open:], '}')
		if end < 0 {
			out.WriteString(template)
			break
		}
		end += open
		name := template[open+1 : end]
		out.WriteString(template[:open])
		switch {
		case name == key:
			out.WriteString(url.QueryEscape(value))
		case len(row[name]) > 0:
			out.WriteString(url.QueryEscape(row[name][0]))
		default:
			out.WriteString(template[open : end+1])
		}
		template = template[end+1:]
	}
	return out.String()
}
