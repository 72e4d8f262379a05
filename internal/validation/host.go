// Copyright the dynamicproxy contributors.
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

package validation

import (
	"fmt"
	"strconv"
	"strings"

	"k8s.io/apimachinery/pkg/util/validation"
)

// validateHost checks one RouteMatch.Hosts entry: not empty, not an IDN
// A-label, an optional "*." prefix not followed by another dot, and an
// optional ":port" suffix in [1, 65535].
func validateHost(host string) error {
	if host == "" {
		return fmt.Errorf("host must not be empty")
	}
	if strings.Contains(strings.ToLower(host), "xn--") {
		return fmt.Errorf("host %q is an IDN A-label; convert to U-label before submitting", host)
	}

	name := host
	if idx := strings.LastIndex(name, ":"); idx >= 0 {
		portStr := name[idx+1:]
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("host %q has an invalid port %q", host, portStr)
		}
		if errs := validation.IsValidPortNum(port); len(errs) > 0 {
			return fmt.Errorf("host %q has an invalid port %q: %s", host, portStr, strings.Join(errs, "; "))
		}
		name = name[:idx]
	}

	if strings.HasPrefix(name, "*.") {
		if strings.HasPrefix(name[2:], ".") {
			return fmt.Errorf("host %q has a wildcard prefix followed by another '.'", host)
		}
		if errs := validation.IsWildcardDNS1123Subdomain(name); len(errs) > 0 {
			return fmt.Errorf("host %q is not a valid hostname: %s", host, strings.Join(errs, "; "))
		}
		return nil
	}

	if errs := validation.IsDNS1123Subdomain(name); len(errs) > 0 {
		return fmt.Errorf("host %q is not a valid hostname: %s", host, strings.Join(errs, "; "))
	}
	return nil
}
