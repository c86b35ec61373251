/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package poller

import (
	"context"
	"net"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/host"

	"github.com/carverauto/outpost/pkg/version"
)

const (
	DetailOSName      = "os.name"
	DetailOSArch      = "os.arch"
	DetailOSPlatform  = "os.platform"
	DetailOSVersion   = "os.version"
	DetailOSKernel    = "os.kernel"
	DetailHostName    = "outpost.poller.hostName"
	DetailHostAddress = "outpost.poller.hostAddress"
	DetailVersion     = "outpost.poller.version"
)

// HostDetails describes the machine the poller runs on. Lookups that fail
// leave their keys out.
func HostDetails(ctx context.Context) map[string]string {
	details := map[string]string{
		DetailOSName:  runtime.GOOS,
		DetailOSArch:  runtime.GOARCH,
		DetailVersion: version.GetFullVersion(),
	}

	hostname, _ := os.Hostname()

	if info, err := host.InfoWithContext(ctx); err == nil {
		setIfNotEmpty(details, DetailOSPlatform, info.Platform)
		setIfNotEmpty(details, DetailOSVersion, info.PlatformVersion)
		setIfNotEmpty(details, DetailOSKernel, info.KernelVersion)

		if info.Hostname != "" {
			hostname = info.Hostname
		}
	}

	if hostname == "" {
		return details
	}

	details[DetailHostName] = hostname

	if addrs, err := net.DefaultResolver.LookupHost(ctx, hostname); err == nil && len(addrs) > 0 {
		details[DetailHostAddress] = addrs[0]
	}

	return details
}

func setIfNotEmpty(m map[string]string, key, value string) {
	if value != "" {
		m[key] = value
	}
}
