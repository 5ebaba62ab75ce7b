// Package clientinfo resolves a raw User-Agent header into host.ClientInfo
// using uasurfer, adapted from the teacher codebase's UA-based targeting
// resolution (internal/logic/targeting.go ResolveTargetingFromUA) to the
// narrower platform/OS/browser shape the engine needs.
package clientinfo

import (
	"github.com/avct/uasurfer"

	"github.com/patrickwarner/adsengine/internal/host"
)

// FromUserAgent parses ua and returns the host.ClientInfo the engine uses to
// decide mobile-only behavior (delivery timer, foreground gating).
func FromUserAgent(ua string) host.ClientInfo {
	u := uasurfer.Parse(ua)

	platform := host.PlatformLinux
	switch u.OS.Platform {
	case uasurfer.PlatformWindows:
		platform = host.PlatformWindows
	case uasurfer.PlatformMac:
		platform = host.PlatformMacOS
	case uasurfer.PlatformLinux:
		platform = host.PlatformLinux
	}
	switch u.DeviceType {
	case uasurfer.DevicePhone, uasurfer.DeviceTablet:
		if u.OS.Name == uasurfer.OSiOS {
			platform = host.PlatformIOS
		} else {
			platform = host.PlatformAndroid
		}
	}

	return host.ClientInfo{
		Platform: platform,
		OS:       u.OS.Name.String(),
		Browser:  u.Browser.Name.String(),
	}
}
