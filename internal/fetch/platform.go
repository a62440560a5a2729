// Package fetch - platform.go detects applicant tracking systems hosting careers pages.
package fetch

import (
	"net/url"
	"strings"
)

// Platform represents a known applicant tracking system.
type Platform string

// Known platforms. Workday and the Nordic boards are common for the
// companies this tool scans.
const (
	PlatformGreenhouse      Platform = "greenhouse"
	PlatformLever           Platform = "lever"
	PlatformWorkday         Platform = "workday"
	PlatformRecruitee       Platform = "recruitee"
	PlatformTeamtailor      Platform = "teamtailor"
	PlatformSmartRecruiters Platform = "smartrecruiters"
	PlatformWorkable        Platform = "workable"
	PlatformJobylon         Platform = "jobylon"
	PlatformTalentadore     Platform = "talentadore"
	PlatformSympa           Platform = "sympa"
	PlatformUnknown         Platform = "unknown"
)

// platformHosts maps host suffixes to platforms, checked in order.
var platformHosts = []struct {
	suffix   string
	platform Platform
}{
	{"greenhouse.io", PlatformGreenhouse},
	{"lever.co", PlatformLever},
	{"myworkdayjobs.com", PlatformWorkday},
	{"workday.com", PlatformWorkday},
	{"recruitee.com", PlatformRecruitee},
	{"teamtailor.com", PlatformTeamtailor},
	{"smartrecruiters.com", PlatformSmartRecruiters},
	{"workable.com", PlatformWorkable},
	{"jobylon.com", PlatformJobylon},
	{"talentadore.com", PlatformTalentadore},
	{"sympa.com", PlatformSympa},
	{"sympahr.net", PlatformSympa},
}

// DetectPlatform identifies the applicant tracking system from a URL.
func DetectPlatform(urlStr string) Platform {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return PlatformUnknown
	}
	return platformForHost(parsed.Hostname())
}

// IsATSHost reports whether host belongs to a known applicant tracking system.
func IsATSHost(host string) bool {
	return platformForHost(host) != PlatformUnknown
}

func platformForHost(host string) Platform {
	host = strings.ToLower(host)
	for _, ph := range platformHosts {
		if host == ph.suffix || strings.HasSuffix(host, "."+ph.suffix) {
			return ph.platform
		}
	}
	return PlatformUnknown
}
