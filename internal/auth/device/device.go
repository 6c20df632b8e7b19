// Package device derives a human-readable device name from the User-Agent
// header. The name goes into login audit events so operators can tell a
// stolen-credential login from the employee's usual browser.
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

// ParseUserAgent renders a User-Agent as "Browser on OS". Unknown or empty
// agents come back as "Unknown Device" rather than raw header text.
func ParseUserAgent(rawUA string) string {
	if strings.TrimSpace(rawUA) == "" {
		return "Unknown Device"
	}

	ua := useragent.New(rawUA)
	browser, _ := ua.Browser()
	os := ua.OSInfo().Name
	if os == "" {
		os = ua.Platform()
	}

	switch {
	case browser != "" && os != "":
		return browser + " on " + os
	case browser != "":
		return browser
	case os != "":
		return "Unknown browser on " + os
	default:
		return "Unknown Device"
	}
}
