package registry

import "strings"

// BlogPlatforms are known third-party blog hosting domains that can never
// be a company's official site, grounded on BLOG_PLATFORMS.
var BlogPlatforms = []string{
	"hatenablog.com", "hatenablog.jp", "hateblo.jp", "hatenadiary.org", "hatenadiary.jp",
	"ameblo.jp", "ameba.jp", "fc2.com", "livedoor.jp", "livedoor.blog",
	"seesaa.net", "cocolog-nifty.com", "muragon.com", "yaplog.jp", "jugem.jp",
	"exblog.jp", "goo.ne.jp/blog", "wordpress.com", "blogger.com", "blogspot.com",
	"blogspot.jp", "medium.com", "note.com", "note.mu", "zenn.dev", "qiita.com",
	"wix.com", "jimdo.com", "weebly.com", "tumblr.com",
}

// PersonalSitePatterns are tokens that suggest a personal rather than
// corporate site, grounded on PERSONAL_SITE_PATTERNS.
var PersonalSitePatterns = []string{
	"kun", "chan", "san", "sensei", "dochi", "-no-", "blog", "diary", "memo", "note",
	"/blog/", "/diary/", "/column/", "/personal/", "/member/", "/user/", "~",
}

// IsBlogPlatform reports whether domain belongs to a known blog hosting
// platform.
func IsBlogPlatform(domain string) bool {
	domainLower := strings.ToLower(domain)
	for _, platform := range BlogPlatforms {
		if strings.Contains(domainLower, platform) {
			return true
		}
	}
	return false
}

// HasPersonalSitePattern reports whether url or domain contains a token
// suggestive of a personal rather than corporate site.
func HasPersonalSitePattern(rawURL, domain string) bool {
	urlLower := strings.ToLower(rawURL)
	domainLower := strings.ToLower(domain)
	for _, pattern := range PersonalSitePatterns {
		if strings.Contains(domainLower, pattern) || strings.Contains(urlLower, pattern) {
			return true
		}
	}
	return false
}
