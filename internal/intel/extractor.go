package intel

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/decoynet/honeypot-platform/internal/detect"
)

// upiHandles is the closed allow-list of known payment handles. A generic
// localpart@domain token is only treated as a UPI ID when the handle is listed
// here or ends in "bank", which keeps ordinary email addresses out.
var upiHandles = map[string]struct{}{
	"upi":        {},
	"paytm":      {},
	"ybl":        {},
	"ibl":        {},
	"axl":        {},
	"apl":        {},
	"okaxis":     {},
	"oksbi":      {},
	"okicici":    {},
	"okbizaxis":  {},
	"freecharge": {},
	"mbk":        {},
	"jio":        {},
}

// shortenerHosts are link-shortener domains, always flagged as phishing.
var shortenerHosts = map[string]struct{}{
	"bit.ly":      {},
	"tinyurl.com": {},
	"t.co":        {},
	"goo.gl":      {},
	"short.link":  {},
	"rb.gy":       {},
	"cutt.ly":     {},
	"shorturl.at": {},
	"is.gd":       {},
	"ow.ly":       {},
	"buff.ly":     {},
}

// suspiciousURLTerms flag a URL whose text reaches for credentials, payments,
// or pressure.
var suspiciousURLTerms = []string{
	"secure", "bank", "login", "verify", "update", "confirm", "account",
	"password", "credential", "signin", "kyc", "otp", "payment", "refund",
	"prize", "winner", "lottery", "urgent", "suspend", "block",
}

// typosquatDomains are common brand misspellings seen in phishing links.
var typosquatDomains = []string{
	"paypa1", "paypall", "amaz0n", "amazzon", "g00gle", "gooogle",
	"faceb00k", "facebok", "b4nk", "banq", "s8i", "sbii", "hdfcc", "icic1",
}

// Extractor pulls structured identifiers out of raw message text using
// precompiled patterns. It holds no per-message state and never errors:
// malformed input yields an empty Intelligence.
type Extractor struct {
	digitRun *regexp.Regexp
	ifsc     *regexp.Regexp
	upi      *regexp.Regexp
	phone    *regexp.Regexp
	urls     *regexp.Regexp
	ipURL    *regexp.Regexp
	keywords []string
}

// NewExtractor compiles the extraction patterns once.
func NewExtractor() *Extractor {
	return &Extractor{
		digitRun: regexp.MustCompile(`\b\d{9,18}\b`),
		ifsc:     regexp.MustCompile(`(?i)\b[a-z]{4}0[a-z0-9]{6}\b`),
		upi:      regexp.MustCompile(`\b[a-zA-Z0-9._-]+@[a-zA-Z][a-zA-Z0-9]*\b`),
		phone:    regexp.MustCompile(`\+91[\s-]?([6-9]\d{9})\b`),
		urls:     regexp.MustCompile(`(?i)\b(?:https?://|www\.)[^\s<>"{}|\\^` + "`" + `\[\]]+`),
		ipURL:    regexp.MustCompile(`^https?://\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}`),
		keywords: detect.Keywords(),
	}
}

// Extract runs every pattern over text and returns the deduplicated findings.
func (e *Extractor) Extract(text string) Intelligence {
	if strings.TrimSpace(text) == "" {
		return Intelligence{}
	}

	out := Intelligence{
		PhoneNumbers:       e.extractPhones(text),
		UPIIDs:             e.extractUPIIDs(text),
		IFSCCodes:          e.extractIFSC(text),
		PhishingLinks:      e.extractLinks(text),
		SuspiciousKeywords: e.extractKeywords(text),
	}
	// Bank accounts last: phone-shaped and UPI-adjacent digit runs are
	// excluded so the same token never lands in two sets.
	out.BankAccounts = e.extractAccounts(text)

	return Intelligence{}.Merge(out)
}

// extractAccounts captures 9-18 digit runs that do not look like phone
// numbers. The phone pattern takes precedence over the account pattern.
func (e *Extractor) extractAccounts(text string) []string {
	var found []string
	for _, loc := range e.digitRun.FindAllStringIndex(text, -1) {
		candidate := text[loc[0]:loc[1]]
		if isPhoneShaped(candidate) {
			continue
		}
		// Digit runs glued to an @handle belong to a UPI ID, not an account.
		if loc[1] < len(text) && text[loc[1]] == '@' {
			continue
		}
		found = append(found, candidate)
	}
	return found
}

// isPhoneShaped reports whether a digit run matches an Indian mobile form:
// bare 10 digits starting 6-9, 0-prefixed, or 91-prefixed.
func isPhoneShaped(digits string) bool {
	switch len(digits) {
	case 10:
		return digits[0] >= '6' && digits[0] <= '9'
	case 11:
		return digits[0] == '0' && digits[1] >= '6' && digits[1] <= '9'
	case 12:
		return strings.HasPrefix(digits, "91") && digits[2] >= '6' && digits[2] <= '9'
	}
	return false
}

func (e *Extractor) extractIFSC(text string) []string {
	var found []string
	for _, match := range e.ifsc.FindAllString(text, -1) {
		found = append(found, strings.ToUpper(match))
	}
	return found
}

func (e *Extractor) extractUPIIDs(text string) []string {
	var found []string
	for _, match := range e.upi.FindAllString(text, -1) {
		lower := strings.ToLower(match)
		at := strings.LastIndex(lower, "@")
		if at < 1 {
			continue
		}
		handle := lower[at+1:]
		if _, ok := upiHandles[handle]; !ok && !strings.HasSuffix(handle, "bank") {
			continue
		}
		found = append(found, lower)
	}
	return found
}

// extractPhones captures Indian mobiles in every form a sender writes them:
// bare 10 digits, 0-prefixed, 91-prefixed, or +91 with an optional separator.
// Everything normalizes to +91XXXXXXXXXX so the same number never appears
// twice under different prefixes.
func (e *Extractor) extractPhones(text string) []string {
	var found []string
	for _, groups := range e.phone.FindAllStringSubmatch(text, -1) {
		found = append(found, "+91"+groups[1])
	}
	for _, loc := range e.digitRun.FindAllStringIndex(text, -1) {
		digits := text[loc[0]:loc[1]]
		if isPhoneShaped(digits) {
			found = append(found, normalizePhone(digits))
		}
	}
	return found
}

func normalizePhone(digits string) string {
	switch len(digits) {
	case 11:
		return "+91" + digits[1:]
	case 12:
		return "+" + digits
	}
	return "+91" + digits
}

func (e *Extractor) extractLinks(text string) []string {
	var found []string
	for _, match := range e.urls.FindAllString(text, -1) {
		link := strings.TrimRight(match, ".,;:!?)")
		if e.isPhishingLink(link) {
			found = append(found, link)
		}
	}
	return found
}

// isPhishingLink flags shorteners, raw-IP hosts, credential/payment wording,
// and brand typosquats. Plain links to recognizable domains are ignored.
func (e *Extractor) isPhishingLink(link string) bool {
	lower := strings.ToLower(link)

	host := hostOf(lower)
	if _, ok := shortenerHosts[host]; ok {
		return true
	}
	if e.ipURL.MatchString(lower) {
		return true
	}
	for _, term := range suspiciousURLTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	for _, typo := range typosquatDomains {
		if strings.Contains(host, typo) {
			return true
		}
	}
	return false
}

func hostOf(link string) string {
	candidate := link
	if !strings.Contains(candidate, "://") {
		candidate = "http://" + candidate
	}
	parsed, err := url.Parse(candidate)
	if err != nil || parsed.Host == "" {
		return ""
	}
	return strings.ToLower(parsed.Host)
}

func (e *Extractor) extractKeywords(text string) []string {
	lower := strings.ToLower(text)
	var found []string
	for _, kw := range e.keywords {
		if strings.Contains(lower, kw) {
			found = append(found, kw)
		}
	}
	return found
}
