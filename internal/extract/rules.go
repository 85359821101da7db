package extract

import (
	"regexp"
	"strings"

	"github.com/jonathan/placement-tracker/internal/segment"
	"github.com/jonathan/placement-tracker/internal/types"
)

// Scope says which text a rule runs against.
type Scope int

// Rule scopes. Combined rules see the subject and body joined, since
// facts like the batch year float freely between the two.
const (
	ScopeBody Scope = iota
	ScopeSubject
	ScopeCombined
)

// Rule is one deterministic extraction rule. Apply returns the candidate
// value and whether the rule fired. Weight encodes how trustworthy a hit
// from this rule is relative to other rules for the same field.
type Rule struct {
	ID      string
	Field   types.FieldName
	Scope   Scope
	Section segment.Label // preferred section for body rules
	Weight  float64
	Apply   func(text string) (string, bool)
}

// capture builds an Apply func that returns the first capture group of re.
func capture(re *regexp.Regexp) func(string) (string, bool) {
	return func(text string) (string, bool) {
		m := re.FindStringSubmatch(text)
		if m == nil {
			return "", false
		}
		v := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(m[1]), "."))
		return v, v != ""
	}
}

// Subject conventions used by placement cells, strongest first. The
// "|| Company ||" delimiter form is near-unambiguous; prepositional forms
// ("drive at X") are the weakest.
var (
	companyPipesRe   = regexp.MustCompile(`\|\|\s*([^|]+?)\s*\|\|`)
	companyLeadRe    = regexp.MustCompile(`^\s*([A-Z][A-Za-z0-9&.'\s]{1,40}?)\s*(?:-|–|\||:)`)
	companyDriveByRe = regexp.MustCompile(`(?i)(?:drive|hiring|recruitment|opportunity)\s+(?:by|with)\s+([A-Z][A-Za-z0-9&.'\s]{1,40}?)(?:\s*(?:-|–|\||:|,|for\b)|\s*$)`)
	companyTrailRe   = regexp.MustCompile(`(?i)(?:campus\s+drive|placement\s+drive|off[- ]campus\s+drive|recruitment\s+drive)\s*(?:-|–|\||:)\s*([A-Z][A-Za-z0-9&.'\s]{1,40}?)(?:\s*(?:-|–|\||:|,)|\s*$)`)
	companyAtRe      = regexp.MustCompile(`(?i)(?:opportunity|opening|internship|placement|hiring)\s+(?:at|from|in)\s+([A-Z][A-Za-z0-9&.'\s]{1,40}?)(?:\s*(?:-|–|\||:|,|for\b)|\s*$)`)
)

var (
	rolePrefixRe = regexp.MustCompile(`(?i)(?:\brole|\bposition|\bprofile|\bdesignation)\s*(?:offered)?\s*[:\-–]\s*([^\n,;|]{2,60})`)
	roleKnownRe  = regexp.MustCompile(`(?i)\b(software\s+(?:development\s+)?engineer(?:\s+intern)?|sde[- ]?(?:1|2|i{1,2})?|data\s+(?:scientist|analyst|engineer)|full[- ]?stack\s+developer|backend\s+developer|frontend\s+developer|devops\s+engineer|qa\s+engineer|site\s+reliability\s+engineer|business\s+analyst|product\s+manager|graduate\s+engineer\s+trainee|associate\s+software\s+engineer|machine\s+learning\s+engineer)\b`)
	roleHiringRe = regexp.MustCompile(`(?i)hiring\s+(?:for\s+)?(?:the\s+(?:role|position)\s+of\s+)?([A-Za-z /]{2,50}?(?:engineer|developer|analyst|intern|consultant|trainee|scientist|manager))\b`)
)

var (
	batchKeywordRe = regexp.MustCompile(`(?i)\b(20(?:2[4-9]|3[0-2]))\s*(?:batch|pass[- ]?outs?|passing|graduates?|grads?)\b`)
	batchPrefixRe  = regexp.MustCompile(`(?i)\bbatch\s*(?:of)?\s*[:\-–]?\s*(20(?:2[4-9]|3[0-2]))\b`)
)

var (
	internHintRe = regexp.MustCompile(`(?i)\bintern(?:ship)?s?\b|\bstipend\b`)
	fteHintRe    = regexp.MustCompile(`(?i)\bfull[- ]?time\b|\bfte\b|\bctc\b|\bpermanent\s+(?:role|position)\b|\bppo\b`)
)

func detectDriveType(text string) (string, bool) {
	intern := internHintRe.MatchString(text)
	fte := fteHintRe.MatchString(text)
	switch {
	case intern && fte:
		return string(types.DriveTypeBoth), true
	case intern:
		return string(types.DriveTypeInternship), true
	case fte:
		return string(types.DriveTypeFTE), true
	}
	return "", false
}

var (
	deadlineKeywordsRe  = regexp.MustCompile(`(?i)(?:registration\s+)?deadline|apply\s+(?:by|before)|last\s+date|register\s+(?:by|before)|closes?\s+on|registrations?\s+close`)
	driveDateKeywordsRe = regexp.MustCompile(`(?i)drive\s+(?:date|on)|test\s+date|exam\s+date|assessment\s+(?:date|on)|scheduled\s+(?:on|for)|will\s+be\s+(?:held|conducted)\s+on|interview\s+date`)
)

var (
	cgpaRe    = regexp.MustCompile(`(?i)\b(?:cgpa|gpa|cg)\s*(?:of|requirement)?\s*[:=\-–]?\s*(\d+(?:\.\d+)?)`)
	cgpaMinRe = regexp.MustCompile(`(?i)(?:minimum|min\.?|at\s*least)\s+(\d+(?:\.\d+)?)\s*(?:cgpa|gpa)`)
)

var (
	ctcPrefixRe = regexp.MustCompile(`(?i)(?:ctc|package|salary|compensation)\s*(?:offered)?\s*[:\-–]?\s*((?:₹|rs\.?|inr)?\s*[\d,]+(?:\.\d+)?\s*(?:lpa|lakhs?(?:\s*per\s*annum)?|lacs?|per\s*annum|p\.?a\.?)?)`)
	stipendRe   = regexp.MustCompile(`(?i)stipend\s*(?:of)?\s*[:\-–]?\s*((?:₹|rs\.?|inr)?\s*[\d,]+(?:\.\d+)?(?:\s*k)?\s*(?:per\s*month|\/\s*month|p\.?m\.?|monthly)?)`)
)

// findCompensation returns the first bare compensation mention in text,
// for emails that quote a figure without a "CTC:" style prefix.
func findCompensation(text string) (string, bool) {
	for _, re := range []*regexp.Regexp{lpaRe, rupeeYearRe, monthlyRe} {
		if m := re.FindString(text); m != "" {
			return strings.TrimSpace(m), true
		}
	}
	return "", false
}

// branchTokens maps the branch spellings seen in the wild to canonical
// short names.
var branchTokens = []struct {
	re        *regexp.Regexp
	canonical string
}{
	{regexp.MustCompile(`(?i)\b(?:cse|computer\s+science)\b`), "CSE"},
	{regexp.MustCompile(`(?i)\b(?:it|information\s+technology)\b`), "IT"},
	{regexp.MustCompile(`(?i)\b(?:ece|electronics\s*(?:and|&)?\s*communication)\b`), "ECE"},
	{regexp.MustCompile(`(?i)\b(?:eee|electrical)\b`), "EEE"},
	{regexp.MustCompile(`(?i)\b(?:me|mech|mechanical)\b`), "ME"},
	{regexp.MustCompile(`(?i)\b(?:ce|civil)\b`), "CE"},
	{regexp.MustCompile(`(?i)\b(?:aiml|ai\s*&?\s*ml|artificial\s+intelligence)\b`), "AIML"},
	{regexp.MustCompile(`(?i)\bmca\b`), "MCA"},
}

var allBranchesRe = regexp.MustCompile(`(?i)\ball\s+branches\b|\bany\s+branch\b|\bbranch\s*[:\-–]?\s*(?:any|all|open)\b`)

func collectBranches(text string) (string, bool) {
	if allBranchesRe.MatchString(text) {
		return "All branches", true
	}
	var found []string
	for _, bt := range branchTokens {
		if bt.re.MatchString(text) {
			found = append(found, bt.canonical)
		}
	}
	if len(found) == 0 {
		return "", false
	}
	return strings.Join(found, ", "), true
}

var knownCities = []string{
	"Bangalore", "Bengaluru", "Hyderabad", "Pune", "Chennai", "Mumbai",
	"Delhi", "Gurgaon", "Gurugram", "Noida", "Kolkata", "Ahmedabad",
	"Kochi", "Indore", "Jaipur", "Chandigarh", "Coimbatore",
}

var (
	locationPrefixRe = regexp.MustCompile(`(?i)(?:job\s+)?location\s*[:\-–]\s*([^\n,;|]{2,50})`)
	remoteRe         = regexp.MustCompile(`(?i)\b(?:remote|work\s+from\s+home|wfh)\b`)
)

func findCity(text string) (string, bool) {
	lower := strings.ToLower(text)
	var found []string
	for _, city := range knownCities {
		if strings.Contains(lower, strings.ToLower(city)) {
			found = append(found, city)
		}
	}
	if len(found) == 0 {
		return "", false
	}
	return strings.Join(found, ", "), true
}

var (
	urlRe = regexp.MustCompile(`(?i)https?://[^\s<>"')]+`)
	// Links that are never the registration form.
	linkExcludeRe = regexp.MustCompile(`(?i)unsubscribe|mailto:|linkedin\.com/company|twitter\.com|x\.com|facebook\.com|instagram\.com|youtube\.com|maps\.google|fonts\.|\.(?:png|jpe?g|gif|css)\b`)
	linkContextRe = regexp.MustCompile(`(?i)regist|apply|application|form|interested|fill`)
)

// registrationLink returns the URL nearest a registration cue, skipping
// social and tracking links.
func registrationLink(text string) (string, bool) {
	const window = 200
	var fallback string
	for _, loc := range urlRe.FindAllStringIndex(text, -1) {
		url := strings.TrimRight(text[loc[0]:loc[1]], ".,;)")
		if linkExcludeRe.MatchString(url) {
			continue
		}
		lo := loc[0] - window
		if lo < 0 {
			lo = 0
		}
		if linkContextRe.MatchString(text[lo:loc[0]]) || linkContextRe.MatchString(strings.ToLower(url)) {
			return url, true
		}
		if fallback == "" {
			fallback = url
		}
	}
	return fallback, fallback != ""
}

// Registry returns the full deterministic rule set, ordered strongest
// first within each field.
func Registry() []Rule {
	return []Rule{
		{ID: "company-subject-pipes", Field: types.FieldCompany, Scope: ScopeSubject, Weight: 0.9, Apply: capture(companyPipesRe)},
		{ID: "company-subject-lead", Field: types.FieldCompany, Scope: ScopeSubject, Weight: 0.8, Apply: capture(companyLeadRe)},
		{ID: "company-subject-drive-by", Field: types.FieldCompany, Scope: ScopeSubject, Weight: 0.75, Apply: capture(companyDriveByRe)},
		{ID: "company-subject-drive-trail", Field: types.FieldCompany, Scope: ScopeSubject, Weight: 0.7, Apply: capture(companyTrailRe)},
		{ID: "company-subject-at", Field: types.FieldCompany, Scope: ScopeSubject, Weight: 0.55, Apply: capture(companyAtRe)},
		{ID: "company-body-drive-by", Field: types.FieldCompany, Scope: ScopeBody, Section: segment.General, Weight: 0.5, Apply: capture(companyDriveByRe)},

		{ID: "role-prefix", Field: types.FieldRole, Scope: ScopeBody, Section: segment.General, Weight: 0.8, Apply: capture(rolePrefixRe)},
		{ID: "role-known", Field: types.FieldRole, Scope: ScopeCombined, Weight: 0.65, Apply: capture(roleKnownRe)},
		{ID: "role-hiring-for", Field: types.FieldRole, Scope: ScopeBody, Section: segment.General, Weight: 0.6, Apply: capture(roleHiringRe)},

		{ID: "batch-keyword", Field: types.FieldBatch, Scope: ScopeCombined, Weight: 0.8, Apply: capture(batchKeywordRe)},
		{ID: "batch-prefix", Field: types.FieldBatch, Scope: ScopeCombined, Weight: 0.75, Apply: capture(batchPrefixRe)},

		{ID: "drive-type-hints", Field: types.FieldDriveType, Scope: ScopeCombined, Weight: 0.7, Apply: detectDriveType},

		{ID: "deadline-keyword", Field: types.FieldDeadline, Scope: ScopeBody, Section: segment.Dates, Weight: 0.85, Apply: func(text string) (string, bool) {
			return keywordDate(text, deadlineKeywordsRe)
		}},
		{ID: "deadline-first-date", Field: types.FieldDeadline, Scope: ScopeBody, Section: segment.Dates, Weight: 0.4, Apply: func(text string) (string, bool) {
			dates := findDates(text)
			if len(dates) == 0 {
				return "", false
			}
			return dates[0].iso, true
		}},
		{ID: "drive-date-keyword", Field: types.FieldDriveDate, Scope: ScopeBody, Section: segment.Dates, Weight: 0.8, Apply: func(text string) (string, bool) {
			return keywordDate(text, driveDateKeywordsRe)
		}},

		{ID: "cgpa-min", Field: types.FieldMinCGPA, Scope: ScopeBody, Section: segment.Eligibility, Weight: 0.85, Apply: capture(cgpaMinRe)},
		{ID: "cgpa-prefix", Field: types.FieldMinCGPA, Scope: ScopeBody, Section: segment.Eligibility, Weight: 0.8, Apply: capture(cgpaRe)},

		{ID: "ctc-prefix", Field: types.FieldCTC, Scope: ScopeBody, Section: segment.General, Weight: 0.8, Apply: capture(ctcPrefixRe)},
		{ID: "ctc-stipend", Field: types.FieldCTC, Scope: ScopeBody, Section: segment.General, Weight: 0.7, Apply: capture(stipendRe)},
		{ID: "ctc-bare", Field: types.FieldCTC, Scope: ScopeBody, Section: segment.General, Weight: 0.6, Apply: findCompensation},

		{ID: "branches-eligibility", Field: types.FieldBranches, Scope: ScopeBody, Section: segment.Eligibility, Weight: 0.75, Apply: collectBranches},

		{ID: "location-prefix", Field: types.FieldLocation, Scope: ScopeBody, Section: segment.General, Weight: 0.75, Apply: capture(locationPrefixRe)},
		{ID: "location-city", Field: types.FieldLocation, Scope: ScopeBody, Section: segment.General, Weight: 0.6, Apply: findCity},
		{ID: "location-remote", Field: types.FieldLocation, Scope: ScopeBody, Section: segment.General, Weight: 0.6, Apply: func(text string) (string, bool) {
			if remoteRe.MatchString(text) {
				return "Remote", true
			}
			return "", false
		}},

		{ID: "link-registration", Field: types.FieldLink, Scope: ScopeBody, Section: segment.General, Weight: 0.8, Apply: registrationLink},
	}
}
