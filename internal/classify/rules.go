package classify

import "regexp"

// Rule is one (pattern, label) pair in an ordered dispatch list. Order is a
// behavioral contract: the first matching rule wins, so narrower rules must
// precede generic ones.
type Rule struct {
	Pattern *regexp.Regexp
	Label   string
}

// TagRule maps a pattern to the set of subtopic tags it contributes.
type TagRule struct {
	Pattern *regexp.Regexp
	Tags    []string
}

// DefaultIntent is returned when no intent rule matches.
const DefaultIntent = "brainstorm"

// TopicMisc is the unclassified topic label; auto-carve only looks at
// records still carrying it after classification.
const TopicMisc = "Misc"

// IntentRules classify the author's prompt intent. Evaluated in order.
var IntentRules = []Rule{
	{regexp.MustCompile(`\?\s*$`), "question"},
	{regexp.MustCompile(`(?i)^can you|^could you|^please|^help\b`), "request"},
	{regexp.MustCompile(`(?i)remember|memory|store|synthesi|tier|schema`), "meta"},
	{regexp.MustCompile(`(?i)design|architect|schema|build|implement|ETL|pipeline`), "design"},
	{regexp.MustCompile(`(?i)decide|decision|choose|pick|approve|consent`), "decision"},
}

// TopicRules assign the primary topic. Evaluated in order; specific buckets
// (space-history keywords, appliance terms) sit above the generic ones they
// would otherwise lose to.
var TopicRules = []Rule{
	{regexp.MustCompile(`(?i)privacy|dashboard|export|copilot|history`), "Copilot history"},
	{regexp.MustCompile(`(?i)memory|remember|echo chamber`), "Memory feature"},
	{regexp.MustCompile(`(?i)grand strategy|paradox|europa|cooperation|patience|zero-sum|openness|consistency`), "AI strategy & games"},
	{regexp.MustCompile(`(?i)modern slavery|slavery act|debt bondage|domestic servitude`), "Modern slavery Q&A"},
	{regexp.MustCompile(`(?i)napoleon|malta|french revolution|roma|sinti|apollo|challenger|roosevelt|thanksgiving`), "History threads"},
	{regexp.MustCompile(`(?i)dishwasher|rinse aid|salt|siemens`), "Dishwasher tips"},
	{regexp.MustCompile(`(?i)sisal|flax|vlas|manila|flask`), "Materials & outdoor"},
	{regexp.MustCompile(`(?i)android|root|safetynet|play integrity|termux|docker|podman`), "Android dev & security"},
	{regexp.MustCompile(`(?i)gpl|license|rijnsburg`), "Licensing philosophy"},
	{regexp.MustCompile(`(?i)\bdbt\b|bytes?|gigabyte|log\(|logging|data (?:engineering|pipeline)`), "Data engineering & logging"},
	{regexp.MustCompile(`(?i)Downton Abbey|Bob Marley|actor|series|show|movie`), "Culture & media"},
	{regexp.MustCompile(`(?i)murder|ethics|morals?|allowed|not allowed`), "Ethics & policy"},
}

// SubtagRules contribute subtopic tags; every matching rule fires and the
// union is kept.
var SubtagRules = []TagRule{
	{regexp.MustCompile(`(?i)privacy dashboard|apps and services activity`), []string{"privacy-dashboard"}},
	{regexp.MustCompile(`(?i)excel|csv|export`), []string{"export", "csv"}},
	{regexp.MustCompile(`(?i)patience|cooperation|openness|consistency`), []string{"patience", "cooperation", "openness", "consistency"}},
	{regexp.MustCompile(`(?i)modern slavery act|document retention`), []string{"msa2015", "doc-retention"}},
	{regexp.MustCompile(`(?i)malta|napoleon|duchy of warsaw|tsar paul`), []string{"malta", "napoleon", "poland"}},
	{regexp.MustCompile(`(?i)root|safetynet|play integrity|termux|docker|podman`), []string{"root", "integrity", "termux", "containers"}},
}

// EntityRules extract named entities; every matching rule fires.
var EntityRules = []Rule{
	{regexp.MustCompile(`(?i)Microsoft Privacy Dashboard|Privacy Dashboard`), "Microsoft Privacy Dashboard"},
	{regexp.MustCompile(`(?i)Modern Slavery Act 2015`), "Modern Slavery Act 2015"},
	{regexp.MustCompile(`(?i)Play Integrity API|SafetyNet`), "Play Integrity API"},
	{regexp.MustCompile(`(?i)Termux`), "Termux"},
	{regexp.MustCompile(`(?i)VOC|Dutch East India Company`), "VOC"},
}

// MemoryRule decides memory_candidate and priority from (topic, role).
// Evaluated in order; the first matching rule wins.
type MemoryRule struct {
	TopicContains []string // lowercase substrings, any match
	Role          string   // "" matches any role
	Candidate     bool
	Priority      int
}

// MemoryRules encode which topics are memory-worthy. Priority 1 is highest.
var MemoryRules = []MemoryRule{
	{TopicContains: []string{"copilot history", "memory feature", "ai strategy"}, Role: "user", Candidate: true, Priority: 1},
	{TopicContains: []string{"android dev", "licensing"}, Candidate: true, Priority: 2},
}

// DefaultPriority is the catch-all priority for non-memory-candidate records.
const DefaultPriority = 3
