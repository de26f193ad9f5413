package profile

import "regexp"

// rolePattern is one first-person role-declaration matcher. Detection is
// data, not control flow: each entry names its capture group and shares
// the same cleanup/validity filtering, so patterns can be swapped without
// touching the tally logic.
type rolePattern struct {
	Pattern *regexp.Regexp
	Group   int
}

var rolePatterns = []rolePattern{
	{regexp.MustCompile(`(?i)\bi'?m an? ([a-zA-Z][a-zA-Z /&+-]{1,60})`), 1},
	{regexp.MustCompile(`(?i)\bi am an? ([a-zA-Z][a-zA-Z /&+-]{1,60})`), 1},
	{regexp.MustCompile(`(?i)\bi work as an? ([a-zA-Z][a-zA-Z /&+-]{1,60})`), 1},
	{regexp.MustCompile(`(?i)\bmy role is (?:an? )?([a-zA-Z][a-zA-Z /&+-]{1,60})`), 1},
	{regexp.MustCompile(`(?i)\bmy job is (?:an? )?([a-zA-Z][a-zA-Z /&+-]{1,60})`), 1},
}

// roleCutoffs truncate a captured phrase at the first connective so
// "backend engineer and i need help" tallies as "backend engineer".
var roleCutoffs = []string{" and ", " but ", " who ", " so ", " that ", " with ", " working "}

const (
	minRoleLength = 3
	maxRoleLength = 49
)

// Expertise display categories.
const (
	CategoryLanguages  = "Languages"
	CategoryFrameworks = "Frameworks"
	CategoryDataML     = "Data & ML"
	CategoryDatabases  = "Databases"
	CategoryDevOps     = "DevOps & Cloud"
	CategoryTools      = "Tools"
)

// techKeyword is one entry in the fixed technology dictionary: the
// whole-word token counted in user text, its display name, and its
// display category.
type techKeyword struct {
	Keyword  string
	Name     string
	Category string
}

var techKeywords = []techKeyword{
	// Languages
	{"python", "Python", CategoryLanguages},
	{"javascript", "JavaScript", CategoryLanguages},
	{"typescript", "TypeScript", CategoryLanguages},
	{"java", "Java", CategoryLanguages},
	{"golang", "Go", CategoryLanguages},
	{"rust", "Rust", CategoryLanguages},
	{"ruby", "Ruby", CategoryLanguages},
	{"php", "PHP", CategoryLanguages},
	{"swift", "Swift", CategoryLanguages},
	{"kotlin", "Kotlin", CategoryLanguages},
	{"scala", "Scala", CategoryLanguages},
	{"haskell", "Haskell", CategoryLanguages},
	{"elixir", "Elixir", CategoryLanguages},
	{"clojure", "Clojure", CategoryLanguages},
	{"dart", "Dart", CategoryLanguages},
	{"lua", "Lua", CategoryLanguages},
	{"perl", "Perl", CategoryLanguages},
	{"sql", "SQL", CategoryLanguages},
	{"html", "HTML", CategoryLanguages},
	{"css", "CSS", CategoryLanguages},
	{"bash", "Bash", CategoryLanguages},
	{"powershell", "PowerShell", CategoryLanguages},
	// Frameworks
	{"react", "React", CategoryFrameworks},
	{"angular", "Angular", CategoryFrameworks},
	{"vue", "Vue", CategoryFrameworks},
	{"svelte", "Svelte", CategoryFrameworks},
	{"nextjs", "Next.js", CategoryFrameworks},
	{"django", "Django", CategoryFrameworks},
	{"flask", "Flask", CategoryFrameworks},
	{"fastapi", "FastAPI", CategoryFrameworks},
	{"rails", "Rails", CategoryFrameworks},
	{"laravel", "Laravel", CategoryFrameworks},
	{"spring", "Spring", CategoryFrameworks},
	{"express", "Express", CategoryFrameworks},
	{"flutter", "Flutter", CategoryFrameworks},
	{"electron", "Electron", CategoryFrameworks},
	{"tailwind", "Tailwind", CategoryFrameworks},
	{"nodejs", "Node.js", CategoryFrameworks},
	// Data & ML
	{"numpy", "NumPy", CategoryDataML},
	{"pandas", "pandas", CategoryDataML},
	{"pytorch", "PyTorch", CategoryDataML},
	{"tensorflow", "TensorFlow", CategoryDataML},
	{"keras", "Keras", CategoryDataML},
	{"sklearn", "scikit-learn", CategoryDataML},
	{"jupyter", "Jupyter", CategoryDataML},
	{"spark", "Spark", CategoryDataML},
	{"kafka", "Kafka", CategoryDataML},
	{"airflow", "Airflow", CategoryDataML},
	{"matplotlib", "Matplotlib", CategoryDataML},
	// Databases
	{"postgres", "PostgreSQL", CategoryDatabases},
	{"postgresql", "PostgreSQL", CategoryDatabases},
	{"mysql", "MySQL", CategoryDatabases},
	{"sqlite", "SQLite", CategoryDatabases},
	{"mongodb", "MongoDB", CategoryDatabases},
	{"redis", "Redis", CategoryDatabases},
	{"elasticsearch", "Elasticsearch", CategoryDatabases},
	{"dynamodb", "DynamoDB", CategoryDatabases},
	{"cassandra", "Cassandra", CategoryDatabases},
	{"supabase", "Supabase", CategoryDatabases},
	{"firebase", "Firebase", CategoryDatabases},
	// DevOps & Cloud
	{"docker", "Docker", CategoryDevOps},
	{"kubernetes", "Kubernetes", CategoryDevOps},
	{"terraform", "Terraform", CategoryDevOps},
	{"ansible", "Ansible", CategoryDevOps},
	{"jenkins", "Jenkins", CategoryDevOps},
	{"aws", "AWS", CategoryDevOps},
	{"azure", "Azure", CategoryDevOps},
	{"gcp", "GCP", CategoryDevOps},
	{"linux", "Linux", CategoryDevOps},
	{"nginx", "nginx", CategoryDevOps},
	{"heroku", "Heroku", CategoryDevOps},
	{"vercel", "Vercel", CategoryDevOps},
	// Tools
	{"git", "Git", CategoryTools},
	{"github", "GitHub", CategoryTools},
	{"gitlab", "GitLab", CategoryTools},
	{"vscode", "VS Code", CategoryTools},
	{"vim", "Vim", CategoryTools},
	{"emacs", "Emacs", CategoryTools},
	{"figma", "Figma", CategoryTools},
	{"excel", "Excel", CategoryTools},
	{"notion", "Notion", CategoryTools},
	{"obsidian", "Obsidian", CategoryTools},
	{"postman", "Postman", CategoryTools},
}

// techMatchers are the compiled whole-word matchers for techKeywords,
// index-aligned.
var techMatchers = func() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(techKeywords))
	for i, tk := range techKeywords {
		out[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(tk.Keyword) + `\b`)
	}
	return out
}()

// imperativeVerbs open action-oriented requests. A corpus where most
// messages start with one of these reads as "specific and
// action-oriented" rather than exploratory.
var imperativeVerbs = map[string]struct{}{
	"write": {}, "create": {}, "make": {}, "build": {}, "fix": {},
	"add": {}, "implement": {}, "generate": {}, "convert": {},
	"refactor": {}, "update": {}, "remove": {}, "delete": {},
	"translate": {}, "summarize": {}, "list": {}, "give": {},
	"show": {}, "find": {}, "debug": {}, "optimize": {}, "rewrite": {},
	"explain": {}, "draft": {}, "review": {},
}

var (
	codeFencePattern = regexp.MustCompile("```")
	codeTokenPattern = regexp.MustCompile(`\bdef |\bfunction `)
	markdownPattern  = regexp.MustCompile(`(?m)^#{1,6} |^[-*] |\*\*[^*]+\*\*`)
	firstWordPattern = regexp.MustCompile(`^\s*([a-zA-Z]+)`)
)
