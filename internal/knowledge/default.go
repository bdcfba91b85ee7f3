package knowledge

// DefaultRoleName is the role reported for text that matches no keyword.
const DefaultRoleName = "Software Engineer"

var defaultRoles = []Role{
	{
		Name:        "Full Stack Developer",
		Keywords:    []string{"react", "node", "express", "mongodb", "full stack", "javascript", "typescript", "aws"},
		Demand:      DemandVeryHigh,
		SalaryRange: "$120k - $160k",
	},
	{
		Name:        "Frontend Developer",
		Keywords:    []string{"react", "vue", "angular", "css", "html", "javascript", "redux", "tailwind"},
		Demand:      DemandHigh,
		SalaryRange: "$90k - $130k",
	},
	{
		Name:        "Backend Developer",
		Keywords:    []string{"node", "python", "java", "spring", "django", "sql", "database", "api"},
		Demand:      DemandHigh,
		SalaryRange: "$100k - $145k",
	},
	{
		Name:        "Data Scientist",
		Keywords:    []string{"python", "pandas", "numpy", "machine learning", "ai", "pytorch", "tensorflow", "sql"},
		Demand:      DemandVeryHigh,
		SalaryRange: "$130k - $170k",
	},
	{
		Name:        "DevOps Engineer",
		Keywords:    []string{"docker", "kubernetes", "aws", "ci/cd", "jenkins", "linux", "cloud"},
		Demand:      DemandHigh,
		SalaryRange: "$115k - $155k",
	},
	{
		Name:        DefaultRoleName,
		Keywords:    []string{"c++", "java", "python", "algorithm", "data structures", "system design"},
		Demand:      DemandModerate,
		SalaryRange: "$110k - $150k",
	},
}

var defaultSkills = []string{
	"javascript", "python", "java", "c++", "react", "node.js", "express", "mongodb", "sql",
	"html", "css", "git", "docker", "kubernetes", "aws", "azure", "typescript", "go", "rust",
	"machine learning", "communication", "leadership", "teamwork",
}

// Default returns the built-in knowledge base.
func Default() *Base {
	b, err := New(defaultRoles, defaultSkills, DefaultRoleName)
	if err != nil {
		panic("knowledge: invalid built-in data: " + err.Error())
	}
	return b
}
