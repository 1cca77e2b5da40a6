package ignore

// DefaultPatterns are always applied before any project-local patterns.
var DefaultPatterns = []string{
	// version control
	".git*",
	".svn*",
	".hg*",

	// node
	"node_modules*",
	"npm-debug.log*",
	"yarn-debug.log*",
	"yarn-error.log*",
	"package-lock.json",
	"yarn.lock",
	"jspm_packages*",
	"bower_components*",

	// python
	"__pycache__*",
	"*.py[cod]",
	"*.so",
	".Python",
	"build*",
	"develop-eggs*",
	"dist*",
	"downloads*",
	"eggs*",
	".eggs*",
	"lib*",
	"lib64*",
	"parts*",
	"sdist*",
	"var*",
	"wheels*",
	"*.egg-info*",
	".installed.cfg",
	"*.egg",
	"venv*",
	"ENV*",
	"pip-log.txt",
	"pip-delete-this-directory.txt",
	"Pipfile.lock",

	// ruby
	"Gemfile.lock",

	// jvm
	"*.class",
	"*.jar",
	"*.war",
	"*.nar",
	"*.ear",
	"hs_err_pid*",
	".gradle*",
	"target*",
	"pom.xml.tag",
	"pom.xml.releaseBackup",
	"pom.xml.versionsBackup",
	"pom.xml.next",
	"release.properties",
	"dependency-reduced-pom.xml",
	"buildNumber.properties",
	".mvn/timing.properties",

	// archives
	"*.zip",
	"*.tar.gz",
	"*.rar",

	// editors
	".idea*",
	".vscode*",
	"*.swp",
	"*.swo",
	"*~",
	"*.sublime-workspace",

	// OS
	".DS_Store",
	".DS_Store?",
	"._*",
	".Spotlight-V100",
	".Trashes",
	"ehthumbs.db",
	"Thumbs.db",

	// logs and output
	"logs*",
	"*.log",
	"out*",
	"coverage*",
	".nyc_output*",
	".grunt*",

	// secrets
	".env*",
	"*.pem",
	"*.key",
	"*.crt",

	"docker-compose.override.yml",

	// scratch files
	"*.bak",
	"*.tmp",
	"*.temp",
	"*.cache",
	"*.patch",
	"*.diff",
	"*.orig",

	// framework build dirs
	".next*",
	".nuxt*",
	".netlify*",
	".serverless*",
	".fusebox*",
	".dynamodb*",
	".tern-port",

	// office lock files
	"~$*",
}
