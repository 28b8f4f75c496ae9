package cfg

type Cfg struct {
	// Database configuration
	DBPath string

	// OpenAI-compatible extraction endpoint
	OpenAIKey     string
	OpenAIModel   string
	OpenAIBaseUrl string

	// Application configuration
	FeedsDir        string
	Port            string
	BaseUrl         string
	APIAccessKey    string
	FetchTimeout    int
	DefaultCacheAge int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
